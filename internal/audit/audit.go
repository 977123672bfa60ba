package audit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"zxmeta/internal/fileutil"
	"zxmeta/internal/hashcache"
	"zxmeta/internal/logging"
	"zxmeta/internal/metafile"
	"zxmeta/internal/record"
)

// Prompt lists the accepted answers.
const Prompt = "(k)eep, (t)itle screen as cover, (s)creenshot as cover, (r)emove cover, (q)uit? "

// Action is the decision for one cover.
type Action int

const (
	ActionKeep Action = iota
	ActionTitleScreen
	ActionScreenshot
	ActionRemove
	ActionQuit
)

// ParseAction maps an answer to an action. Only the first letter counts.
func ParseAction(answer string) (Action, bool) {
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer == "" {
		return ActionKeep, false
	}
	switch answer[0] {
	case 'k':
		return ActionKeep, true
	case 't':
		return ActionTitleScreen, true
	case 's':
		return ActionScreenshot, true
	case 'r':
		return ActionRemove, true
	case 'q':
		return ActionQuit, true
	default:
		return ActionKeep, false
	}
}

// CacheStore persists updated records.
type CacheStore interface {
	Save(entry hashcache.Entry, gamePath, hash string) error
}

// Options configures an Auditor.
type Options struct {
	In     io.Reader
	Out    io.Writer
	Cache  CacheStore
	Logger *slog.Logger
}

// Summary counts what a review changed.
type Summary struct {
	Reviewed int
	Replaced int
	Removed  int
	Quit     bool
}

// Changed reports whether the document needs saving.
func (s Summary) Changed() bool {
	return s.Replaced+s.Removed > 0
}

// Auditor walks a document asking about each cover.
type Auditor struct {
	in     *bufio.Reader
	out    io.Writer
	cache  CacheStore
	logger *slog.Logger
}

// New returns an auditor reading answers from opts.In.
func New(opts Options) *Auditor {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	return &Auditor{
		in:     bufio.NewReader(opts.In),
		out:    out,
		cache:  opts.Cache,
		logger: logging.NewComponentLogger(opts.Logger, "audit"),
	}
}

// Run reviews every entry of doc that has a local cover file, updating doc in
// place. End of input stops the review like an explicit quit.
func (a *Auditor) Run(ctx context.Context, doc *metafile.Document) (Summary, error) {
	var summary Summary
	if doc == nil {
		return summary, nil
	}
	candidates := reviewable(doc)
	for n, i := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		rec := &doc.Entries[i]
		a.show(n+1, len(candidates), *rec)

		action, err := a.ask(*rec)
		if err != nil {
			return summary, err
		}
		if action == ActionQuit {
			summary.Quit = true
			return summary, nil
		}
		summary.Reviewed++
		if action == ActionKeep {
			continue
		}
		if err := apply(rec, action); err != nil {
			return summary, fmt.Errorf("update cover for %s: %w", rec.Title, err)
		}
		if action == ActionRemove {
			summary.Removed++
		} else {
			summary.Replaced++
		}
		a.saveCache(*rec)
	}
	return summary, nil
}

func reviewable(doc *metafile.Document) []int {
	var out []int
	for i, rec := range doc.Entries {
		if local := rec.Asset(record.SlotBoxFront).Local; local != "" && fileExists(local) {
			out = append(out, i)
		}
	}
	return out
}

func (a *Auditor) show(n, total int, rec record.Record) {
	fmt.Fprintf(a.out, "\n[%d/%d] %s\n", n, total, rec.Title)
	fmt.Fprintf(a.out, "  cover:        %s\n", rec.Asset(record.SlotBoxFront).Local)
	fmt.Fprintf(a.out, "  title screen: %s\n", orNone(rec.Asset(record.SlotTitleScreen).Local))
	fmt.Fprintf(a.out, "  screenshot:   %s\n", orNone(rec.Asset(record.SlotScreenshot).Local))
}

// ask prompts until a usable answer arrives.
func (a *Auditor) ask(rec record.Record) (Action, error) {
	for {
		fmt.Fprint(a.out, Prompt)
		line, err := a.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return ActionQuit, fmt.Errorf("read answer: %w", err)
		}
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) == "" {
			fmt.Fprintln(a.out)
			return ActionQuit, nil
		}
		action, ok := ParseAction(line)
		if !ok {
			fmt.Fprintf(a.out, "unrecognized answer %q\n", strings.TrimSpace(line))
			continue
		}
		if slot, needs := sourceSlot(action); needs && !fileExists(rec.Asset(slot).Local) {
			fmt.Fprintf(a.out, "no local %s for this game\n", slot)
			continue
		}
		return action, nil
	}
}

func (a *Auditor) saveCache(rec record.Record) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Save(rec.CacheEntry(), rec.File, rec.Hash); err != nil {
		logging.WarnWithContext(a.logger, "cache entry not updated", "cache_save_failed",
			logging.String(logging.FieldGamePath, rec.File),
			logging.String(logging.FieldHash, rec.Hash),
			logging.Error(err),
			logging.String(logging.FieldImpact, "next generate run may restore the previous cover"))
	}
}

// apply changes the cover of rec on disk and in the record.
func apply(rec *record.Record, action Action) error {
	cover := rec.Asset(record.SlotBoxFront)
	if action == ActionRemove {
		if err := os.Remove(cover.Local); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		rec.SetAsset(record.SlotBoxFront, record.Asset{})
		return nil
	}
	slot, _ := sourceSlot(action)
	src := rec.Asset(slot)
	stem := strings.TrimSuffix(filepath.Base(cover.Local), filepath.Ext(cover.Local))
	dst := filepath.Join(filepath.Dir(cover.Local), stem+filepath.Ext(src.Local))
	if err := fileutil.CopyFile(src.Local, dst); err != nil {
		return err
	}
	if dst != cover.Local {
		if err := os.Remove(cover.Local); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	rec.SetAsset(record.SlotBoxFront, record.Asset{Remote: src.Remote, Local: dst})
	return nil
}

func sourceSlot(action Action) (record.Slot, bool) {
	switch action {
	case ActionTitleScreen:
		return record.SlotTitleScreen, true
	case ActionScreenshot:
		return record.SlotScreenshot, true
	default:
		return 0, false
	}
}

func orNone(path string) string {
	if path == "" {
		return "(none)"
	}
	return path
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
