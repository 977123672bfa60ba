package metafile

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"zxmeta/internal/record"
)

// HeaderField is one key of the document header. Value holds unfolded text;
// multi-line values are joined with "\n".
type HeaderField struct {
	Key   string
	Value string
}

// Header is the order-preserving collection block at the top of a document.
type Header []HeaderField

// Get returns the value stored for key.
func (h Header) Get(key string) (string, bool) {
	for _, f := range h {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// RawField is one entry key with its folded raw value.
type RawField struct {
	Key   string
	Value string
}

// RawEntry is an entry as read from disk, before decoding into a record.
type RawEntry []RawField

// Get returns the folded raw value for key.
func (e RawEntry) Get(key string) (string, bool) {
	if i := e.index(key); i >= 0 {
		return e[i].Value, true
	}
	return "", false
}

func (e RawEntry) index(key string) int {
	for i, f := range e {
		if f.Key == key {
			return i
		}
	}
	return -1
}

// Document is a parsed front-end metadata file.
type Document struct {
	Header  Header
	Entries []record.Record
}

// Index returns the entries keyed by hash. Entries without a hash are skipped.
func (d *Document) Index() map[string]record.Record {
	if d == nil {
		return map[string]record.Record{}
	}
	out := make(map[string]record.Record, len(d.Entries))
	for _, e := range d.Entries {
		if e.Hash == "" {
			continue
		}
		if _, dup := out[e.Hash]; !dup {
			out[e.Hash] = e
		}
	}
	return out
}

// Parse reads a complete document.
func Parse(r io.Reader) (*Document, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	header, start := ParseHeader(lines)
	raw := ParseEntries(lines, start)
	doc := &Document{Header: header, Entries: make([]record.Record, 0, len(raw))}
	for _, e := range raw {
		doc.Entries = append(doc.Entries, DecodeEntry(e))
	}
	return doc, nil
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read metadata file: %w", err)
	}
	return lines, nil
}

// ParseHeader reads leading "key: value" lines until the first blank line and
// returns the header with the index of the first line after it. Lines indented
// by exactly two spaces followed by a non-space fold into the previous value.
// A "game" key ends the header early for documents that have none.
func ParseHeader(lines []string) (Header, int) {
	var header Header
	folded := make([]string, 0, 4)
	i := 0
	for ; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			i++
			break
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if isHeaderContinuation(line) {
			if len(header) > 0 {
				folded[len(header)-1] += line[2:] + Sentinel
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == FieldGame {
			break
		}
		header = append(header, HeaderField{Key: key, Value: strings.TrimSpace(value)})
		folded = append(folded, "")
	}
	for j := range header {
		header[j].Value = unfoldHeader(header[j].Value, folded[j])
	}
	return header, i
}

func isHeaderContinuation(line string) bool {
	return len(line) > 2 && line[0] == ' ' && line[1] == ' ' && line[2] != ' ' && line[2] != '\t'
}

func unfoldHeader(first, folded string) string {
	parts := make([]string, 0, 4)
	if first != "" {
		parts = append(parts, first)
	}
	for _, p := range strings.Split(folded, Sentinel) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}

type scanState int

const (
	stateBetween scanState = iota
	stateInField
)

// ParseEntries scans entries starting at lines[start].
//
// An entry ends at its x-source trailer. A second "game" key also starts a new
// entry so hand-written files without trailers still split correctly. Any line
// whose key is not in the schema, any indented line, and a blank line inside an
// open entry continue the current field; this lets prose containing colons or
// empty lines round-trip intact. A repeated list key extends the list; any
// other repeated key replaces the earlier value. A line starting with "#" in
// column 0 is a comment wherever it appears.
func ParseEntries(lines []string, start int) []RawEntry {
	var (
		entries []RawEntry
		current RawEntry
		field   = -1
		state   = stateBetween
	)
	flush := func() {
		if len(current) > 0 {
			entries = append(entries, current)
		}
		current = nil
		field = -1
		state = stateBetween
	}
	appendLine := func(text string) {
		current[field].Value += Sentinel + text
	}

	for _, line := range lines[min(start, len(lines)):] {
		if strings.TrimSpace(line) == "" {
			if state == stateInField {
				if spec, _ := LookupField(current[field].Key); spec.Kind == KindText {
					appendLine("")
				}
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			if state != stateInField {
				continue
			}
			appendLine(stripIndent(line))
			continue
		}

		key, value, hasColon := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		spec, known := LookupField(key)
		if !hasColon || !known {
			if state != stateInField {
				continue
			}
			appendLine(line)
			continue
		}

		if spec.Key == FieldGame {
			if _, seen := current.Get(FieldGame); seen {
				flush()
			}
		}
		value = strings.TrimSpace(value)
		if idx := current.index(spec.Key); idx >= 0 {
			field = idx
			if spec.Kind == KindList {
				appendLine(value)
			} else {
				current[idx].Value = value
			}
		} else {
			current = append(current, RawField{Key: spec.Key, Value: value})
			field = len(current) - 1
		}
		state = stateInField

		if spec.Kind == KindTrailer {
			flush()
		}
	}
	flush()
	return entries
}

func stripIndent(line string) string {
	if strings.HasPrefix(line, "  ") {
		return line[2:]
	}
	return strings.TrimLeft(line, " \t")
}

// splitFolded returns the first-line value followed by continuation lines.
func splitFolded(raw string) (string, []string) {
	parts := strings.Split(raw, Sentinel)
	return parts[0], parts[1:]
}

func decodeScalar(raw string) string {
	first, rest := splitFolded(raw)
	parts := make([]string, 0, len(rest)+1)
	if first != "" {
		parts = append(parts, first)
	}
	for _, r := range rest {
		if r = strings.TrimSpace(r); r != "" {
			parts = append(parts, r)
		}
	}
	return strings.Join(parts, " ")
}

func decodeList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, Sentinel) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func decodeText(raw string) string {
	first, rest := splitFolded(raw)
	if len(rest) == 0 {
		if isBareToken(first) && strings.Contains(first, "%") {
			return record.DecodeText(first)
		}
		return first
	}
	for len(rest) > 0 && strings.TrimSpace(rest[len(rest)-1]) == "" {
		rest = rest[:len(rest)-1]
	}
	lines := make([]string, 0, len(rest)+1)
	if first != "" {
		lines = append(lines, first)
	}
	for _, r := range rest {
		if t := strings.TrimSpace(r); isDotRun(t) {
			r = t[1:]
		}
		lines = append(lines, strings.TrimRight(r, " \t"))
	}
	return strings.Join(lines, "\n")
}

func isRemoteRef(ref string) bool {
	return strings.Contains(ref, "://")
}

// DecodeEntry converts a raw entry into a record.
func DecodeEntry(e RawEntry) record.Record {
	var r record.Record
	for _, f := range e {
		switch f.Key {
		case FieldGame:
			r.Title = decodeScalar(f.Value)
		case FieldFile:
			r.File = decodeScalar(f.Value)
		case FieldDevelopers:
			r.Developers = decodeList(f.Value)
		case FieldPublishers:
			r.Publishers = decodeList(f.Value)
		case FieldGenre:
			r.Genre = decodeScalar(f.Value)
		case FieldPlayers:
			r.Players = decodeScalar(f.Value)
		case FieldRelease:
			r.Release = decodeScalar(f.Value)
		case FieldRating:
			r.Rating = decodeScalar(f.Value)
		case FieldSummary:
			r.Summary = decodeText(f.Value)
		case FieldDescription:
			r.Description = decodeText(f.Value)
		case FieldTitleScreen, FieldScreenshot, FieldBoxFront:
			slot := assetSlot(f.Key)
			ref := decodeScalar(f.Value)
			a := r.Asset(slot)
			if isRemoteRef(ref) {
				a.Remote = ref
			} else {
				a.Local = ref
			}
			r.SetAsset(slot, a)
		case FieldRemoteTitle, FieldRemoteShot, FieldRemoteBox:
			slot := assetSlot(f.Key)
			a := r.Asset(slot)
			a.Remote = decodeScalar(f.Value)
			r.SetAsset(slot, a)
		case FieldHash:
			r.Hash = decodeScalar(f.Value)
		case FieldLinks:
			r.SourceLinks = decodeList(f.Value)
		case FieldSource:
			r.SourceTag = decodeScalar(f.Value)
		}
	}
	return r
}

func assetSlot(key string) record.Slot {
	switch key {
	case FieldTitleScreen, FieldRemoteTitle:
		return record.SlotTitleScreen
	case FieldScreenshot, FieldRemoteShot:
		return record.SlotScreenshot
	default:
		return record.SlotBoxFront
	}
}
