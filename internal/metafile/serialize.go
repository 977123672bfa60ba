package metafile

import (
	"strings"

	"zxmeta/internal/record"
)

// Header keys written by the Pegasus generator.
const (
	HeaderCollection = "collection"
	HeaderShortName  = "shortname"
	HeaderCommand    = "command"
)

// DefaultHeader returns the header a fresh document is written with.
func DefaultHeader(collection, shortName, launch string) Header {
	return Header{
		{Key: HeaderCollection, Value: collection},
		{Key: HeaderShortName, Value: shortName},
		{Key: HeaderCommand, Value: launch},
	}
}

// BuildHeader renders the header block. Values already present in existing win
// over defaults so customizations survive a re-save; default keys that existing
// lacks are appended in default order.
func BuildHeader(existing, defaults Header) string {
	merged := make(Header, 0, len(existing)+len(defaults))
	seen := make(map[string]struct{}, len(existing))
	for _, f := range existing {
		if _, dup := seen[f.Key]; dup {
			continue
		}
		seen[f.Key] = struct{}{}
		if f.Value == "" {
			if def, ok := defaults.Get(f.Key); ok {
				f.Value = def
			}
		}
		merged = append(merged, f)
	}
	for _, f := range defaults {
		if _, ok := seen[f.Key]; !ok {
			merged = append(merged, f)
		}
	}

	var b strings.Builder
	for i, f := range merged {
		if i > 0 {
			b.WriteByte('\n')
		}
		lines := nonEmptyLines(f.Value)
		b.WriteString(f.Key)
		b.WriteByte(':')
		if len(lines) > 0 {
			b.WriteByte(' ')
			b.WriteString(lines[0])
		}
		for _, l := range lines[min(1, len(lines)):] {
			b.WriteString("\n  ")
			b.WriteString(l)
		}
	}
	return b.String()
}

// BuildEntry renders one record in fixed field order. Empty optional fields
// are omitted; the x-source trailer is always the final line.
//
// With decodeText set, narrative fields are written as readable indented lines
// and blank lines become "  ."; otherwise they are percent-encoded onto a
// single line. Asset fields carry the local file when one was materialized,
// with the remote origin kept under x-remote.
func BuildEntry(rec record.Record, decodeText bool) string {
	var b strings.Builder
	w := entryWriter{b: &b}

	w.scalar(FieldGame, rec.Title)
	w.scalar(FieldFile, rec.File)
	w.list(FieldDevelopers, rec.Developers)
	w.list(FieldPublishers, rec.Publishers)
	w.scalar(FieldGenre, rec.Genre)
	w.scalar(FieldPlayers, rec.Players)
	w.scalar(FieldRelease, rec.Release)
	w.scalar(FieldRating, rec.Rating)
	w.text(FieldSummary, rec.Summary, decodeText)
	w.text(FieldDescription, rec.Description, decodeText)
	assetKeys := [...]string{FieldTitleScreen, FieldScreenshot, FieldBoxFront}
	remoteKeys := [...]string{FieldRemoteTitle, FieldRemoteShot, FieldRemoteBox}
	for _, slot := range record.Slots {
		w.scalar(assetKeys[slot], rec.Asset(slot).Ref())
	}
	for _, slot := range record.Slots {
		if a := rec.Asset(slot); a.Local != "" {
			w.scalar(remoteKeys[slot], a.Remote)
		}
	}
	w.scalar(FieldHash, rec.Hash)
	w.list(FieldLinks, rec.SourceLinks)

	tag := rec.SourceTag
	if tag == "" {
		tag = DefaultSourceTag
	}
	w.line(FieldSource + ": " + singleLine(tag))
	return b.String()
}

type entryWriter struct {
	b *strings.Builder
}

func (w entryWriter) line(s string) {
	if w.b.Len() > 0 {
		w.b.WriteByte('\n')
	}
	w.b.WriteString(s)
}

func (w entryWriter) scalar(key, value string) {
	value = singleLine(value)
	if value == "" {
		return
	}
	w.line(key + ": " + value)
}

func (w entryWriter) list(key string, values []string) {
	items := make([]string, 0, len(values))
	for _, v := range values {
		if v = singleLine(v); v != "" {
			items = append(items, v)
		}
	}
	if len(items) == 0 {
		return
	}
	w.line(key + ":")
	for _, v := range items {
		w.line("  " + v)
	}
}

func (w entryWriter) text(key, value string, decode bool) {
	value = strings.ReplaceAll(value, "\r\n", "\n")
	if strings.TrimSpace(value) == "" {
		return
	}
	if !decode {
		w.line(key + ": " + record.EncodeText(value))
		return
	}
	lines := strings.Split(value, "\n")
	if len(lines) == 1 {
		v := strings.TrimSpace(lines[0])
		if isBareToken(v) && strings.Contains(v, "%") {
			v = record.EncodeText(v)
		}
		w.line(key + ": " + v)
		return
	}
	w.line(key + ":")
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		switch {
		case l == "":
			w.line("  " + blankMarker)
		case isDotRun(strings.TrimSpace(l)):
			w.line("  " + strings.TrimSpace(l) + ".")
		default:
			w.line("  " + l)
		}
	}
}

// blankMarker stands for an empty line inside folded narrative text. A line
// made only of dots is written with one extra dot so it never reads back as
// the marker.
const blankMarker = "."

func isDotRun(s string) bool {
	return s != "" && strings.Trim(s, ".") == ""
}

// isBareToken reports whether s is a single word, the shape the parser treats
// as possibly percent-encoded.
func isBareToken(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t")
}

func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Serialize renders a Pegasus document: header, blank line, then entries
// separated by blank lines.
func Serialize(doc *Document, defaults Header, decodeText bool) []byte {
	var b strings.Builder
	var existing Header
	var entries []record.Record
	if doc != nil {
		existing = doc.Header
		entries = doc.Entries
	}
	b.WriteString(BuildHeader(existing, defaults))
	b.WriteString("\n")
	for _, rec := range entries {
		b.WriteString("\n")
		b.WriteString(BuildEntry(rec, decodeText))
		b.WriteString("\n")
	}
	return []byte(b.String())
}
