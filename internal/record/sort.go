package record

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// SortKey returns the comparison key for a title: a leading "The " article is
// ignored and letters are case-folded. The stored title is never altered.
func SortKey(title string) string {
	return sortKey(cases.Fold(), title)
}

func sortKey(folder cases.Caser, title string) string {
	t := strings.TrimSpace(title)
	if len(t) > 4 && strings.EqualFold(t[:4], "the ") {
		t = strings.TrimSpace(t[4:])
	}
	return folder.String(t)
}

// Sort orders records by title for serialization. Ties on the folded title
// fall back to the hash and then the file path so output is deterministic.
func Sort(records []Record) {
	folder := cases.Fold()
	keys := make(map[string]string, len(records))
	keyOf := func(title string) string {
		if k, ok := keys[title]; ok {
			return k
		}
		k := sortKey(folder, title)
		keys[title] = k
		return k
	}
	slices.SortStableFunc(records, func(a, b Record) int {
		return cmp.Or(
			strings.Compare(keyOf(a.Title), keyOf(b.Title)),
			strings.Compare(a.Hash, b.Hash),
			strings.Compare(a.File, b.File),
		)
	})
}

// UniqueByHash drops records whose hash was already seen, keeping the first.
// Records without a hash are kept.
func UniqueByHash(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	for _, rec := range records {
		if rec.Hash != "" {
			if _, dup := seen[rec.Hash]; dup {
				continue
			}
			seen[rec.Hash] = struct{}{}
		}
		out = append(out, rec)
	}
	return out
}
