package record

import (
	"net/url"
	"strings"

	"zxmeta/internal/hashcache"
)

const (
	keyGame        = "game"
	keyFile        = "file"
	keyRating      = "rating"
	keyRelease     = "release"
	keyDevelopers  = "developers"
	keyPublishers  = "publishers"
	keyGenre       = "genre"
	keyPlayers     = "players"
	keySummary     = "summary"
	keyDescription = "description"
	keyHash        = "x-hash"
	keyLinks       = "x-links"
	keySource      = "x-source"
	localSuffix    = ".local"
)

// CacheEntry converts the record into the flat form stored by the hash cache.
// Narrative text is percent-encoded so embedded newlines survive the
// line-oriented format.
func (r Record) CacheEntry() hashcache.Entry {
	var e hashcache.Entry
	e.Set(keyGame, r.Title)
	e.Set(keyFile, r.File)
	e.Set(keyRating, r.Rating)
	e.Set(keyRelease, r.Release)
	e.Set(keyDevelopers, encodeList(r.Developers))
	e.Set(keyPublishers, encodeList(r.Publishers))
	e.Set(keyGenre, r.Genre)
	e.Set(keyPlayers, r.Players)
	e.Set(keySummary, EncodeText(r.Summary))
	e.Set(keyDescription, EncodeText(r.Description))
	for _, slot := range Slots {
		e.Set(slot.Key(), r.Assets[slot].Remote)
		e.Set(slot.Key()+localSuffix, r.Assets[slot].Local)
	}
	e.Set(keyHash, r.Hash)
	e.Set(keyLinks, strings.Join(r.SourceLinks, " "))
	e.Set(keySource, r.SourceTag)
	return e
}

// FromCacheEntry rebuilds a record from a cache entry.
func FromCacheEntry(e hashcache.Entry) Record {
	r := Record{
		Title:       e.Get(keyGame),
		File:        e.Get(keyFile),
		Rating:      e.Get(keyRating),
		Release:     e.Get(keyRelease),
		Developers:  decodeList(e.Get(keyDevelopers)),
		Publishers:  decodeList(e.Get(keyPublishers)),
		Genre:       e.Get(keyGenre),
		Players:     e.Get(keyPlayers),
		Summary:     DecodeText(e.Get(keySummary)),
		Description: DecodeText(e.Get(keyDescription)),
		Hash:        e.Get(keyHash),
		SourceLinks: strings.Fields(e.Get(keyLinks)),
		SourceTag:   e.Get(keySource),
	}
	for _, slot := range Slots {
		r.Assets[slot] = Asset{
			Remote: e.Get(slot.Key()),
			Local:  e.Get(slot.Key() + localSuffix),
		}
	}
	return r
}

// listEscaper protects the separator inside list elements. Escapes use
// percent form so DecodeText reverses them.
var listEscaper = strings.NewReplacer("%", "%25", ",", "%2C")

// encodeList joins values with ", ", escaping commas inside each element.
func encodeList(values []string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, listEscaper.Replace(v))
		}
	}
	return strings.Join(parts, ", ")
}

// decodeList splits a list written by encodeList, dropping empty elements.
func decodeList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = DecodeText(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// EncodeText percent-encodes narrative text for single-line storage.
func EncodeText(s string) string {
	if s == "" {
		return ""
	}
	return url.PathEscape(s)
}

// DecodeText reverses EncodeText. Values that are not valid percent-encoding
// are returned unchanged.
func DecodeText(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
