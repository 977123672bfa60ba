package zxinfo

import (
	"net/url"
	"strconv"
	"strings"

	"zxmeta/internal/record"
)

// DefaultMediaBaseURL hosts screens referenced relative to the catalog.
const DefaultMediaBaseURL = "https://zxinfo.dk/media"

const (
	wosMirrorPrefix  = "https://ia600604.us.archive.org/view_archive.php?archive=/1/items/World_of_Spectrum_June_2017_Mirror/World of Spectrum June 2017 Mirror.zip&file=World of Spectrum June 2017 Mirror"
	spectrumComputer = "https://spectrumcomputing.co.uk"
)

// Screen and download types recognized when picking assets.
const (
	screenLoading = "loading screen"
	screenRunning = "running screen"
	inlayFront    = "inlay - front"
)

// Catalog converts an entry into a record for the game at path. Screen
// references are made absolute against mediaBase; an inlay cover is rewritten
// to its archive mirror when one is known.
func (g *Game) Catalog(path, hash, mediaBase string) record.Record {
	rec := record.Record{
		Title:      strings.TrimSpace(g.Title),
		Hash:       hash,
		File:       path,
		Genre:      strings.TrimSpace(g.Genre),
		Players:    strings.TrimSpace(g.NumberOfPlayers),
		Developers: g.developers(),
		Publishers: g.publishers(),
	}
	if g.Score != nil {
		rec.Rating = record.FormatRating(g.Score.Score)
	}
	if g.OriginalYearOfRelease > 0 {
		rec.Release = strconv.Itoa(g.OriginalYearOfRelease)
	}
	if ref := g.screen(screenLoading); ref != "" {
		rec.SetAsset(record.SlotTitleScreen, record.Asset{Remote: MediaURL(mediaBase, ref)})
	}
	if ref := g.screen(screenRunning); ref != "" {
		rec.SetAsset(record.SlotScreenshot, record.Asset{Remote: MediaURL(mediaBase, ref)})
	}
	if ref := g.inlay(); ref != "" {
		if remote := ArchiveURL(ref); remote != "" {
			rec.SetAsset(record.SlotBoxFront, record.Asset{Remote: remote})
		}
	}
	for _, link := range g.RelatedLinks {
		if u := strings.TrimSpace(link.URL); u != "" {
			rec.SourceLinks = append(rec.SourceLinks, u)
		}
	}
	return rec
}

func (g *Game) developers() []string {
	var out []string
	for _, a := range g.Authors {
		if a.Type == "Creator" && strings.TrimSpace(a.Name) != "" {
			out = append(out, strings.TrimSpace(a.Name))
		}
	}
	return out
}

func (g *Game) publishers() []string {
	var out []string
	for _, p := range g.Publishers {
		if p.PublisherSeq == 1 && strings.TrimSpace(p.Name) != "" {
			out = append(out, strings.TrimSpace(p.Name))
		}
	}
	return out
}

// screen returns the first screen of the wanted type. A running screen falls
// back to any screen that is not a loading screen.
func (g *Game) screen(kind string) string {
	for _, s := range g.Screens {
		if strings.EqualFold(strings.TrimSpace(s.Type), kind) && s.URL != "" {
			return s.URL
		}
	}
	if kind == screenRunning {
		for _, s := range g.Screens {
			if !strings.EqualFold(strings.TrimSpace(s.Type), screenLoading) && s.URL != "" {
				return s.URL
			}
		}
	}
	return ""
}

func (g *Game) inlay() string {
	for _, d := range g.AdditionalDownloads {
		if strings.EqualFold(strings.TrimSpace(d.Type), inlayFront) && d.Path != "" {
			return d.Path
		}
	}
	return ""
}

// MediaURL resolves a catalog-relative screen path against the media root.
// Absolute URLs are returned unchanged.
func MediaURL(mediaBase, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.Contains(ref, "://") {
		return ref
	}
	if mediaBase = strings.TrimRight(strings.TrimSpace(mediaBase), "/"); mediaBase == "" {
		mediaBase = DefaultMediaBaseURL
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return mediaBase + ref
}

// ArchiveURL maps a download path not hosted by ZXInfo to its mirror:
// World of Spectrum paths to the archive.org snapshot and ZXDB paths to
// Spectrum Computing. Unknown paths yield an empty string.
func ArchiveURL(path string) string {
	path = strings.TrimSpace(path)
	if strings.Contains(path, "://") {
		if _, err := url.Parse(path); err == nil {
			return path
		}
		return ""
	}
	lower := strings.ToLower(path)
	switch {
	case strings.Contains(lower, "/pub/sinclair"):
		i := strings.Index(lower, "/pub/sinclair")
		return wosMirrorPrefix + path[:i] + "/sinclair" + path[i+len("/pub/sinclair"):]
	case strings.Contains(lower, "/zxdb/sinclair"):
		return spectrumComputer + path
	default:
		return ""
	}
}
