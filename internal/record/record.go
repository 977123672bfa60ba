package record

import (
	"fmt"
	"math"
	"strings"
)

// Slot identifies one of the three image assets tracked per game.
type Slot int

const (
	SlotTitleScreen Slot = iota
	SlotScreenshot
	SlotBoxFront

	slotCount = 3
)

// Slots lists every asset slot in serialization order.
var Slots = [slotCount]Slot{SlotTitleScreen, SlotScreenshot, SlotBoxFront}

// Key returns the field name used for the slot in documents and cache entries.
func (s Slot) Key() string {
	switch s {
	case SlotTitleScreen:
		return "assets.titlescreen"
	case SlotScreenshot:
		return "assets.screenshot"
	case SlotBoxFront:
		return "assets.boxFront"
	default:
		return ""
	}
}

// Dir returns the subdirectory of the assets root holding files for the slot.
func (s Slot) Dir() string {
	switch s {
	case SlotTitleScreen:
		return "titles"
	case SlotScreenshot:
		return "screens"
	case SlotBoxFront:
		return "covers"
	default:
		return ""
	}
}

func (s Slot) String() string {
	switch s {
	case SlotTitleScreen:
		return "titlescreen"
	case SlotScreenshot:
		return "screenshot"
	case SlotBoxFront:
		return "boxfront"
	default:
		return fmt.Sprintf("slot(%d)", int(s))
	}
}

// Asset holds the remote and materialized references for one slot.
// A non-empty Local means the file has been downloaded and must not be fetched again.
type Asset struct {
	Remote string
	Local  string
}

// Ref returns the reference a front-end should use: the local file when present.
func (a Asset) Ref() string {
	if a.Local != "" {
		return a.Local
	}
	return a.Remote
}

// Empty reports whether neither reference is set.
func (a Asset) Empty() bool {
	return a.Remote == "" && a.Local == ""
}

// Record is one catalogued game.
type Record struct {
	Title string
	// Hash is the lower-case hex MD5 of the game payload; unique within a document.
	Hash string
	File string

	Rating     string
	Release    string
	Developers []string
	Publishers []string
	Genre      string
	Players    string

	// Summary and Description hold plain text and may contain newlines.
	Summary     string
	Description string

	Assets [slotCount]Asset

	SourceLinks []string
	SourceTag   string
}

// Asset returns the asset for slot s.
func (r Record) Asset(s Slot) Asset {
	if s < 0 || int(s) >= len(r.Assets) {
		return Asset{}
	}
	return r.Assets[s]
}

// SetAsset replaces the asset for slot s.
func (r *Record) SetAsset(s Slot, a Asset) {
	if s < 0 || int(s) >= len(r.Assets) {
		return
	}
	r.Assets[s] = a
}

// Clone returns a deep copy so callers can hand out immutable snapshots.
func (r Record) Clone() Record {
	out := r
	out.Developers = cloneStrings(r.Developers)
	out.Publishers = cloneStrings(r.Publishers)
	out.SourceLinks = cloneStrings(r.SourceLinks)
	return out
}

// FormatRating converts a 0-10 score into a rounded percentage string.
// Scores at or below zero mean "unrated" and yield an empty string.
func FormatRating(score float64) string {
	if score <= 0 || math.IsNaN(score) {
		return ""
	}
	if score > 10 {
		score = 10
	}
	return fmt.Sprintf("%d%%", int(math.Round(score*10)))
}

// JoinList renders a list for display, for example in LaunchBox fields.
func JoinList(values []string) string {
	return strings.Join(values, ", ")
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
