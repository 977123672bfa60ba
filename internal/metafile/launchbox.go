package metafile

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"zxmeta/internal/record"
)

const launchBoxPlatform = "Sinclair ZX Spectrum"

// launchBoxNamespace seeds deterministic game IDs so repeated runs produce
// identical files.
var launchBoxNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://zxinfo.dk/zxmeta/launchbox"))

type launchBoxFile struct {
	XMLName xml.Name        `xml:"LaunchBox"`
	Games   []launchBoxGame `xml:"Game"`
}

type launchBoxGame struct {
	ApplicationPath     string `xml:"ApplicationPath"`
	Developer           string `xml:"Developer,omitempty"`
	Publisher           string `xml:"Publisher,omitempty"`
	Notes               string `xml:"Notes,omitempty"`
	Platform            string `xml:"Platform"`
	ReleaseDate         string `xml:"ReleaseDate,omitempty"`
	CommunityStarRating string `xml:"CommunityStarRating"`
	Status              string `xml:"Status"`
	Title               string `xml:"Title"`
	Version             string `xml:"Version,omitempty"`
	PlayMode            string `xml:"PlayMode,omitempty"`
	Genre               string `xml:"Genre,omitempty"`
	ID                  string `xml:"ID"`
}

type launchBoxGenerator struct {
	opts Options
}

func (launchBoxGenerator) Format() Format { return FormatLaunchBox }

func (g launchBoxGenerator) Render(doc *Document) ([]byte, error) {
	file := launchBoxFile{}
	if doc != nil {
		file.Games = make([]launchBoxGame, 0, len(doc.Entries))
		for _, rec := range doc.Entries {
			file.Games = append(file.Games, launchBoxEntry(rec))
		}
	}
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" standalone="yes"?>` + "\n")
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(file); err != nil {
		return nil, fmt.Errorf("encode launchbox xml: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func launchBoxEntry(rec record.Record) launchBoxGame {
	notes := rec.Description
	if notes == "" {
		notes = rec.Summary
	}
	return launchBoxGame{
		ApplicationPath:     rec.File,
		Developer:           record.JoinList(rec.Developers),
		Publisher:           record.JoinList(rec.Publishers),
		Notes:               notes,
		Platform:            launchBoxPlatform,
		ReleaseDate:         launchBoxReleaseDate(rec.Release),
		CommunityStarRating: launchBoxStars(rec.Rating),
		Status:              "Imported ROM",
		Title:               rec.Title,
		Version:             rec.Hash,
		PlayMode:            launchBoxPlayMode(rec.Players),
		Genre:               rec.Genre,
		ID:                  uuid.NewSHA1(launchBoxNamespace, []byte(rec.Hash+"|"+rec.File)).String(),
	}
}

func launchBoxReleaseDate(year string) string {
	year = strings.TrimSpace(year)
	if len(year) != 4 {
		return ""
	}
	if _, err := strconv.Atoi(year); err != nil {
		return ""
	}
	return year + "-01-01T00:00:00"
}

// launchBoxStars converts "NN%" into LaunchBox's 0-5 star scale.
func launchBoxStars(rating string) string {
	pct, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(rating), "%"))
	if err != nil || pct <= 0 {
		return "0"
	}
	return strconv.FormatFloat(float64(min(pct, 100)*5)/100, 'f', -1, 64)
}

// launchBoxPlayMode reads the upper bound of a player count such as "1-2".
func launchBoxPlayMode(players string) string {
	numbers := strings.FieldsFunc(players, func(r rune) bool { return r < '0' || r > '9' })
	if len(numbers) == 0 {
		return ""
	}
	if n, err := strconv.Atoi(numbers[len(numbers)-1]); err == nil && n > 1 {
		return "Multiplayer"
	}
	return "Single Player"
}
