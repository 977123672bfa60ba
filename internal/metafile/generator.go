package metafile

import (
	"fmt"
	"strings"
)

// Format selects the target front-end.
type Format int

const (
	FormatPegasus Format = iota
	FormatLaunchBox
)

func (f Format) String() string {
	switch f {
	case FormatPegasus:
		return "pegasus"
	case FormatLaunchBox:
		return "launchbox"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// DefaultFileName is the document name the front-end looks for.
func (f Format) DefaultFileName() string {
	if f == FormatLaunchBox {
		return "Sinclair ZX Spectrum.xml"
	}
	return "metadata.pegasus.txt"
}

// Reparsable reports whether documents in this format can be loaded back for
// merging on the next run.
func (f Format) Reparsable() bool {
	return f == FormatPegasus
}

// ParseFormat maps a platform name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "pegasus":
		return FormatPegasus, nil
	case "launchbox":
		return FormatLaunchBox, nil
	default:
		return 0, fmt.Errorf("unsupported platform %q (want pegasus or launchbox)", name)
	}
}

// Options carries the document-level settings shared by generators.
type Options struct {
	Collection string
	ShortName  string
	Launch     string
	DecodeText bool
}

// Generator renders a complete document for one front-end.
type Generator interface {
	Format() Format
	Render(doc *Document) ([]byte, error)
}

// NewGenerator returns the generator for format.
func NewGenerator(format Format, opts Options) (Generator, error) {
	switch format {
	case FormatPegasus:
		return pegasusGenerator{opts: opts}, nil
	case FormatLaunchBox:
		return launchBoxGenerator{opts: opts}, nil
	default:
		return nil, fmt.Errorf("no generator for %s", format)
	}
}

type pegasusGenerator struct {
	opts Options
}

func (pegasusGenerator) Format() Format { return FormatPegasus }

func (g pegasusGenerator) Render(doc *Document) ([]byte, error) {
	defaults := DefaultHeader(g.opts.Collection, g.opts.ShortName, g.opts.Launch)
	return Serialize(doc, defaults, g.opts.DecodeText), nil
}
