package metafile

// Sentinel joins folded continuation lines inside a raw value so they can be
// split apart again without ambiguity against ordinary text.
const Sentinel = "\x1f"

// DefaultSourceTag is written in the trailer when a record carries none.
const DefaultSourceTag = "zxmeta"

// Kind selects how a field's raw lines decode into a record value.
type Kind int

const (
	// KindScalar is a single-line value; continuation lines join with a space.
	KindScalar Kind = iota
	// KindList has one element per indented continuation line.
	KindList
	// KindText is narrative prose; continuation lines keep their line breaks
	// and a lone "." marks a blank line.
	KindText
	// KindAsset is an image reference, local path or absolute URL.
	KindAsset
	// KindRemote records the remote origin of a materialized asset.
	KindRemote
	// KindTrailer is the provenance line that closes an entry.
	KindTrailer
)

// Field keys, in serialization order.
const (
	FieldGame        = "game"
	FieldFile        = "file"
	FieldDevelopers  = "developers"
	FieldPublishers  = "publishers"
	FieldGenre       = "genre"
	FieldPlayers     = "players"
	FieldRelease     = "release"
	FieldRating      = "rating"
	FieldSummary     = "summary"
	FieldDescription = "description"
	FieldTitleScreen = "assets.titlescreen"
	FieldScreenshot  = "assets.screenshot"
	FieldBoxFront    = "assets.boxFront"
	FieldRemoteTitle = "x-remote.titlescreen"
	FieldRemoteShot  = "x-remote.screenshot"
	FieldRemoteBox   = "x-remote.boxFront"
	FieldHash        = "x-hash"
	FieldLinks       = "x-links"
	FieldSource      = "x-source"
)

// FieldSpec is one member of the closed entry schema.
type FieldSpec struct {
	Key  string
	Kind Kind
}

var schema = []FieldSpec{
	{FieldGame, KindScalar},
	{FieldFile, KindScalar},
	{FieldDevelopers, KindList},
	{FieldPublishers, KindList},
	{FieldGenre, KindScalar},
	{FieldPlayers, KindScalar},
	{FieldRelease, KindScalar},
	{FieldRating, KindScalar},
	{FieldSummary, KindText},
	{FieldDescription, KindText},
	{FieldTitleScreen, KindAsset},
	{FieldScreenshot, KindAsset},
	{FieldBoxFront, KindAsset},
	{FieldRemoteTitle, KindRemote},
	{FieldRemoteShot, KindRemote},
	{FieldRemoteBox, KindRemote},
	{FieldHash, KindScalar},
	{FieldLinks, KindList},
	{FieldSource, KindTrailer},
}

var schemaIndex = func() map[string]FieldSpec {
	m := make(map[string]FieldSpec, len(schema))
	for _, f := range schema {
		m[f.Key] = f
	}
	return m
}()

// Schema returns the recognized entry fields in serialization order.
func Schema() []FieldSpec {
	out := make([]FieldSpec, len(schema))
	copy(out, schema)
	return out
}

// LookupField reports whether key belongs to the entry schema.
func LookupField(key string) (FieldSpec, bool) {
	f, ok := schemaIndex[key]
	return f, ok
}
