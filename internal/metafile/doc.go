// Package metafile reads and writes front-end metadata documents.
//
// The Pegasus format is a header block, a blank line, then entries of
// "key: value" lines. Multi-line values continue on lines indented by two
// spaces; a continuation consisting of "." is a blank line. Each entry this
// tool writes ends with an "x-source" trailer, which the parser uses as the
// record boundary. Keys outside the closed field schema are treated as part of
// the previous value rather than as new fields.
//
// Parsing and serialization are inverse for documents produced here: reading
// back a rendered document yields the same header values and entries.
// LaunchBox XML is supported as an output-only format behind the same
// Generator interface.
package metafile
