package hashcache

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Field is one key/value pair of a cache entry.
type Field struct {
	Key   string
	Value string
}

// Entry is an ordered flat key/value map. The zero value is ready to use.
type Entry struct {
	fields []Field
}

// Set replaces the value for key or appends it when absent.
func (e *Entry) Set(key, value string) {
	for i := range e.fields {
		if e.fields[i].Key == key {
			e.fields[i].Value = value
			return
		}
	}
	e.fields = append(e.fields, Field{Key: key, Value: value})
}

// Get returns the value for key, or "" when absent.
func (e Entry) Get(key string) string {
	for _, f := range e.fields {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// Has reports whether key is present.
func (e Entry) Has(key string) bool {
	for _, f := range e.fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// Fields returns a copy of the pairs in insertion order.
func (e Entry) Fields() []Field {
	out := make([]Field, len(e.fields))
	copy(out, e.fields)
	return out
}

// Len returns the number of keys.
func (e Entry) Len() int {
	return len(e.fields)
}

// Parse reads "key = value" lines. Blank lines and lines starting with ';'
// or '#' are ignored. There is no multi-line folding.
func Parse(r io.Reader) (Entry, error) {
	var e Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == ';' || line[0] == '#' {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return Entry{}, fmt.Errorf("line %d: missing '='", lineNo)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return Entry{}, fmt.Errorf("line %d: empty key", lineNo)
		}
		e.Set(key, strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return Entry{}, fmt.Errorf("read entry: %w", err)
	}
	return e, nil
}

// Format serializes the entry. Values must be single-line.
func Format(e Entry) ([]byte, error) {
	var buf bytes.Buffer
	for _, f := range e.fields {
		if strings.ContainsAny(f.Key, "=\r\n") || strings.TrimSpace(f.Key) == "" {
			return nil, fmt.Errorf("invalid cache key %q", f.Key)
		}
		if strings.ContainsAny(f.Value, "\r\n") {
			return nil, fmt.Errorf("value for %q spans multiple lines", f.Key)
		}
		buf.WriteString(f.Key)
		buf.WriteString(" = ")
		buf.WriteString(f.Value)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
