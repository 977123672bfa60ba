// Package record defines the in-memory model of one catalogued game and the
// rules for reconciling the document, fresh lookup, and cache views of it.
package record
