// Package audit lets a user review downloaded cover art.
//
// Every entry with a local box-front file is shown with its title screen and
// screenshot paths, and the user decides to keep the cover, replace it with
// one of the other images, or remove it. Changes are written to the hash
// cache immediately; the caller re-saves the document.
package audit
