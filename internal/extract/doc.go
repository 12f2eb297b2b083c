// Package extract pulls images and links out of an HTML document.
//
// Parsing is lenient: malformed markup is repaired the way browsers repair
// it. Every img with a non-empty src becomes an ImageRecord classified by
// the alt rule, and every anchor href becomes an absolute link. Both are
// resolved against the page URL, or against the document's <base href>
// when one is present.
package extract
