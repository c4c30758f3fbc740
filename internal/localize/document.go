// Package localize keeps rendered Wowhead links pointed at the reader's
// preferred regional mirror and drives the tooltip widget that decorates
// them. It works against small interfaces so the same logic runs over a
// parsed HTML page at build time, per request in the preview server, and
// over fakes in tests.
package localize

import (
	"github.com/gateswong/wowplaybook/internal/wowhead"
)

// Link is a rendered reference anchor whose metadata can be rewritten.
type Link interface {
	Data() string
	SetData(string)
}

// Script is an element injected into the document head.
type Script struct {
	// Src loads an external script when set.
	Src   string
	Async bool
	// Inline is the body of an inline script when Src is empty.
	Inline string
}

// Document is the page whose links are synchronized.
type Document interface {
	// Links returns every rendered link currently in the document.
	Links() []Link
	// AppendHeadScript adds a script element to the end of the head.
	AppendHeadScript(Script) error
}

// Node is a node inserted into a document after the initial render.
type Node interface {
	// ContainsLink reports whether the node is, or contains, a rendered link.
	ContainsLink() bool
}

// Widget is the externally loaded tooltip script.
type Widget interface {
	// Ready reports whether the widget has finished loading.
	Ready() bool
	// RefreshLinks asks the widget to re-scan the page.
	RefreshLinks()
}

// SynchronizeAll rewrites the locale parameter of every link in doc so it
// carries exactly one &domain=locale.
func SynchronizeAll(doc Document, locale wowhead.Locale) {
	for _, l := range doc.Links() {
		l.SetData(wowhead.SetDomain(l.Data(), locale))
	}
}
