// Package htmldoc adapts a parsed HTML page to the localize interfaces.
package htmldoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gateswong/wowplaybook/internal/localize"
	"github.com/gateswong/wowplaybook/internal/wowhead"
)

// ErrNoHead is returned when a page has no <head> to inject scripts into.
var ErrNoHead = errors.New("htmldoc: page has no head element")

// Page is a mutable HTML document.
type Page struct {
	mu       sync.Mutex
	root     *html.Node
	observer *localize.Observer
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return &Page{root: root}, nil
}

// ParseBytes is Parse over a byte slice.
func ParseBytes(b []byte) (*Page, error) {
	return Parse(bytes.NewReader(b))
}

// Observe routes future insertions to o.
func (p *Page) Observe(o *localize.Observer) {
	p.mu.Lock()
	p.observer = o
	p.mu.Unlock()
}

// Links implements localize.Document.
func (p *Page) Links() []localize.Link {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []localize.Link
	walk(p.root, func(n *html.Node) bool {
		if isLink(n) {
			out = append(out, &link{page: p, node: n})
		}
		return true
	})
	return out
}

// AppendHeadScript implements localize.Document.
func (p *Page) AppendHeadScript(s localize.Script) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	head := findFirst(p.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Head
	})
	if head == nil {
		return ErrNoHead
	}
	el := &html.Node{Type: html.ElementNode, Data: "script", DataAtom: atom.Script}
	if s.Src != "" {
		el.Attr = append(el.Attr, html.Attribute{Key: "src", Val: s.Src})
		if s.Async {
			el.Attr = append(el.Attr, html.Attribute{Key: "async"})
		}
	} else {
		el.AppendChild(&html.Node{Type: html.TextNode, Data: s.Inline})
	}
	head.AppendChild(el)
	return nil
}

// ElementByID returns the first element with the given id, or nil.
func (p *Page) ElementByID(id string) *html.Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return findFirst(p.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == id
	})
}

// AppendFragment parses fragment in the context of parent, appends the
// resulting nodes to it and reports them to the observer.
func (p *Page) AppendFragment(parent *html.Node, fragment []byte) error {
	if parent == nil {
		return errors.New("htmldoc: nil parent")
	}
	nodes, err := html.ParseFragment(bytes.NewReader(fragment), parent)
	if err != nil {
		return fmt.Errorf("parsing fragment: %w", err)
	}

	p.mu.Lock()
	inserted := make([]localize.Node, 0, len(nodes))
	for _, n := range nodes {
		parent.AppendChild(n)
		inserted = append(inserted, insertedNode{node: n})
	}
	o := p.observer
	p.mu.Unlock()

	if o != nil {
		o.Notify(inserted)
	}
	return nil
}

// RewriteHrefs replaces the href of every anchor under root with fn(href)
// and returns the number of anchors changed. A nil root means the whole
// document.
func (p *Page) RewriteHrefs(root *html.Node, fn func(string) string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if root == nil {
		root = p.root
	}
	changed := 0
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.A {
			return true
		}
		href := attr(n, "href")
		if href == "" {
			return true
		}
		if next := fn(href); next != href {
			setAttr(n, "href", next)
			changed++
		}
		return true
	})
	return changed
}

// LinkTypes counts rendered links by their resource type.
func (p *Page) LinkTypes() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	counts := make(map[string]int)
	walk(p.root, func(n *html.Node) bool {
		if isLink(n) {
			counts[attr(n, wowhead.AttrType)]++
		}
		return true
	})
	return counts
}

// Render writes the document.
func (p *Page) Render(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return html.Render(w, p.root)
}

// Bytes renders the document to a byte slice.
func (p *Page) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type link struct {
	page *Page
	node *html.Node
}

func (l *link) Data() string {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	return attr(l.node, wowhead.AttrData)
}

func (l *link) SetData(v string) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	setAttr(l.node, wowhead.AttrData, v)
}

type insertedNode struct {
	node *html.Node
}

func (n insertedNode) ContainsLink() bool {
	return findFirst(n.node, isLink) != nil
}

func isLink(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.A {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == wowhead.LinkClass {
			return true
		}
	}
	return false
}

// walk visits n and its descendants depth first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
