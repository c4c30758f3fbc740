package markdown

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/gateswong/wowplaybook/internal/wowhead"
)

// referencePriority places the parser ahead of goldmark's autolink (300),
// raw HTML (400) and emphasis (500) parsers, which also see '<'.
const referencePriority = 250

// KindReference is the node kind of a rendered reference token.
var KindReference = ast.NewNodeKind("WowheadReference")

// Reference is an inline node holding the link a token expanded to.
type Reference struct {
	ast.BaseInline
	Link wowhead.Link
}

// Kind implements ast.Node.
func (n *Reference) Kind() ast.NodeKind { return KindReference }

// Dump implements ast.Node.
func (n *Reference) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Data":   n.Link.Data,
		"Rename": n.Link.RenameAttr(),
		"Text":   n.Link.Text,
	}, nil)
}

type referenceParser struct {
	locale wowhead.Locale
}

func (p *referenceParser) Trigger() []byte {
	return []byte{'<'}
}

func (p *referenceParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	ref, n, ok := wowhead.Parse(line)
	if !ok {
		return nil
	}
	block.Advance(n)
	return &Reference{Link: wowhead.NewLink(ref, p.locale)}
}

type referenceRenderer struct{}

func (r *referenceRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindReference, r.renderReference)
}

func (r *referenceRenderer) renderReference(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	l := node.(*Reference).Link
	_, _ = w.WriteString(`<a href="`)
	_, _ = w.Write(util.EscapeHTML([]byte(l.Href)))
	_, _ = w.WriteString(`" class="` + wowhead.LinkClass + `" ` + wowhead.AttrRename + `="`)
	_, _ = w.WriteString(l.RenameAttr())
	writeAttr(w, wowhead.AttrData, l.Data)
	writeAttr(w, wowhead.AttrType, string(l.Type))
	writeAttr(w, wowhead.AttrID, l.ID)
	_, _ = w.WriteString(`">`)
	_, _ = w.Write(util.EscapeHTML([]byte(l.Text)))
	_, _ = w.WriteString("</a>")
	return ast.WalkSkipChildren, nil
}

// writeAttr closes the previous attribute value and opens the next one.
func writeAttr(w util.BufWriter, name, value string) {
	_, _ = w.WriteString(`" ` + name + `="`)
	_, _ = w.Write(util.EscapeHTML([]byte(value)))
}

// Wowhead is a goldmark extension that expands <abbr=id,extra,name>
// reference tokens into Wowhead anchors.
type Wowhead struct {
	Locale wowhead.Locale
}

// NewWowhead returns the extension rendering links for locale. An empty
// locale means wowhead.DefaultLocale.
func NewWowhead(locale wowhead.Locale) *Wowhead {
	if locale == "" {
		locale = wowhead.DefaultLocale
	}
	return &Wowhead{Locale: locale}
}

// Extend implements goldmark.Extender.
func (e *Wowhead) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&referenceParser{locale: e.Locale}, referencePriority),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&referenceRenderer{}, referencePriority),
	))
}
