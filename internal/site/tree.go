package site

import (
	"fmt"
	"html/template"
	"path"
	"sort"
	"strings"

	"github.com/gateswong/wowplaybook/internal/walker"
)

// FileTree represents a node in the page tree used when no sidebar is
// configured.
type FileTree struct {
	Name     string
	Title    string // Display name: the page's H1, or the formatted directory name.
	Page     *walker.FileInfo
	Path     string // Slash-separated relative path.
	IsDir    bool
	Children []*FileTree
}

// BuildTree constructs a FileTree from pages. titles maps a page's RelPath
// to its display title.
func BuildTree(pages []walker.FileInfo, titles map[string]string) *FileTree {
	root := &FileTree{Name: "docs", IsDir: true}

	for i := range pages {
		p := pages[i]
		parts := strings.Split(p.RelPath, "/")
		current := root
		for j, part := range parts {
			isLast := j == len(parts)-1
			var next *FileTree
			for _, child := range current.Children {
				if child.Name == part && child.IsDir == !isLast {
					next = child
					break
				}
			}
			if next == nil {
				next = &FileTree{Name: part, IsDir: !isLast, Path: strings.Join(parts[:j+1], "/")}
				if isLast {
					next.Page = &pages[i]
					next.Title = titles[p.RelPath]
				} else {
					next.Title = formatDirName(part)
				}
				current.Children = append(current.Children, next)
			}
			current = next
		}
	}

	sortTree(root)
	return root
}

// sortTree recursively sorts children: index pages first, then files,
// then directories, each alphabetically.
func sortTree(node *FileTree) {
	rank := func(n *FileTree) int {
		switch {
		case n.Page != nil && isIndex(n.Name):
			return 0
		case !n.IsDir:
			return 1
		default:
			return 2
		}
	}
	sort.Slice(node.Children, func(i, j int) bool {
		a, b := node.Children[i], node.Children[j]
		if rank(a) != rank(b) {
			return rank(a) < rank(b)
		}
		return a.Name < b.Name
	})
	for _, child := range node.Children {
		if child.IsDir {
			sortTree(child)
		}
	}
}

func isIndex(name string) bool {
	return strings.TrimSuffix(name, path.Ext(name)) == "index"
}

// ToHTML renders the tree as nested lists for the sidebar. activePath is the
// RelPath of the current page; base prefixes every link.
func (t *FileTree) ToHTML(activePath, base string) template.HTML {
	var b strings.Builder
	b.WriteString(`<div class="sidebar-group">` + "\n")
	renderChildren(&b, t, activePath, base)
	b.WriteString("</div>\n")
	return template.HTML(b.String())
}

func renderChildren(b *strings.Builder, node *FileTree, activePath, base string) {
	if len(node.Children) == 0 {
		return
	}
	b.WriteString("<ul>\n")
	for _, child := range node.Children {
		if child.IsDir {
			fmt.Fprintf(b, `<li class="dir"><span class="dir-label">%s</span>`+"\n", template.HTMLEscapeString(child.Title))
			renderChildren(b, child, activePath, base)
			b.WriteString("</li>\n")
			continue
		}
		title := child.Title
		if title == "" {
			title = strings.TrimSuffix(child.Name, path.Ext(child.Name))
		}
		active := ""
		if child.Path == activePath {
			active = ` class="active"`
		}
		fmt.Fprintf(b, `<li class="file"><a href="%s"%s>%s</a></li>`+"\n",
			template.HTMLEscapeString(base+child.Page.OutputPath()), active, template.HTMLEscapeString(title))
	}
	b.WriteString("</ul>\n")
}

// formatDirName converts a directory name to a display name: multi-word
// slugs are title-cased, CamelCase names are kept.
func formatDirName(name string) string {
	words := strings.FieldsFunc(name, func(c rune) bool {
		return c == '-' || c == '_'
	})
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
