package walker

import (
	"path/filepath"
	"strings"
)

// Kind classifies a file found under the docs directory.
type Kind int

const (
	// KindUnknown files are ignored by the site generator.
	KindUnknown Kind = iota
	// KindPage files are markdown sources rendered to HTML.
	KindPage
	// KindAsset files are copied verbatim into the output.
	KindAsset
)

func (k Kind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindAsset:
		return "asset"
	default:
		return "unknown"
	}
}

// extensionToKind maps file extensions to their kind.
var extensionToKind = map[string]Kind{
	// Markdown
	".md":       KindPage,
	".markdown": KindPage,
	// Images
	".png":  KindAsset,
	".jpg":  KindAsset,
	".jpeg": KindAsset,
	".gif":  KindAsset,
	".webp": KindAsset,
	".svg":  KindAsset,
	".ico":  KindAsset,
	// Styles and scripts
	".css": KindAsset,
	".js":  KindAsset,
	// Fonts
	".woff":  KindAsset,
	".woff2": KindAsset,
	".ttf":   KindAsset,
	// Data
	".json": KindAsset,
	".txt":  KindAsset,
	".pdf":  KindAsset,
}

// filenameToKind maps specific filenames to their kind.
var filenameToKind = map[string]Kind{
	"CNAME":       KindAsset,
	"robots.txt":  KindAsset,
	"favicon.ico": KindAsset,
}

// DetectKind returns the kind of a file based on its exact name or extension.
func DetectKind(filename string) Kind {
	base := filepath.Base(filename)

	if kind, ok := filenameToKind[base]; ok {
		return kind
	}

	ext := strings.ToLower(filepath.Ext(base))
	if ext == "" {
		return KindUnknown
	}
	return extensionToKind[ext]
}

// isBinaryExt reports whether files with this extension may contain NUL bytes.
func isBinaryExt(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".ico", ".woff", ".woff2", ".ttf", ".pdf":
		return true
	}
	return false
}
