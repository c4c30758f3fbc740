package walker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize is the maximum file size to process (8 MB).
const DefaultMaxFileSize int64 = 8 << 20

// PublicDir holds assets that are copied to the site root.
const PublicDir = "public"

// FileInfo holds metadata about a single file discovered during traversal.
type FileInfo struct {
	Path        string // Absolute path on disk.
	RelPath     string // Slash-separated path relative to the root directory.
	Size        int64  // File size in bytes.
	Kind        Kind   // Page or asset.
	ContentHash string // SHA-256 hex digest of the file content.
}

// Route returns the site route of a page: "intro.md" is "intro",
// "index.md" is "" and "guide/index.md" is "guide/".
func (f FileInfo) Route() string {
	rel := strings.TrimSuffix(f.RelPath, path.Ext(f.RelPath))
	if rel == "index" {
		return ""
	}
	if strings.HasSuffix(rel, "/index") {
		return strings.TrimSuffix(rel, "index")
	}
	return rel
}

// OutputPath returns the slash-separated path of the file in the generated
// site. Pages become .html files and public assets lose their prefix.
func (f FileInfo) OutputPath() string {
	if f.Kind == KindPage {
		route := f.Route()
		if route == "" || strings.HasSuffix(route, "/") {
			return route + "index.html"
		}
		return route + ".html"
	}
	return strings.TrimPrefix(f.RelPath, PublicDir+"/")
}

// WalkerConfig controls the behaviour of the Walk function.
type WalkerConfig struct {
	RootDir     string   // Root directory to walk.
	Include     []string // Glob patterns selecting pages; assets are always considered.
	Exclude     []string // Glob patterns; matching files are excluded.
	MaxFileSize int64    // Files larger than this are skipped (0 = use default).
}

// Walk traverses the directory tree rooted at config.RootDir and returns
// every page and asset that passes filtering, sorted by RelPath. It respects
// include/exclude patterns and honours a .gitignore file at the root.
func Walk(config WalkerConfig) ([]FileInfo, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}
	if info, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("walker: %s is not a directory", root)
	}

	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	gitignorePatterns := loadGitignore(filepath.Join(root, ".gitignore"))

	var files []FileInfo

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}

		name := d.Name()

		if d.IsDir() {
			if p != root && IsExcludedDir(name) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		kind := DetectKind(name)
		if kind == KindUnknown {
			return nil
		}

		if matchesGitignore(relPath, gitignorePatterns) {
			return nil
		}

		if kind == KindPage && !MatchesInclude(relPath, config.Include) {
			return nil
		}
		if MatchesExclude(relPath, config.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxSize {
			return nil
		}

		if kind == KindPage && isBinary(p) {
			return nil
		}
		if kind == KindAsset && !isBinaryExt(name) && isBinary(p) {
			return nil
		}

		hash, err := hashFile(p)
		if err != nil {
			return nil
		}

		files = append(files, FileInfo{
			Path:        p,
			RelPath:     relPath,
			Size:        info.Size(),
			Kind:        kind,
			ContentHash: hash,
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// Pages returns only the markdown pages from files.
func Pages(files []FileInfo) []FileInfo {
	var pages []FileInfo
	for _, f := range files {
		if f.Kind == KindPage {
			pages = append(pages, f)
		}
	}
	return pages
}

// isBinary reads the first 512 bytes of a file and checks for NUL bytes.
func isBinary(p string) bool {
	f, err := os.Open(p)
	if err != nil {
		return true // treat unreadable files as binary
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return true
	}

	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return true
		}
	}
	return false
}

// hashFile computes the SHA-256 digest of the given file.
func hashFile(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// loadGitignore reads a .gitignore file and returns its non-empty,
// non-comment lines as patterns.
func loadGitignore(p string) []string {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// matchesGitignore checks if a relative path matches any gitignore pattern.
// Patterns without a slash match any path component.
func matchesGitignore(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		dirOnly := strings.HasSuffix(pattern, "/")
		pattern = strings.TrimPrefix(strings.TrimSuffix(pattern, "/"), "/")

		if !strings.Contains(pattern, "/") {
			parts := strings.Split(relPath, "/")
			if dirOnly {
				parts = parts[:len(parts)-1]
			}
			for _, part := range parts {
				if matched, _ := doublestar.Match(pattern, part); matched {
					return true
				}
			}
			continue
		}

		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern+"/**", relPath); matched {
			return true
		}
	}
	return false
}
