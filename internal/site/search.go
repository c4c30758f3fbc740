package site

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/gateswong/wowplaybook/internal/walker"
	"github.com/gateswong/wowplaybook/internal/wowhead"
)

// maxSearchContent bounds the indexed text of one page, in runes.
const maxSearchContent = 2000

// SearchEntry represents a single searchable page.
type SearchEntry struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Content string `json:"content"`
}

// BuildSearchEntry extracts title, summary and content from a page source.
// Reference tokens are indexed by their display text.
func BuildSearchEntry(page walker.FileInfo, src []byte, base string) SearchEntry {
	entry := SearchEntry{
		Path:  base + page.OutputPath(),
		Title: extractTitle(src, page.RelPath),
	}

	plain := wowhead.PlainText(src)
	scanner := bufio.NewScanner(bytes.NewReader(plain))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var lines []string
	inFence := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if line == "" || inFence {
			continue
		}
		if strings.HasPrefix(line, "#") {
			line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		} else if entry.Summary == "" {
			entry.Summary = line
		}
		lines = append(lines, line)
	}

	entry.Content = truncateRunes(strings.Join(lines, " "), maxSearchContent)
	return entry
}

// WriteSearchIndex writes the search index as JSON to the given path.
func WriteSearchIndex(entries []SearchEntry, outputPath string) error {
	if entries == nil {
		entries = []SearchEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}

// extractTitle returns the first H1 of src as plain text, falling back to
// the file name.
func extractTitle(src []byte, relPath string) string {
	for _, line := range strings.Split(string(src), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(string(wowhead.PlainText([]byte(strings.TrimPrefix(line, "# ")))))
		}
	}
	name := relPath[strings.LastIndex(relPath, "/")+1:]
	return strings.TrimSuffix(strings.TrimSuffix(name, ".md"), ".markdown")
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
