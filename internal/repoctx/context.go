package repoctx

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kevinmichaelchen/repo-summary/internal/models"
)

const (
	truncationMarker = "\n... (truncated)"

	// DefaultTreeSize is the byte budget of FormatDirectoryTree listings.
	DefaultTreeSize = 100_000
)

var readmeNames = map[string]bool{
	"readme":     true,
	"readme.md":  true,
	"readme.rst": true,
	"readme.txt": true,
}

// File is one fetched file. BuildContext consumes files in slice order.
type File struct {
	Path    string
	Content string
}

// BuildContext assembles cleaned file blocks into a single string of at most
// budget characters. A block that does not fit is skipped and later, smaller
// blocks are still tried.
func BuildContext(files []File, budget, maxFileSize int) string {
	text, _ := AssembleContext(files, budget, maxFileSize)
	return text
}

// AssembleContext is BuildContext that also returns the paths whose blocks
// made it into the text, in order.
func AssembleContext(files []File, budget, maxFileSize int) (string, []string) {
	var b strings.Builder
	var included []string
	used := 0

	for _, f := range files {
		content := Clean(f.Content)
		if utf8.RuneCountInString(content) > maxFileSize {
			content = Truncate(content, maxFileSize) + truncationMarker
		}

		block := fmt.Sprintf("--- %s ---\n%s", f.Path, content)
		if used > 0 {
			block = "\n\n" + block
		}

		n := utf8.RuneCountInString(block)
		if used+n > budget {
			continue
		}
		b.WriteString(block)
		used += n
		included = append(included, f.Path)
	}
	return b.String(), included
}

// Truncate returns the first n characters of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// TruncateWithMarker caps s at n characters, appending a marker line when
// anything was cut.
func TruncateWithMarker(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return Truncate(s, n) + truncationMarker
}

// FormatDirectoryTree lists entry paths, shallowest first, within maxSize
// bytes. Omitted paths are reported on a final line.
func FormatDirectoryTree(entries []models.TreeEntry, maxSize int) string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	sort.SliceStable(paths, func(i, j int) bool {
		di, dj := strings.Count(paths[i], "/"), strings.Count(paths[j], "/")
		if di != dj {
			return di < dj
		}
		return paths[i] < paths[j]
	})

	lines := []string{"Directory structure:", ""}
	used := 0
	for i, p := range paths {
		if used+len(p)+1 > maxSize {
			lines = append(lines, fmt.Sprintf("... (%d more files)", len(paths)-i))
			break
		}
		lines = append(lines, p)
		used += len(p) + 1
	}
	return strings.Join(lines, "\n")
}

// FindReadme returns the path of the first root-level README, if any.
func FindReadme(entries []models.TreeEntry) (string, bool) {
	for _, e := range entries {
		if readmeNames[strings.ToLower(e.Path)] {
			return e.Path, true
		}
	}
	return "", false
}
