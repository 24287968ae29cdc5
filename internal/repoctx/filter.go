package repoctx

import (
	"path"
	"strings"

	"github.com/kevinmichaelchen/repo-summary/internal/models"
)

// Rules are the static exclusion sets applied by FilterTree.
type Rules struct {
	SkipDirs       map[string]bool
	SkipExtensions map[string]bool // lower-case, with leading dot
	SkipFilenames  map[string]bool
}

var (
	defaultSkipDirs = []string{
		".git", "node_modules", "vendor", "__pycache__", ".venv", "dist", "build",
		".tox", ".mypy_cache", ".pytest_cache", ".next", ".nuxt", "target", "coverage",
	}
	defaultSkipExtensions = []string{
		".lock", ".map", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".woff",
		".woff2", ".ttf", ".eot", ".mp3", ".mp4", ".zip", ".tar", ".gz", ".exe",
		".dll", ".so", ".dylib", ".pyc", ".pyo", ".class", ".o", ".obj",
	}
	defaultSkipFilenames = []string{
		"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "Pipfile.lock",
		"poetry.lock", "composer.lock", "Gemfile.lock", "Cargo.lock",
	}
)

// DefaultRules returns the built-in exclusion sets.
func DefaultRules() Rules {
	return NewRules(nil, nil, nil)
}

// NewRules returns the built-in sets extended with the given extras.
// Extensions are normalised to lower case with a leading dot.
func NewRules(dirs, extensions, filenames []string) Rules {
	r := Rules{
		SkipDirs:       toSet(defaultSkipDirs, dirs),
		SkipExtensions: make(map[string]bool),
		SkipFilenames:  toSet(defaultSkipFilenames, filenames),
	}
	for _, list := range [][]string{defaultSkipExtensions, extensions} {
		for _, ext := range list {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			r.SkipExtensions[ext] = true
		}
	}
	return r
}

func toSet(lists ...[]string) map[string]bool {
	set := make(map[string]bool)
	for _, list := range lists {
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				set[s] = true
			}
		}
	}
	return set
}

// FilterTree drops directory markers and noise files. Survivors keep their
// input order.
func FilterTree(entries []models.TreeEntry, rules Rules) []models.TreeEntry {
	result := make([]models.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Kind != models.KindBlob {
			continue
		}
		if rules.skip(entry.Path) {
			continue
		}
		result = append(result, entry)
	}
	return result
}

func (r Rules) skip(p string) bool {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	filename := parts[len(parts)-1]

	for _, dir := range parts[:len(parts)-1] {
		if r.SkipDirs[dir] {
			return true
		}
	}
	if r.SkipFilenames[filename] {
		return true
	}
	if ext := extension(filename); ext != "" && r.SkipExtensions[strings.ToLower(ext)] {
		return true
	}
	// compound extensions
	return strings.HasSuffix(filename, ".min.js") || strings.HasSuffix(filename, ".min.css")
}

// extension returns the suffix starting at the last dot. Dotfiles such as
// ".gitignore" have no extension.
func extension(filename string) string {
	ext := path.Ext(filename)
	if ext == filename {
		return ""
	}
	return ext
}
