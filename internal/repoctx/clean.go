package repoctx

import (
	"regexp"
	"strings"
)

var licenseKeywords = []string{
	"license",
	"copyright",
	"spdx",
	"permission is hereby granted",
	"redistribution",
}

var (
	licenseBlockComment = regexp.MustCompile(
		`(?is)\A\s*/\*.*?(?:license|copyright|spdx|permission is hereby granted|redistribution).*?\*/\s*`,
	)
	// contributor grids and avatar lists
	htmlImageLinks = regexp.MustCompile(`(?i)<a[^>]*>\s*<img[^>]*>\s*</a>`)
	markdownBadges = regexp.MustCompile(
		`!?\[!\[[^\]]*\]\([^)]*\)\]\([^)]*\)|!\[[^\]]*\]\(https?://img\.shields\.io[^)]*\)`,
	)
	consecutiveBlankLines = regexp.MustCompile(`\n{3,}`)
)

var commentPrefixes = []string{"#", "//", "--", ";", "rem "}

// StripLicenseHeader removes a leading license or copyright comment. Content
// without such a header is returned unchanged.
func StripLicenseHeader(content string) string {
	if loc := licenseBlockComment.FindStringIndex(content); loc != nil {
		return content[loc[1]:]
	}

	lines := strings.Split(content, "\n")
	i := 0
	for i < len(lines) && isHeaderLine(lines[i]) {
		i++
	}
	if i == 0 {
		return content
	}

	header := strings.ToLower(strings.Join(lines[:i], "\n"))
	for _, kw := range licenseKeywords {
		if strings.Contains(header, kw) {
			return strings.TrimLeft(strings.Join(lines[i:], "\n"), "\n")
		}
	}
	return content
}

func isHeaderLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t\r\f\v")
	if strings.TrimSpace(trimmed) == "" {
		return true
	}
	for _, prefix := range commentPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// Clean strips license headers, image markup and badges, and normalises
// whitespace. Passes repeat until the text stops changing, so a header
// exposed by an earlier removal is stripped too and Clean(Clean(x)) ==
// Clean(x).
func Clean(content string) string {
	for {
		next := cleanPass(content)
		if next == content {
			return next
		}
		content = next
	}
}

// cleanPass only ever removes text, so repeating it terminates.
func cleanPass(content string) string {
	content = StripLicenseHeader(content)
	content = htmlImageLinks.ReplaceAllString(content, "")
	content = markdownBadges.ReplaceAllString(content, "")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r\f\v")
	}
	content = strings.Join(lines, "\n")
	content = consecutiveBlankLines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
