package chunker

import (
	"regexp"
	"strings"
)

// symbolPatterns maps a language to declaration patterns, tried in order.
// The first capture group is the symbol name. Extraction is best-effort:
// a window with no match simply carries no symbol path.
var symbolPatterns = map[string][]*regexp.Regexp{
	"cpp": {
		regexp.MustCompile(`(?m)^\s*(?:template\s*<[^>]*>\s*)?class\s+([A-Za-z_]\w*)`),
		regexp.MustCompile(`(?m)^\s*(?:template\s*<[^>]*>\s*)?struct\s+([A-Za-z_]\w*)`),
		regexp.MustCompile(`(?m)\b([A-Za-z_]\w*(?:::[A-Za-z_~]\w*)+)\s*\(`),
		regexp.MustCompile(`(?m)^\s*namespace\s+([A-Za-z_]\w*)`),
	},
	"c": {
		regexp.MustCompile(`(?m)^\s*(?:typedef\s+)?struct\s+([A-Za-z_]\w*)`),
		regexp.MustCompile(`(?m)^[A-Za-z_][\w\s\*]*?\b([A-Za-z_]\w*)\s*\([^;]*\)\s*\{`),
	},
}

// ExtractSymbolPath returns the first declared symbol found in the window,
// or an empty string when nothing matches.
func ExtractSymbolPath(language string, lines []string) string {
	patterns, ok := symbolPatterns[language]
	if !ok {
		return ""
	}

	text := strings.Join(lines, "\n")
	for _, pattern := range patterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			return match[1]
		}
	}
	return ""
}
