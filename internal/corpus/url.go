package corpus

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Matches: git@github.com:org/repo.git or git@gitlab.com:group/sub/repo.git
var sshScpPattern = regexp.MustCompile(`^git@([^:]+):(.+?)(?:\.git)?$`)

// RepoSlug derives a filesystem-safe slug from a repository URL or local
// path. The slug keys corpus cache directories, so it must be stable for a
// given URL.
//
// Examples:
//   - https://github.com/root-project/root.git -> root-project__root
//   - git@github.com:org/repo.git              -> org__repo
//   - /local/path/to/repo                      -> repo
func RepoSlug(repoURL string) string {
	clean := strings.TrimSuffix(strings.TrimRight(repoURL, "/"), ".git")

	if matches := sshScpPattern.FindStringSubmatch(clean); matches != nil {
		return slugFromPathParts(matches[2])
	}

	parsed, err := url.Parse(clean)
	if err == nil && parsed.Host != "" {
		return slugFromPathParts(strings.Trim(parsed.Path, "/"))
	}

	// Local path
	return sanitizeSlug(path.Base(strings.ReplaceAll(clean, "\\", "/")))
}

// slugFromPathParts joins the last two path segments with double
// underscores, matching the {owner}__{repo} cache key convention.
func slugFromPathParts(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) >= 2 {
		return sanitizeSlug(parts[len(parts)-2] + "__" + parts[len(parts)-1])
	}
	return sanitizeSlug(parts[len(parts)-1])
}

// sanitizeSlug converts a string to a filesystem-safe format.
func sanitizeSlug(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "@", "_")
	return s
}
