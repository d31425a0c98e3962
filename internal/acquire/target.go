package acquire

import (
	"net/url"
	"path/filepath"
	"strings"
)

var remotePrefixes = []string{"https://", "http://", "ssh://", "git://", "file://", "git@"}

// IsRemote reports whether locator names a repository to clone rather than a
// local directory.
func IsRemote(locator string) bool {
	for _, p := range remotePrefixes {
		if strings.HasPrefix(locator, p) {
			return true
		}
	}
	return false
}

// TargetID derives the stable identifier a locator's artifacts are stored
// under: owner_repo for remote URLs and the directory name for local paths.
func TargetID(locator string) string {
	locator = strings.TrimSpace(locator)
	if IsRemote(locator) {
		return sanitize(remoteID(locator))
	}
	abs, err := filepath.Abs(locator)
	if err != nil {
		abs = locator
	}
	return sanitize(filepath.Base(filepath.Clean(abs)))
}

func remoteID(locator string) string {
	parts := remotePath(locator)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return parts[len(parts)-2] + "_" + parts[len(parts)-1]
	}
}

// remotePath splits the repository path of a remote locator, without a
// trailing .git.
func remotePath(locator string) []string {
	var p string
	if rest, ok := strings.CutPrefix(locator, "git@"); ok {
		// git@host:owner/repo.git
		if _, after, found := strings.Cut(rest, ":"); found {
			p = after
		}
	} else if u, err := url.Parse(locator); err == nil {
		p = u.Path
	}
	p = strings.TrimSuffix(strings.Trim(p, "/"), ".git")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// sanitize keeps ASCII letters, digits, dot, dash and underscore.
func sanitize(id string) string {
	var sb strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	out := strings.Trim(sb.String(), "._")
	if out == "" {
		return "repository"
	}
	return out
}

// repoName returns the last path element of a remote locator.
func repoName(locator string) string {
	parts := remotePath(locator)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
