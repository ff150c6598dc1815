package github

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// ParseRepoURL extracts owner and repository name from a source URL.
func ParseRepoURL(raw string) (owner, repo string, err error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(strings.TrimRight(s, "/"), ".git")
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	} else if at := strings.Index(s, "@"); at >= 0 {
		// scp-like: git@github.com:owner/repo
		s = strings.Replace(s[at+1:], ":", "/", 1)
	}

	parts := strings.Split(s, "/")
	if strings.ContainsAny(parts[0], ".:") {
		parts = parts[1:]
	}
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: not a GitHub repository URL: %q", domain.ErrInvalidInput, raw)
	}
	return parts[0], parts[1], nil
}
