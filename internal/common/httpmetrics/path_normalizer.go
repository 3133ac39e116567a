package httpmetrics

import "strings"

// NormalizePath collapses per-user path segments so metric cardinality
// stays bounded: /api/users/alice/to -> /api/users/{username}/to.
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}

	const usersPrefix = "/api/users/"
	if strings.HasPrefix(path, usersPrefix) {
		rest := strings.TrimPrefix(path, usersPrefix)
		parts := strings.Split(rest, "/")
		if len(parts) > 0 && parts[0] != "" {
			parts[0] = "{username}"
		}
		return usersPrefix + strings.Join(parts, "/")
	}

	return path
}
