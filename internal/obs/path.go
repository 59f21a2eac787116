package obs

import "strings"

// CanonicalPath collapses resource identifiers in known routes so metric
// labels stay low-cardinality.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	for _, prefix := range []string{"/v1/tasks/", "/v1/products/", "/v1/categories/"} {
		if rest, ok := strings.CutPrefix(path, prefix); ok {
			if rest != "" && !strings.Contains(rest, "/") {
				return prefix + ":id"
			}
		}
	}
	return path
}
