package umod

import "strings"

// NormalizePath converts an archive path to fs.ValidPath format.
//
// It performs the following transformations:
//   - Converts backslashes to slashes: `System\Core.u` → "System/Core.u"
//   - Strips leading and trailing slashes: "/Help/" → "Help"
//   - Collapses consecutive slashes: "Help//a.txt" → "Help/a.txt"
//   - Converts empty string to root: "" → "."
//
// Paths containing "." or ".." elements are preserved; callers that write
// to disk must still check the result with fs.ValidPath.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.Trim(p, "/")
	if p == "" {
		return "."
	}

	parts := strings.Split(p, "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return "."
	}
	return strings.Join(result, "/")
}
