package repourl

import "strings"

// RelativePath returns the part of fileURL below baseURL, without a leading
// slash. When fileURL is not below baseURL it falls back to the last path
// segment of fileURL; callers should treat that as a flattening and log it.
func RelativePath(fileURL, baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	file := strings.TrimRight(fileURL, "/")

	if strings.HasPrefix(file, base) {
		rest := file[len(base):]
		if rest == "" || strings.HasPrefix(rest, "/") {
			return strings.TrimLeft(rest, "/")
		}
	}
	return file[strings.LastIndex(file, "/")+1:]
}

// IsBelow reports whether RelativePath would match fileURL against baseURL
// without falling back.
func IsBelow(fileURL, baseURL string) bool {
	base := strings.TrimRight(baseURL, "/")
	file := strings.TrimRight(fileURL, "/")
	if !strings.HasPrefix(file, base) {
		return false
	}
	rest := file[len(base):]
	return rest == "" || strings.HasPrefix(rest, "/")
}

// StripQuery drops the query and fragment of raw.
func StripQuery(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}
