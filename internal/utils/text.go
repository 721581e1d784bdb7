package utils

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// TruncateWithEllipsis cuts s to n runes and appends "..." when anything
// was cut.
func TruncateWithEllipsis(s string, n int) string {
	truncated := Truncate(s, n)
	if len(truncated) < len(s) {
		return truncated + "..."
	}
	return truncated
}
