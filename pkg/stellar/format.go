package stellar

// Truncate shortens a long identifier to its first start and last end
// characters joined by an ellipsis.
func Truncate(s string, start int, end int) string {
	if start < 0 || end < 0 || len(s) <= start+end {
		return s
	}
	return s[:start] + "..." + s[len(s)-end:]
}

// FormatHash shortens a transaction hash or contract id for display.
func FormatHash(hash string, length int) string {
	return Truncate(hash, length, length)
}
