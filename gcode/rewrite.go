package gcode

import "strings"

// Tag markers firmware scans for to locate an embedded preview block.
const (
	LargeImageMarker = ";gimage:"
	SmallImageMarker = ";simage:"
)

// HasThumbnailMarkers reports whether stream already carries an injected
// preview block.
func HasThumbnailMarkers(stream string) bool {
	return strings.Contains(stream, LargeImageMarker) || strings.Contains(stream, SmallImageMarker)
}

// Censor replaces every occurrence of slicer in stream with replacement.
// An empty slicer leaves the stream untouched.
func Censor(stream, slicer, replacement string) string {
	if slicer == "" {
		return stream
	}
	return strings.ReplaceAll(stream, slicer, replacement)
}
