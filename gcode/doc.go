// Package gcode scans the text of a sliced g-code file: it splits lines the
// way a universal-newline reader does, extracts the base64 preview image the
// slicer embedded, finds the declared printer model and slicing statistics,
// and performs the textual rewrites applied when a thumbnail is injected.
package gcode
