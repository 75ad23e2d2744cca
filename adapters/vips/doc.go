// Package vips is an optional libvips backend: decoder, JPEG encoder and
// resizer.  It needs libvips and is only compiled with -tags vips.
package vips
