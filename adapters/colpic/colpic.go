// Package colpic implements the ColPic preview codec read by Elegoo Neptune 3
// and 4 series firmware: a palette of up to 1024 5-6-5 colours followed by
// run-length coded palette indices, armoured into printable 6-bit ASCII.
package colpic

import (
	"encoding/binary"
	"fmt"

	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
)

const (
	headerSize = 32
	// Palette size limit of the format; colours past it are not recorded.
	maxPalette = 1024
	version    = 3
	mark       = 98419516
	maxRun     = 255
	// Runs up to this length share a byte with the palette index.
	shortRun = 6
)

// Codec is the ColPic encoder.  The zero value is ready to use.
type Codec struct{}

// New returns a Codec.
func New() *Codec { return &Codec{} }

// Encode writes the armoured ColPic text of pixels into dst, followed by a
// NUL, and returns the text length.  pixels must hold width*height row-major
// 5-6-5 colours; it is not modified.
func (c *Codec) Encode(pixels []uint16, width, height int, dst []byte, maxColors int) (int, error) {
	if width <= 0 || height <= 0 || len(pixels) < width*height {
		return 0, apperrors.New(apperrors.CategoryCompression, "colpic.encode", apperrors.ErrInvalidDimensions)
	}
	n, err := encodeBinary(pixels[:width*height], width, height, dst, maxColors)
	if err != nil {
		return 0, err
	}
	return armour(dst, n)
}

type paletteEntry struct {
	color   uint16
	r, g, b int
	count   int
}

// buildPalette counts colours in first-seen order.  Once the palette is
// full neither new colours nor further counts are recorded.
func buildPalette(pixels []uint16) []paletteEntry {
	palette := make([]paletteEntry, 0, maxPalette)
	for _, px := range pixels {
		if len(palette) >= maxPalette {
			break
		}
		found := false
		for i := range palette {
			if palette[i].color == px {
				palette[i].count++
				found = true
				break
			}
		}
		if !found {
			palette = append(palette, paletteEntry{
				color: px,
				r:     int(px>>11) & 0x1f,
				g:     int(px&0x07e0) >> 5,
				b:     int(px) & 0x1f,
				count: 1,
			})
		}
	}
	return palette
}

// sortPalette orders entries by descending count.  An entry moves in front
// of the first earlier entry whose count does not exceed its own.
func sortPalette(palette []paletteEntry) {
	for idx := 1; idx < len(palette); idx++ {
		e := palette[idx]
		for i := 0; i < idx; i++ {
			if e.count >= palette[i].count {
				copy(palette[i+1:idx+1], palette[i:idx])
				palette[i] = e
				break
			}
		}
	}
}

// reducePalette folds the least frequent entries into their nearest kept
// colour until at most maxColors remain.  pixels is rewritten in place.
func reducePalette(palette []paletteEntry, pixels []uint16, maxColors int) []paletteEntry {
	for len(palette) > maxColors {
		last := palette[len(palette)-1]
		best, fid := 255, -1
		for i := 0; i < maxColors; i++ {
			d := abs(palette[i].r-last.r) + abs(palette[i].g-last.g) + abs(palette[i].b-last.b)
			if d < best {
				best, fid = d, i
			}
		}
		if fid >= 0 {
			for i, px := range pixels {
				if px == last.color {
					pixels[i] = palette[fid].color
				}
			}
		}
		palette = palette[:len(palette)-1]
	}
	return palette
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// encodeBinary writes header, palette and run data into dst and returns the
// number of bytes used.
func encodeBinary(src []uint16, width, height int, dst []byte, maxColors int) (int, error) {
	if maxColors > maxPalette {
		maxColors = maxPalette
	}
	if maxColors < 1 {
		maxColors = 1
	}
	pixels := make([]uint16, len(src))
	copy(pixels, src)

	palette := buildPalette(pixels)
	sortPalette(palette)
	palette = reducePalette(palette, pixels, maxColors)

	listSize := len(palette) * 2
	if headerSize+listSize > len(dst) {
		return 0, apperrors.New(apperrors.CategoryCompression, "colpic.encode",
			fmt.Errorf("%w: %d byte buffer cannot hold %d palette entries",
				apperrors.ErrCompression, len(dst), len(palette)))
	}

	colors := make([]uint16, len(palette))
	for i, e := range palette {
		colors[i] = e.color
		binary.LittleEndian.PutUint16(dst[headerSize+i*2:], e.color)
	}
	runs := encodeRuns(pixels, colors, dst[headerSize+listSize:])

	h := dst[:headerSize]
	clear(h)
	h[0] = version
	binary.LittleEndian.PutUint32(h[4:], uint32(width))
	binary.LittleEndian.PutUint32(h[8:], uint32(height))
	binary.LittleEndian.PutUint32(h[12:], mark)
	binary.LittleEndian.PutUint32(h[16:], uint32(listSize))
	binary.LittleEndian.PutUint32(h[20:], uint32(runs))

	return headerSize + listSize + runs, nil
}

// encodeRuns writes the run-length coded palette indices of pixels into out
// and returns the bytes written.  Output stops silently when out is full.
//
// Indices are split into a bank (idx/32) and an entry (idx%32).  A bank
// switch is the byte 0xE0|bank.  A run of up to six pixels is one byte
// run<<5|entry; longer runs are the entry byte followed by the run length.
func encodeRuns(pixels, colors []uint16, out []byte) int {
	var (
		n    int
		bank int
	)
	for src := 0; src < len(pixels); {
		run := 1
		for i := src; i < len(pixels)-1 && pixels[i] == pixels[i+1] && run < maxRun; i++ {
			run++
		}

		idx := 0
		for i, c := range colors {
			if c == pixels[src] {
				idx = i
				break
			}
		}
		entry, sid := idx%32, idx/32

		if sid != bank {
			if n >= len(out) {
				return n
			}
			out[n] = byte(7<<5 + sid)
			n++
			bank = sid
		}
		if run <= shortRun {
			if n >= len(out) {
				return n
			}
			out[n] = byte(run<<5 + entry)
			n++
		} else {
			if n+1 >= len(out) {
				if n < len(out) {
					out[n] = byte(entry)
					n++
				}
				return n
			}
			out[n] = byte(entry)
			out[n+1] = byte(run)
			n += 2
		}
		src += run
	}
	return n
}
