package colpic

import (
	"fmt"

	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
)

// armour rewrites the first qty bytes of buf as printable text in place:
// every 3 bytes become 4 characters holding 6 bits each, offset by '0', with
// '\\' replaced by '~'.  The data is always padded with 1 to 3 zero bytes
// first.  A NUL terminates the text.
func armour(buf []byte, qty int) (int, error) {
	for pad := 3 - qty%3; pad > 0; pad-- {
		if qty >= len(buf) {
			return 0, overflow(len(buf))
		}
		buf[qty] = 0
		qty++
	}
	out := qty * 4 / 3
	if out >= len(buf) {
		return 0, overflow(len(buf))
	}

	src := make([]byte, qty)
	copy(src, buf[:qty])
	for i, j := 0, 0; i < qty; i, j = i+3, j+4 {
		t0, t1, t2 := src[i], src[i+1], src[i+2]
		buf[j] = t0 >> 2
		buf[j+1] = (t0&0x03)<<4 | t1>>4
		buf[j+2] = (t1&0x0f)<<2 | t2>>6
		buf[j+3] = t2 & 0x3f
		for k := j; k < j+4; k++ {
			buf[k] += '0'
			if buf[k] == '\\' {
				buf[k] = '~'
			}
		}
	}
	buf[out] = 0
	return out, nil
}

func overflow(size int) error {
	return apperrors.New(apperrors.CategoryCompression, "colpic.armour",
		fmt.Errorf("%w: %d byte buffer too small for encoded text", apperrors.ErrCompression, size))
}
