package gcode

import (
	"bufio"
	"bytes"
	"strings"
)

// newLineScanner returns a scanner over stream that accepts "\n", "\r\n" and
// a bare "\r" as line terminators.  Injected preview blocks use bare "\r", and
// one of them can be far longer than bufio's default token size, so the
// buffer is allowed to grow to the size of the whole stream.
func newLineScanner(stream string) *bufio.Scanner {
	sc := bufio.NewScanner(strings.NewReader(stream))
	sc.Buffer(make([]byte, 0, 64*1024), len(stream)+1)
	sc.Split(scanUniversalLines)
	return sc
}

func scanUniversalLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// A trailing '\r' may be the first half of "\r\n".
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Lines splits stream into lines without their terminators.
func Lines(stream string) []string {
	var out []string
	sc := newLineScanner(stream)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}
