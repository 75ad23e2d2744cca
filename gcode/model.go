package gcode

import "strings"

const printerModelPrefix = "; printer_model = "

// FindPrinterModel returns the identifier of the first printer_model
// declaration in stream.
func FindPrinterModel(stream string) (string, bool) {
	sc := newLineScanner(stream)
	for sc.Scan() {
		if id, ok := strings.CutPrefix(sc.Text(), printerModelPrefix); ok {
			return id, true
		}
	}
	return "", false
}
