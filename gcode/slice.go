package gcode

import (
	"strconv"
	"strings"
)

// SliceData holds the slicing statistics the overlay labels are built from.
// Heights are negative when the g-code does not state them.
type SliceData struct {
	PrinterModel   string
	LayerHeight    float64
	TimeSeconds    int
	FilamentMeters float64
	FilamentGrams  float64
	ModelHeight    float64
	FilamentCost   float64
	LineWidth      float64
}

const (
	timePrefix      = "; estimated printing time (normal mode) = "
	lengthPrefix    = "; filament used [mm] = "
	massPrefix      = "; filament used [g] = "
	totalCostPrefix = "; total filament cost = "
	costPrefix      = "; filament cost = "
	layerPrefix     = "; layer_height = "
	widthPrefix     = "; extrusion_width = "
	layerZPrefix    = ";Z:"
)

// ParseSliceData collects the metadata comments PrusaSlicer writes into the
// g-code.  Unknown or malformed values are left at their zero value (or -1
// for heights).
func ParseSliceData(stream string) SliceData {
	sd := SliceData{LayerHeight: -1, ModelHeight: -1}
	totalCost := false

	sc := newLineScanner(stream)
	for sc.Scan() {
		line := sc.Text()
		if v, ok := strings.CutPrefix(line, printerModelPrefix); ok && sd.PrinterModel == "" {
			sd.PrinterModel = v
			continue
		}
		if v, ok := strings.CutPrefix(line, layerZPrefix); ok {
			if z, ok := parseFloat(v); ok && z > sd.ModelHeight {
				sd.ModelHeight = z
			}
			continue
		}
		if !strings.HasPrefix(line, "; ") {
			continue
		}
		switch {
		case strings.HasPrefix(line, timePrefix):
			if s, ok := parseDuration(line[len(timePrefix):]); ok {
				sd.TimeSeconds = s
			}
		case strings.HasPrefix(line, lengthPrefix):
			if mm, ok := sumList(line[len(lengthPrefix):]); ok {
				sd.FilamentMeters = mm / 1000
			}
		case strings.HasPrefix(line, massPrefix):
			if g, ok := sumList(line[len(massPrefix):]); ok {
				sd.FilamentGrams = g
			}
		case strings.HasPrefix(line, totalCostPrefix):
			if c, ok := parseFloat(line[len(totalCostPrefix):]); ok {
				sd.FilamentCost = c
				totalCost = true
			}
		case strings.HasPrefix(line, costPrefix) && !totalCost:
			if c, ok := sumList(line[len(costPrefix):]); ok {
				sd.FilamentCost = c
			}
		case strings.HasPrefix(line, layerPrefix):
			if h, ok := parseFloat(line[len(layerPrefix):]); ok {
				sd.LayerHeight = h
			}
		case strings.HasPrefix(line, widthPrefix):
			if w, ok := parseFloat(line[len(widthPrefix):]); ok {
				sd.LineWidth = w
			}
		}
	}
	return sd
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

// sumList adds the comma separated per-extruder values of a statistic.
func sumList(s string) (float64, bool) {
	var total float64
	for _, part := range strings.Split(s, ",") {
		v, ok := parseFloat(part)
		if !ok {
			return 0, false
		}
		total += v
	}
	return total, true
}

// parseDuration reads "1d 2h 3m 4s" (any subset, in any order).
func parseDuration(s string) (int, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	total := 0
	for _, f := range fields {
		if len(f) < 2 {
			return 0, false
		}
		n, err := strconv.Atoi(f[:len(f)-1])
		if err != nil {
			return 0, false
		}
		switch f[len(f)-1] {
		case 'd':
			total += n * 86400
		case 'h':
			total += n * 3600
		case 'm':
			total += n * 60
		case 's':
			total += n
		default:
			return 0, false
		}
	}
	return total, true
}
