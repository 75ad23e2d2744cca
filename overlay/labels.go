// Package overlay turns slicing statistics into short corner labels and draws
// them onto the preview raster.
package overlay

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/gcode"
)

// Option is one of the fixed label kinds a corner can show.
type Option int

const (
	OptionNothing Option = iota
	OptionTimeEstimate
	OptionFilamentGrams
	OptionLayerHeight
	OptionModelHeight
	OptionFilamentCost
	OptionFilamentMeters
	OptionLineWidth
)

type formatter func(p *message.Printer, sd gcode.SliceData, currency string) string

var options = [...]struct {
	name   string
	format formatter
}{
	OptionNothing:        {"nothing", func(*message.Printer, gcode.SliceData, string) string { return "" }},
	OptionTimeEstimate:   {"time_estimate", timeEstimate},
	OptionFilamentGrams:  {"filament_grams_estimate", filamentGrams},
	OptionLayerHeight:    {"layer_height", layerHeight},
	OptionModelHeight:    {"model_height", modelHeight},
	OptionFilamentCost:   {"filament_cost_estimate", filamentCost},
	OptionFilamentMeters: {"filament_meters_estimate", filamentMeters},
	OptionLineWidth:      {"line_width", lineWidth},
}

var printer = message.NewPrinter(language.English)

// Labels print plain digits: no thousands grouping.
func plainInt(v int) number.Formatter { return number.Decimal(v, number.NoSeparator()) }

func plain2(v float64) number.Formatter {
	return number.Decimal(round2(v), number.NoSeparator(), number.Scale(2))
}

func (o Option) String() string {
	if o < 0 || int(o) >= len(options) {
		return "nothing"
	}
	return options[o].name
}

// ParseOption maps a configured option name to its Option.
func ParseOption(name string) (Option, bool) {
	for i, e := range options {
		if e.name == name {
			return Option(i), true
		}
	}
	return OptionNothing, false
}

// OptionNames lists every accepted option name.
func OptionNames() []string {
	out := make([]string, len(options))
	for i, e := range options {
		out[i] = e.name
	}
	return out
}

// Format renders the label for o.  Out of range options render empty.
func (o Option) Format(sd gcode.SliceData, currency string) string {
	if o < 0 || int(o) >= len(options) {
		return ""
	}
	return options[o].format(printer, sd, currency)
}

// FormatName renders the label for the option called name; unknown names
// render empty.
func FormatName(name string, sd gcode.SliceData, currency string) string {
	o, ok := ParseOption(name)
	if !ok {
		return ""
	}
	return o.Format(sd, currency)
}

// Labels renders one label per corner name.
func Labels(corners [4]string, sd gcode.SliceData, currency string) [4]string {
	var out [4]string
	for i, name := range corners {
		out[i] = FormatName(name, sd, currency)
	}
	return out
}

// Enabled reports whether any corner shows something.
func Enabled(corners [4]string) bool {
	for _, name := range corners {
		if o, ok := ParseOption(name); ok && o != OptionNothing {
			return true
		}
	}
	return false
}

func timeEstimate(p *message.Printer, sd gcode.SliceData, _ string) string {
	minutes := sd.TimeSeconds / 60
	return p.Sprintf("⧖ %v:%02dh", plainInt(minutes/60), minutes%60)
}

func filamentGrams(p *message.Printer, sd gcode.SliceData, _ string) string {
	return p.Sprintf("⭗ %vg", plainInt(int(math.RoundToEven(sd.FilamentGrams))))
}

func layerHeight(_ *message.Printer, sd gcode.SliceData, _ string) string {
	if sd.LayerHeight < 0 {
		return "⧗ N/A"
	}
	return "⧗ " + shortFloat(sd.LayerHeight) + "mm"
}

func modelHeight(_ *message.Printer, sd gcode.SliceData, _ string) string {
	if sd.ModelHeight < 0 {
		return "⭱ N/A"
	}
	return "⭱ " + shortFloat(sd.ModelHeight) + "mm"
}

func filamentCost(p *message.Printer, sd gcode.SliceData, currency string) string {
	return p.Sprintf("⛁ %v%s", plain2(sd.FilamentCost), currency)
}

func filamentMeters(p *message.Printer, sd gcode.SliceData, _ string) string {
	return p.Sprintf("⬌ %vm", plain2(sd.FilamentMeters))
}

func lineWidth(p *message.Printer, sd gcode.SliceData, _ string) string {
	return p.Sprintf("◯ %vmm", plain2(sd.LineWidth))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// shortFloat prints v rounded to two decimals in its shortest form, keeping
// one decimal for whole numbers ("0.2", "48.0").
func shortFloat(v float64) string {
	s := strconv.FormatFloat(round2(v), 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
