package core

import (
	"fmt"

	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/gcode"
)

// ModelGroup is the closed set of preview formats printers understand.
type ModelGroup int

const (
	GroupUnsupported ModelGroup = iota
	// GroupLegacy firmware reads raw hex 5-6-5 rows.
	GroupLegacy
	// GroupModern firmware reads ColPic compressed previews.
	GroupModern
	// GroupJPEG firmware reads base64 JPEG previews.
	GroupJPEG
)

func (g ModelGroup) String() string {
	switch g {
	case GroupLegacy:
		return "legacy"
	case GroupModern:
		return "modern"
	case GroupJPEG:
		return "jpeg"
	}
	return "unsupported"
}

// Encoding names the block encoder a group's previews are produced with.
type Encoding string

const (
	EncodingNone       Encoding = ""
	EncodingLegacyRaw  Encoding = "legacy_raw"
	EncodingColPic     Encoding = "colpic"
	EncodingBase64JPEG Encoding = "base64_jpeg"
)

// BlockPlan is one preview block of a group: its name (the tag marker is
// ";" + Name + ":") and the box it is rendered into.
type BlockPlan struct {
	Name string
	Box  TargetBox
}

var groupTable = [...]struct {
	group    ModelGroup
	encoding Encoding
	models   []string
	blocks   []BlockPlan
}{
	{
		group:    GroupLegacy,
		encoding: EncodingLegacyRaw,
		models:   []string{"NEPTUNE2", "NEPTUNE2D", "NEPTUNE2S", "NEPTUNEX"},
		// The large legacy block is tagged ";;gimage:".
		blocks: []BlockPlan{
			{Name: "simage", Box: TargetBox{Width: 100, Height: 100}},
			{Name: ";gimage", Box: TargetBox{Width: 200, Height: 200}},
		},
	},
	{
		group:    GroupModern,
		encoding: EncodingColPic,
		models: []string{"NEPTUNE4", "NEPTUNE4PRO", "NEPTUNE4PLUS", "NEPTUNE4MAX",
			"NEPTUNE3PRO", "NEPTUNE3PLUS", "NEPTUNE3MAX"},
		blocks: []BlockPlan{
			{Name: "gimage", Box: TargetBox{Width: 200, Height: 200}},
			{Name: "simage", Box: TargetBox{Width: 160, Height: 160}},
		},
	},
	{
		group:    GroupJPEG,
		encoding: EncodingBase64JPEG,
		models:   []string{"ORANGESTORMGIGA"},
		blocks: []BlockPlan{
			{Name: "gimage", Box: TargetBox{Width: 400, Height: 400}},
			{Name: "simage", Box: TargetBox{Width: 114, Height: 114}},
		},
	},
}

// Encoding returns the block encoder used for the group.
func (g ModelGroup) Encoding() Encoding {
	for _, e := range groupTable {
		if e.group == g {
			return e.encoding
		}
	}
	return EncodingNone
}

// Blocks returns the previews generated for the group, in output order.
func (g ModelGroup) Blocks() []BlockPlan {
	for _, e := range groupTable {
		if e.group == g {
			out := make([]BlockPlan, len(e.blocks))
			copy(out, e.blocks)
			return out
		}
	}
	return nil
}

// PrinterModel is a printer identifier together with its group.
type PrinterModel struct {
	ID    string
	Group ModelGroup
}

// Supported reports whether previews can be generated for the model.
func (m PrinterModel) Supported() bool { return m.Group != GroupUnsupported }

func (m PrinterModel) String() string { return fmt.Sprintf("%s (%s)", m.ID, m.Group) }

// ClassifyModel looks id up in the fixed model lists.
func ClassifyModel(id string) PrinterModel {
	for _, e := range groupTable {
		for _, m := range e.models {
			if m == id {
				return PrinterModel{ID: id, Group: e.group}
			}
		}
	}
	return PrinterModel{ID: id, Group: GroupUnsupported}
}

// ResolvePrinterModel picks the printer model for a run.  A recognised
// explicit model wins.  Otherwise the model declared in the stream is used;
// when there is none, an unrecognised explicit model is returned as
// unsupported, and a missing one is an error.
func ResolvePrinterModel(explicit, stream string) (PrinterModel, error) {
	if explicit != "" {
		if m := ClassifyModel(explicit); m.Supported() {
			return m, nil
		}
	}
	if id, ok := gcode.FindPrinterModel(stream); ok {
		return ClassifyModel(id), nil
	}
	if explicit != "" {
		return ClassifyModel(explicit), nil
	}
	return PrinterModel{}, apperrors.New(apperrors.CategoryPrinterModel, "resolve_model",
		apperrors.ErrPrinterModelNotFound)
}
