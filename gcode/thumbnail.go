package gcode

import (
	"encoding/base64"
	"fmt"
	"strings"

	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
)

const (
	thumbnailBeginPrefix = "; thumbnail begin "
	thumbnailEnd         = "; thumbnail end"
	// Every payload line carries a "; " comment prefix.
	commentPrefixLen = 2
)

// ExtractThumbnail returns the decoded bytes of the first embedded preview
// whose begin line declares size (for example "600x600").  The block must be
// closed by a "; thumbnail end" line.
func ExtractThumbnail(stream, size string) ([]byte, error) {
	begin := thumbnailBeginPrefix + size
	var (
		found   bool
		encoded strings.Builder
	)
	sc := newLineScanner(stream)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case !found && strings.HasPrefix(line, begin):
			found = true
		case found && line == thumbnailEnd:
			data, err := base64.StdEncoding.DecodeString(encoded.String())
			if err != nil {
				return nil, apperrors.Wrap(apperrors.CategoryDecode, "gcode.thumbnail.base64", err)
			}
			return data, nil
		case found:
			if len(line) > commentPrefixLen {
				encoded.WriteString(line[commentPrefixLen:])
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryInput, "gcode.thumbnail.scan", err)
	}
	return nil, apperrors.New(apperrors.CategoryThumbnail, "gcode.thumbnail",
		fmt.Errorf("%w: make sure the slicer generates a thumbnail with size %s",
			apperrors.ErrThumbnailNotFound, size))
}
