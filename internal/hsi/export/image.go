package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"
)

// Format is an export image format chosen from the file extension.
type Format int

const (
	FormatUnknown Format = iota
	FormatPNG
)

// FormatFromPath maps a file extension to a Format.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG
	}
	return FormatUnknown
}

// DecisionImage paints a width x height decision mask using colors
// indexed by decision. Decisions without a colour (the ROI sentinel, for
// example) are painted black.
func DecisionImage(mask []uint8, width, height int, colors [][3]uint8) (*image.RGBA, error) {
	if width <= 0 || height <= 0 || len(mask) < width*height {
		return nil, fmt.Errorf("mask of %d pixels does not cover %dx%d", len(mask), width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBA{A: 255}
			if d := int(mask[y*width+x]); d < len(colors) {
				c.R, c.G, c.B = colors[d][0], colors[d][1], colors[d][2]
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

// DecisionPNG writes the coloured decision mask as PNG.
func DecisionPNG(w io.Writer, mask []uint8, width, height int, colors [][3]uint8) error {
	img, err := DecisionImage(mask, width, height, colors)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
