package export

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
)

// CropParams defines the rectangle to cut out of a sheet
type CropParams struct {
	Width  int
	Height int
	Top    int
	Left   int
}

func (c CropParams) rect() image.Rectangle {
	return image.Rect(c.Left, c.Top, c.Left+c.Width, c.Top+c.Height)
}

// Crop copies the crop rectangle out of src into a new image anchored at 0,0.
// A nil crop copies the whole image.
func Crop(src image.Image, crop *CropParams) (*image.NRGBA, error) {
	r := src.Bounds()
	if crop != nil {
		r = crop.rect()
		if !r.In(src.Bounds()) {
			return nil, fmt.Errorf("crop %v is outside image bounds %v", r, src.Bounds())
		}
	}
	if r.Empty() {
		return nil, fmt.Errorf("crop %v is empty", r)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst, nil
}

// WritePNG crops src and writes the result to outputPath
func WritePNG(src image.Image, crop *CropParams, outputPath string) error {
	img, err := Crop(src, crop)
	if err != nil {
		return err
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", outputPath, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", outputPath, err)
	}

	return nil
}
