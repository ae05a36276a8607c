package sprite

import (
	"bufio"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
)

// Load decodes a sprite sheet from disk. PNG, GIF, JPEG and BMP are supported.
func Load(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", &DetectionError{Kind: UnreadablePixels, Path: path, Err: err}
	}
	defer f.Close()

	img, format, err := Decode(f)
	if err != nil {
		if de, ok := err.(*DetectionError); ok {
			de.Path = path
		}
		return nil, "", err
	}

	return img, format, nil
}

// Decode decodes an image from r
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, "", &DetectionError{Kind: UnreadablePixels, Err: err}
	}
	if img.Bounds().Empty() {
		return nil, format, &DetectionError{Kind: EmptyImage}
	}
	return img, format, nil
}
