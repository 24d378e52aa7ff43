package ocr

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Image is a decoded source image shared read-only by every recognition of
// one request.
type Image struct {
	img image.Image
}

// DecodeImage decodes an uploaded image buffer once, honouring EXIF
// orientation so phone photos keep the layout the registries describe.
func DecodeImage(buf []byte) (*Image, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyImage
	}
	img, err := imaging.Decode(bytes.NewReader(buf), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return NewImage(img), nil
}

// NewImage wraps an already decoded image.
func NewImage(img image.Image) *Image {
	return &Image{img: img}
}

func (i *Image) Width() int  { return i.img.Bounds().Dx() }
func (i *Image) Height() int { return i.img.Bounds().Dy() }

// Contains reports whether r lies fully inside the image.
func (i *Image) Contains(r Rect) bool {
	if r.Validate() != nil {
		return false
	}
	return r.Left+r.Width <= i.Width() && r.Top+r.Height <= i.Height()
}

// Crop returns the pixels under r.
func (i *Image) Crop(r Rect) (image.Image, error) {
	if !i.Contains(r) {
		return nil, fmt.Errorf("crop %s of %dx%d: %w", r, i.Width(), i.Height(), ErrRegionOutOfBounds)
	}
	b := i.img.Bounds()
	return imaging.Crop(i.img, r.Rectangle().Add(b.Min)), nil
}

// CropPNG returns the pixels under r encoded as PNG.
func (i *Image) CropPNG(r Rect) ([]byte, error) {
	sub, err := i.Crop(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, sub, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode region: %w", err)
	}
	return buf.Bytes(), nil
}
