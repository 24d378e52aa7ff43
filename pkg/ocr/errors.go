package ocr

import "errors"

// ErrRegionOutOfBounds is returned when a rectangle does not fit the image.
var ErrRegionOutOfBounds = errors.New("region outside image bounds")

// ErrEmptyImage is returned for a zero-length image buffer.
var ErrEmptyImage = errors.New("empty image buffer")
