package shape

import "errors"

// Geometry errors
var (
	ErrInvalidRotation   = errors.New("rotation must be between 0 and 3")
	ErrCellOutOfRange    = errors.New("cell outside the bounding box")
	ErrMalformedGeometry = errors.New("matrix length does not match width*width")
)

// Catalog and factory errors
var (
	ErrUnknownSystem = errors.New("unknown rotation system")
)
