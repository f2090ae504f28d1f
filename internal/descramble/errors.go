package descramble

import "errors"

var (
	// ErrGeometryMismatch indicates the scrambled raster's dimensions do
	// not match the cell grid implied by the declared geometry. The asset
	// is refused rather than approximated.
	ErrGeometryMismatch = errors.New("geometry mismatch")

	// ErrCellLayout indicates the geometry implies a cell count outside
	// the range the viewer's permutation supports.
	ErrCellLayout = errors.New("unsupported cell layout")
)
