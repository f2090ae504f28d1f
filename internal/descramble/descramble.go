package descramble

import (
	"fmt"
	"image"
	"image/draw"
)

// Unscramble reverses the cell permutation of a scrambled raster and
// returns the reconstructed image at the geometry's true dimensions.
//
// The input must be the padded scrambled raster: exactly cols*128 by
// rows*128 pixels for the grid implied by the geometry. Anything else is a
// GeometryMismatch; a plausible-but-wrong reconstruction is never produced.
// The function is pure and safe to call from any number of goroutines.
func Unscramble(img image.Image, g Geometry) (*image.NRGBA, error) {
	if g.Width <= 0 || g.Height <= 0 {
		return nil, fmt.Errorf("%w: non-positive geometry %dx%d", ErrGeometryMismatch, g.Width, g.Height)
	}
	cols, rows := g.Grid()
	cells := cols * rows
	if cells > maxCells {
		return nil, fmt.Errorf("%w: %dx%d grid has %d cells (max %d)", ErrCellLayout, cols, rows, cells, maxCells)
	}

	bounds := img.Bounds()
	paddedW, paddedH := cols*CellSize, rows*CellSize
	if bounds.Dx() != paddedW || bounds.Dy() != paddedH {
		return nil, fmt.Errorf("%w: scrambled raster is %dx%d, grid for %dx%d wants %dx%d",
			ErrGeometryMismatch, bounds.Dx(), bounds.Dy(), g.Width, g.Height, paddedW, paddedH)
	}

	perm := permutation(g.Seed, cells)
	out := image.NewNRGBA(image.Rect(0, 0, paddedW, paddedH))
	for canonical, scrambled := range perm {
		dx := (canonical % cols) * CellSize
		dy := (canonical / cols) * CellSize
		sx := bounds.Min.X + (scrambled%cols)*CellSize
		sy := bounds.Min.Y + (scrambled/cols)*CellSize
		rect := image.Rect(dx, dy, dx+CellSize, dy+CellSize)
		draw.Draw(out, rect, img, image.Pt(sx, sy), draw.Src)
	}

	// The scrambled raster is padded to the cell boundary; crop back to the
	// true extents so ragged edge cells keep their exact pixels.
	if g.Width == paddedW && g.Height == paddedH {
		return out, nil
	}
	cropped := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	draw.Draw(cropped, cropped.Bounds(), out, image.Point{}, draw.Src)
	return cropped, nil
}
