// Package descramble reconstructs vendor-scrambled page images.
//
// The DLsite Play "crypt" transform slices a raster into 128x128 pixel
// cells, pads the raster up to the cell boundary, and shuffles the cells
// with a Mersenne Twister driven Fisher-Yates permutation. The permutation
// depends only on the cell count and a seed carried in the scrambled file's
// name, so the original placement can be recomputed without reference to
// pixel content and inverted exactly.
package descramble
