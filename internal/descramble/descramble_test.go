package descramble

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"
)

// forwardOrder re-derives the scrambled-to-canonical mapping from
// permutation so tests can compare against reference shuffle output.
func forwardOrder(seed uint32, n int) []int {
	perm := permutation(seed, n)
	forward := make([]int, n)
	for canonical, scrambled := range perm {
		forward[scrambled] = canonical
	}
	return forward
}

func TestPermutationMatchesViewerShuffle(t *testing.T) {
	// Reference shuffle output captured from the vendor viewer's PRNG for
	// known seeds and cell counts.
	cases := []struct {
		name string
		seed uint32
		want []int
	}{
		{"seed zero 2x2", 0, []int{0, 3, 1, 2}},
		{"seed 0x1234567 2x3", 0x1234567, []int{3, 4, 1, 5, 0, 2}},
		{"seed 0x12345678 5x6", 0x12345678, []int{
			20, 11, 22, 5, 13, 28, 2, 25, 4, 16, 7, 26, 19, 3, 8,
			17, 15, 0, 24, 14, 12, 6, 21, 10, 9, 27, 29, 18, 1, 23,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := forwardOrder(tc.seed, len(tc.want))
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("shuffle[%d] = %d, want %d (full %v)", i, got[i], tc.want[i], got)
				}
			}
		})
	}
}

func TestPermutationIsBijective(t *testing.T) {
	for _, n := range []int{1, 2, 5, 100, maxCells} {
		perm := permutation(42, n)
		seen := make([]bool, n)
		for canonical, scrambled := range perm {
			if scrambled < 0 || scrambled >= n {
				t.Fatalf("n=%d: perm[%d] = %d out of range", n, canonical, scrambled)
			}
			if seen[scrambled] {
				t.Fatalf("n=%d: scrambled index %d assigned twice", n, scrambled)
			}
			seen[scrambled] = true
		}
	}
}

// scramble applies the vendor's forward transform: pad the raster to the
// cell boundary, then move each canonical cell to its scrambled slot.
func scramble(src *image.NRGBA, g Geometry) *image.NRGBA {
	cols, rows := g.Grid()
	padded := image.NewNRGBA(image.Rect(0, 0, cols*CellSize, rows*CellSize))
	draw.Draw(padded, src.Bounds(), src, image.Point{}, draw.Src)

	out := image.NewNRGBA(padded.Bounds())
	perm := permutation(g.Seed, cols*rows)
	for canonical, scrambled := range perm {
		sx := (scrambled % cols) * CellSize
		sy := (scrambled / cols) * CellSize
		cx := (canonical % cols) * CellSize
		cy := (canonical / cols) * CellSize
		rect := image.Rect(sx, sy, sx+CellSize, sy+CellSize)
		draw.Draw(out, rect, padded, image.Pt(cx, cy), draw.Src)
	}
	return out
}

func patternImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x*7 + y*13) % 256),
				G: uint8((x * 3) % 256),
				B: uint8((y * 5) % 256),
				A: 255,
			})
		}
	}
	return img
}

func TestUnscrambleRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		w, h int
		seed uint32
	}{
		{"even grid", 256, 256, 0xabcdef},
		{"ragged right and bottom", 300, 200, 0x1234567},
		{"single cell", 100, 90, 7},
		{"typical page", 1280, 1808, 0x0f0f0f},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			original := patternImage(tc.w, tc.h)
			g := Geometry{Width: tc.w, Height: tc.h, Seed: tc.seed}
			restored, err := Unscramble(scramble(original, g), g)
			if err != nil {
				t.Fatalf("Unscramble: %v", err)
			}
			if got := restored.Bounds(); got.Dx() != tc.w || got.Dy() != tc.h {
				t.Fatalf("restored bounds %v, want %dx%d", got, tc.w, tc.h)
			}
			for y := 0; y < tc.h; y++ {
				for x := 0; x < tc.w; x++ {
					if restored.NRGBAAt(x, y) != original.NRGBAAt(x, y) {
						t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, restored.NRGBAAt(x, y), original.NRGBAAt(x, y))
					}
				}
			}
		})
	}
}

func TestUnscrambleSeedZeroQuadrants(t *testing.T) {
	// 2x2 grid with seed 0. Scrambled layout:
	//   black green
	//   red   blue
	// must restore to:
	//   black red
	//   blue  green
	scrambled := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	fill := func(x, y int, c color.NRGBA) {
		draw.Draw(scrambled, image.Rect(x, y, x+128, y+128), &image.Uniform{c}, image.Point{}, draw.Src)
	}
	black := color.NRGBA{A: 255}
	red := color.NRGBA{R: 255, A: 255}
	green := color.NRGBA{G: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	fill(0, 0, black)
	fill(128, 0, green)
	fill(0, 128, red)
	fill(128, 128, blue)

	restored, err := Unscramble(scrambled, Geometry{Width: 256, Height: 256, Seed: 0})
	if err != nil {
		t.Fatalf("Unscramble: %v", err)
	}
	checks := []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, black},
		{128, 0, red},
		{0, 128, blue},
		{128, 128, green},
	}
	for _, c := range checks {
		if got := restored.NRGBAAt(c.x, c.y); got != c.want {
			t.Fatalf("pixel (%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestUnscrambleDeterministic(t *testing.T) {
	g := Geometry{Width: 300, Height: 200, Seed: 99}
	input := scramble(patternImage(300, 200), g)
	first, err := Unscramble(input, g)
	if err != nil {
		t.Fatalf("Unscramble: %v", err)
	}
	second, err := Unscramble(input, g)
	if err != nil {
		t.Fatalf("Unscramble: %v", err)
	}
	if !bytes.Equal(first.Pix, second.Pix) {
		t.Fatal("repeated unscramble produced different bytes")
	}
}

func TestUnscrambleGeometryMismatch(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	// 300x300 implies a 3x3 grid (384x384 padded); a 256x256 raster cannot
	// satisfy it.
	if _, err := Unscramble(img, Geometry{Width: 300, Height: 300, Seed: 1}); !errors.Is(err, ErrGeometryMismatch) {
		t.Fatalf("err = %v, want ErrGeometryMismatch", err)
	}
	if _, err := Unscramble(img, Geometry{Width: 0, Height: 128, Seed: 1}); !errors.Is(err, ErrGeometryMismatch) {
		t.Fatalf("err = %v, want ErrGeometryMismatch for empty geometry", err)
	}
}

func TestUnscrambleCellLayoutLimit(t *testing.T) {
	// 26x25 cells = 650, past the 624-draw limit of the viewer PRNG.
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	_, err := Unscramble(img, Geometry{Width: 26 * CellSize, Height: 25 * CellSize, Seed: 1})
	if !errors.Is(err, ErrCellLayout) {
		t.Fatalf("err = %v, want ErrCellLayout", err)
	}
}

func TestSeedFromName(t *testing.T) {
	cases := []struct {
		name    string
		want    uint32
		wantErr bool
	}{
		{"000000000000.png", 0, false},
		{"abcde1234567.jpg", 0x1234567, false},
		{"short", 0, true},
		{"abcdezzzzzzz.jpg", 0, true},
	}
	for _, tc := range cases {
		got, err := SeedFromName(tc.name)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("SeedFromName(%q): expected error", tc.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SeedFromName(%q): %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("SeedFromName(%q) = %#x, want %#x", tc.name, got, tc.want)
		}
	}
}
