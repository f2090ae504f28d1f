package ebook

import (
	"errors"
	"fmt"

	"quire/internal/descramble"
	"quire/internal/manifest"
)

// ErrPageOutOfRange indicates a page index outside [0, PageCount).
var ErrPageOutOfRange = errors.New("page index out of range")

// pageVariantKey is the variant class the reader consumes; pages are always
// delivered through the optimized variant.
const pageVariantKey = "optimized"

// Page is one resolved page of a publication.
type Page struct {
	// Path is the manifest path of the page asset.
	Path string
	// Variant is the optimized variant descriptor for the page.
	Variant manifest.Variant
	// Scrambled reports whether the page bytes need descrambling.
	Scrambled bool
	// Geometry is the descramble geometry. Zero unless Scrambled.
	Geometry descramble.Geometry
}

// Sequencer exposes the pages of one publication in reading order.
//
// It borrows the manifest tree: pages are an index over the tree's own
// ordered assets, scoped to the publication the starting page belongs to
// (the shared parent prefix). Manifest order already encodes reading order,
// so no re-sorting happens. The sequencer itself performs no I/O; callers
// fetch and descramble page bytes when they materialize a page.
type Sequencer struct {
	tree  *manifest.Tree
	paths []string
}

// NewSequencer builds a page sequence from any one page of a publication.
func NewSequencer(tree *manifest.Tree, startPath string) (*Sequencer, error) {
	start, ok := tree.Lookup(startPath)
	if !ok {
		return nil, fmt.Errorf("no asset at %s", startPath)
	}
	if start.Class != manifest.ClassImage {
		return nil, fmt.Errorf("asset %s is %s, not an image page", startPath, start.Class)
	}

	prefix := manifest.Dir(startPath)
	var paths []string
	for _, path := range tree.Paths() {
		if manifest.Dir(path) != prefix {
			continue
		}
		asset, _ := tree.Lookup(path)
		if asset.Class != manifest.ClassImage {
			continue
		}
		paths = append(paths, path)
	}
	return &Sequencer{tree: tree, paths: paths}, nil
}

// PageCount returns the number of pages in the publication.
func (s *Sequencer) PageCount() int {
	return len(s.paths)
}

// Path returns the manifest path of page index without resolving variants.
func (s *Sequencer) Path(index int) (string, error) {
	if index < 0 || index >= len(s.paths) {
		return "", fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, index, len(s.paths))
	}
	return s.paths[index], nil
}

// Page resolves the variant descriptor and descramble geometry for one
// page. A failure here is scoped to this page; sibling pages stay
// reachable.
func (s *Sequencer) Page(index int) (Page, error) {
	path, err := s.Path(index)
	if err != nil {
		return Page{}, err
	}
	asset, _ := s.tree.Lookup(path)
	variant, err := asset.Variant(pageVariantKey)
	if err != nil {
		return Page{}, fmt.Errorf("page %d: %w", index, err)
	}

	page := Page{Path: path, Variant: variant, Scrambled: variant.Scrambled}
	if variant.Scrambled {
		seed, err := descramble.SeedFromName(variant.Name)
		if err != nil {
			return Page{}, fmt.Errorf("page %d: %w", index, err)
		}
		page.Geometry = descramble.Geometry{
			Width:  variant.Width,
			Height: variant.Height,
			Seed:   seed,
		}
	}
	return page, nil
}
