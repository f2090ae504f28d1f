package ebook

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"quire/internal/manifest"
)

// bookManifest holds two publications whose page runs interleave in the
// manifest's declared order: book_a pages 0-1, then book_b, then book_a
// page 2.
const bookManifest = `{
  "hash": "h",
  "workno": "RJ222222",
  "playfile": {
    "a0.jpg": {"type": "image", "length": 10, "image": {"optimized": {"crypt": true, "name": "aaaaa0000001.jpg", "length": 10, "width": 1280, "height": 1808}}},
    "a1.jpg": {"type": "image", "length": 10, "image": {"optimized": {"crypt": true, "name": "aaaaa0000002.jpg", "length": 10, "width": 1280, "height": 1808}}},
    "a2.jpg": {"type": "image", "length": 10, "image": {"optimized": {"crypt": false, "name": "aaaaa0000003.jpg", "length": 10}}},
    "b0.jpg": {"type": "image", "length": 10, "image": {"optimized": {"crypt": false, "name": "bbbbb0000001.jpg", "length": 10}}},
    "b1.jpg": {"type": "image", "length": 10, "image": {"files": {"crypt": false, "name": "bbbbb0000002.jpg", "length": 10}}},
    "notes.txt": {"type": "text", "length": 4, "text": {"files": {"crypt": false, "name": "notes.txt", "length": 4}}}
  },
  "tree": [
    {"type": "folder", "name": "book_a", "path": "book_a", "children": [
      {"type": "file", "name": "page_0.jpg", "hashname": "a0.jpg"},
      {"type": "file", "name": "page_1.jpg", "hashname": "a1.jpg"},
      {"type": "file", "name": "notes.txt", "hashname": "notes.txt"}
    ]},
    {"type": "folder", "name": "book_b", "path": "book_b", "children": [
      {"type": "file", "name": "page_0.jpg", "hashname": "b0.jpg"},
      {"type": "file", "name": "page_1.jpg", "hashname": "b1.jpg"}
    ]},
    {"type": "folder", "name": "book_a", "path": "book_a", "children": [
      {"type": "file", "name": "page_2.jpg", "hashname": "a2.jpg"}
    ]}
  ]
}`

func bookTree(t *testing.T) *manifest.Tree {
	t.Helper()
	tree, err := manifest.Parse([]byte(bookManifest))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return tree
}

func TestSequencerCollectsWholePublication(t *testing.T) {
	seq, err := NewSequencer(bookTree(t), "book_a/page_0.jpg")
	if err != nil {
		t.Fatalf("NewSequencer: %v", err)
	}
	if seq.PageCount() != 3 {
		t.Fatalf("PageCount = %d, want 3", seq.PageCount())
	}

	var paths []string
	for i := 0; i < seq.PageCount(); i++ {
		path, err := seq.Path(i)
		if err != nil {
			t.Fatalf("Path(%d): %v", i, err)
		}
		paths = append(paths, path)
	}
	want := []string{"book_a/page_0.jpg", "book_a/page_1.jpg", "book_a/page_2.jpg"}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for _, path := range paths {
		if strings.HasPrefix(path, "book_b/") {
			t.Fatalf("sequence for book_a leaked page %s", path)
		}
	}

	page, err := seq.Page(2)
	if err != nil {
		t.Fatalf("Page(2): %v", err)
	}
	if page.Variant.Name != "aaaaa0000003.jpg" {
		t.Fatalf("Page(2) variant = %q, want third record's descriptor", page.Variant.Name)
	}
	if page.Scrambled {
		t.Error("page_2 is not scrambled")
	}
}

func TestSequencerResolvesGeometry(t *testing.T) {
	seq, err := NewSequencer(bookTree(t), "book_a/page_1.jpg")
	if err != nil {
		t.Fatalf("NewSequencer: %v", err)
	}
	page, err := seq.Page(0)
	if err != nil {
		t.Fatalf("Page(0): %v", err)
	}
	if !page.Scrambled {
		t.Fatal("page_0 should be scrambled")
	}
	if page.Geometry.Width != 1280 || page.Geometry.Height != 1808 {
		t.Errorf("geometry = %dx%d, want 1280x1808", page.Geometry.Width, page.Geometry.Height)
	}
	// Seed is hex digits [5:12) of "aaaaa0000001.jpg".
	if page.Geometry.Seed != 0x0000001 {
		t.Errorf("seed = %#x, want 0x1", page.Geometry.Seed)
	}
}

func TestSequencerPageIndexOutOfRange(t *testing.T) {
	seq, err := NewSequencer(bookTree(t), "book_b/page_0.jpg")
	if err != nil {
		t.Fatalf("NewSequencer: %v", err)
	}
	if seq.PageCount() != 2 {
		t.Fatalf("PageCount = %d, want 2", seq.PageCount())
	}
	for _, index := range []int{-1, 2, 99} {
		if _, err := seq.Page(index); !errors.Is(err, ErrPageOutOfRange) {
			t.Fatalf("Page(%d) err = %v, want ErrPageOutOfRange", index, err)
		}
	}
}

func TestSequencerPerPageFailureIsScoped(t *testing.T) {
	seq, err := NewSequencer(bookTree(t), "book_b/page_0.jpg")
	if err != nil {
		t.Fatalf("NewSequencer: %v", err)
	}
	// page_1 has only a "files" variant; resolving it fails without
	// falling back and without poisoning page_0.
	if _, err := seq.Page(1); !errors.Is(err, manifest.ErrVariantNotFound) {
		t.Fatalf("Page(1) err = %v, want ErrVariantNotFound", err)
	}
	if _, err := seq.Page(0); err != nil {
		t.Fatalf("Page(0) after sibling failure: %v", err)
	}
}

func TestSequencerRejectsNonPageStart(t *testing.T) {
	tree := bookTree(t)
	if _, err := NewSequencer(tree, "book_a/notes.txt"); err == nil {
		t.Fatal("expected error starting from a text asset")
	}
	if _, err := NewSequencer(tree, "book_a/missing.jpg"); err == nil {
		t.Fatal("expected error starting from an absent path")
	}
}
