package manifest

import (
	"fmt"
	"strings"
	"time"
)

// Class is the semantic content class of an asset. Only image assets may
// carry scrambled variants.
type Class string

const (
	ClassText   Class = "text"
	ClassImage  Class = "image"
	ClassAudio  Class = "audio"
	ClassVideo  Class = "video"
	ClassBinary Class = "binary"
)

// Variant describes one encoded form of an asset.
type Variant struct {
	// Name is the identifier used to request this variant's bytes from the
	// content delivery endpoint.
	Name string
	// Length is the declared size of the encoded payload in bytes.
	Length int64
	// Scrambled reports whether the payload's pixel cells have been
	// rearranged and must be descrambled before viewing.
	Scrambled bool
	// Width and Height give the original raster geometry. Set iff Scrambled.
	Width  int
	Height int
	// CodecHint is a free-form tag describing the payload encoding, taken
	// from the manifest when present and otherwise from the name's
	// extension.
	CodecHint string
}

// Asset is a single manifest entry: a path, a content class, and the
// variants available for it.
type Asset struct {
	// Path is the slash-joined manifest path, unique within a Tree.
	Path string
	// Hashname is the manifest-internal identifier linking the tree entry
	// to its playfile record.
	Hashname string
	// Class is derived from the playfile type and fixed at parse time.
	Class Class
	// Type is the raw playfile type string (e.g. "image", "ebook_fixed").
	Type string
	// Length is the declared total byte length of the asset.
	Length int64

	variants map[string]Variant
	keys     []string
}

// Variant resolves the descriptor for the exact key. There is no fallback
// between "optimized" and "files"; substituting one for the other would
// silently change output fidelity.
func (a *Asset) Variant(key string) (Variant, error) {
	v, ok := a.variants[key]
	if !ok {
		return Variant{}, fmt.Errorf("%w: asset %s has no %q variant", ErrVariantNotFound, a.Path, key)
	}
	return v, nil
}

// VariantKeys returns the asset's variant keys in manifest-declared order.
func (a *Asset) VariantKeys() []string {
	keys := make([]string, len(a.keys))
	copy(keys, a.keys)
	return keys
}

// Tree is the path-indexed manifest for one purchased work. It is immutable
// once parsed and safe for concurrent readers.
type Tree struct {
	Hash      string
	Workno    string
	Version   string
	Revision  string
	UpdatedAt time.Time

	order  []string
	assets map[string]*Asset
}

// Len returns the number of assets in the tree.
func (t *Tree) Len() int {
	return len(t.order)
}

// Paths returns all asset paths in manifest-declared order.
func (t *Tree) Paths() []string {
	paths := make([]string, len(t.order))
	copy(paths, t.order)
	return paths
}

// Lookup returns the asset at path.
func (t *Tree) Lookup(path string) (*Asset, bool) {
	a, ok := t.assets[path]
	return a, ok
}

// Dir returns the parent prefix of a manifest path ("" for root entries).
func Dir(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return ""
}
