package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"
)

// updatedAtLayout is the timestamp format the ziptree endpoint emits.
const updatedAtLayout = "2006-01-02 15:04:05"

type rawManifest struct {
	Hash      string                     `json:"hash"`
	Playfile  map[string]json.RawMessage `json:"playfile"`
	Tree      []json.RawMessage          `json:"tree"`
	Workno    string                     `json:"workno"`
	Version   string                     `json:"version"`
	Revision  string                     `json:"revision"`
	UpdatedAt string                     `json:"updated_at"`
}

type rawEntry struct {
	Type     string            `json:"type"`
	Name     string            `json:"name"`
	Path     string            `json:"path"`
	Hashname string            `json:"hashname"`
	Children []json.RawMessage `json:"children"`
}

type rawPlayfile struct {
	Type   string `json:"type"`
	Length int64  `json:"length"`
}

type rawVariant struct {
	Crypt  bool   `json:"crypt"`
	Name   string `json:"name"`
	Length int64  `json:"length"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// Parse builds a Tree from a raw ziptree payload. The walk is depth-first
// over the manifest's own entry arrays, so asset order is exactly the
// manifest's declared order. Any structural ambiguity aborts the parse.
func Parse(data []byte) (*Tree, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode ziptree: %v", ErrMalformedManifest, err)
	}
	if raw.Hash == "" {
		return nil, fmt.Errorf("%w: missing manifest hash", ErrMalformedManifest)
	}

	tree := &Tree{
		Hash:     raw.Hash,
		Workno:   raw.Workno,
		Version:  raw.Version,
		Revision: raw.Revision,
		assets:   make(map[string]*Asset),
	}
	if raw.UpdatedAt != "" {
		ts, err := time.Parse(updatedAtLayout, raw.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: updated_at %q: %v", ErrMalformedManifest, raw.UpdatedAt, err)
		}
		tree.UpdatedAt = ts
	}

	if err := walkEntries(tree, raw.Playfile, raw.Tree, ""); err != nil {
		return nil, err
	}
	return tree, nil
}

func walkEntries(tree *Tree, playfiles map[string]json.RawMessage, entries []json.RawMessage, parent string) error {
	for _, rawMsg := range entries {
		var entry rawEntry
		if err := json.Unmarshal(rawMsg, &entry); err != nil {
			return fmt.Errorf("%w: decode tree entry: %v", ErrMalformedManifest, err)
		}
		switch entry.Type {
		case "folder":
			if entry.Hashname != "" {
				return fmt.Errorf("%w: folder %q carries a leaf hashname", ErrMalformedManifest, entry.Name)
			}
			prefix := entry.Path
			if prefix == "" {
				prefix = joinPath(parent, entry.Name)
			}
			if err := walkEntries(tree, playfiles, entry.Children, prefix); err != nil {
				return err
			}
		case "file":
			if len(entry.Children) > 0 {
				return fmt.Errorf("%w: file %q carries container children", ErrMalformedManifest, entry.Name)
			}
			if entry.Name == "" {
				return fmt.Errorf("%w: file entry without a name under %q", ErrMalformedManifest, parent)
			}
			// Files whose hashname has no playfile record are not
			// downloadable (viewer-internal entries); they are skipped, not
			// errors.
			payload, ok := playfiles[entry.Hashname]
			if !ok {
				continue
			}
			asset, err := parseAsset(joinPath(parent, entry.Name), entry.Hashname, payload)
			if err != nil {
				return err
			}
			if _, dup := tree.assets[asset.Path]; dup {
				return fmt.Errorf("%w: duplicate path %s", ErrMalformedManifest, asset.Path)
			}
			tree.assets[asset.Path] = asset
			tree.order = append(tree.order, asset.Path)
		case "hidden":
			// Present in the manifest but intentionally not exposed.
		default:
			return fmt.Errorf("%w: unsupported tree entry type %q", ErrMalformedManifest, entry.Type)
		}
	}
	return nil
}

func parseAsset(assetPath, hashname string, payload json.RawMessage) (*Asset, error) {
	var meta rawPlayfile
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, fmt.Errorf("%w: decode playfile %s: %v", ErrMalformedManifest, hashname, err)
	}
	if meta.Type == "" {
		return nil, fmt.Errorf("%w: playfile %s has no content type", ErrMalformedManifest, hashname)
	}

	// The variants object lives under a key equal to the playfile type.
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(payload, &sections); err != nil {
		return nil, fmt.Errorf("%w: decode playfile %s: %v", ErrMalformedManifest, hashname, err)
	}
	section, ok := sections[meta.Type]
	if !ok {
		return nil, fmt.Errorf("%w: playfile %s has no %q variant section", ErrMalformedManifest, hashname, meta.Type)
	}

	keys, variants, err := parseVariants(assetPath, section)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: playfile %s has no variants", ErrMalformedManifest, hashname)
	}

	class := classify(meta.Type)
	for key, v := range variants {
		if v.Scrambled && class != ClassImage {
			return nil, fmt.Errorf("%w: scrambled %s variant on non-image asset %s", ErrMalformedManifest, key, assetPath)
		}
	}

	return &Asset{
		Path:     assetPath,
		Hashname: hashname,
		Class:    class,
		Type:     meta.Type,
		Length:   meta.Length,
		variants: variants,
		keys:     keys,
	}, nil
}

// parseVariants walks the variant object with a token decoder so key order
// stays exactly as declared in the manifest.
func parseVariants(assetPath string, section json.RawMessage) ([]string, map[string]Variant, error) {
	dec := json.NewDecoder(bytes.NewReader(section))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: variants of %s: %v", ErrMalformedManifest, assetPath, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("%w: variants of %s are not an object", ErrMalformedManifest, assetPath)
	}

	var keys []string
	variants := make(map[string]Variant)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: variants of %s: %v", ErrMalformedManifest, assetPath, err)
		}
		key := keyTok.(string)
		var rv rawVariant
		if err := dec.Decode(&rv); err != nil {
			return nil, nil, fmt.Errorf("%w: variant %s of %s: %v", ErrMalformedManifest, key, assetPath, err)
		}
		variant, err := buildVariant(assetPath, key, rv)
		if err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		variants[key] = variant
	}
	return keys, variants, nil
}

func buildVariant(assetPath, key string, rv rawVariant) (Variant, error) {
	if rv.Name == "" {
		return Variant{}, fmt.Errorf("%w: variant %s of %s has no encoded name", ErrMalformedManifest, key, assetPath)
	}
	if rv.Crypt {
		if rv.Width <= 0 || rv.Height <= 0 {
			return Variant{}, fmt.Errorf("%w: scrambled variant %s of %s lacks geometry", ErrMalformedManifest, key, assetPath)
		}
	} else {
		// Geometry is meaningful only for scrambled variants; dimensions on
		// plain variants are informational and dropped so the descriptor
		// invariant (geometry iff scrambled) holds.
		rv.Width, rv.Height = 0, 0
	}
	hint := rv.Format
	if hint == "" {
		hint = strings.TrimPrefix(path.Ext(rv.Name), ".")
	}
	return Variant{
		Name:      rv.Name,
		Length:    rv.Length,
		Scrambled: rv.Crypt,
		Width:     rv.Width,
		Height:    rv.Height,
		CodecHint: hint,
	}, nil
}

func classify(playfileType string) Class {
	switch playfileType {
	case "image":
		return ClassImage
	case "text":
		return ClassText
	case "audio", "voice":
		return ClassAudio
	case "movie", "video":
		return ClassVideo
	default:
		// Container-level playfiles (ebook_fixed, epub, pdf and friends)
		// deliver opaque payloads.
		return ClassBinary
	}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
