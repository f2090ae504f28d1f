package manifest

import "errors"

var (
	// ErrMalformedManifest indicates the manifest payload was structurally
	// ambiguous or incomplete. Parsing aborts; a partial tree is never
	// returned.
	ErrMalformedManifest = errors.New("malformed manifest")

	// ErrVariantNotFound indicates the requested variant key is absent from
	// an asset. Callers decide whether to fall back to another key.
	ErrVariantNotFound = errors.New("variant not found")
)
