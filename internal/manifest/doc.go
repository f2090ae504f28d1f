// Package manifest models the DLsite Play ziptree: the per-work file
// manifest describing every playable asset and its encoded variants.
//
// A Tree is built once from the raw manifest payload and is read-only
// afterwards; iteration order is the manifest's own declared order, never a
// Go map order.
package manifest
