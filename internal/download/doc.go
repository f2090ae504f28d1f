// Package download walks a work manifest, fetches the selected variant of
// every asset, descrambles crypt image variants, and writes the results
// under the configured output directory.
package download
