// Package catalog looks up public product metadata for DLsite works.
package catalog
