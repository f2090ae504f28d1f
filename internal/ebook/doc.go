// Package ebook serves ordered page access for paginated publications: a
// sequencer over the contiguous run of page images that makes up one work,
// and the keystream reader the viewer transport requires.
package ebook
