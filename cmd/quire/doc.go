// Command quire downloads purchased DLsite works: it fetches the work
// manifest, descrambles protected page images, and writes restored files to
// the local output directory.
package main
