// Package play talks to the DLsite Play API: download tokens, the ziptree
// manifest, and raw variant bytes. Authentication is the caller's concern;
// the client runs over whatever cookie-bearing HTTP client it is given.
package play
