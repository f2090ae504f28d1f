package ebook

import "io"

// KeystreamReader XOR-decrypts the viewer page transport against its
// repeating key as bytes stream through. A nil or empty key passes bytes
// through untouched.
func KeystreamReader(r io.Reader, key []byte) io.Reader {
	if len(key) == 0 {
		return r
	}
	return &keystreamReader{r: r, key: key}
}

type keystreamReader struct {
	r      io.Reader
	key    []byte
	offset int64
}

func (k *keystreamReader) Read(p []byte) (int, error) {
	n, err := k.r.Read(p)
	for i := 0; i < n; i++ {
		p[i] ^= k.key[(k.offset+int64(i))%int64(len(k.key))]
	}
	k.offset += int64(n)
	return n, err
}
