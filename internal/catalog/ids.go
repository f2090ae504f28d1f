package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidID indicates a string held no DLsite identifier.
var ErrInvalidID = errors.New("invalid dlsite id")

var (
	productRe = regexp.MustCompile(`(?i)(?:^|[^0-9A-Za-z_])([BRV]J[0-9]+)`)
	makerRe   = regexp.MustCompile(`(?i)(?:^|[^0-9A-Za-z_])([BRV]G[0-9]+)`)
)

// FindProductID extracts a DLsite product ID (RJ/BJ/VJ prefix) from s.
func FindProductID(s string) (string, error) {
	if m := productRe.FindStringSubmatch(s); m != nil {
		return strings.ToUpper(m[1]), nil
	}
	return "", fmt.Errorf("%w: no product ID in %q", ErrInvalidID, s)
}

// FindMakerID extracts a DLsite maker ID (RG/BG/VG prefix) from s.
func FindMakerID(s string) (string, error) {
	if m := makerRe.FindStringSubmatch(s); m != nil {
		return strings.ToUpper(m[1]), nil
	}
	return "", fmt.Errorf("%w: no maker ID in %q", ErrInvalidID, s)
}
