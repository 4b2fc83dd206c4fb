package magiclink

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ErrMissingHost reports a request carrying neither a forwarded-host
// header nor a host field.
var ErrMissingHost = errors.New("could not determine request origin")

// ResolveOrigin derives the canonical scheme://host for the request.
// The same resolver builds outgoing links and checks origin binding at
// redemption, so a token issued by one deployment is rejected by any
// other.
func ResolveOrigin(r *http.Request) (string, error) {
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	if host == "" {
		return "", ErrMissingHost
	}

	scheme := "https"
	switch {
	case strings.Contains(host, "localhost"), strings.Contains(host, "127.0.0.1"):
		scheme = "http"
	case r.Header.Get("X-Forwarded-Proto") != "":
		scheme = r.Header.Get("X-Forwarded-Proto")
	}

	return scheme + "://" + host, nil
}

// newNonce draws a uniform random 32-bit value and renders it as a
// decimal string, unique per issuance attempt.
func newNonce() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return strconv.FormatUint(uint64(binary.BigEndian.Uint32(buf[:])), 10), nil
}
