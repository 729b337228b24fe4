// Package decode turns the transport encoding of a mesh payload back into bytes.
package decode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/aretw0/slicer/pkg/domain"
)

// StepFunc is called after every decoded window with the number of encoded
// characters consumed so far and the total. Returning an error stops decoding;
// the error is returned unchanged.
type StepFunc func(done, total int) error

// Base64 decodes a standard base64 payload window by window.
// window is the number of encoded characters per step and must be a positive
// multiple of 4. A data URI prefix and ASCII whitespace are ignored, and a
// missing trailing padding is tolerated.
func Base64(payload string, window int, step StepFunc) ([]byte, error) {
	if window <= 0 || window%4 != 0 {
		return nil, fmt.Errorf("decode window %d is not a positive multiple of 4", window)
	}

	encoded, err := normalize(payload)
	if err != nil {
		return nil, err
	}

	total := len(encoded)
	out := make([]byte, base64.StdEncoding.DecodedLen(total))
	n := 0

	for off := 0; off < total; off += window {
		end := min(off+window, total)

		// Padding may only terminate the final window
		if end < total {
			if pad := strings.IndexByte(encoded[off:end], '='); pad >= 0 {
				return nil, fmt.Errorf("%w: illegal base64 data at input byte %d", domain.ErrDecode, off+pad)
			}
		}

		k, err := base64.StdEncoding.Decode(out[n:], []byte(encoded[off:end]))
		if err != nil {
			var corrupt base64.CorruptInputError
			if errors.As(err, &corrupt) {
				return nil, fmt.Errorf("%w: illegal base64 data at input byte %d", domain.ErrDecode, off+int(corrupt))
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
		}
		n += k

		if step != nil {
			if err := step(end, total); err != nil {
				return nil, err
			}
		}
	}

	return out[:n], nil
}

// normalize strips the data URI prefix and whitespace and restores padding.
func normalize(payload string) (string, error) {
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 || !strings.HasSuffix(payload[:idx], ";base64") {
			return "", fmt.Errorf("%w: data URI is not base64 encoded", domain.ErrDecode)
		}
		payload = payload[idx+1:]
	}

	if strings.IndexFunc(payload, isSpace) >= 0 {
		payload = strings.Map(func(r rune) rune {
			if isSpace(r) {
				return -1
			}
			return r
		}, payload)
	}

	switch len(payload) % 4 {
	case 1:
		return "", fmt.Errorf("%w: truncated input of %d characters", domain.ErrDecode, len(payload))
	case 2:
		payload += "=="
	case 3:
		payload += "="
	}
	return payload, nil
}

func isSpace(r rune) bool {
	return r < unicode.MaxASCII && unicode.IsSpace(r)
}
