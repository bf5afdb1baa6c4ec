package umod

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// EncodingByName returns the text encoding registered under an IANA name,
// for example "IBM437" or "windows-1252". The names "" and "raw" return a
// nil encoding, which leaves entry names byte for byte.
func EncodingByName(name string) (encoding.Encoding, error) {
	if name == "" || strings.EqualFold(name, "raw") {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("name encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("name encoding %q: not supported", name)
	}
	return enc, nil
}

// decodeName turns a stored entry name into a slash-separated path.
//
// Stored lengths include the NUL terminator, so the name is cut at the
// first NUL. Backslashes become slashes and a trailing slash is dropped.
// If enc fails to decode, the raw bytes are used and the error is returned
// alongside the fallback path.
func decodeName(raw []byte, enc encoding.Encoding) (string, error) {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}

	var decodeErr error
	text := string(raw)
	if enc != nil {
		decoded, err := enc.NewDecoder().Bytes(raw)
		if err != nil {
			decodeErr = err
		} else {
			text = string(decoded)
		}
	}

	text = strings.ReplaceAll(text, `\`, "/")
	return strings.TrimRight(text, "/"), decodeErr
}
