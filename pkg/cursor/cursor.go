// Package cursor encodes page positions as opaque, self-contained tokens.
// A token carries the sort-key tuple of the last record on a page plus an
// 8-byte fingerprint of the sort spec that produced it; nothing in it
// references storage positions, so tokens stay valid across process
// restarts and concurrent writes.
package cursor

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/quirelab/quire/pkg/model"
)

// Version tags the envelope layout. Tokens carrying any other version are
// rejected as malformed rather than guessed at.
const Version = 1

// MaxTokenLen bounds accepted token length; anything longer is malformed
// before any decoding work happens.
const MaxTokenLen = 4096

type envelope struct {
	Version uint8         `msgpack:"v"`
	Spec    []byte        `msgpack:"s"`
	Key     []interface{} `msgpack:"k"`
}

// Decoded is the parsed content of a token.
type Decoded struct {
	Fingerprint []byte
	Key         []interface{}
}

// Matches reports whether the token was minted under a sort spec with the
// given fingerprint and key arity. A failed match is not an error: the
// pagination controller ignores the token and degrades to a fresh page.
func (d *Decoded) Matches(fingerprint []byte, arity int) bool {
	return bytes.Equal(d.Fingerprint, fingerprint) && len(d.Key) == arity
}

// Encode seals a fingerprint and key tuple into an opaque token:
// a msgpack envelope wrapped in unpadded base64url.
func Encode(fingerprint []byte, key []interface{}) (string, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	err := enc.Encode(envelope{
		Version: Version,
		Spec:    fingerprint,
		Key:     key,
	})
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode parses a token back into its fingerprint and key tuple. Hostile,
// truncated or oversized input never panics; every failure wraps
// model.ErrMalformedCursor for the caller to map to a client error.
// Decoded key values are normalized: strings stay strings, integers come
// back as int64, timestamps as time.Time.
func Decode(token string) (*Decoded, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", model.ErrMalformedCursor)
	}
	if len(token) > MaxTokenLen {
		return nil, fmt.Errorf("%w: token exceeds %d bytes", model.ErrMalformedCursor, MaxTokenLen)
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedCursor, err)
	}

	var env envelope
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedCursor, err)
	}
	if env.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", model.ErrMalformedCursor, env.Version)
	}
	if env.Key == nil {
		return nil, fmt.Errorf("%w: missing key tuple", model.ErrMalformedCursor)
	}

	key := make([]interface{}, len(env.Key))
	for i, v := range env.Key {
		key[i] = model.NormalizeValue(v)
	}
	return &Decoded{Fingerprint: env.Spec, Key: key}, nil
}
