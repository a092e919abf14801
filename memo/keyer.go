package memo

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/jonwraymond/shadowcopy/object"
	"github.com/jonwraymond/shadowcopy/shadow"
)

// canonicalJSON sorts map keys, which makes encodings deterministic.
var canonicalJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Keyer derives cache keys from a callable's path and call arguments.
//
// Contract:
// - Determinism: equal inputs must produce equal keys.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(path []string, args []any) (string, error)
}

// DefaultKeyer generates SHA-256 based keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
// Format: memo:<path key>:<hash>, the path key being shadow.PathKey(path),
// and hash the first 16 hex characters of SHA-256 over the canonical
// JSON of args. Object arguments are encoded by value.
func (k *DefaultKeyer) Key(path []string, args []any) (string, error) {
	native := make([]any, len(args))
	for i, a := range args {
		v, err := object.ToNative(shadow.Unwrap(a))
		if err != nil {
			return "", fmt.Errorf("memo: failed to canonicalize argument %d: %w", i, err)
		}
		native[i] = v
	}

	canonical, err := canonicalJSON.Marshal(native)
	if err != nil {
		return "", fmt.Errorf("memo: failed to canonicalize arguments: %w", err)
	}

	hash := sha256.Sum256(canonical)
	return fmt.Sprintf("memo:%s:%s", shadow.PathKey(path), hex.EncodeToString(hash[:8])), nil
}

var _ Keyer = (*DefaultKeyer)(nil)
