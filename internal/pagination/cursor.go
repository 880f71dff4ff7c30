// Package pagination models continuation tokens for the two storage
// backends. A token is opaque to callers (base64 of a small JSON envelope)
// but internally tagged with its source, so a structured-store key can never
// be replayed against the vector index or vice versa — each adapter checks
// the tag and rejects a foreign token instead of misreading it.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Source identifies which backend minted a token.
type Source string

const (
	// SourceStore tags tokens minted by the structured key-value store.
	SourceStore Source = "store"
	// SourceVector tags tokens minted by the vector index.
	SourceVector Source = "vector"
)

// Token is the decoded form of a continuation token. Exactly one of the
// payload fields is meaningful, selected by Source.
type Token struct {
	// Source tags the backend this token belongs to.
	Source Source `json:"s"`
	// StoreKey is the structured store's last-evaluated key, flattened to
	// attribute name → (string value, numeric flag). Only set for SourceStore.
	StoreKey map[string]KeyAttr `json:"k,omitempty"`
	// Offset is the result offset for the vector index. Only set for SourceVector.
	Offset uint64 `json:"o,omitempty"`
}

// KeyAttr is one attribute of a structured-store continuation key.
type KeyAttr struct {
	// Value is the attribute value rendered as a string.
	Value string `json:"v"`
	// Numeric records whether the attribute is a DynamoDB number, so the
	// adapter can rebuild the exact attribute type on the next request.
	Numeric bool `json:"n,omitempty"`
}

// NewStoreToken builds a token for a structured-store continuation key.
func NewStoreToken(key map[string]KeyAttr) Token {
	return Token{Source: SourceStore, StoreKey: key}
}

// NewVectorToken builds a token for a vector-index result offset.
func NewVectorToken(offset uint64) Token {
	return Token{Source: SourceVector, Offset: offset}
}

// Encode renders the token as an opaque URL-safe string.
func (t Token) Encode() string {
	raw, err := json.Marshal(t)
	if err != nil {
		// Token fields are plain maps and integers; marshal cannot fail.
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode parses an opaque token string. An empty string is not a valid
// token — callers treat absence as "first page" before calling Decode.
func Decode(s string) (Token, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Token{}, fmt.Errorf("pagination: malformed token: %w", err)
	}
	var t Token
	if err := json.Unmarshal(raw, &t); err != nil {
		return Token{}, fmt.Errorf("pagination: malformed token: %w", err)
	}
	if t.Source != SourceStore && t.Source != SourceVector {
		return Token{}, fmt.Errorf("pagination: unknown token source %q", t.Source)
	}
	return t, nil
}

// DecodeFor parses a token and verifies it was minted by the expected
// source. This is the enforcement point for the cursor tagged union.
func DecodeFor(s string, want Source) (Token, error) {
	t, err := Decode(s)
	if err != nil {
		return Token{}, err
	}
	if t.Source != want {
		return Token{}, fmt.Errorf("pagination: token minted by %q cannot be used with %q", t.Source, want)
	}
	return t, nil
}
