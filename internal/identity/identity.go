// Package identity derives deterministic keys from biographical
// attributes. The keys exist only to collapse duplicate embedded person
// records during migration; they are never persisted.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrBlankIdentity is returned for a record with neither a first nor a
// last name. Hashing blanks would silently merge unrelated anonymous
// entries into one person.
var ErrBlankIdentity = errors.New("person has neither first nor last name")

// Key computes the identity key for a person: SHA-256 over a canonical
// encoding of the (first, last) tuple, hex-encoded.
//
// The encoding is built field by field rather than by serializing a
// struct, so the hash is stable by construction: last is normalized to
// an array (missing -> null, scalar -> one-element array) and the field
// order is fixed. Name order within last is preserved -- it is
// chronologically significant, and "Smith, Jones" is a different
// identity from "Jones, Smith".
func Key(first string, last []string) (string, error) {
	if first == "" && len(last) == 0 {
		return "", ErrBlankIdentity
	}

	var b strings.Builder
	b.WriteString(`{"first":`)
	writeJSONString(&b, first)
	b.WriteString(`,"last":`)
	if last == nil {
		b.WriteString("null")
	} else {
		b.WriteByte('[')
		for i, l := range last {
			if i > 0 {
				b.WriteByte(',')
			}
			writeJSONString(&b, l)
		}
		b.WriteByte(']')
	}
	b.WriteByte('}')

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:]), nil
}

// NormalizeLast converts a raw JSON "last" value from a legacy record
// into the array form Key expects: absent -> nil, scalar string ->
// single element, array of strings -> as-is. Legacy archives used all
// three shapes interchangeably.
func NormalizeLast(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var scalar string
	if err := json.Unmarshal(raw, &scalar); err == nil {
		return []string{scalar}, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	// Some archives carry [{"last": "...", "type": "..."}] objects.
	var entries []struct {
		Last string `json:"last"`
	}
	if err := json.Unmarshal(raw, &entries); err == nil {
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.Last)
		}
		return out, nil
	}

	return nil, fmt.Errorf("unrecognized last-name shape: %s", string(raw))
}

func writeJSONString(b *strings.Builder, s string) {
	enc, _ := json.Marshal(s)
	b.Write(enc)
}
