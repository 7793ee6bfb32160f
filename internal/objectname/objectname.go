// Package objectname derives the canonical on-disk/DB identifier for an
// object from its (filename, version) pair.
package objectname

import (
	"encoding/base64"
	"fmt"
)

// Encode returns the canonical object_name for filename and an optional
// version tag. With no version, it is base64(utf8(filename)); with a
// version it is base64(utf8(filename + ":" + salt + ":" + version)).
func Encode(filename, salt, version string) string {
	plain := filename
	if version != "" {
		plain = fmt.Sprintf("%s:%s:%s", filename, salt, version)
	}
	return base64.StdEncoding.EncodeToString([]byte(plain))
}

// Decode reverses Encode, returning the plain UTF-8 text that was encoded.
// Callers must not assume any structural parsing of the result: a filename
// containing ":" is indistinguishable from a salted "filename:salt:version"
// form (spec.md §9's documented ambiguity).
func Decode(objectName string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(objectName)
	if err != nil {
		return "", fmt.Errorf("decode object name: %w", err)
	}
	return string(b), nil
}
