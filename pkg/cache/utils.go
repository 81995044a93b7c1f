package cache

import (
	"fmt"
	"strings"
)

// KeySeparator joins the segments of a cache key.
const KeySeparator = ":"

// GenerateKey returns prefix:id.
func GenerateKey(prefix string, id string) string {
	return prefix + KeySeparator + id
}

// GenerateKeyWithParams appends each param, formatted with %v, as its own segment.
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, prefix)
	for _, p := range params {
		parts = append(parts, fmt.Sprint(p))
	}
	return strings.Join(parts, KeySeparator)
}

// BuildPattern returns the glob matching every key that starts with key.
// Glob metacharacters in key are escaped.
func BuildPattern(key string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(key) + "*"
}
