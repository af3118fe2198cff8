package id

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a fresh record identifier.
func New() string {
	return uuid.NewString()
}

// Ref joins channel-native fields into a reference, skipping empty parts.
// Ref("2025-10-11", "美团", "") -> "2025-10-11_美团"
func Ref(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "_")
}

// Short returns the first 8 characters of an identifier for log output.
func Short(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
