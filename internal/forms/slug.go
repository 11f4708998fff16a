// Package forms implements the form-definition service: definitions,
// sections, fields, placements and their lifecycle.
package forms

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/arvena/talentd/internal/models"
)

// Slugify derives a URL-safe slug from a display name. Whitespace runs
// (and existing separators) become single hyphens, every other character
// outside [a-z0-9] is stripped. The result is never empty.
func Slugify(name string) string {
	var b strings.Builder
	pendingHyphen := false

	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingHyphen = true
		}
	}

	slug := b.String()
	if slug == "" {
		return "form"
	}
	return slug
}

// GenerateFieldKey produces a machine identifier for a new field that does
// not collide with any key already present in the form. Collisions get a
// numeric suffix.
func GenerateFieldKey(fieldType models.FieldType, existing map[string]bool) string {
	base := string(fieldType) + "_field"
	key := base
	for n := 2; existing[key]; n++ {
		key = fmt.Sprintf("%s_%d", base, n)
	}
	return key
}
