package permissions

import (
	"sort"
	"strings"
)

// Wildcard grants every permission when present in a permission set.
const Wildcard = "*"

// Normalize trims, de-duplicates, and sorts permissions.
func Normalize(perms []string) []string {
	if len(perms) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, perm := range perms {
		trimmed := strings.TrimSpace(perm)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	sort.Strings(normalized)
	return normalized
}

// Has reports whether the permission set satisfies the required permission.
// The wildcard grant satisfies any requirement.
func Has(perms []string, required string) bool {
	required = strings.TrimSpace(required)
	if required == "" {
		return false
	}
	for _, perm := range perms {
		if perm == required || perm == Wildcard {
			return true
		}
	}
	return false
}
