package metrics

import "strings"

// norm keeps label values bounded and consistent.
func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
