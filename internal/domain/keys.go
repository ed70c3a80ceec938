package domain

import "strings"

// Fold normalizes a text field for matching and composite keys.
func Fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
