// Package utils holds small helpers shared across layers without pulling in
// domain types.
package utils

import "strconv"

// AtoiDefault parses an integer query parameter, falling back to def when the
// value is absent or malformed. The admin read surface uses it for its
// page/page_size/days parameters, where a bad value should select the default
// rather than fail the request.
//
// Example:
//
//	page := utils.AtoiDefault(c.Query("page"), 1)
//	days := utils.AtoiDefault(c.Query("days"), 30)
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
