package utils

import (
	"strconv"
	"strings"
)

// StringToIntDefault converts s to int, returning def when s is empty or not a number.
func StringToIntDefault(s string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return i
}

// ParseID parses a positive numeric id from a route parameter.
func ParseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
