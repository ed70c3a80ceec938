package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"stockfinder/internal/geo"
)

var (
	// letters in any script, digits, spaces and a little punctuation
	reQ        = regexp.MustCompile(`^[\p{L}\p{N} _'.,&()/%-]{1,80}$`)
	reCategory = regexp.MustCompile(`^[\p{L}\p{N} &,'/-]{1,60}$`)
	reSession  = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// Q validates a search query: trims, enforces allowed characters and max length.
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > 80 {
		return "", false
	}
	return s, reQ.MatchString(s)
}

// Coordinate parses a latitude/longitude pair of query strings.
func Coordinate(latRaw, lngRaw string) (lat, lng float64, ok bool) {
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err1 != nil || err2 != nil || !geo.ValidCoordinate(lat, lng) {
		return 0, 0, false
	}
	return lat, lng, true
}

// ProductID parses an optional positive integer id. Empty input is absent, not invalid.
func ProductID(s string) (id *int64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return nil, false
	}
	return &n, true
}

// Flag reads an optional boolean switch such as inStock=true.
func Flag(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return false, true
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	}
	return false, false
}

func Category(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && utf8.RuneCountInString(s) <= 60 && reCategory.MatchString(s)
}

// ChatMessage enforces a non-empty message with a reasonable max length.
func ChatMessage(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > 2000 {
		return "", false
	}
	return s, true
}

// SessionID accepts an empty id (one is minted) or a simple token.
func SessionID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s == "" || reSession.MatchString(s)
}
