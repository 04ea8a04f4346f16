package identifiers

import "strings"

// Type represents the kind of ISBN a value holds.
type Type string

const (
	TypeISBN10  Type = "isbn_10"
	TypeISBN13  Type = "isbn_13"
	TypeUnknown Type = ""
)

// DetectISBN reports whether value is a valid ISBN-10 or ISBN-13 once
// normalized.
func DetectISBN(value string) Type {
	normalized := NormalizeISBN(value)
	if len(normalized) == 13 && ValidateISBN13(normalized) {
		return TypeISBN13
	}
	if len(normalized) == 10 && ValidateISBN10(normalized) {
		return TypeISBN10
	}
	return TypeUnknown
}

// LookupISBN picks the ISBN used to query bibliographic providers: the
// 10-digit form when present, else the 13-digit one. It returns "" when
// neither is available.
func LookupISBN(isbn10, isbn13 string) string {
	if n := NormalizeISBN(isbn10); n != "" {
		return n
	}
	return NormalizeISBN(isbn13)
}

// NormalizeISBN strips an "ISBN" or "ISBN:" prefix and every character
// other than digits and the X check character.
func NormalizeISBN(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	value = strings.TrimPrefix(value, "ISBN")
	value = strings.TrimPrefix(value, ":")

	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == 'X' {
			return r
		}
		return -1
	}, value)
}

// ValidateISBN10 checks the mod-11 checksum of a normalized ISBN-10, whose
// last character may be X.
func ValidateISBN10(isbn string) bool {
	if len(isbn) != 10 {
		return false
	}
	sum := 0
	for i := 0; i < 10; i++ {
		d, ok := digit(isbn[i], i == 9)
		if !ok {
			return false
		}
		sum += d * (10 - i)
	}
	return sum%11 == 0
}

// ValidateISBN13 checks the mod-10 checksum of a normalized ISBN-13.
func ValidateISBN13(isbn string) bool {
	if len(isbn) != 13 {
		return false
	}
	sum := 0
	for i := 0; i < 13; i++ {
		d, ok := digit(isbn[i], false)
		if !ok {
			return false
		}
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return sum%10 == 0
}

func digit(c byte, allowX bool) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case allowX && (c == 'X' || c == 'x'):
		return 10, true
	default:
		return 0, false
	}
}
