package config

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// specialCharacters is the screen's default reject set; entries named in
// AcceptSpecialCharacters are taken back out.
const specialCharacters = "@#$%^&*()-_=+[]{};:\"'<>,.?/\\|~`"

// Filters screens raw records before they enter the corpus or the catalog.
// Each enabled flag rejects records exhibiting that property.
type Filters struct {
	Alphanumeric            bool   `yaml:"alphanumeric"`
	CaseSensitive           bool   `yaml:"case_sensitive"`
	MinLength               int    `yaml:"min_length"`
	MaxLength               int    `yaml:"max_length"`
	Punctuation             bool   `yaml:"punctuation"`
	Numbers                 bool   `yaml:"numbers"`
	SpecialCharacters       bool   `yaml:"special_characters"`
	AcceptSpecialCharacters string `yaml:"accept_special_characters"`
}

// DefaultFilters returns the permissive defaults: nothing screened except
// texts longer than 1024 characters.
func DefaultFilters() Filters {
	return Filters{MaxLength: 1024}
}

// Accept reports whether a record passes every enabled screen. Empty
// records never pass.
func (f Filters) Accept(text string) bool {
	if text == "" {
		return false
	}
	if f.Alphanumeric && isAlphanumeric(text) {
		return false
	}
	if f.Punctuation && containsPunctuation(text) {
		return false
	}
	if f.Numbers && containsDigits(text) {
		return false
	}
	if f.SpecialCharacters && f.containsSpecial(text) {
		return false
	}
	n := utf8.RuneCountInString(text)
	if n < f.MinLength {
		return false
	}
	if f.MaxLength > 0 && n > f.MaxLength {
		return false
	}
	return true
}

func (f Filters) containsSpecial(text string) bool {
	for _, r := range text {
		if strings.ContainsRune(specialCharacters, r) && !strings.ContainsRune(f.AcceptSpecialCharacters, r) {
			return true
		}
	}
	return false
}

func isAlphanumeric(text string) bool {
	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func containsPunctuation(text string) bool {
	for _, r := range text {
		if r < utf8.RuneSelf && unicode.IsPunct(r) || isASCIISymbol(r) {
			return true
		}
	}
	return false
}

// isASCIISymbol covers the ASCII punctuation not classed as unicode.Punct
// ($ + < = > ^ ` | ~), so the screen matches the full !-~ punctuation set.
func isASCIISymbol(r rune) bool {
	return strings.ContainsRune("$+<=>^`|~", r)
}

func containsDigits(text string) bool {
	for _, r := range text {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
