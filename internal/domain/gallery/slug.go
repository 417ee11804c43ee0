package gallery

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var (
	nonSlug   = regexp.MustCompile(`[^a-z0-9\-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

// MakeSlug turns a gallery name into a URL-safe slug.
// Example: "Emma's Spring Mini!" -> "emmas-spring-mini"
func MakeSlug(name string) string {
	base := strings.ToLower(strings.TrimSpace(name))
	base = strings.ReplaceAll(base, " ", "-")
	base = nonSlug.ReplaceAllString(base, "")
	base = multiDash.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")

	if base == "" {
		base = "gallery"
	}
	return base
}

// UniqueSlug appends -1, -2, ... until taken reports the slug is free.
func UniqueSlug(name string, taken func(string) (bool, error)) (string, error) {
	base := MakeSlug(name)
	slug := base
	for n := 1; ; n++ {
		exists, err := taken(slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

// NewAccessCode returns 8 upper-case hex characters.
func NewAccessCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}
