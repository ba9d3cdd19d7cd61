package utils

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// SlugLength is the length of generated slugs.
const SlugLength = 7

// 64 symbols, so masking a random byte with 63 keeps the draw unbiased.
const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// GenerateSlug returns a random URL-safe slug of SlugLength characters.
func GenerateSlug() string {
	return generate(SlugLength)
}

func generate(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand.Read does not fail on supported platforms
		panic(err)
	}
	for i := range b {
		b[i] = charset[b[i]&63]
	}
	return string(b)
}

// NewID generates a UUID string used as a primary key
func NewID() string {
	return uuid.NewString()
}

// IsID reports whether s is a well-formed record id.
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
