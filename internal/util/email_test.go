package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	valid := []string{
		"a@b.com",
		"user@example.com",
		"User.Name+tag@sub.example.co",
		"x@y.io",
	}
	for _, in := range valid {
		assert.True(t, ValidEmail(in), "expected valid: %q", in)
	}

	invalid := []string{
		"",
		"not-an-email",
		"missing-at.com",
		"no-dot@example",
		"two@@example.com",
		"spaces in@example.com",
		"trailing@example.com ",
		"@example.com",
		"user@",
	}
	for _, in := range invalid {
		assert.False(t, ValidEmail(in), "expected invalid: %q", in)
	}
}

func TestValidEmailIsPure(t *testing.T) {
	// same input, same answer, no state between calls
	assert.True(t, ValidEmail("a@b.com"))
	assert.True(t, ValidEmail("a@b.com"))
	assert.False(t, ValidEmail("nope"))
	assert.False(t, ValidEmail("nope"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("User@Example.com"))
	assert.Equal(t, "user@example.com", NormalizeEmail("  USER@EXAMPLE.COM  "))
	assert.Equal(t, "", NormalizeEmail("   "))
}
