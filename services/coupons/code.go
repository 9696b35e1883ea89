package coupons

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultCodeLength is the length of generated coupon codes
const DefaultCodeLength = 8

// GenerateCode returns length upper-case hex characters taken from a random
// UUID. length is clamped to [1, 32].
func GenerateCode(length int) string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	if length < 1 {
		length = 1
	}
	if length > len(hex) {
		length = len(hex)
	}
	return hex[:length]
}
