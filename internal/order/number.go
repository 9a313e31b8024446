package order

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NumberPrefix starts every generated order number.
const NumberPrefix = "ORD-"

// NewNumber generates an order number of the form ORD- followed by 8
// uppercase alphanumeric characters. Uniqueness is enforced by the
// repository's unique constraint; on a collision the caller retries
// with a fresh number.
func NewNumber() string {
	id := uuid.New()
	return NumberPrefix + strings.ToUpper(hex.EncodeToString(id[:4]))
}

// ValidNumber reports whether s matches the generated order number shape.
func ValidNumber(s string) bool {
	if !strings.HasPrefix(s, NumberPrefix) {
		return false
	}
	suffix := strings.TrimPrefix(s, NumberPrefix)
	if len(suffix) != 8 {
		return false
	}
	for _, r := range suffix {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
