package common

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

const orderIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewOrderID generates a unique per-attempt order identifier in the form
// order_<ms-timestamp>_<9-char-random>.
func NewOrderID() string {
	return fmt.Sprintf("order_%d_%s", time.Now().UnixMilli(), randomString(9))
}

func randomString(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(orderIDAlphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			b[i] = orderIDAlphabet[0]
			continue
		}
		b[i] = orderIDAlphabet[idx.Int64()]
	}
	return string(b)
}

var (
	slugInvalidRegex  = regexp.MustCompile(`[^a-z0-9-]`)
	slugCollapseRegex = regexp.MustCompile(`-+`)
	slugFormatRegex   = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
)

// Slugify converts a display name into a URL slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	s = slugInvalidRegex.ReplaceAllString(s, "")
	s = slugCollapseRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ValidSlug reports whether s is usable as a gym slug: lowercase
// alphanumerics and hyphens, 3-63 chars, no leading/trailing hyphen, and not
// a reserved route segment.
func ValidSlug(s string) bool {
	if len(s) < 3 || len(s) > 63 {
		return false
	}
	if !slugFormatRegex.MatchString(s) {
		return false
	}
	for _, reserved := range ReservedSlugs {
		if s == reserved {
			return false
		}
	}
	return true
}
