package billing

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/retailcore/backend/internal/domain/shared"
)

// Bill number generation defaults
const (
	DefaultBillNumberAttempts = 5
	DefaultShopCode           = "SH"
	NoShopCode                = "BL"
	billNumberTimeLayout      = "060102150405"
)

// BillNumberExists reports whether number is already used for the shop and user
type BillNumberExists func(ctx context.Context, number string) (bool, error)

// BillNumberGenerator builds numbers of the form <shop code><yymmddHHMMSS><100-999>.
// After MaxAttempts collisions it falls back to a UUID-derived suffix that
// cannot collide, so generation always terminates.
type BillNumberGenerator struct {
	MaxAttempts int
	Now         func() time.Time
	RandSuffix  func() int
}

// NewBillNumberGenerator creates a generator with the given attempt bound
func NewBillNumberGenerator(maxAttempts int) *BillNumberGenerator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultBillNumberAttempts
	}
	return &BillNumberGenerator{
		MaxAttempts: maxAttempts,
		Now:         time.Now,
		RandSuffix:  func() int { return 100 + rand.IntN(900) },
	}
}

// Generate returns a bill number unused according to exists
func (g *BillNumberGenerator) Generate(ctx context.Context, shopName string, exists BillNumberExists) (string, error) {
	prefix := ShopCode(shopName)
	for attempt := 0; attempt < g.MaxAttempts; attempt++ {
		candidate := fmt.Sprintf("%s%s%03d", prefix, g.Now().Format(billNumberTimeLayout), g.RandSuffix())
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", shared.NewPersistenceError("check bill number", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return FallbackBillNumber(prefix, g.Now()), nil
}

// FallbackBillNumber derives a collision-free number from a random UUID
func FallbackBillNumber(prefix string, now time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + now.Format(billNumberTimeLayout) + "-" + id
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ShopCode returns the first two letters of the shop name, upper-cased with
// diacritics removed. Names with fewer than two letters get DefaultShopCode;
// an empty name means the bill has no shop and gets NoShopCode.
func ShopCode(shopName string) string {
	if strings.TrimSpace(shopName) == "" {
		return NoShopCode
	}
	plain, _, err := transform.String(stripMarks, shopName)
	if err != nil {
		plain = shopName
	}
	letters := make([]rune, 0, 2)
	for _, r := range plain {
		if r <= unicode.MaxASCII && unicode.IsLetter(r) {
			letters = append(letters, unicode.ToUpper(r))
			if len(letters) == 2 {
				return string(letters)
			}
		}
	}
	return DefaultShopCode
}
