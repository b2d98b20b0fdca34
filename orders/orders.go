// Package orders turns human-denominated trade parameters into protocol
// orders ready for hashing.
package orders

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"perpsign/felt"
	"perpsign/shared"
	"perpsign/typeddata"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// ParseSide accepts "buy" or "sell" in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(s)) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	}
	return "", shared.InvalidInput(fmt.Sprintf("unknown order side %q", s))
}

// AssetConfig maps an asset to its on-chain id. Resolution is the number of
// on-chain units per one whole asset.
type AssetConfig struct {
	ID         felt.Felt
	Resolution int64
}

// Market describes the assets an order on a given market settles in.
type Market struct {
	Name  string
	Base  AssetConfig
	Quote AssetConfig
	Fee   AssetConfig
}

func (m Market) Validate() error {
	for _, a := range []struct {
		role string
		cfg  AssetConfig
	}{{"base", m.Base}, {"quote", m.Quote}, {"fee", m.Fee}} {
		if a.cfg.Resolution <= 0 {
			return shared.InvalidInput(fmt.Sprintf("market %s: %s resolution must be positive", m.Name, a.role))
		}
	}
	return nil
}

// Params are the trade parameters in whole-asset units.
type Params struct {
	PositionID uint32
	Side       Side
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	FeeRate    decimal.Decimal
	Expiration time.Time
	// Salt is drawn with NewSalt when nil.
	Salt *big.Int
}

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// Build converts p into an Order on market m. The position receives base
// and pays quote on a buy, and the reverse on a sell; quote is rounded
// against the position in both cases. The fee is rounded up.
func Build(m Market, p Params) (typeddata.Order, error) {
	if err := m.Validate(); err != nil {
		return typeddata.Order{}, err
	}
	if p.Side != Buy && p.Side != Sell {
		return typeddata.Order{}, shared.InvalidInput(fmt.Sprintf("unknown order side %q", p.Side))
	}
	if !p.Quantity.IsPositive() {
		return typeddata.Order{}, shared.InvalidInput("quantity must be positive")
	}
	if !p.Price.IsPositive() {
		return typeddata.Order{}, shared.InvalidInput("price must be positive")
	}
	if p.FeeRate.IsNegative() {
		return typeddata.Order{}, shared.InvalidInput("fee rate must not be negative")
	}

	base := p.Quantity.Mul(decimal.NewFromInt(m.Base.Resolution))
	if !base.IsInteger() {
		return typeddata.Order{}, shared.InvalidInput(
			fmt.Sprintf("quantity %s is finer than base resolution %d", p.Quantity, m.Base.Resolution))
	}

	notional := p.Quantity.Mul(p.Price)
	quote := notional.Mul(decimal.NewFromInt(m.Quote.Resolution))
	if p.Side == Buy {
		quote = quote.Ceil()
	} else {
		quote = quote.Floor()
	}
	fee := notional.Mul(p.FeeRate).Mul(decimal.NewFromInt(m.Fee.Resolution)).Ceil()

	for _, a := range []struct {
		name string
		v    decimal.Decimal
	}{{"base amount", base}, {"quote amount", quote}, {"fee amount", fee}} {
		if a.v.GreaterThan(maxAmount) {
			return typeddata.Order{}, shared.InvalidInput(fmt.Sprintf("%s %s overflows int64", a.name, a.v))
		}
	}

	expiration, err := expirationSeconds(p.Expiration)
	if err != nil {
		return typeddata.Order{}, err
	}

	salt := p.Salt
	if salt == nil {
		if salt, err = NewSalt(); err != nil {
			return typeddata.Order{}, err
		}
	}

	baseAmount, quoteAmount := base.IntPart(), quote.IntPart()
	if p.Side == Buy {
		quoteAmount = -quoteAmount
	} else {
		baseAmount = -baseAmount
	}

	return typeddata.Order{
		PositionID:   p.PositionID,
		BaseAssetID:  m.Base.ID,
		BaseAmount:   baseAmount,
		QuoteAssetID: m.Quote.ID,
		QuoteAmount:  quoteAmount,
		FeeAssetID:   m.Fee.ID,
		FeeAmount:    uint64(fee.IntPart()),
		Expiration:   expiration,
		Salt:         salt,
	}, nil
}

// expirationSeconds rounds t up to whole unix seconds.
func expirationSeconds(t time.Time) (uint64, error) {
	if t.IsZero() || t.Unix() < 0 {
		return 0, shared.InvalidInput("expiration must be a time after the unix epoch")
	}
	secs := t.Unix()
	if t.Nanosecond() > 0 {
		secs++
	}
	return uint64(secs), nil
}

var saltLimit = new(big.Int).Lsh(big.NewInt(1), 64)

// NewSalt returns a random salt in [0, 2^64).
func NewSalt() (*big.Int, error) {
	salt, err := rand.Int(rand.Reader, saltLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}
