// Package felt implements the Starknet field element used by every hash and
// signature in perpsign. Values are always reduced modulo
// P = 2^251 + 17*2^192 + 1; parsing rejects anything outside [0, P) instead of
// reducing it.
package felt

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"

	"perpsign/shared"
)

// Felt is an immutable field element. The zero value is 0.
type Felt struct {
	v fp.Element
}

var (
	Zero Felt
	One  = FromUint64(1)
)

// Modulus returns a copy of the field characteristic P.
func Modulus() *big.Int {
	return fp.Modulus()
}

// FromElement wraps a gnark-crypto field element.
func FromElement(e fp.Element) Felt {
	return Felt{v: e}
}

func FromUint64(x uint64) Felt {
	var f Felt
	f.v.SetUint64(x)
	return f
}

// FromInt64 maps negative values to P - |x|, the Cairo encoding of signed integers.
func FromInt64(x int64) Felt {
	if x >= 0 {
		return FromUint64(uint64(x))
	}
	// -(x+1) cannot overflow for math.MinInt64
	abs := uint64(-(x + 1)) + 1
	var f Felt
	f.v.SetUint64(abs)
	f.v.Neg(&f.v)
	return f
}

// FromBigInt returns x as a field element; x must lie in [0, P).
func FromBigInt(x *big.Int) (Felt, error) {
	if x == nil {
		return Zero, shared.FieldRange("nil integer")
	}
	if x.Sign() < 0 {
		return Zero, shared.FieldRange("negative value")
	}
	if x.Cmp(fp.Modulus()) >= 0 {
		return Zero, shared.FieldRange(fmt.Sprintf("value 0x%s exceeds field modulus", x.Text(16)))
	}
	var f Felt
	f.v.SetBigInt(x)
	return f, nil
}

// FromBytes interprets b as a big-endian integer in [0, P).
func FromBytes(b []byte) (Felt, error) {
	if len(b) > fp.Bytes {
		return Zero, shared.FieldRange(fmt.Sprintf("%d bytes exceed field width", len(b)))
	}
	return FromBigInt(new(big.Int).SetBytes(b))
}

// FromHex parses an optionally 0x-prefixed hex string of at most 64 digits.
func FromHex(s string) (Felt, error) {
	digits := shared.StripHexPrefix(s)
	if !shared.IsValidHex(digits) {
		return Zero, shared.InvalidHexEncoding(fmt.Sprintf("invalid felt hex %q", s), nil)
	}
	if len(digits) > shared.FeltHexLength {
		return Zero, shared.FieldRange(fmt.Sprintf("felt hex too long: max %d digits, got %d", shared.FeltHexLength, len(digits)))
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return Zero, shared.InvalidHexEncoding(fmt.Sprintf("invalid felt hex %q", s), err)
	}
	return FromBytes(b)
}

// MustFromHex is FromHex for compile-time constants; it panics on bad input.
func MustFromHex(s string) Felt {
	f, err := FromHex(s)
	if err != nil {
		panic(fmt.Sprintf("felt: bad constant %q: %v", s, err))
	}
	return f
}

// FromShortString encodes s as a Cairo short string: up to 31 ASCII bytes
// read as a big-endian integer.
func FromShortString(s string) (Felt, error) {
	if len(s) > shared.MaxShortStringLength {
		return Zero, shared.FieldRange(fmt.Sprintf("short string %q longer than %d bytes", s, shared.MaxShortStringLength))
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return Zero, shared.FieldRange(fmt.Sprintf("short string %q is not ASCII", s))
		}
	}
	return FromBytes([]byte(s))
}

func (f Felt) Element() fp.Element {
	return f.v
}

func (f Felt) BigInt() *big.Int {
	return f.v.BigInt(new(big.Int))
}

// Bytes returns the 32-byte big-endian encoding.
func (f Felt) Bytes() [32]byte {
	return f.v.Bytes()
}

// Hex returns the minimal 0x-prefixed lowercase form ("0x0" for zero).
func (f Felt) Hex() string {
	return "0x" + f.BigInt().Text(16)
}

// FixedHex returns the canonical 0x-prefixed, 64-digit zero-padded form.
func (f Felt) FixedHex() string {
	b := f.Bytes()
	return "0x" + hex.EncodeToString(b[:])
}

func (f Felt) String() string {
	return f.Hex()
}

func (f Felt) Equal(g Felt) bool {
	return f.v.Equal(&g.v)
}

func (f Felt) IsZero() bool {
	return f.v.IsZero()
}

// Cmp compares the integer values of f and g.
func (f Felt) Cmp(g Felt) int {
	return f.BigInt().Cmp(g.BigInt())
}

// MarshalText encodes f as fixed-width hex.
func (f Felt) MarshalText() ([]byte, error) {
	return []byte(f.FixedHex()), nil
}

func (f *Felt) UnmarshalText(text []byte) error {
	v, err := FromHex(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
