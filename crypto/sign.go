package crypto

import (
	"errors"
	"fmt"
	"math/big"

	"perpsign/felt"
	"perpsign/shared"
)

// MaxNonceRetries bounds how many reseeded RFC 6979 nonces Sign tries after
// the first one turns out degenerate.
const MaxNonceRetries = 32

var errDegenerateNonce = errors.New("nonce produced a degenerate signature")

// Signature is a STARK-curve ECDSA signature. V is the parity of the y
// coordinate of the nonce point.
type Signature struct {
	R felt.Felt `json:"r"`
	S felt.Felt `json:"s"`
	V felt.Felt `json:"v"`
}

// PublicKey returns the x-coordinate of priv*G.
func PublicKey(priv felt.Felt) (felt.Felt, error) {
	x, _, err := PublicKeyPoint(priv)
	return x, err
}

// PublicKeyPoint returns both coordinates of priv*G.
func PublicKeyPoint(priv felt.Felt) (x, y felt.Felt, err error) {
	d := priv.BigInt()
	if !inScalarRange(d) {
		return felt.Zero, felt.Zero, shared.SigningFailed("private key must be in [1, curve order)", nil)
	}
	p := scalarMulBase(d)
	return felt.FromElement(p.X), felt.FromElement(p.Y), nil
}

// Sign signs msg with priv using RFC 6979 nonces. When a nonce yields a
// degenerate signature the nonce is regenerated with seeds 1, 2, ... up to
// MaxNonceRetries before giving up.
func Sign(msg, priv felt.Felt) (Signature, error) {
	if err := checkSigningInputs(msg, priv); err != nil {
		return Signature{}, err
	}

	for seed := uint64(0); seed <= MaxNonceRetries; seed++ {
		k := GenerateNonce(msg, priv, seed)
		sig, err := sign(msg.BigInt(), priv.BigInt(), k)
		if err == nil {
			return sig, nil
		}
		if !errors.Is(err, errDegenerateNonce) {
			return Signature{}, err
		}
	}

	return Signature{}, shared.SigningFailed(
		fmt.Sprintf("no usable nonce after %d retries", MaxNonceRetries), errDegenerateNonce)
}

// SignWithNonce performs a single signing attempt with the caller's nonce k.
// A degenerate result is reported as a signing error; there is no retry.
func SignWithNonce(msg, priv felt.Felt, k *big.Int) (Signature, error) {
	if err := checkSigningInputs(msg, priv); err != nil {
		return Signature{}, err
	}
	if k == nil || !inScalarRange(k) {
		return Signature{}, shared.SigningFailed("nonce must be in [1, curve order)", nil)
	}

	sig, err := sign(msg.BigInt(), priv.BigInt(), k)
	if err != nil {
		return Signature{}, shared.SigningFailed("degenerate nonce", err)
	}
	return sig, nil
}

func checkSigningInputs(msg, priv felt.Felt) error {
	if !inScalarRange(priv.BigInt()) {
		return shared.SigningFailed("private key must be in [1, curve order)", nil)
	}
	if !belowUpperBound(msg.BigInt()) {
		return shared.SigningFailed("message hash must be below 2^251", nil)
	}
	return nil
}

// sign computes r = (k*G).x, s = k^-1 * (m + r*d) mod n.
func sign(m, d, k *big.Int) (Signature, error) {
	R := scalarMulBase(k)
	r := felt.FromElement(R.X).BigInt()
	if r.Sign() == 0 || !belowUpperBound(r) {
		return Signature{}, errDegenerateNonce
	}

	kInv := new(big.Int).ModInverse(k, KeyValueLimit)
	s := new(big.Int).Mul(r, d)
	s.Add(s, m)
	s.Mul(s, kInv)
	s.Mod(s, KeyValueLimit)
	if s.Sign() == 0 || !belowUpperBound(s) {
		return Signature{}, errDegenerateNonce
	}

	y := felt.FromElement(R.Y).BigInt()
	return Signature{
		R: mustFelt(r),
		S: mustFelt(s),
		V: felt.FromUint64(uint64(y.Bit(0))),
	}, nil
}

// Verify checks sig over msg against the public key x-coordinate pub. Any
// out-of-range component, or a pub that is not on the curve, yields false.
// Since pub carries no y parity, both +Q and -Q are accepted.
func Verify(msg felt.Felt, sig Signature, pub felt.Felt) bool {
	m := msg.BigInt()
	r := sig.R.BigInt()
	s := sig.S.BigInt()

	if !belowUpperBound(m) {
		return false
	}
	if r.Sign() == 0 || !belowUpperBound(r) {
		return false
	}
	if s.Sign() == 0 || !belowUpperBound(s) {
		return false
	}

	Q, ok := pointFromX(pub)
	if !ok {
		return false
	}

	w := new(big.Int).ModInverse(s, KeyValueLimit)
	if w == nil || w.Sign() == 0 || !belowUpperBound(w) {
		return false
	}

	zw := new(big.Int).Mul(m, w)
	zw.Mod(zw, KeyValueLimit)
	rw := new(big.Int).Mul(r, w)
	rw.Mod(rw, KeyValueLimit)

	zwG := scalarMulBase(zw)
	rwQ := Q
	rwQ.ScalarMultiplication(&Q, rw)

	sum, diff := addSub(&zwG, &rwQ)
	return felt.FromElement(sum.X).Equal(sig.R) || felt.FromElement(diff.X).Equal(sig.R)
}

func mustFelt(v *big.Int) felt.Felt {
	f, err := felt.FromBigInt(v)
	if err != nil {
		panic(err)
	}
	return f
}
