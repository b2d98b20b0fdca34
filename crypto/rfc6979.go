package crypto

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"perpsign/felt"
)

var (
	singleZero      = []byte{0x00}
	singleOne       = []byte{0x01}
	oneInitializer  = bytes.Repeat([]byte{0x01}, sha256.Size)
	zeroInitializer = make([]byte, sha256.Size)
)

// GenerateNonce returns the deterministic RFC 6979 nonce (HMAC-SHA256) for
// signing msg with priv. A non-zero seed is appended as extra data with its
// leading zero bytes stripped; seed 0 means no extra data.
//
// The curve order is 252 bits, so each 256-bit candidate is shifted right by
// 4 bits before the range check.
func GenerateNonce(msg, priv felt.Felt, seed uint64) *big.Int {
	x := priv.Bytes()
	h := msg.Bytes()

	var seedBuf [8]byte
	binary.BigEndian.PutUint64(seedBuf[:], seed)
	extra := bytes.TrimLeft(seedBuf[:], "\x00")

	// Step B/C
	v := append([]byte(nil), oneInitializer...)
	k := append([]byte(nil), zeroInitializer...)

	// Step D-G
	for _, sep := range [][]byte{singleZero, singleOne} {
		mac := hmac.New(sha256.New, k)
		mac.Write(v)
		mac.Write(sep)
		mac.Write(x[:])
		mac.Write(h[:])
		mac.Write(extra)
		k = mac.Sum(nil)

		mac = hmac.New(sha256.New, k)
		mac.Write(v)
		v = mac.Sum(nil)
	}

	// Step H
	candidate := new(big.Int)
	for {
		mac := hmac.New(sha256.New, k)
		mac.Write(v)
		v = mac.Sum(nil)

		candidate.SetBytes(v)
		candidate.Rsh(candidate, 4)
		if inScalarRange(candidate) {
			return candidate
		}

		mac = hmac.New(sha256.New, k)
		mac.Write(v)
		mac.Write(singleZero)
		k = mac.Sum(nil)

		mac = hmac.New(sha256.New, k)
		mac.Write(v)
		v = mac.Sum(nil)
	}
}
