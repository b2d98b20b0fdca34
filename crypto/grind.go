package crypto

import (
	"crypto/sha256"
	"math/big"

	"perpsign/felt"
)

// maxAllowedValue is the largest multiple of KeyValueLimit not above 2^256.
// SHA-256 outputs at or above it are rejected so the reduction mod
// KeyValueLimit stays uniform.
var maxAllowedValue = func() *big.Int {
	two256 := new(big.Int).Lsh(big.NewInt(1), 256)
	rem := new(big.Int).Mod(two256, KeyValueLimit)
	return two256.Sub(two256, rem)
}()

// GrindKey maps an arbitrary unsigned seed to a uniformly distributed private
// key in [0, KeyValueLimit) by rejection sampling over
// SHA-256(seed || index), index = 0, 1, 2, ...
//
// The loop has no iteration cap. 2^256 mod KeyValueLimit is close to 2^251,
// so roughly one candidate in 32 is rejected and a second round is occasionally needed.
func GrindKey(seed *big.Int) felt.Felt {
	if seed.Sign() < 0 {
		panic("crypto: GrindKey called with negative seed")
	}
	seedBytes := minimalBytes(seed)

	index := new(big.Int)
	for {
		candidate := indexedSHA256(seedBytes, index)
		if candidate.Cmp(maxAllowedValue) < 0 {
			key, err := felt.FromBigInt(candidate.Mod(candidate, KeyValueLimit))
			if err != nil {
				// KeyValueLimit is below the field modulus
				panic(err)
			}
			return key
		}
		index.Add(index, big.NewInt(1))
	}
}

func indexedSHA256(seedBytes []byte, index *big.Int) *big.Int {
	h := sha256.New()
	h.Write(seedBytes)
	h.Write(minimalBytes(index))
	return new(big.Int).SetBytes(h.Sum(nil))
}

// minimalBytes is the shortest big-endian encoding of v, with zero encoded as
// a single 0x00 byte.
func minimalBytes(v *big.Int) []byte {
	if v.Sign() == 0 {
		return []byte{0}
	}
	return v.Bytes()
}
