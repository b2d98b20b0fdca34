// Package typeddata computes SNIP-12 (revision 1) message hashes for the
// perpetuals protocol. Struct hashes are Poseidon hashes of the struct's type
// hash followed by its encoded members, and the signed message binds the
// struct hash to a domain and the signer's public key.
package typeddata

import (
	"math/big"

	junocrypto "github.com/NethermindEth/juno/core/crypto"
	junofelt "github.com/NethermindEth/juno/core/felt"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"perpsign/felt"
)

// MessagePrefix is the short string every revision 1 message hash starts with.
const MessagePrefix = "StarkNet Message"

// Struct is a typed struct that can be hashed under a domain.
type Struct interface {
	// TypeHash is the selector of the struct's encoded type.
	TypeHash() felt.Felt
	// Elements returns the encoded members in declaration order.
	Elements() ([]felt.Felt, error)
}

var selectorMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 250), big.NewInt(1))

// Selector is the Starknet keccak of s: Keccak-256 truncated to 250 bits.
func Selector(s string) felt.Felt {
	h := new(big.Int).SetBytes(ethcrypto.Keccak256([]byte(s)))
	h.And(h, selectorMask)
	f, err := felt.FromBigInt(h)
	if err != nil {
		// 250 bits always fit
		panic(err)
	}
	return f
}

// PoseidonMany hashes elems with the Starknet Poseidon sponge.
func PoseidonMany(elems ...felt.Felt) felt.Felt {
	in := make([]*junofelt.Felt, len(elems))
	for i := range elems {
		b := elems[i].Bytes()
		in[i] = new(junofelt.Felt).SetBytes(b[:])
	}
	out := junocrypto.PoseidonArray(in...).Bytes()

	f, err := felt.FromBytes(out[:])
	if err != nil {
		panic(err)
	}
	return f
}

// StructHash returns Poseidon(typeHash, elements...).
func StructHash(s Struct) (felt.Felt, error) {
	elems, err := s.Elements()
	if err != nil {
		return felt.Zero, err
	}
	return PoseidonMany(append([]felt.Felt{s.TypeHash()}, elems...)...), nil
}

// MessageHash returns the revision 1 message hash of s signed by publicKey
// under domain.
func MessageHash(s Struct, domain StarknetDomain, publicKey felt.Felt) (felt.Felt, error) {
	domainHash, err := StructHash(domain)
	if err != nil {
		return felt.Zero, err
	}
	structHash, err := StructHash(s)
	if err != nil {
		return felt.Zero, err
	}
	return PoseidonMany(messagePrefix, domainHash, publicKey, structHash), nil
}

var messagePrefix = mustShortString(MessagePrefix)

func mustShortString(s string) felt.Felt {
	f, err := felt.FromShortString(s)
	if err != nil {
		panic(err)
	}
	return f
}
