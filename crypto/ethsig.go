package crypto

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"perpsign/felt"
	"perpsign/shared"
)

// KeyPair holds a derived STARK private key and its public key.
type KeyPair struct {
	PrivateKey felt.Felt
	PublicKey  felt.Felt
}

// DerivePrivateKeyFromExternalSignature derives the STARK private key from an
// Ethereum-style signature (r || s || v, hex). Only r, the first 64 hex
// characters after an optional 0x prefix, seeds the grinder.
func DerivePrivateKeyFromExternalSignature(signatureHex string) (felt.Felt, error) {
	digits := shared.StripHexPrefix(signatureHex)
	if len(digits) < shared.EthSigRHexLength {
		return felt.Zero, shared.InvalidSignatureLength(len(digits))
	}

	rBytes, err := hex.DecodeString(digits[:shared.EthSigRHexLength])
	if err != nil {
		return felt.Zero, shared.InvalidHexEncoding("failed to decode r as hex", err)
	}

	return GrindKey(new(big.Int).SetBytes(rBytes)), nil
}

// DeriveKeyPair derives the private key from an Ethereum-style signature and
// computes its public key.
func DeriveKeyPair(signatureHex string) (*KeyPair, error) {
	priv, err := DerivePrivateKeyFromExternalSignature(signatureHex)
	if err != nil {
		return nil, err
	}

	pub, err := PublicKey(priv)
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	return &KeyPair{
		PrivateKey: priv,
		PublicKey:  pub,
	}, nil
}
