// Package ethsign produces and checks the Ethereum-side signatures that seed
// STARK key derivation: EIP-191 personal messages and EIP-712 typed data.
// Signatures are 65 bytes, r || s || v with v in {27, 28}.
package ethsign

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"golang.org/x/crypto/sha3"
)

const (
	SignatureLength = 65
	recoveryOffset  = 27
)

// HashPersonalMessage returns the EIP-191 hash of message.
func HashPersonalMessage(message string) []byte {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)

	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(prefix))
	return hash.Sum(nil)
}

// SignEthereumMessage signs message as an EIP-191 personal message.
func SignEthereumMessage(privKey *ecdsa.PrivateKey, message string) ([]byte, error) {
	return signHash(privKey, HashPersonalMessage(message))
}

// SignTypedData signs the EIP-712 digest of td.
func SignTypedData(privKey *ecdsa.PrivateKey, td apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}
	return signHash(privKey, hash)
}

func signHash(privKey *ecdsa.PrivateKey, hash []byte) ([]byte, error) {
	if privKey == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}

	// go-ethereum produces low-s signatures with v in {0, 1}
	sig, err := ethcrypto.Sign(hash, privKey)
	if err != nil {
		return nil, fmt.Errorf("signing failed: %w", err)
	}
	sig[64] += recoveryOffset
	return sig, nil
}

// RecoverPublicKey recovers the signer of hash from a 65-byte signature.
// Both v conventions (0/1 and 27/28) are accepted.
func RecoverPublicKey(hash, sig []byte) (*btcec.PublicKey, error) {
	if len(sig) != SignatureLength {
		return nil, fmt.Errorf("signature length = %d, want %d", len(sig), SignatureLength)
	}
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash length = %d, want 32", len(hash))
	}

	v := sig[64]
	if v >= recoveryOffset {
		v -= recoveryOffset
	}
	if v > 1 {
		return nil, fmt.Errorf("invalid recovery id %d", sig[64])
	}

	// btcec compact form: header byte first, uncompressed key
	compact := make([]byte, SignatureLength)
	compact[0] = recoveryOffset + v
	copy(compact[1:], sig[:64])

	pub, _, err := btcecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, fmt.Errorf("public key recovery failed: %w", err)
	}
	return pub, nil
}

// RecoverAddress returns the Ethereum address that produced sig over hash.
func RecoverAddress(hash, sig []byte) (common.Address, error) {
	pub, err := RecoverPublicKey(hash, sig)
	if err != nil {
		return common.Address{}, err
	}
	return PubKeyToAddress(pub), nil
}

// PubKeyToAddress converts a secp256k1 public key to an Ethereum address.
func PubKeyToAddress(pub *btcec.PublicKey) common.Address {
	// drop the 0x04 prefix
	uncompressed := pub.SerializeUncompressed()[1:]

	hash := sha3.NewLegacyKeccak256()
	hash.Write(uncompressed)
	return common.BytesToAddress(hash.Sum(nil)[12:])
}

// VerifyTypedData reports whether sig over td was produced by signer.
func VerifyTypedData(td apitypes.TypedData, sig []byte, signer common.Address) (bool, error) {
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return false, fmt.Errorf("failed to hash typed data: %w", err)
	}
	addr, err := RecoverAddress(hash, sig)
	if err != nil {
		return false, err
	}
	return addr == signer, nil
}

// OnboardingTypedData is the EIP-712 account creation message a wallet signs
// to derive the STARK key of sub-account accountIndex on host.
func OnboardingTypedData(wallet common.Address, accountIndex int8, host string) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
			},
			"AccountCreation": {
				{Name: "accountIndex", Type: "int8"},
				{Name: "wallet", Type: "address"},
				{Name: "tosAccepted", Type: "bool"},
			},
		},
		PrimaryType: "AccountCreation",
		Domain: apitypes.TypedDataDomain{
			Name: host,
		},
		Message: apitypes.TypedDataMessage{
			"accountIndex": big.NewInt(int64(accountIndex)),
			"wallet":       wallet.Hex(),
			"tosAccepted":  true,
		},
	}
}
