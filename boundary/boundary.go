// Package boundary is the string-only surface of perpsign. Field elements
// enter as optionally 0x-prefixed hex of either case and leave as canonical
// 0x-prefixed 64-digit lowercase hex. Every failure is a classified
// *shared.Error; nothing here panics on caller input.
package boundary

import (
	"math/big"

	"perpsign/crypto"
	"perpsign/felt"
	"perpsign/shared"
	"perpsign/typeddata"
)

// SignatureHex is a signature in boundary form.
type SignatureHex struct {
	R string `json:"r"`
	S string `json:"s"`
	V string `json:"v"`
}

// DerivePrivateKey grinds the STARK private key out of an Ethereum signature.
func DerivePrivateKey(ethSignatureHex string) (string, error) {
	priv, err := crypto.DerivePrivateKeyFromExternalSignature(ethSignatureHex)
	if err != nil {
		return "", err
	}
	return priv.FixedHex(), nil
}

// DeriveKeyPair returns the private and public key seeded by an Ethereum signature.
func DeriveKeyPair(ethSignatureHex string) (shared.KeyPairResponse, error) {
	kp, err := crypto.DeriveKeyPair(ethSignatureHex)
	if err != nil {
		return shared.KeyPairResponse{}, err
	}
	return shared.KeyPairResponse{
		PrivateKey: kp.PrivateKey.FixedHex(),
		PublicKey:  kp.PublicKey.FixedHex(),
	}, nil
}

func PublicKey(privateKeyHex string) (string, error) {
	priv, err := felt.FromHex(privateKeyHex)
	if err != nil {
		return "", err
	}
	pub, err := crypto.PublicKey(priv)
	if err != nil {
		return "", err
	}
	return pub.FixedHex(), nil
}

// Sign signs a message hash.
func Sign(messageHex, privateKeyHex string) (SignatureHex, error) {
	msg, err := felt.FromHex(messageHex)
	if err != nil {
		return SignatureHex{}, err
	}
	priv, err := felt.FromHex(privateKeyHex)
	if err != nil {
		return SignatureHex{}, err
	}

	sig, err := crypto.Sign(msg, priv)
	if err != nil {
		return SignatureHex{}, err
	}
	return SignatureHex{
		R: sig.R.FixedHex(),
		S: sig.S.FixedHex(),
		V: sig.V.FixedHex(),
	}, nil
}

// Verify reports whether sig signs message under publicKey. Malformed hex is
// an error; well-formed but invalid signatures are simply false. V is not
// needed and may be empty.
func Verify(messageHex string, sig SignatureHex, publicKeyHex string) (bool, error) {
	fields := make([]felt.Felt, 4)
	for i, s := range []string{messageHex, sig.R, sig.S, publicKeyHex} {
		f, err := felt.FromHex(s)
		if err != nil {
			return false, err
		}
		fields[i] = f
	}
	return crypto.Verify(fields[0], crypto.Signature{R: fields[1], S: fields[2]}, fields[3]), nil
}

// HashOrder computes the message hash of an order on chainID signed by
// signerPublicKeyHex.
func HashOrder(
	positionID uint32,
	baseAssetIDHex string,
	baseAmount int64,
	quoteAssetIDHex string,
	quoteAmount int64,
	feeAssetIDHex string,
	feeAmount uint64,
	expiration uint64,
	salt uint64,
	signerPublicKeyHex string,
	chainID string,
) (string, error) {
	return HashOrderRequest(shared.HashOrderRequest{
		PositionID:   positionID,
		BaseAssetID:  baseAssetIDHex,
		BaseAmount:   baseAmount,
		QuoteAssetID: quoteAssetIDHex,
		QuoteAmount:  quoteAmount,
		FeeAssetID:   feeAssetIDHex,
		FeeAmount:    feeAmount,
		Expiration:   expiration,
		Salt:         salt,
		PublicKey:    signerPublicKeyHex,
		ChainID:      chainID,
	})
}

// HashOrderRequest is HashOrder for a request struct. The chain id is hashed
// as given; defaults belong to the caller.
func HashOrderRequest(req shared.HashOrderRequest) (string, error) {
	if req.ChainID == "" {
		return "", shared.InvalidInput("chain id required")
	}

	var ids [4]felt.Felt
	for i, s := range []string{req.BaseAssetID, req.QuoteAssetID, req.FeeAssetID, req.PublicKey} {
		f, err := felt.FromHex(s)
		if err != nil {
			return "", err
		}
		ids[i] = f
	}

	order := typeddata.Order{
		PositionID:   req.PositionID,
		BaseAssetID:  ids[0],
		BaseAmount:   req.BaseAmount,
		QuoteAssetID: ids[1],
		QuoteAmount:  req.QuoteAmount,
		FeeAssetID:   ids[2],
		FeeAmount:    req.FeeAmount,
		Expiration:   req.Expiration,
		Salt:         new(big.Int).SetUint64(req.Salt),
	}

	hash, err := typeddata.HashOrder(order, typeddata.PerpetualsDomain(req.ChainID), ids[3])
	if err != nil {
		return "", err
	}
	return hash.FixedHex(), nil
}
