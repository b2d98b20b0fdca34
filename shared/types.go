package shared

import "fmt"

// DeriveKeyRequest asks for the STARK key pair seeded by an Ethereum signature.
type DeriveKeyRequest struct {
	EthSignature string `json:"eth_signature" validate:"required"`
}

// Validate validates the request
func (r *DeriveKeyRequest) Validate() error {
	if r == nil {
		return InvalidInput("request is nil")
	}
	if n := len(StripHexPrefix(r.EthSignature)); n < EthSigRHexLength {
		return InvalidSignatureLength(n)
	}
	return nil
}

// KeyPairResponse carries a derived key pair as fixed-width hex.
type KeyPairResponse struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
}

// HashOrderRequest carries an order in boundary form. Felt fields are hex
// strings; amounts are plain integers.
type HashOrderRequest struct {
	PositionID   uint32 `json:"position_id"`
	BaseAssetID  string `json:"base_asset_id" validate:"required,felthex"`
	BaseAmount   int64  `json:"base_amount"`
	QuoteAssetID string `json:"quote_asset_id" validate:"required,felthex"`
	QuoteAmount  int64  `json:"quote_amount"`
	FeeAssetID   string `json:"fee_asset_id" validate:"required,felthex"`
	FeeAmount    uint64 `json:"fee_amount"`
	Expiration   uint64 `json:"expiration"`
	Salt         uint64 `json:"salt"`
	PublicKey    string `json:"public_key" validate:"required,felthex"`
	// ChainID defaults to the caller's configured chain when empty
	ChainID string `json:"chain_id,omitempty"`
}

// Validate validates request data
func (r *HashOrderRequest) Validate() error {
	if r == nil {
		return InvalidInput("request is nil")
	}
	for _, f := range []struct {
		name, value string
	}{
		{"base_asset_id", r.BaseAssetID},
		{"quote_asset_id", r.QuoteAssetID},
		{"fee_asset_id", r.FeeAssetID},
		{"public_key", r.PublicKey},
	} {
		if !IsValidFeltHex(f.value) {
			return InvalidInput(fmt.Sprintf("%s must be hex of at most %d digits", f.name, FeltHexLength))
		}
	}
	if r.ChainID != "" {
		return ValidateChainID(r.ChainID)
	}
	return nil
}

// HashResponse carries a message hash as fixed-width hex.
type HashResponse struct {
	Hash string `json:"hash"`
}

// SignRequest asks for a signature over a message hash.
type SignRequest struct {
	Message    string `json:"message" validate:"required,felthex"`
	PrivateKey string `json:"private_key" validate:"required,felthex"`
}

// SignatureResponse is a STARK signature as fixed-width hex.
type SignatureResponse struct {
	R string `json:"r"`
	S string `json:"s"`
	V string `json:"v"`
}

// VerifyRequest asks whether r, s sign message under public_key.
type VerifyRequest struct {
	Message   string `json:"message" validate:"required,felthex"`
	R         string `json:"r" validate:"required,felthex"`
	S         string `json:"s" validate:"required,felthex"`
	PublicKey string `json:"public_key" validate:"required,felthex"`
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// ErrorResponse is returned for any failed request. Error is the sanitized
// message; internal causes are only logged.
type ErrorResponse struct {
	Code      string `json:"code"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
