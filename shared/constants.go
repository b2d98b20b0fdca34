// Package shared contains protocol constants, the error taxonomy and input validation
// shared by the signing core and its adapters (CLI, HTTP service).
package shared

const (
	// Perpetuals SNIP-12 domain. These must match the verifying contract exactly.
	DomainName     = "Perpetuals"
	DomainVersion  = "v0"
	DomainRevision = 1

	DefaultChainID = "SN_MAIN"

	// Hex lengths (without 0x prefix)
	FeltHexLength      = 64 // 32 bytes hex-encoded
	EthSigRHexLength   = 64 // r component of an Ethereum signature
	EthSignatureLength = 65 // r || s || v bytes

	// Cairo short strings fit in a single felt
	MaxShortStringLength = 31
)
