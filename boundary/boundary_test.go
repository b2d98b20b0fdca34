package boundary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perpsign/shared"
)

const (
	fixtureEthSig = "0x" +
		"9ef64d5936681edf44b4a7ad713f3bc24065d4039562af03fccf6a08d6996eab" +
		"1f9b6f9b0a2b67fd0c7b48a3a1f4c6b7b1b0e7f0d3b46ac8a9d2f7e6c5b4a392" +
		"1b"
	fixturePriv = "0x07dbb2c8651cc40e1d0d60b45eb52039f317a8aa82798bda52eee272136c0c44"
	fixturePub  = "0x078298687996aff29a0bbcb994e1305db082d084f85ec38bb78c41e6787740ec"
	fixtureMsg  = "0x02a4f3e2b8c1d9e7f6a5b4c3d2e1f0a9b8c7d6e5f4a3b2c1d0e9f8a7b6c5d4e3"
	fixtureR    = "0x05e46d8e7e70fa811186040d33cd64c73d274485dff407bedd567776cfcf3b9e"
	fixtureS    = "0x023ca4d3dcd9d8e7582e7c2be80840b89b8eb83f9db3031a8e794ca93eedb50e"
	fixtureV    = "0x0000000000000000000000000000000000000000000000000000000000000001"

	// Perpetuals reference order: position 100, base 0x2/100, quote 0x1/-156,
	// fee 0x1/74, expiration 100, salt 123, on SN_SEPOLIA.
	refOrderPub  = "0x5d05989e9302dcebc74e241001e3e3ac3f4402ccf2f8e6f74b034b07ad6a904"
	refOrderHash = "0x04de4c009e0d0c5a70a7da0e2039fb2b99f376d53496f89d9f437e736add6b48"

	// P, the field modulus
	modulusHex = "0x0800000000000011000000000000000000000000000000000000000000000001"
)

func TestDerivePrivateKey(t *testing.T) {
	got, err := DerivePrivateKey(fixtureEthSig)
	require.NoError(t, err)
	assert.Equal(t, fixturePriv, got)

	// upper case digits and prefix are accepted
	got, err = DerivePrivateKey("0X" + strings.ToUpper(strings.TrimPrefix(fixtureEthSig, "0x")))
	require.NoError(t, err)
	assert.Equal(t, fixturePriv, got)
}

func TestDerivePrivateKeyLengthBoundary(t *testing.T) {
	_, err := DerivePrivateKey("0x" + strings.Repeat("ab", 31))
	assert.ErrorIs(t, err, shared.ErrInvalidSignatureLength)

	got, err := DerivePrivateKey("0x" + strings.Repeat("ab", 32))
	require.NoError(t, err)
	assert.Equal(t, "0x02b2313d15c72f4b7a9c6ccf9abb66ed1ac1f00474fc3a6a31495c4cf39af1c1", got)

	_, err = DerivePrivateKey("0x" + strings.Repeat("g", 64))
	assert.ErrorIs(t, err, shared.ErrInvalidHexEncoding)
}

func TestDeriveKeyPair(t *testing.T) {
	kp, err := DeriveKeyPair(fixtureEthSig)
	require.NoError(t, err)
	assert.Equal(t, fixturePriv, kp.PrivateKey)
	assert.Equal(t, fixturePub, kp.PublicKey)

	pub, err := PublicKey(kp.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, fixturePub, pub)
}

func TestSign(t *testing.T) {
	sig, err := Sign(fixtureMsg, fixturePriv)
	require.NoError(t, err)
	assert.Equal(t, SignatureHex{R: fixtureR, S: fixtureS, V: fixtureV}, sig)

	// short forms parse to the same values
	sig2, err := Sign("2a4f3e2b8c1d9e7f6a5b4c3d2e1f0a9b8c7d6e5f4a3b2c1d0e9f8a7b6c5d4e3", "0x7DBB2C8651CC40E1D0D60B45EB52039F317A8AA82798BDA52EEE272136C0C44")
	require.NoError(t, err)
	assert.Equal(t, sig, sig2)
}

func TestSignErrors(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		priv    string
		wantErr error
	}{
		{"message not hex", "0xhello", fixturePriv, shared.ErrInvalidHexEncoding},
		{"key not hex", fixtureMsg, "", shared.ErrInvalidHexEncoding},
		{"message equals modulus", modulusHex, fixturePriv, shared.ErrFieldRange},
		{"key too many digits", fixtureMsg, "0x1" + strings.Repeat("0", 64), shared.ErrFieldRange},
		{"zero key", fixtureMsg, "0x0", shared.ErrSigning},
		{"message above 2^251", "0x0800000000000000000000000000000000000000000000000000000000000000", fixturePriv, shared.ErrSigning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sign(tt.msg, tt.priv)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerify(t *testing.T) {
	sig := SignatureHex{R: fixtureR, S: fixtureS}

	ok, err := Verify(fixtureMsg, sig, fixturePub)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("0x1234", sig, fixturePub)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Verify(fixtureMsg, SignatureHex{R: "xyz", S: fixtureS}, fixturePub)
	assert.ErrorIs(t, err, shared.ErrInvalidHexEncoding)

	_, err = Verify(fixtureMsg, sig, modulusHex)
	assert.ErrorIs(t, err, shared.ErrFieldRange)
}

func TestHashOrder(t *testing.T) {
	hash := func(chainID string, salt uint64) string {
		t.Helper()
		h, err := HashOrder(100, "0x2", 100, "0x1", -156, "0x1", 74, 100, salt, fixturePub, chainID)
		require.NoError(t, err)
		return h
	}

	h := hash("SN_MAIN", 123)
	assert.Len(t, h, 66)
	assert.True(t, strings.HasPrefix(h, "0x"))
	assert.Equal(t, h, hash("SN_MAIN", 123))
	assert.NotEqual(t, h, hash("SN_SEPOLIA", 123))
	assert.NotEqual(t, h, hash("SN_MAIN", 124))
}

func TestHashOrderVector(t *testing.T) {
	got, err := HashOrder(100, "0x2", 100, "0x1", -156, "0x1", 74, 100, 123, refOrderPub, "SN_SEPOLIA")
	require.NoError(t, err)
	assert.Equal(t, refOrderHash, got)
}

func TestHashOrderRequiresChainID(t *testing.T) {
	_, err := HashOrder(100, "0x2", 100, "0x1", -156, "0x1", 74, 100, 123, refOrderPub, "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = HashOrderRequest(shared.HashOrderRequest{
		BaseAssetID:  "0x2",
		QuoteAssetID: "0x1",
		FeeAssetID:   "0x1",
		PublicKey:    refOrderPub,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestHashOrderErrors(t *testing.T) {
	_, err := HashOrder(1, "0xnothex", 1, "0x1", 1, "0x1", 1, 1, 1, fixturePub, "SN_MAIN")
	assert.ErrorIs(t, err, shared.ErrInvalidHexEncoding)

	_, err = HashOrder(1, "0x2", 1, modulusHex, 1, "0x1", 1, 1, 1, fixturePub, "SN_MAIN")
	assert.ErrorIs(t, err, shared.ErrFieldRange)

	_, err = HashOrder(1, "0x2", 1, "0x1", 1, "0x1", 1, 1, 1, fixturePub, strings.Repeat("X", 32))
	assert.ErrorIs(t, err, shared.ErrFieldRange)
}

func TestEndToEnd(t *testing.T) {
	kp, err := DeriveKeyPair(fixtureEthSig)
	require.NoError(t, err)
	assert.Equal(t, fixturePriv, kp.PrivateKey)
	assert.Equal(t, fixturePub, kp.PublicKey)

	msg, err := HashOrder(100, "0x2", 100, "0x1", -156, "0x1", 74, 100, 123, refOrderPub, "SN_SEPOLIA")
	require.NoError(t, err)
	assert.Equal(t, refOrderHash, msg)

	sig, err := Sign(msg, kp.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, SignatureHex{
		R: "0x07e2f3bc2e12108b2b4f9b871c6126b2d6dbb6d756307ef6df0b6a036e3af48e",
		S: "0x02006a64c917b7a89625c0dcdd5706fd6930bb7587d0ce009a03bd9c911e2fe9",
		V: fixtureV,
	}, sig)

	ok, err := Verify(msg, sig, kp.PublicKey)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify(msg, sig, refOrderPub)
	require.NoError(t, err)
	assert.False(t, ok)
}
