package main

import (
	"bytes"
	"context"
	"encoding/json"
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
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestDerive(t *testing.T) {
	out, _, err := runCLI(t, "derive", "-sig", fixtureEthSig)
	require.NoError(t, err)

	var kp shared.KeyPairResponse
	require.NoError(t, json.Unmarshal([]byte(out), &kp))
	assert.Equal(t, fixturePriv, kp.PrivateKey)
	assert.Equal(t, fixturePub, kp.PublicKey)
}

func TestDeriveMissingFlag(t *testing.T) {
	_, stderr, err := runCLI(t, "derive")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr, "-sig is required")
}

func TestDeriveShortSignature(t *testing.T) {
	_, _, err := runCLI(t, "derive", "-sig", "0x"+strings.Repeat("ab", 31))
	assert.ErrorIs(t, err, shared.ErrInvalidSignatureLength)
}

func TestPubKey(t *testing.T) {
	out, _, err := runCLI(t, "pubkey", "-key", fixturePriv)
	require.NoError(t, err)
	assert.Contains(t, out, fixturePub)
}

func TestSignVerify(t *testing.T) {
	out, _, err := runCLI(t, "sign", "-msg", fixtureMsg, "-key", fixturePriv)
	require.NoError(t, err)
	assert.Contains(t, out, fixtureR)
	assert.Contains(t, out, fixtureS)

	out, _, err = runCLI(t, "verify", "-msg", fixtureMsg, "-r", fixtureR, "-s", fixtureS, "-pub", fixturePub)
	require.NoError(t, err)
	assert.Contains(t, out, `"valid": true`)

	out, _, err = runCLI(t, "verify", "-msg", "0x1", "-r", fixtureR, "-s", fixtureS, "-pub", fixturePub)
	assert.Error(t, err)
	assert.Contains(t, out, `"valid": false`)
}

func TestHashOrder(t *testing.T) {
	args := []string{"hash-order",
		"-position", "100",
		"-base-asset", "0x2", "-base-amount", "100",
		"-quote-asset", "0x1", "-quote-amount", "-156",
		"-fee-asset", "0x1", "-fee-amount", "74",
		"-expiration", "100", "-salt", "123",
		"-pub", fixturePub,
	}
	out, _, err := runCLI(t, args...)
	require.NoError(t, err)

	var resp shared.HashResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Len(t, resp.Hash, 66)

	_, _, err = runCLI(t, append(args, "-chain-id", "bad chain")...)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, _, err = runCLI(t, append(args, "-chain-id", "")...)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	out, _, err = runCLI(t, "hash-order",
		"-position", "100",
		"-base-asset", "0x2", "-base-amount", "100",
		"-quote-asset", "0x1", "-quote-amount", "-156",
		"-fee-asset", "0x1", "-fee-amount", "74",
		"-expiration", "100", "-salt", "123",
		"-pub", "0x5d05989e9302dcebc74e241001e3e3ac3f4402ccf2f8e6f74b034b07ad6a904",
		"-chain-id", "SN_SEPOLIA",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "0x04de4c009e0d0c5a70a7da0e2039fb2b99f376d53496f89d9f437e736add6b48")

	_, _, err = runCLI(t, "hash-order", "-position", "4294967296", "-base-asset", "0x2",
		"-quote-asset", "0x1", "-fee-asset", "0x1", "-pub", fixturePub)
	assert.Error(t, err)
}

func TestOrder(t *testing.T) {
	out, _, err := runCLI(t, "order",
		"-side", "buy", "-qty", "0.5", "-price", "43000", "-fee-rate", "0.0005",
		"-base-asset", "0x2", "-quote-asset", "0x1", "-pub", fixturePub)
	require.NoError(t, err)

	var resp struct {
		BaseAmount  int64  `json:"base_amount"`
		QuoteAmount int64  `json:"quote_amount"`
		FeeAmount   uint64 `json:"fee_amount"`
		Hash        string `json:"hash"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(500_000), resp.BaseAmount)
	assert.Equal(t, int64(-21_500_000_000), resp.QuoteAmount)
	assert.Equal(t, uint64(10_750_000), resp.FeeAmount)
	assert.Len(t, resp.Hash, 66)

	_, _, err = runCLI(t, "order", "-side", "hold", "-qty", "1", "-price", "1",
		"-base-asset", "0x2", "-quote-asset", "0x1", "-pub", fixturePub)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	for _, chain := range []string{"", "bad chain"} {
		_, _, err = runCLI(t, "order", "-side", "buy", "-qty", "1", "-price", "1",
			"-base-asset", "0x2", "-quote-asset", "0x1", "-pub", fixturePub, "-chain-id", chain)
		assert.ErrorIs(t, err, shared.ErrInvalidInput, "chain id %q", chain)
	}
}

func TestOrderFeeResolution(t *testing.T) {
	feeAmount := func(args ...string) uint64 {
		t.Helper()
		out, _, err := runCLI(t, append([]string{"order",
			"-side", "sell", "-qty", "2", "-price", "10", "-fee-rate", "0.01",
			"-base-asset", "0x2", "-quote-asset", "0x1", "-pub", fixturePub}, args...)...)
		require.NoError(t, err)
		var resp struct {
			FeeAmount uint64 `json:"fee_amount"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		return resp.FeeAmount
	}

	// notional 20, fee 0.2 whole units
	assert.Equal(t, uint64(200_000), feeAmount())
	assert.Equal(t, uint64(200_000), feeAmount("-fee-asset", "0x1"))
	assert.Equal(t, uint64(20), feeAmount("-fee-asset", "0x3", "-fee-resolution", "100"))
	assert.Equal(t, uint64(2_000), feeAmount("-quote-resolution", "10000"))
}

func TestOnboard(t *testing.T) {
	t.Setenv(ethKeyEnv, "0xe0144cfbe97dcb2554ebf918b1ee12c1a51d4db1385aea75ec96d6632806bb2c")

	out, _, err := runCLI(t, "onboard", "-host", "perpetuals.example")
	require.NoError(t, err)

	var resp struct {
		Wallet       string `json:"wallet"`
		EthSignature string `json:"eth_signature"`
		PrivateKey   string `json:"private_key"`
		PublicKey    string `json:"public_key"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Len(t, resp.EthSignature, 132)
	assert.Len(t, resp.PrivateKey, 66)

	// the CLI output chains into derive
	derived, _, err := runCLI(t, "derive", "-sig", resp.EthSignature)
	require.NoError(t, err)
	assert.Contains(t, derived, resp.PublicKey)

	_, _, err = runCLI(t, "onboard", "-host", "perpetuals.example", "-account", "200")
	assert.Error(t, err)
}

func TestOnboardWithoutKey(t *testing.T) {
	t.Setenv(ethKeyEnv, "")
	_, _, err := runCLI(t, "onboard", "-host", "perpetuals.example")
	assert.ErrorContains(t, err, ethKeyEnv)
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, err := runCLI(t, "launch")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr, `unknown command "launch"`)
	assert.Contains(t, stderr, "hash-order")

	_, _, err = runCLI(t)
	assert.ErrorIs(t, err, errUsage)
}

func TestHelp(t *testing.T) {
	out, _, err := runCLI(t, "help")
	require.NoError(t, err)
	for _, c := range commands {
		assert.Contains(t, out, c.name)
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "perpsign "+BuildInfo()+"\n", out)
}
