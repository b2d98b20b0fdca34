package main

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"perpsign/boundary"
	"perpsign/felt"
	"perpsign/internal/ethsign"
	"perpsign/orders"
	"perpsign/service"
	"perpsign/shared"
	"perpsign/typeddata"
)

func runDerive(_ context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("derive", stderr)
	sig := fs.String("sig", "", "Ethereum signature, r || s || v as hex")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlags(fs, "sig"); err != nil {
		return err
	}

	kp, err := boundary.DeriveKeyPair(*sig)
	if err != nil {
		return err
	}
	return printJSON(stdout, kp)
}

// runOnboard reads the Ethereum key from the environment so it never
// appears in shell history or the process list.
func runOnboard(_ context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("onboard", stderr)
	host := fs.String("host", "", "signing domain name of the exchange")
	account := fs.Int("account", 0, "sub-account index (0-127)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlags(fs, "host"); err != nil {
		return err
	}
	if *account < 0 || *account > 127 {
		return fmt.Errorf("account index must be in [0, 127], got %d", *account)
	}

	keyHex := os.Getenv(ethKeyEnv)
	if keyHex == "" {
		return fmt.Errorf("%s environment variable not set", ethKeyEnv)
	}
	ethKey, err := ethcrypto.HexToECDSA(shared.StripHexPrefix(keyHex))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", ethKeyEnv, err)
	}

	wallet := ethcrypto.PubkeyToAddress(ethKey.PublicKey)
	sig, err := ethsign.SignTypedData(ethKey, ethsign.OnboardingTypedData(wallet, int8(*account), *host))
	if err != nil {
		return err
	}

	kp, err := boundary.DeriveKeyPair(hexutil.Encode(sig))
	if err != nil {
		return err
	}
	return printJSON(stdout, struct {
		Wallet       string `json:"wallet"`
		EthSignature string `json:"eth_signature"`
		shared.KeyPairResponse
	}{wallet.Hex(), hexutil.Encode(sig), kp})
}

func runPubKey(_ context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("pubkey", stderr)
	key := fs.String("key", "", "STARK private key as hex")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlags(fs, "key"); err != nil {
		return err
	}

	pub, err := boundary.PublicKey(*key)
	if err != nil {
		return err
	}
	return printJSON(stdout, map[string]string{"public_key": pub})
}

func runHashOrder(_ context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("hash-order", stderr)
	var req shared.HashOrderRequest
	position := fs.Uint("position", 0, "position id")
	fs.StringVar(&req.BaseAssetID, "base-asset", "", "base asset id (hex)")
	fs.Int64Var(&req.BaseAmount, "base-amount", 0, "signed base amount in on-chain units")
	fs.StringVar(&req.QuoteAssetID, "quote-asset", "", "quote asset id (hex)")
	fs.Int64Var(&req.QuoteAmount, "quote-amount", 0, "signed quote amount in on-chain units")
	fs.StringVar(&req.FeeAssetID, "fee-asset", "", "fee asset id (hex)")
	fs.Uint64Var(&req.FeeAmount, "fee-amount", 0, "fee amount in on-chain units")
	fs.Uint64Var(&req.Expiration, "expiration", 0, "expiration, unix seconds")
	fs.Uint64Var(&req.Salt, "salt", 0, "order salt")
	fs.StringVar(&req.PublicKey, "pub", "", "signer public key (hex)")
	fs.StringVar(&req.ChainID, "chain-id", shared.DefaultChainID, "Starknet chain id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlags(fs, "base-asset", "quote-asset", "fee-asset", "pub"); err != nil {
		return err
	}
	if *position > 1<<32-1 {
		return fmt.Errorf("position id %d does not fit u32", *position)
	}
	req.PositionID = uint32(*position)

	if err := req.Validate(); err != nil {
		return err
	}
	hash, err := boundary.HashOrderRequest(req)
	if err != nil {
		return err
	}
	return printJSON(stdout, shared.HashResponse{Hash: hash})
}

// runOrder builds an order from decimal amounts using the market's
// resolutions, then hashes it.
func runOrder(_ context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("order", stderr)
	var (
		position   = fs.Uint("position", 0, "position id")
		side       = fs.String("side", "", "buy or sell")
		qty        = fs.String("qty", "", "quantity in base asset units")
		price      = fs.String("price", "", "price in quote asset units")
		feeRate    = fs.String("fee-rate", "0", "fee rate, e.g. 0.0005")
		baseAsset  = fs.String("base-asset", "", "base asset id (hex)")
		baseRes    = fs.Int64("base-resolution", 1_000_000, "base asset resolution")
		quoteAsset = fs.String("quote-asset", "", "quote asset id (hex)")
		quoteRes   = fs.Int64("quote-resolution", 1_000_000, "quote asset resolution")
		feeAsset   = fs.String("fee-asset", "", "fee asset id (hex), defaults to the quote asset")
		feeRes     = fs.Int64("fee-resolution", 0, "fee asset resolution, defaults to -quote-resolution")
		expiresIn  = fs.Duration("expires-in", time.Hour, "time until expiration")
		pub        = fs.String("pub", "", "signer public key (hex)")
		chainID    = fs.String("chain-id", shared.DefaultChainID, "Starknet chain id")
	)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlags(fs, "side", "qty", "price", "base-asset", "quote-asset", "pub"); err != nil {
		return err
	}
	if *feeAsset == "" {
		*feeAsset = *quoteAsset
	}
	if *feeRes == 0 {
		*feeRes = *quoteRes
	}
	if *position > 1<<32-1 {
		return fmt.Errorf("position id %d does not fit u32", *position)
	}
	if err := shared.ValidateChainID(*chainID); err != nil {
		return err
	}

	s, err := orders.ParseSide(*side)
	if err != nil {
		return err
	}
	params := orders.Params{PositionID: uint32(*position), Side: s, Expiration: time.Now().Add(*expiresIn)}
	for _, d := range []struct {
		name string
		in   string
		out  *decimal.Decimal
	}{{"qty", *qty, &params.Quantity}, {"price", *price, &params.Price}, {"fee-rate", *feeRate, &params.FeeRate}} {
		if *d.out, err = decimal.NewFromString(d.in); err != nil {
			return shared.InvalidInput(fmt.Sprintf("-%s: %v", d.name, err))
		}
	}

	ids := make([]felt.Felt, 4)
	for i, h := range []string{*baseAsset, *quoteAsset, *feeAsset, *pub} {
		if ids[i], err = felt.FromHex(h); err != nil {
			return err
		}
	}
	market := orders.Market{
		Base:  orders.AssetConfig{ID: ids[0], Resolution: *baseRes},
		Quote: orders.AssetConfig{ID: ids[1], Resolution: *quoteRes},
		Fee:   orders.AssetConfig{ID: ids[2], Resolution: *feeRes},
	}

	order, err := orders.Build(market, params)
	if err != nil {
		return err
	}
	hash, err := typeddata.HashOrder(order, typeddata.PerpetualsDomain(*chainID), ids[3])
	if err != nil {
		return err
	}

	return printJSON(stdout, struct {
		shared.HashOrderRequest
		SaltHex string `json:"salt_hex"`
		Hash    string `json:"hash"`
	}{
		HashOrderRequest: shared.HashOrderRequest{
			PositionID:   order.PositionID,
			BaseAssetID:  order.BaseAssetID.FixedHex(),
			BaseAmount:   order.BaseAmount,
			QuoteAssetID: order.QuoteAssetID.FixedHex(),
			QuoteAmount:  order.QuoteAmount,
			FeeAssetID:   order.FeeAssetID.FixedHex(),
			FeeAmount:    order.FeeAmount,
			Expiration:   order.Expiration,
			Salt:         saltUint64(order.Salt),
			PublicKey:    ids[3].FixedHex(),
			ChainID:      *chainID,
		},
		SaltHex: "0x" + order.Salt.Text(16),
		Hash:    hash.FixedHex(),
	})
}

// NewSalt stays below 2^64
func saltUint64(s *big.Int) uint64 {
	if !s.IsUint64() {
		return 0
	}
	return s.Uint64()
}

func runSign(_ context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("sign", stderr)
	msg := fs.String("msg", "", "message hash (hex)")
	key := fs.String("key", "", "STARK private key (hex)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlags(fs, "msg", "key"); err != nil {
		return err
	}

	sig, err := boundary.Sign(*msg, *key)
	if err != nil {
		return err
	}
	return printJSON(stdout, sig)
}

func runVerify(_ context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("verify", stderr)
	msg := fs.String("msg", "", "message hash (hex)")
	r := fs.String("r", "", "signature r (hex)")
	s := fs.String("s", "", "signature s (hex)")
	pub := fs.String("pub", "", "public key (hex)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := requireFlags(fs, "msg", "r", "s", "pub"); err != nil {
		return err
	}

	ok, err := boundary.Verify(*msg, boundary.SignatureHex{R: *r, S: *s}, *pub)
	if err != nil {
		return err
	}
	if err := printJSON(stdout, shared.VerifyResponse{Valid: ok}); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("signature is not valid")
	}
	return nil
}

func runServe(ctx context.Context, args []string, _, stderr io.Writer) error {
	fs := newFlagSet("serve", stderr)
	dotenv := fs.String("env-file", envOr("PERPSIGN_DOTENV", ".env"), "dotenv file to preload, ignored when missing")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, err := service.LoadConfig(*dotenv)
	if err != nil {
		return err
	}
	cfg.Version = BuildInfo()

	logger, err := service.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("perpsign starting",
		zap.String("version", cfg.Version),
		zap.String("listen_addr", cfg.ListenAddr),
		zap.Duration("read_timeout", cfg.ReadTimeout),
		zap.Int64("max_body_bytes", cfg.MaxBodyBytes),
	)

	if err := service.New(cfg, logger, nil).ListenAndServe(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}

func runVersion(_ context.Context, _ []string, stdout, _ io.Writer) error {
	_, err := fmt.Fprintln(stdout, "perpsign", BuildInfo())
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
