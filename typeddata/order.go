package typeddata

import (
	"fmt"
	"math/big"

	"perpsign/felt"
)

// OrderType is the encoded Order type followed by its referenced types.
const OrderType = `"Order"("position_id":"felt","base_asset_id":"AssetId","base_amount":"i64","quote_asset_id":"AssetId","quote_amount":"i64","fee_asset_id":"AssetId","fee_amount":"u64","expiration":"Timestamp","salt":"felt")` +
	`"PositionId"("value":"u32")` +
	`"AssetId"("value":"felt")` +
	`"Timestamp"("seconds":"u64")`

var OrderTypeHash = Selector(OrderType)

// Order is a perpetuals trade instruction. Signed amounts are positive for
// what the position receives and negative for what it gives up.
type Order struct {
	PositionID   uint32
	BaseAssetID  felt.Felt
	BaseAmount   int64
	QuoteAssetID felt.Felt
	QuoteAmount  int64
	FeeAssetID   felt.Felt
	FeeAmount    uint64
	Expiration   uint64 // unix seconds
	Salt         *big.Int
}

func (o Order) TypeHash() felt.Felt {
	return OrderTypeHash
}

func (o Order) Elements() ([]felt.Felt, error) {
	salt, err := felt.FromBigInt(o.Salt)
	if err != nil {
		return nil, fmt.Errorf("order salt: %w", err)
	}
	return []felt.Felt{
		felt.FromUint64(uint64(o.PositionID)),
		o.BaseAssetID,
		felt.FromInt64(o.BaseAmount),
		o.QuoteAssetID,
		felt.FromInt64(o.QuoteAmount),
		o.FeeAssetID,
		felt.FromUint64(o.FeeAmount),
		felt.FromUint64(o.Expiration),
		salt,
	}, nil
}

// HashOrder returns the message hash that signerPublicKey signs to authorize order.
func HashOrder(order Order, domain StarknetDomain, signerPublicKey felt.Felt) (felt.Felt, error) {
	return MessageHash(order, domain, signerPublicKey)
}
