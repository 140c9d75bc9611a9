package tx

import (
	"errors"
	"math/big"
)

// MaxFeeRateBps is the ceiling for the trade fee rate: 10000 basis
// points, i.e. 100% of the price.
const MaxFeeRateBps = 10000

var errBalanceUnderflow = errors.New("token balance underflow")

// TradeFee computes the protocol fee for a settlement:
// floor(amount * rateBps / 10000). The intermediate product is carried
// in a big.Int so amounts near the uint64 ceiling cannot overflow.
func TradeFee(amount, rateBps uint64) uint64 {
	fee := new(big.Int).SetUint64(amount)
	fee.Mul(fee, new(big.Int).SetUint64(rateBps))
	fee.Div(fee, big.NewInt(MaxFeeRateBps))
	return fee.Uint64()
}
