package entry

import (
	"encoding/binary"

	"github.com/cgc-labs/marketd/internal/crypto"
)

// Config is the marketplace configuration singleton. It is created exactly
// once by the protocol owner and never erased. The sell/offer counters give
// every listing and offer a unique monotonic identifier.
type Config struct {
	Owner        crypto.AccountID
	TradeFeeRate uint64 // basis points
	NextSellID   uint64
	NextOfferID  uint64
}

const configSize = 1 + crypto.AccountIDSize + 8 + 8 + 8

// Serialize encodes the config entry.
func (c *Config) Serialize() []byte {
	b := make([]byte, 0, configSize)
	b = append(b, schemaVersion)
	b = append(b, c.Owner[:]...)
	b = binary.BigEndian.AppendUint64(b, c.TradeFeeRate)
	b = binary.BigEndian.AppendUint64(b, c.NextSellID)
	b = binary.BigEndian.AppendUint64(b, c.NextOfferID)
	return b
}

// ParseConfig decodes a config entry.
func ParseConfig(data []byte) (*Config, error) {
	if err := checkHeader(data, configSize); err != nil {
		return nil, err
	}
	c := &Config{}
	rest := data[1:]
	copy(c.Owner[:], rest[:crypto.AccountIDSize])
	rest = rest[crypto.AccountIDSize:]
	c.TradeFeeRate = binary.BigEndian.Uint64(rest[0:8])
	c.NextSellID = binary.BigEndian.Uint64(rest[8:16])
	c.NextOfferID = binary.BigEndian.Uint64(rest[16:24])
	return c, nil
}
