package entry

import "encoding/binary"

// TokenConfig binds a payment-asset type tag to its mint and custody vault.
// FeeAccrued is the running total of trade fees collected into the vault
// for this asset; it only ever grows during normal operation.
type TokenConfig struct {
	Tag        byte
	Asset      Asset
	VaultKey   [32]byte
	FeeAccrued uint64
}

const tokenConfigSize = 1 + 1 + assetSize + 32 + 8

// Serialize encodes the token config entry.
func (tc *TokenConfig) Serialize() []byte {
	b := make([]byte, 0, tokenConfigSize)
	b = append(b, schemaVersion)
	b = append(b, tc.Tag)
	b = appendAsset(b, tc.Asset)
	b = append(b, tc.VaultKey[:]...)
	b = binary.BigEndian.AppendUint64(b, tc.FeeAccrued)
	return b
}

// ParseTokenConfig decodes a token config entry.
func ParseTokenConfig(data []byte) (*TokenConfig, error) {
	if err := checkHeader(data, tokenConfigSize); err != nil {
		return nil, err
	}
	tc := &TokenConfig{}
	rest := data[1:]
	tc.Tag = rest[0]
	tc.Asset, rest = readAsset(rest[1:])
	copy(tc.VaultKey[:], rest[:32])
	tc.FeeAccrued = binary.BigEndian.Uint64(rest[32:40])
	return tc, nil
}
