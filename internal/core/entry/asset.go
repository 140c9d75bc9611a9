package entry

import "encoding/hex"

// MintIDSize is the size of a mint (asset) identifier in bytes.
const MintIDSize = 20

// MintID identifies a fungible or non-fungible asset. The zero MintID is
// reserved for the native asset.
type MintID [MintIDSize]byte

// NativeMint is the reserved mint of the native asset.
var NativeMint MintID

// String returns the hex representation of the mint ID.
func (m MintID) String() string {
	if m == NativeMint {
		return "native"
	}
	return hex.EncodeToString(m[:])
}

// IsNative reports whether this is the native-asset mint.
func (m MintID) IsNative() bool {
	return m == NativeMint
}

// AssetKind distinguishes the two payment-asset code paths.
type AssetKind uint8

const (
	// AssetNative is the ledger's built-in asset; it has no separate mint.
	AssetNative AssetKind = iota
	// AssetFungible is an issued fungible token identified by its mint.
	AssetFungible
)

// Asset is the payment-asset variant resolved once at token-config creation.
// All settlement logic downstream is written against the vault abstraction
// and never branches on the kind again.
type Asset struct {
	Kind AssetKind
	Mint MintID
}

// NativeAsset returns the native-asset variant.
func NativeAsset() Asset {
	return Asset{Kind: AssetNative}
}

// FungibleAsset returns the fungible variant for the given mint.
func FungibleAsset(mint MintID) Asset {
	return Asset{Kind: AssetFungible, Mint: mint}
}

// IsNative reports whether the asset is the native asset.
func (a Asset) IsNative() bool {
	return a.Kind == AssetNative
}

// String returns "native" or the mint hex.
func (a Asset) String() string {
	if a.IsNative() {
		return "native"
	}
	return a.Mint.String()
}

const assetSize = 1 + MintIDSize

func appendAsset(b []byte, a Asset) []byte {
	b = append(b, byte(a.Kind))
	return append(b, a.Mint[:]...)
}

func readAsset(data []byte) (Asset, []byte) {
	var a Asset
	a.Kind = AssetKind(data[0])
	copy(a.Mint[:], data[1:1+MintIDSize])
	return a, data[assetSize:]
}
