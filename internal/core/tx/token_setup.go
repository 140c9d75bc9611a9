package tx

import (
	"github.com/cgc-labs/marketd/internal/core/entry"
	"github.com/cgc-labs/marketd/internal/core/keylet"
)

func init() {
	Register(TypeTokenAccountInit, func() Transaction {
		return &TokenAccountInit{}
	})
	Register(TypeTokenSetup, func() Transaction {
		return &TokenSetup{}
	})
}

// TokenAccountInit creates the escrow vault for a fungible payment asset
// ahead of TokenSetup. The vault is a protocol-held token account at the
// tag's vault key. Only the marketplace owner may run it.
type TokenAccountInit struct {
	BaseTx

	// TokenTag is the type tag the vault will serve (required).
	TokenTag uint8 `json:"TokenTag"`

	// Mint is the hex mint of the fungible asset (required).
	Mint string `json:"Mint"`
}

// NewTokenAccountInit creates a TokenAccountInit transaction.
func NewTokenAccountInit(account string, tag uint8, mint string) *TokenAccountInit {
	return &TokenAccountInit{BaseTx: NewBaseTx(account), TokenTag: tag, Mint: mint}
}

// TxType returns the transaction type.
func (t *TokenAccountInit) TxType() Type {
	return TypeTokenAccountInit
}

// Validate checks the transaction shape.
func (t *TokenAccountInit) Validate() error {
	if err := t.BaseTx.Validate(); err != nil {
		return err
	}
	mint, err := decodeMint(t.Mint)
	if err != nil {
		return err
	}
	if mint.IsNative() {
		// Native vaults are created inline by TokenSetup.
		return ErrBadMint
	}
	return nil
}

// Flatten returns the flat field map.
func (t *TokenAccountInit) Flatten() map[string]any {
	return t.commonFields(map[string]any{
		"TokenTag": t.TokenTag,
		"Mint":     t.Mint,
	}, TypeTokenAccountInit)
}

// Apply creates the vault token account.
func (t *TokenAccountInit) Apply(ctx *ApplyContext) Result {
	cfg, err := readConfig(ctx.View)
	if err != nil {
		return TefINTERNAL
	}
	if cfg == nil {
		return TecNO_ENTRY
	}
	if cfg.Owner != ctx.AccountID {
		return TecUNAUTHORIZED
	}

	mint, _ := decodeMint(t.Mint)
	k := keylet.TokenVault(t.TokenTag)
	exists, err := ctx.View.Exists(k)
	if err != nil {
		return TefINTERNAL
	}
	if exists {
		return TecDUPLICATE
	}

	vault := entry.TokenAccount{Holder: ProtocolID, Mint: mint}
	if err := ctx.View.Insert(k, vault.Serialize()); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}

// TokenSetup registers a payment asset under a type tag: it binds the
// tag to its mint and vault in a token config entry. Fungible assets
// need their vault created by TokenAccountInit first; the native asset
// gets its vault inline. Only the marketplace owner may run it.
type TokenSetup struct {
	BaseTx

	// TokenTag is the type tag to register (required).
	TokenTag uint8 `json:"TokenTag"`

	// Mint is the hex mint of the asset; empty for the native asset.
	Mint string `json:"Mint,omitempty"`
}

// NewTokenSetup creates a TokenSetup transaction.
func NewTokenSetup(account string, tag uint8, mint string) *TokenSetup {
	return &TokenSetup{BaseTx: NewBaseTx(account), TokenTag: tag, Mint: mint}
}

// TxType returns the transaction type.
func (t *TokenSetup) TxType() Type {
	return TypeTokenSetup
}

// Validate checks the transaction shape.
func (t *TokenSetup) Validate() error {
	if err := t.BaseTx.Validate(); err != nil {
		return err
	}
	_, err := decodeMint(t.Mint)
	return err
}

// Flatten returns the flat field map.
func (t *TokenSetup) Flatten() map[string]any {
	fields := map[string]any{"TokenTag": t.TokenTag}
	if t.Mint != "" {
		fields["Mint"] = t.Mint
	}
	return t.commonFields(fields, TypeTokenSetup)
}

// Apply registers the token config for the tag.
func (t *TokenSetup) Apply(ctx *ApplyContext) Result {
	cfg, err := readConfig(ctx.View)
	if err != nil {
		return TefINTERNAL
	}
	if cfg == nil {
		return TecNO_ENTRY
	}
	if cfg.Owner != ctx.AccountID {
		return TecUNAUTHORIZED
	}

	exists, err := ctx.View.Exists(keylet.TokenConfig(t.TokenTag))
	if err != nil {
		return TefINTERNAL
	}
	if exists {
		return TecDUPLICATE
	}

	mint, _ := decodeMint(t.Mint)
	vaultKey := keylet.TokenVault(t.TokenTag)

	var asset entry.Asset
	if mint.IsNative() {
		asset = entry.NativeAsset()
		// The native vault needs no pre-init; create it here.
		vault := entry.TokenAccount{Holder: ProtocolID, Mint: entry.NativeMint}
		if err := ctx.View.Insert(vaultKey, vault.Serialize()); err != nil {
			return TefINTERNAL
		}
	} else {
		asset = entry.FungibleAsset(mint)
		data, err := ctx.View.Read(vaultKey)
		if err != nil {
			return TefINTERNAL
		}
		if data == nil {
			return TecNO_TARGET
		}
		vault, err := entry.ParseTokenAccount(data)
		if err != nil {
			return TefINTERNAL
		}
		if vault.Mint != mint {
			return TecNO_TARGET
		}
	}

	tc := entry.TokenConfig{
		Tag:      t.TokenTag,
		Asset:    asset,
		VaultKey: vaultKey.Key,
	}
	if err := ctx.View.Insert(keylet.TokenConfig(t.TokenTag), tc.Serialize()); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}
