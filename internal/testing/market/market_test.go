package market

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cgc-labs/marketd/internal/core/entry"
	"github.com/cgc-labs/marketd/internal/core/tx"
	"github.com/cgc-labs/marketd/internal/crypto"
	mkt "github.com/cgc-labs/marketd/internal/testing"
)

// nftMint derives a deterministic NFT mint from a name.
func nftMint(name string) entry.MintID {
	h := crypto.Sha512Half([]byte("nft:" + name))
	var m entry.MintID
	copy(m[:], h[:entry.MintIDSize])
	return m
}

func mintHex(m entry.MintID) string {
	return hex.EncodeToString(m[:])
}

// setupMarket bootstraps a marketplace with the given fee rate and a
// native payment token under tag 0. Returns the owner account.
func setupMarket(t *testing.T, env *mkt.TestEnv, feeRateBps uint64) *mkt.Account {
	t.Helper()
	owner := env.Account("owner")
	mkt.RequireTxSuccess(t, env.Submit(owner, tx.NewMarketSetup(owner.Address, feeRateBps)))
	mkt.RequireTxSuccess(t, env.Submit(owner, tx.NewTokenSetup(owner.Address, 0, "")))
	return owner
}

func TestMarketSetupRejectsDuplicate(t *testing.T) {
	env := mkt.NewTestEnv(t)
	owner := setupMarket(t, env, 250)

	cfg := env.MarketConfig()
	require.Equal(t, owner.ID, cfg.Owner)
	require.Equal(t, uint64(250), cfg.TradeFeeRate)

	res := env.Submit(owner, tx.NewMarketSetup(owner.Address, 500))
	mkt.RequireTxResult(t, res, tx.TecDUPLICATE)

	// The first configuration survives.
	require.Equal(t, uint64(250), env.MarketConfig().TradeFeeRate)
}

func TestTokenSetupOwnerOnly(t *testing.T) {
	env := mkt.NewTestEnv(t)
	setupMarket(t, env, 100)

	mallory := env.Account("mallory")
	env.FundNative(mallory, 1)

	res := env.Submit(mallory, tx.NewTokenSetup(mallory.Address, 1, ""))
	mkt.RequireTxResult(t, res, tx.TecUNAUTHORIZED)

	require.Nil(t, env.TokenConfig(1))
}

func TestTokenSetupFungiblePath(t *testing.T) {
	env := mkt.NewTestEnv(t)
	owner := setupMarket(t, env, 100)

	usd := nftMint("usd-stable")

	// Fungible tags need their vault initialized first.
	res := env.Submit(owner, tx.NewTokenSetup(owner.Address, 1, mintHex(usd)))
	mkt.RequireTxResult(t, res, tx.TecNO_TARGET)

	mkt.RequireTxSuccess(t, env.Submit(owner, tx.NewTokenAccountInit(owner.Address, 1, mintHex(usd))))
	mkt.RequireTxSuccess(t, env.Submit(owner, tx.NewTokenSetup(owner.Address, 1, mintHex(usd))))

	tc := env.TokenConfig(1)
	require.NotNil(t, tc)
	require.False(t, tc.Asset.IsNative())
	require.Equal(t, usd, tc.Asset.Mint)

	res = env.Submit(owner, tx.NewTokenSetup(owner.Address, 1, mintHex(usd)))
	mkt.RequireTxResult(t, res, tx.TecDUPLICATE)
}

func TestListingCustodyRoundTrip(t *testing.T) {
	env := mkt.NewTestEnv(t)
	setupMarket(t, env, 100)

	seller := env.Account("seller")
	env.FundNative(seller, 10)
	art := nftMint("art")
	env.GiveNFT(seller, art)

	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellStart(seller.Address, mintHex(art), 5_000, 0)))
	mkt.RequireNFTInCustody(t, env, art)
	require.Equal(t, uint64(0), env.Balance(seller, art))

	sell := env.Listing(seller, art)
	require.NotNil(t, sell)
	require.True(t, sell.Active)
	require.Equal(t, uint64(5_000), sell.Price)

	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellClose(seller.Address, seller.Address, mintHex(art))))
	mkt.RequireNFTHolder(t, env, seller, art)
	require.False(t, env.Listing(seller, art).Active)
}

func TestListingRequiresNFT(t *testing.T) {
	env := mkt.NewTestEnv(t)
	setupMarket(t, env, 100)

	seller := env.Account("seller")
	env.FundNative(seller, 10)

	res := env.Submit(seller, tx.NewSellStart(seller.Address, mintHex(nftMint("ghost")), 100, 0))
	mkt.RequireTxResult(t, res, tx.TecINSUFFICIENT_FUNDS)
}

func TestSellUpdateAuthorization(t *testing.T) {
	env := mkt.NewTestEnv(t)
	setupMarket(t, env, 100)

	seller := env.Account("seller")
	mallory := env.Account("mallory")
	env.FundNative(seller, 10)
	env.FundNative(mallory, 10)
	art := nftMint("art")
	env.GiveNFT(seller, art)

	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellStart(seller.Address, mintHex(art), 5_000, 0)))

	// Mallory addresses the real listing but does not own it.
	res := env.Submit(mallory, tx.NewSellUpdate(mallory.Address, seller.Address, mintHex(art), 1, 0))
	mkt.RequireTxResult(t, res, tx.TecUNAUTHORIZED)
	require.Equal(t, uint64(5_000), env.Listing(seller, art).Price)

	// A listing that was never created is a different failure.
	res = env.Submit(mallory, tx.NewSellUpdate(mallory.Address, mallory.Address, mintHex(art), 1, 0))
	mkt.RequireTxResult(t, res, tx.TecNO_ENTRY)

	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellUpdate(seller.Address, seller.Address, mintHex(art), 7_500, 0)))
	require.Equal(t, uint64(7_500), env.Listing(seller, art).Price)
}

func TestSellCloseAuthorization(t *testing.T) {
	env := mkt.NewTestEnv(t)
	setupMarket(t, env, 100)

	seller := env.Account("seller")
	mallory := env.Account("mallory")
	env.FundNative(seller, 10)
	env.FundNative(mallory, 10)
	art := nftMint("art")
	env.GiveNFT(seller, art)

	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellStart(seller.Address, mintHex(art), 5_000, 0)))

	res := env.Submit(mallory, tx.NewSellClose(mallory.Address, seller.Address, mintHex(art)))
	mkt.RequireTxResult(t, res, tx.TecUNAUTHORIZED)
	mkt.RequireNFTInCustody(t, env, art)
	require.True(t, env.Listing(seller, art).Active)
}

func TestBuySplitsFeeExactly(t *testing.T) {
	env := mkt.NewTestEnv(t)
	setupMarket(t, env, 10) // 10 bps

	seller := env.Account("seller")
	buyer := env.Account("buyer")
	env.FundNative(seller, 0)
	env.FundNative(buyer, 2_000_000_000)
	art := nftMint("art")
	env.GiveNFT(seller, art)

	price := uint64(1_000_000_000)
	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellStart(seller.Address, mintHex(art), price, 0)))
	mkt.RequireTxSuccess(t, env.Submit(buyer, tx.NewBuy(buyer.Address, 0, seller.Address, mintHex(art))))

	// floor(1e9 * 10 / 10000) = 1,000,000
	mkt.RequireNativeBalance(t, env, buyer, 1_000_000_000)
	mkt.RequireNativeBalance(t, env, seller, 999_000_000)
	mkt.RequireVaultBalance(t, env, 0, 1_000_000)
	mkt.RequireFeeAccrued(t, env, 0, 1_000_000)
	mkt.RequireNFTHolder(t, env, buyer, art)
	require.False(t, env.Listing(seller, art).Active)
}

func TestBuyAtUpdatedPrice(t *testing.T) {
	env := mkt.NewTestEnv(t)
	setupMarket(t, env, 0)

	seller := env.Account("seller")
	buyer := env.Account("buyer")
	env.FundNative(seller, 0)
	env.FundNative(buyer, 800)
	art := nftMint("art")
	env.GiveNFT(seller, art)

	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellStart(seller.Address, mintHex(art), 1_000, 0)))

	// Buyer cannot afford the original ask.
	res := env.Submit(buyer, tx.NewBuy(buyer.Address, 0, seller.Address, mintHex(art)))
	mkt.RequireTxResult(t, res, tx.TecINSUFFICIENT_FUNDS)
	mkt.RequireNativeBalance(t, env, buyer, 800)
	mkt.RequireNFTInCustody(t, env, art)

	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellUpdate(seller.Address, seller.Address, mintHex(art), 750, 0)))
	mkt.RequireTxSuccess(t, env.Submit(buyer, tx.NewBuy(buyer.Address, 0, seller.Address, mintHex(art))))

	mkt.RequireNativeBalance(t, env, buyer, 50)
	mkt.RequireNativeBalance(t, env, seller, 750)
	mkt.RequireNFTHolder(t, env, buyer, art)
}

func TestBuyClosedListingFails(t *testing.T) {
	env := mkt.NewTestEnv(t)
	setupMarket(t, env, 100)

	seller := env.Account("seller")
	buyer := env.Account("buyer")
	env.FundNative(seller, 0)
	env.FundNative(buyer, 10_000)
	art := nftMint("art")
	env.GiveNFT(seller, art)

	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellStart(seller.Address, mintHex(art), 1_000, 0)))
	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellClose(seller.Address, seller.Address, mintHex(art))))

	res := env.Submit(buyer, tx.NewBuy(buyer.Address, 0, seller.Address, mintHex(art)))
	mkt.RequireTxResult(t, res, tx.TecLISTING_INACTIVE)
	mkt.RequireNativeBalance(t, env, buyer, 10_000)
}

func TestOfferEscrowRoundTrip(t *testing.T) {
	env := mkt.NewTestEnv(t)
	setupMarket(t, env, 100)

	seller := env.Account("seller")
	buyer := env.Account("buyer")
	env.FundNative(seller, 0)
	env.FundNative(buyer, 10_000)
	art := nftMint("art")
	env.GiveNFT(seller, art)

	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellStart(seller.Address, mintHex(art), 5_000, 0)))
	sellID := env.Listing(seller, art).ID

	// The full bid amount escrows into the vault up front.
	mkt.RequireTxSuccess(t, env.Submit(buyer, tx.NewOfferApply(buyer.Address, 0, seller.Address, mintHex(art), sellID, 4_000)))
	mkt.RequireNativeBalance(t, env, buyer, 6_000)
	mkt.RequireVaultBalance(t, env, 0, 4_000)

	offer := env.Offer(buyer, art, sellID)
	require.NotNil(t, offer)
	require.Equal(t, uint64(4_000), offer.Amount)

	// Cancel refunds every escrowed unit.
	mkt.RequireTxSuccess(t, env.Submit(buyer, tx.NewOfferCancel(buyer.Address, 0, mintHex(art), sellID)))
	mkt.RequireNativeBalance(t, env, buyer, 10_000)
	mkt.RequireVaultBalance(t, env, 0, 0)
	require.Nil(t, env.Offer(buyer, art, sellID))
}

func TestOfferRejectsDuplicateAndUnderfunded(t *testing.T) {
	env := mkt.NewTestEnv(t)
	setupMarket(t, env, 100)

	seller := env.Account("seller")
	buyer := env.Account("buyer")
	env.FundNative(seller, 0)
	env.FundNative(buyer, 1_000)
	art := nftMint("art")
	env.GiveNFT(seller, art)

	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellStart(seller.Address, mintHex(art), 5_000, 0)))
	sellID := env.Listing(seller, art).ID

	res := env.Submit(buyer, tx.NewOfferApply(buyer.Address, 0, seller.Address, mintHex(art), sellID, 2_000))
	mkt.RequireTxResult(t, res, tx.TecINSUFFICIENT_FUNDS)

	mkt.RequireTxSuccess(t, env.Submit(buyer, tx.NewOfferApply(buyer.Address, 0, seller.Address, mintHex(art), sellID, 800)))

	res = env.Submit(buyer, tx.NewOfferApply(buyer.Address, 0, seller.Address, mintHex(art), sellID, 100))
	mkt.RequireTxResult(t, res, tx.TecDUPLICATE)
	mkt.RequireNativeBalance(t, env, buyer, 200)
}

func TestOfferAcceptSettles(t *testing.T) {
	env := mkt.NewTestEnv(t)
	setupMarket(t, env, 25) // 25 bps

	seller := env.Account("seller")
	buyer := env.Account("buyer")
	env.FundNative(seller, 0)
	env.FundNative(buyer, 100_000)
	art := nftMint("art")
	env.GiveNFT(seller, art)

	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellStart(seller.Address, mintHex(art), 50_000, 0)))
	sellID := env.Listing(seller, art).ID

	mkt.RequireTxSuccess(t, env.Submit(buyer, tx.NewOfferApply(buyer.Address, 0, seller.Address, mintHex(art), sellID, 40_000)))
	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewOfferAccept(seller.Address, 0, buyer.Address, mintHex(art), sellID)))

	// floor(40000 * 25 / 10000) = 100 stays in the vault as fee.
	mkt.RequireNativeBalance(t, env, seller, 39_900)
	mkt.RequireNativeBalance(t, env, buyer, 60_000)
	mkt.RequireVaultBalance(t, env, 0, 100)
	mkt.RequireFeeAccrued(t, env, 0, 100)
	mkt.RequireNFTHolder(t, env, buyer, art)
	require.False(t, env.Listing(seller, art).Active)
	require.Nil(t, env.Offer(buyer, art, sellID))

	// The listing is consumed; a direct buy can no longer settle.
	res := env.Submit(buyer, tx.NewBuy(buyer.Address, 0, seller.Address, mintHex(art)))
	mkt.RequireTxResult(t, res, tx.TecLISTING_INACTIVE)
}

func TestOfferAcceptRequiresActiveListing(t *testing.T) {
	env := mkt.NewTestEnv(t)
	setupMarket(t, env, 100)

	seller := env.Account("seller")
	buyer := env.Account("buyer")
	env.FundNative(seller, 0)
	env.FundNative(buyer, 10_000)
	art := nftMint("art")
	env.GiveNFT(seller, art)

	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellStart(seller.Address, mintHex(art), 5_000, 0)))
	sellID := env.Listing(seller, art).ID
	mkt.RequireTxSuccess(t, env.Submit(buyer, tx.NewOfferApply(buyer.Address, 0, seller.Address, mintHex(art), sellID, 4_000)))

	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellClose(seller.Address, seller.Address, mintHex(art))))

	res := env.Submit(seller, tx.NewOfferAccept(seller.Address, 0, buyer.Address, mintHex(art), sellID))
	mkt.RequireTxResult(t, res, tx.TecLISTING_INACTIVE)

	// The buyer's escrow stays intact and refundable.
	mkt.RequireVaultBalance(t, env, 0, 4_000)
	mkt.RequireTxSuccess(t, env.Submit(buyer, tx.NewOfferCancel(buyer.Address, 0, mintHex(art), sellID)))
	mkt.RequireNativeBalance(t, env, buyer, 10_000)
}

func TestRelistAssignsNewID(t *testing.T) {
	env := mkt.NewTestEnv(t)
	setupMarket(t, env, 100)

	seller := env.Account("seller")
	buyer := env.Account("buyer")
	env.FundNative(seller, 0)
	env.FundNative(buyer, 10_000)
	art := nftMint("art")
	env.GiveNFT(seller, art)

	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellStart(seller.Address, mintHex(art), 5_000, 0)))
	firstID := env.Listing(seller, art).ID

	mkt.RequireTxSuccess(t, env.Submit(buyer, tx.NewOfferApply(buyer.Address, 0, seller.Address, mintHex(art), firstID, 3_000)))
	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellClose(seller.Address, seller.Address, mintHex(art))))
	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellStart(seller.Address, mintHex(art), 6_000, 0)))

	secondID := env.Listing(seller, art).ID
	require.NotEqual(t, firstID, secondID)

	// The stale offer cannot settle against the new listing.
	res := env.Submit(seller, tx.NewOfferAccept(seller.Address, 0, buyer.Address, mintHex(art), firstID))
	mkt.RequireTxResult(t, res, tx.TecLISTING_MISMATCH)

	mkt.RequireTxSuccess(t, env.Submit(buyer, tx.NewOfferCancel(buyer.Address, 0, mintHex(art), firstID)))
	mkt.RequireNativeBalance(t, env, buyer, 10_000)
}

func TestOfferCancelAuthorization(t *testing.T) {
	env := mkt.NewTestEnv(t)
	setupMarket(t, env, 100)

	seller := env.Account("seller")
	buyer := env.Account("buyer")
	mallory := env.Account("mallory")
	env.FundNative(seller, 0)
	env.FundNative(buyer, 10_000)
	env.FundNative(mallory, 10)
	art := nftMint("art")
	env.GiveNFT(seller, art)

	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellStart(seller.Address, mintHex(art), 5_000, 0)))
	sellID := env.Listing(seller, art).ID
	mkt.RequireTxSuccess(t, env.Submit(buyer, tx.NewOfferApply(buyer.Address, 0, seller.Address, mintHex(art), sellID, 4_000)))

	// Mallory's cancel targets her own offer keylet, which is empty.
	res := env.Submit(mallory, tx.NewOfferCancel(mallory.Address, 0, mintHex(art), sellID))
	mkt.RequireTxResult(t, res, tx.TecNO_ENTRY)
	mkt.RequireVaultBalance(t, env, 0, 4_000)
}

func TestFungibleTokenMarket(t *testing.T) {
	env := mkt.NewTestEnv(t)
	owner := setupMarket(t, env, 50)

	usd := nftMint("usd-stable")
	mkt.RequireTxSuccess(t, env.Submit(owner, tx.NewTokenAccountInit(owner.Address, 1, mintHex(usd))))
	mkt.RequireTxSuccess(t, env.Submit(owner, tx.NewTokenSetup(owner.Address, 1, mintHex(usd))))

	seller := env.Account("seller")
	buyer := env.Account("buyer")
	env.FundNative(seller, 1)
	env.FundNative(buyer, 1)
	env.Fund(buyer, usd, 100_000)
	art := nftMint("art")
	env.GiveNFT(seller, art)

	mkt.RequireTxSuccess(t, env.Submit(seller, tx.NewSellStart(seller.Address, mintHex(art), 20_000, 1)))

	// A buy quoting the wrong payment tag cannot settle.
	res := env.Submit(buyer, tx.NewBuy(buyer.Address, 0, seller.Address, mintHex(art)))
	mkt.RequireTxResult(t, res, tx.TecLISTING_MISMATCH)

	mkt.RequireTxSuccess(t, env.Submit(buyer, tx.NewBuy(buyer.Address, 1, seller.Address, mintHex(art))))

	// floor(20000 * 50 / 10000) = 100
	mkt.RequireBalance(t, env, buyer, usd, 80_000)
	mkt.RequireBalance(t, env, seller, usd, 19_900)
	mkt.RequireVaultBalance(t, env, 1, 100)
	mkt.RequireFeeAccrued(t, env, 1, 100)
	mkt.RequireNFTHolder(t, env, buyer, art)
}
