package tx

import (
	"testing"

	"github.com/cgc-labs/marketd/internal/core/entry"
	"github.com/cgc-labs/marketd/internal/core/keylet"
	"github.com/cgc-labs/marketd/internal/core/ledger"
	"github.com/cgc-labs/marketd/internal/crypto"
)

func testKeyPair(name string) *crypto.KeyPair {
	return crypto.NewKeyPairFromSeed(crypto.SeedFromName(name))
}

func fund(t *testing.T, l *ledger.Ledger, id crypto.AccountID, mint entry.MintID, amount uint64) {
	t.Helper()
	ta := entry.TokenAccount{Holder: id, Mint: mint, Balance: amount}
	if err := l.Insert(keylet.Wallet(id, mint), ta.Serialize()); err != nil {
		t.Fatalf("fund: %v", err)
	}
}

func TestEngineRejectsMalformedAccount(t *testing.T) {
	engine := NewEngine(EngineConfig{SkipSignatureVerification: true})
	l := ledger.New()

	res := engine.Apply(l, NewMarketSetup("not-an-address", 10))
	if res.Result != TemBAD_SRC_ACCOUNT {
		t.Fatalf("result = %s, want temBAD_SRC_ACCOUNT", res.Result)
	}
	if res.Applied {
		t.Fatal("malformed transaction applied")
	}
}

func TestEngineRejectsUnknownAccount(t *testing.T) {
	engine := NewEngine(EngineConfig{SkipSignatureVerification: true})
	l := ledger.New()
	alice := testKeyPair("alice")

	// No native wallet for alice: anything but MarketSetup bounces.
	res := engine.Apply(l, NewSellClose(alice.Address(), alice.Address(), testMintHex()))
	if res.Result != TerNO_ACCOUNT {
		t.Fatalf("result = %s, want terNO_ACCOUNT", res.Result)
	}
}

// testMintHex returns a valid 20-byte mint in hex.
func testMintHex() string {
	b := make([]byte, 40)
	b[0], b[1] = 'a', 'b'
	for i := 2; i < len(b); i++ {
		b[i] = '0'
	}
	return string(b)
}

func TestEngineSignatureVerification(t *testing.T) {
	engine := NewEngine(EngineConfig{})
	l := ledger.New()
	alice := testKeyPair("alice")
	mallory := testKeyPair("mallory")

	txn := NewMarketSetup(alice.Address(), 10)
	res := engine.Apply(l, txn)
	if res.Result != TefBAD_SIGNATURE {
		t.Fatalf("unsigned: result = %s, want tefBAD_SIGNATURE", res.Result)
	}

	// Signed by the wrong key: the pubkey does not hash to the account.
	Sign(txn, mallory)
	res = engine.Apply(l, txn)
	if res.Result != TefBAD_SIGNATURE {
		t.Fatalf("wrong signer: result = %s, want tefBAD_SIGNATURE", res.Result)
	}

	Sign(txn, alice)
	res = engine.Apply(l, txn)
	if res.Result != TesSUCCESS {
		t.Fatalf("signed: result = %s, want tesSUCCESS", res.Result)
	}
	if !res.Applied {
		t.Fatal("signed transaction not applied")
	}
}

func TestEngineTamperedPayloadFailsVerification(t *testing.T) {
	engine := NewEngine(EngineConfig{})
	l := ledger.New()
	alice := testKeyPair("alice")

	txn := NewMarketSetup(alice.Address(), 10)
	Sign(txn, alice)
	txn.FeeRateBps = 9999

	res := engine.Apply(l, txn)
	if res.Result != TefBAD_SIGNATURE {
		t.Fatalf("result = %s, want tefBAD_SIGNATURE", res.Result)
	}
}

func TestEngineFailedApplyLeavesNoTrace(t *testing.T) {
	engine := NewEngine(EngineConfig{SkipSignatureVerification: true})
	l := ledger.New()
	alice := testKeyPair("alice")

	res := engine.Apply(l, NewMarketSetup(alice.Address(), 10))
	if res.Result != TesSUCCESS {
		t.Fatalf("setup: %s", res.Result)
	}
	before := l.StateHash()

	// Second setup is a tec: nothing may change.
	res = engine.Apply(l, NewMarketSetup(alice.Address(), 20))
	if res.Result != TecDUPLICATE {
		t.Fatalf("result = %s, want tecDUPLICATE", res.Result)
	}
	if res.Applied {
		t.Fatal("tec transaction reported as applied")
	}
	if l.StateHash() != before {
		t.Fatal("failed apply mutated committed state")
	}
}

func TestEngineMetadataForSetup(t *testing.T) {
	engine := NewEngine(EngineConfig{SkipSignatureVerification: true})
	l := ledger.New()
	alice := testKeyPair("alice")

	res := engine.Apply(l, NewMarketSetup(alice.Address(), 10))
	if res.Result != TesSUCCESS {
		t.Fatalf("setup: %s", res.Result)
	}
	if res.Metadata == nil {
		t.Fatal("no metadata")
	}
	// Config singleton plus the owner's bootstrap wallet.
	if len(res.Metadata.AffectedNodes) != 2 {
		t.Fatalf("affected nodes = %d, want 2", len(res.Metadata.AffectedNodes))
	}
	for _, n := range res.Metadata.AffectedNodes {
		if n.NodeType != "CreatedNode" {
			t.Errorf("node %s: type %s, want CreatedNode", n.Key, n.NodeType)
		}
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	alice := testKeyPair("alice")
	txn := NewSellStart(alice.Address(), "0102030405060708090a0b0c0d0e0f1011121314", 500, 1)
	Sign(txn, alice)

	raw := canonicalSerialize(txn.Flatten())
	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := decoded.(*SellStart)
	if !ok {
		t.Fatalf("decoded type %T", decoded)
	}
	if got.Price != 500 || got.TokenTag != 1 || got.NFTMint != txn.NFTMint {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if Hash(got) != Hash(txn) {
		t.Fatal("hash changed across decode")
	}
}
