package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/cgc-labs/marketd/internal/core/entry"
	"github.com/cgc-labs/marketd/internal/crypto"
	"github.com/cgc-labs/marketd/internal/storage/txjournal"
)

func (s *Server) serverInfo(ctx context.Context) (any, error) {
	txCount, err := s.node.TxCount(ctx)
	if err != nil {
		return nil, err
	}
	stateHash := s.node.Ledger().StateHash()
	return map[string]any{
		"ledger_seq":  s.node.Ledger().Seq(),
		"entry_count": s.node.Ledger().EntryCount(),
		"state_hash":  strings.ToUpper(hex.EncodeToString(stateHash[:])),
		"tx_count":    txCount,
		"store":       s.node.StoreName(),
		"standalone":  s.node.Standalone(),
	}, nil
}

func (s *Server) marketInfo() (any, error) {
	cfg, err := s.node.MarketInfo()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, errNotFound("marketplace not set up")
	}
	return map[string]any{
		"owner":         cfg.Owner.Address(),
		"trade_fee_bps": cfg.TradeFeeRate,
		"next_sell_id":  cfg.NextSellID,
		"next_offer_id": cfg.NextOfferID,
	}, nil
}

func (s *Server) tokenInfo(params json.RawMessage) (any, error) {
	var p struct {
		TokenTag uint8 `json:"token_tag"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, errInvalidParams("token_info requires token_tag")
	}
	tc, vaultBal, err := s.node.TokenInfo(p.TokenTag)
	if err != nil {
		return nil, err
	}
	if tc == nil {
		return nil, errNotFound("token tag not registered")
	}
	return map[string]any{
		"token_tag":     tc.Tag,
		"asset":         tc.Asset.String(),
		"vault_key":     strings.ToUpper(hex.EncodeToString(tc.VaultKey[:])),
		"fee_accrued":   tc.FeeAccrued,
		"vault_balance": vaultBal,
	}, nil
}

func parseListingParams(params json.RawMessage) (crypto.AccountID, entry.MintID, error) {
	var p struct {
		Seller  string `json:"seller"`
		NFTMint string `json:"nft_mint"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return crypto.AccountID{}, entry.MintID{}, errInvalidParams("listing requires seller and nft_mint")
	}
	seller, err := crypto.DecodeAddress(p.Seller)
	if err != nil {
		return crypto.AccountID{}, entry.MintID{}, errInvalidParams("malformed seller address")
	}
	mint, err := parseMint(p.NFTMint)
	if err != nil {
		return crypto.AccountID{}, entry.MintID{}, err
	}
	return seller, mint, nil
}

func parseMint(s string) (entry.MintID, error) {
	var mint entry.MintID
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != entry.MintIDSize {
		return mint, errInvalidParams("malformed nft_mint")
	}
	copy(mint[:], raw)
	return mint, nil
}

func listingJSON(sell *entry.Sell) map[string]any {
	return map[string]any{
		"sell_id":   sell.ID,
		"seller":    sell.Seller.Address(),
		"nft_mint":  sell.NFTMint.String(),
		"price":     sell.Price,
		"token_tag": sell.TokenTag,
		"active":    sell.Active,
	}
}

func (s *Server) listing(params json.RawMessage) (any, error) {
	seller, mint, err := parseListingParams(params)
	if err != nil {
		return nil, err
	}
	sell, err := s.node.Listing(seller, mint)
	if err != nil {
		return nil, err
	}
	if sell == nil {
		return nil, errNotFound("listing not found")
	}
	return listingJSON(sell), nil
}

func (s *Server) listingOffers(params json.RawMessage) (any, error) {
	var p struct {
		NFTMint string `json:"nft_mint"`
		SellID  uint64 `json:"sell_id"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, errInvalidParams("listing_offers requires nft_mint and sell_id")
	}
	mint, err := parseMint(p.NFTMint)
	if err != nil {
		return nil, err
	}
	offers, err := s.node.ListingOffers(mint, p.SellID)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(offers))
	for _, offer := range offers {
		out = append(out, map[string]any{
			"offer_id":  offer.ID,
			"buyer":     offer.Buyer.Address(),
			"nft_mint":  offer.NFTMint.String(),
			"sell_id":   offer.SellID,
			"amount":    offer.Amount,
			"token_tag": offer.TokenTag,
		})
	}
	return map[string]any{"offers": out}, nil
}

func (s *Server) accountInfo(params json.RawMessage) (any, error) {
	var p struct {
		Account string `json:"account"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, errInvalidParams("account_info requires account")
	}
	id, err := crypto.DecodeAddress(p.Account)
	if err != nil {
		return nil, errInvalidParams("malformed account address")
	}
	balances, err := s.node.AccountBalances(id)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(balances))
	for _, ta := range balances {
		out = append(out, map[string]any{
			"mint":    ta.Mint.String(),
			"balance": ta.Balance,
		})
	}
	return map[string]any{
		"account":  p.Account,
		"balances": out,
	}, nil
}

func (s *Server) submit(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		TxJSON json.RawMessage `json:"tx_json"`
	}
	if err := json.Unmarshal(params, &p); err != nil || len(p.TxJSON) == 0 {
		return nil, errInvalidParams("submit requires tx_json")
	}
	res, err := s.node.Submit(ctx, p.TxJSON)
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"engine_result":         res.Result.String(),
		"engine_result_message": res.Message,
		"applied":               res.Applied,
		"tx_hash":               strings.ToUpper(hex.EncodeToString(res.TxHash[:])),
	}
	if res.Metadata != nil {
		out["meta"] = res.Metadata
	}
	return out, nil
}

func (s *Server) tx(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(params, &p); err != nil || p.Hash == "" {
		return nil, errInvalidParams("tx requires hash")
	}
	rec, err := s.node.Tx(ctx, p.Hash)
	if errors.Is(err, txjournal.ErrNotFound) {
		return nil, errNotFound("transaction not found")
	}
	if err != nil {
		return nil, err
	}
	return recordJSON(rec), nil
}

func (s *Server) txHistory(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Account string `json:"account"`
		Limit   int    `json:"limit"`
	}
	if err := json.Unmarshal(params, &p); err != nil || p.Account == "" {
		return nil, errInvalidParams("tx_history requires account")
	}
	recs, err := s.node.TxHistory(ctx, p.Account, p.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(recs))
	for i := range recs {
		out = append(out, recordJSON(&recs[i]))
	}
	return map[string]any{
		"account":      p.Account,
		"transactions": out,
	}, nil
}

func recordJSON(rec *txjournal.Record) map[string]any {
	return map[string]any{
		"hash":       rec.Hash,
		"tx_type":    rec.TxType,
		"account":    rec.Account,
		"ledger_seq": rec.LedgerSeq,
		"result":     rec.Result,
		"tx_json":    json.RawMessage(rec.TxJSON),
		"meta":       json.RawMessage(rec.MetaJSON),
		"applied_at": rec.AppliedAt,
	}
}
