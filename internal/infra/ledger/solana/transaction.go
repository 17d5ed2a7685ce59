package solana

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/gabapcia/walletpulse/internal/addrwatch"
)

type (
	// balanceResponse is the value object of the getBalance RPC.
	balanceResponse struct {
		Value uint64 `json:"value"`
	}

	// signatureResponse is one entry of the getSignaturesForAddress RPC.
	signatureResponse struct {
		Signature string          `json:"signature"`
		Slot      uint64          `json:"slot"`
		BlockTime *int64          `json:"blockTime"`
		Err       json.RawMessage `json:"err"`
	}

	// tokenBalanceResponse is one pre/post token balance entry of the
	// getTransaction RPC.
	tokenBalanceResponse struct {
		AccountIndex  int    `json:"accountIndex"`
		Mint          string `json:"mint"`
		Owner         string `json:"owner"`
		UITokenAmount struct {
			UIAmount *float64 `json:"uiAmount"`
			Decimals uint8    `json:"decimals"`
		} `json:"uiTokenAmount"`
	}

	// transactionResponse is the subset of the getTransaction RPC response
	// the classifier needs.
	transactionResponse struct {
		BlockTime *int64 `json:"blockTime"`
		Meta      *struct {
			Err               json.RawMessage        `json:"err"`
			Fee               uint64                 `json:"fee"`
			PreBalances       []uint64               `json:"preBalances"`
			PostBalances      []uint64               `json:"postBalances"`
			PreTokenBalances  []tokenBalanceResponse `json:"preTokenBalances"`
			PostTokenBalances []tokenBalanceResponse `json:"postTokenBalances"`
		} `json:"meta"`
		Transaction struct {
			Message struct {
				AccountKeys []string `json:"accountKeys"`
			} `json:"message"`
		} `json:"transaction"`
	}
)

// toTransactionRef converts a signature listing entry. A non-null err field
// marks the transaction as failed.
func (s signatureResponse) toTransactionRef() addrwatch.TransactionRef {
	ref := addrwatch.TransactionRef{
		ID:     s.Signature,
		Slot:   s.Slot,
		Failed: !isJSONNull(s.Err),
	}

	if s.BlockTime != nil {
		ref.BlockTime = time.Unix(*s.BlockTime, 0).UTC()
	}

	return ref
}

// toTransactionDetail derives the per-account balance deltas from the
// pre/post balance arrays (indexed by account key position) and the token
// transfers from the pre/post token balance lists. A response without meta
// degrades to an empty detail, which the classifier turns into the fallback
// alert.
func (t transactionResponse) toTransactionDetail() addrwatch.TransactionDetail {
	if t.Meta == nil {
		return addrwatch.TransactionDetail{}
	}

	detail := addrwatch.TransactionDetail{
		Success: isJSONNull(t.Meta.Err),
		Fee:     float64(t.Meta.Fee) / lamportsPerSol,
	}

	accountKeys := t.Transaction.Message.AccountKeys
	if len(accountKeys) > 0 && len(t.Meta.PreBalances) == len(t.Meta.PostBalances) {
		deltas := make(map[string]float64, len(accountKeys))
		for i, key := range accountKeys {
			if i >= len(t.Meta.PreBalances) {
				break
			}

			delta := (float64(t.Meta.PostBalances[i]) - float64(t.Meta.PreBalances[i])) / lamportsPerSol
			if delta != 0 {
				deltas[key] = delta
			}
		}

		if len(deltas) > 0 {
			detail.BalanceDeltas = deltas
		}
	}

	detail.TokenTransfers = diffTokenBalances(t.Meta.PreTokenBalances, t.Meta.PostTokenBalances)
	return detail
}

// tokenHolding identifies one (mint, owner) pair across the pre/post lists.
type tokenHolding struct {
	mint  string
	owner string
}

// diffTokenBalances computes the per-holding amount movements between the
// pre and post token balance lists. Holdings whose amount did not move are
// omitted. Transfers come out ordered by mint then owner, so identical
// responses always produce identical payloads.
func diffTokenBalances(pre, post []tokenBalanceResponse) []addrwatch.TokenTransfer {
	type balance struct {
		amount   float64
		decimals uint8
	}

	balances := make(map[tokenHolding]*[2]balance)

	record := func(entries []tokenBalanceResponse, idx int) {
		for _, entry := range entries {
			key := tokenHolding{mint: entry.Mint, owner: entry.Owner}
			b, ok := balances[key]
			if !ok {
				b = &[2]balance{}
				balances[key] = b
			}

			b[idx].decimals = entry.UITokenAmount.Decimals
			if entry.UITokenAmount.UIAmount != nil {
				b[idx].amount = *entry.UITokenAmount.UIAmount
			}
		}
	}

	record(pre, 0)
	record(post, 1)

	holdings := slices.SortedFunc(maps.Keys(balances), func(a, b tokenHolding) int {
		if c := strings.Compare(a.mint, b.mint); c != 0 {
			return c
		}
		return strings.Compare(a.owner, b.owner)
	})

	var transfers []addrwatch.TokenTransfer
	for _, key := range holdings {
		b := balances[key]

		delta := b[1].amount - b[0].amount
		if delta == 0 {
			continue
		}

		decimals := b[1].decimals
		if decimals == 0 {
			decimals = b[0].decimals
		}

		transfers = append(transfers, addrwatch.TokenTransfer{
			Mint:       key.mint,
			OwnerDelta: delta,
			Decimals:   decimals,
		})
	}

	return transfers
}

// isJSONNull reports whether the raw message is absent or the JSON null
// literal.
func isJSONNull(data json.RawMessage) bool {
	return len(data) == 0 || string(data) == "null"
}
