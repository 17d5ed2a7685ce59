package solana

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(v float64) *float64 {
	return &v
}

func TestSignatureResponse_ToTransactionRef(t *testing.T) {
	t.Run("successful transaction with block time", func(t *testing.T) {
		blockTime := int64(1766224800)
		res := signatureResponse{
			Signature: "T1",
			Slot:      101,
			BlockTime: &blockTime,
			Err:       json.RawMessage("null"),
		}

		ref := res.toTransactionRef()

		assert.Equal(t, "T1", ref.ID)
		assert.Equal(t, uint64(101), ref.Slot)
		assert.False(t, ref.Failed)
		assert.Equal(t, time.Unix(blockTime, 0).UTC(), ref.BlockTime)
	})

	t.Run("non-null err marks the transaction failed", func(t *testing.T) {
		res := signatureResponse{
			Signature: "T1",
			Err:       json.RawMessage(`{"InstructionError": [0, "Custom"]}`),
		}

		ref := res.toTransactionRef()

		assert.True(t, ref.Failed)
		assert.True(t, ref.BlockTime.IsZero())
	})
}

func TestTransactionResponse_ToTransactionDetail(t *testing.T) {
	t.Run("missing meta degrades to an empty detail", func(t *testing.T) {
		detail := transactionResponse{}.toTransactionDetail()

		assert.False(t, detail.Success)
		assert.Nil(t, detail.BalanceDeltas)
		assert.Empty(t, detail.TokenTransfers)
	})

	t.Run("zero deltas are omitted from the map", func(t *testing.T) {
		var res transactionResponse
		require.NoError(t, json.Unmarshal([]byte(`{
			"meta": {
				"err": null,
				"fee": 5000,
				"preBalances": [1000, 2000000000, 3000],
				"postBalances": [1000, 2500000000, 3000]
			},
			"transaction": {"message": {"accountKeys": ["quiet", "W", "also-quiet"]}}
		}`), &res))

		detail := res.toTransactionDetail()

		assert.True(t, detail.Success)
		require.Len(t, detail.BalanceDeltas, 1)
		assert.InDelta(t, 0.5, detail.BalanceDeltas["W"], 1e-9)
	})

	t.Run("mismatched balance arrays yield no deltas", func(t *testing.T) {
		var res transactionResponse
		require.NoError(t, json.Unmarshal([]byte(`{
			"meta": {
				"err": null,
				"preBalances": [1000],
				"postBalances": [1000, 2000]
			},
			"transaction": {"message": {"accountKeys": ["W"]}}
		}`), &res))

		assert.Nil(t, res.toTransactionDetail().BalanceDeltas)
	})

	t.Run("non-null meta err marks the transaction unsuccessful", func(t *testing.T) {
		var res transactionResponse
		require.NoError(t, json.Unmarshal([]byte(`{
			"meta": {"err": {"InstructionError": []}}
		}`), &res))

		assert.False(t, res.toTransactionDetail().Success)
	})
}

func TestDiffTokenBalances(t *testing.T) {
	t.Run("reports the movement of a changed holding", func(t *testing.T) {
		pre := []tokenBalanceResponse{{Mint: "USDC", Owner: "W"}}
		pre[0].UITokenAmount.UIAmount = float64Ptr(100)
		pre[0].UITokenAmount.Decimals = 6

		post := []tokenBalanceResponse{{Mint: "USDC", Owner: "W"}}
		post[0].UITokenAmount.UIAmount = float64Ptr(75)
		post[0].UITokenAmount.Decimals = 6

		transfers := diffTokenBalances(pre, post)

		require.Len(t, transfers, 1)
		assert.Equal(t, "USDC", transfers[0].Mint)
		assert.Equal(t, float64(-25), transfers[0].OwnerDelta)
		assert.Equal(t, uint8(6), transfers[0].Decimals)
	})

	t.Run("holding absent from pre is a full credit", func(t *testing.T) {
		post := []tokenBalanceResponse{{Mint: "USDC", Owner: "W"}}
		post[0].UITokenAmount.UIAmount = float64Ptr(10)
		post[0].UITokenAmount.Decimals = 6

		transfers := diffTokenBalances(nil, post)

		require.Len(t, transfers, 1)
		assert.Equal(t, float64(10), transfers[0].OwnerDelta)
	})

	t.Run("transfers come out ordered by mint then owner", func(t *testing.T) {
		post := []tokenBalanceResponse{
			{Mint: "USDT", Owner: "W"},
			{Mint: "USDC", Owner: "X"},
			{Mint: "USDC", Owner: "W"},
		}
		post[0].UITokenAmount.UIAmount = float64Ptr(1)
		post[1].UITokenAmount.UIAmount = float64Ptr(2)
		post[2].UITokenAmount.UIAmount = float64Ptr(3)

		transfers := diffTokenBalances(nil, post)

		require.Len(t, transfers, 3)
		assert.Equal(t, "USDC", transfers[0].Mint)
		assert.Equal(t, float64(3), transfers[0].OwnerDelta) // owner W before X
		assert.Equal(t, "USDC", transfers[1].Mint)
		assert.Equal(t, float64(2), transfers[1].OwnerDelta)
		assert.Equal(t, "USDT", transfers[2].Mint)
	})

	t.Run("unchanged holdings are omitted", func(t *testing.T) {
		pre := []tokenBalanceResponse{{Mint: "USDC", Owner: "W"}}
		pre[0].UITokenAmount.UIAmount = float64Ptr(100)

		post := []tokenBalanceResponse{{Mint: "USDC", Owner: "W"}}
		post[0].UITokenAmount.UIAmount = float64Ptr(100)

		assert.Empty(t, diffTokenBalances(pre, post))
	})
}
