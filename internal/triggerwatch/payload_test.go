package triggerwatch

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/leon-do/web3hook-emit/internal/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildNotificationPayload(t *testing.T) {
	t.Run("converts values to decimal strings and lowercases addresses", func(t *testing.T) {
		tx := Transaction{
			Hash:     "0xf00d",
			From:     "0xAAaaAAaaAAaaAAaaAAaaAAaaAAaaAAaaAAaaAAaa",
			To:       "0xBBbbBBbbBBbbBBbbBBbbBBbbBBbbBBbbBBbbBBbb",
			ChainID:  1,
			Value:    types.Hex("0xde0b6b3a7640000"),
			Data:     "0x",
			GasLimit: types.Hex("0x5208"),
		}

		payload := buildNotificationPayload(tx)

		assert.Equal(t, NotificationPayload{
			TransactionHash: "0xf00d",
			FromAddress:     "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			ToAddress:       "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
			Value:           "1000000000000000000",
			ChainID:         1,
			Data:            "0x",
			GasLimit:        "21000",
		}, payload)
	})

	t.Run("contract creation has empty recipient", func(t *testing.T) {
		payload := buildNotificationPayload(Transaction{
			Hash: "0x1", From: "0xAA", ChainID: 1,
		})
		assert.Equal(t, "", payload.ToAddress)
	})

	t.Run("is pure: identical transactions serialize identically", func(t *testing.T) {
		tx := Transaction{
			Hash: "0x1", From: "0xAA", To: "0xBB", ChainID: 5,
			Value: "0x1b1ae4d6e2ef500000", Data: "0xdeadbeef", GasLimit: "0x30d40",
		}

		first, err := json.Marshal(buildNotificationPayload(tx))
		require.NoError(t, err)
		second, err := json.Marshal(buildNotificationPayload(tx))
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("max uint256 value round trips losslessly", func(t *testing.T) {
		max := new(big.Int)
		max.Exp(big.NewInt(2), big.NewInt(256), nil)
		max.Sub(max, big.NewInt(1))

		tx := Transaction{
			Hash:  "0x1",
			From:  "0xAA",
			Value: types.Hex("0x" + max.Text(16)),
		}

		payload := buildNotificationPayload(tx)

		parsed, ok := new(big.Int).SetString(payload.Value, 10)
		require.True(t, ok)
		assert.Equal(t, 0, parsed.Cmp(max))
	})

	t.Run("json field names match the webhook contract", func(t *testing.T) {
		data, err := json.Marshal(buildNotificationPayload(Transaction{ChainID: 1}))
		require.NoError(t, err)

		var fields map[string]any
		require.NoError(t, json.Unmarshal(data, &fields))

		for _, name := range []string{"transactionHash", "fromAddress", "toAddress", "value", "chainId", "data", "gasLimit"} {
			assert.Contains(t, fields, name)
		}
		assert.Equal(t, float64(1), fields["chainId"], "chainId must serialize as a JSON number")
	})
}
