package triggerwatch

import "strings"

// NotificationPayload is the canonical webhook body describing a matched
// transaction. Value and GasLimit are base-10 decimal strings so 256-bit
// quantities survive the wire boundary losslessly; addresses are lowercase.
type NotificationPayload struct {
	TransactionHash string `json:"transactionHash"`
	FromAddress     string `json:"fromAddress"`
	ToAddress       string `json:"toAddress"`
	Value           string `json:"value"`
	ChainID         int64  `json:"chainId"`
	Data            string `json:"data"`
	GasLimit        string `json:"gasLimit"`
}

// buildNotificationPayload converts a transaction into its notification
// payload. It is a pure function: the same transaction always produces an
// identical payload.
func buildNotificationPayload(tx Transaction) NotificationPayload {
	return NotificationPayload{
		TransactionHash: tx.Hash,
		FromAddress:     strings.ToLower(tx.From),
		ToAddress:       strings.ToLower(tx.To),
		Value:           tx.Value.Decimal(),
		ChainID:         tx.ChainID,
		Data:            tx.Data,
		GasLimit:        tx.GasLimit.Decimal(),
	}
}
