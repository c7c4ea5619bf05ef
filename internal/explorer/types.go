package explorer

import "encoding/json"

const (
	statusOK           = "1"
	messageNoTxs       = "No transactions found"
	sortNewestFirst    = "desc"
	sortOldestFirst    = "asc"
	defaultStartBlock  = "0"
	defaultEndBlock    = "99999999"
	rateLimitedMessage = "rate limit"
)

// txListResponse is the Etherscan envelope. Result is an array on success and
// a human readable string on failure.
type txListResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}
