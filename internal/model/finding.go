package model

type Reason string

const (
	ReasonMicroPayment   Reason = "MicroPayment"
	ReasonFreshRecipient Reason = "FreshRecipient"
)

type Finding struct {
	TransactionHash  string `json:"transaction_hash"`
	RecipientAddress string `json:"recipient_address"`
	Reason           Reason `json:"reason"`
}
