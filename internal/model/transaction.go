package model

import (
	"math/big"
	"time"
)

// RawTransaction is a txlist record as returned by an Etherscan-compatible
// explorer. Numbers arrive as decimal strings and are only parsed by the
// detector, so one bad record never poisons the whole feed.
type RawTransaction struct {
	Hash      string `json:"hash"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"`
	TimeStamp string `json:"timeStamp"`
}

type Transaction struct {
	Hash      string    `json:"hash"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Value     *big.Int  `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// IsContractCreation reports whether the transaction has no recipient.
func (t Transaction) IsContractCreation() bool {
	return t.To == ""
}
