package watcher

import (
	"time"

	"github.com/dwarvesf/drain-watcher/internal/model"
)

type ScanStatus string

const (
	// StatusNoOutgoing means the address sent nothing inside the window
	StatusNoOutgoing ScanStatus = "no_outgoing"
	StatusClean      ScanStatus = "clean"
	StatusSuspicious ScanStatus = "suspicious"
	// StatusIncomplete means some recipients could not be checked; the
	// findings that could be established are still reported
	StatusIncomplete ScanStatus = "incomplete"
)

type ScanResult struct {
	Address              string          `json:"address"`
	WindowDays           int             `json:"window_days"`
	Status               ScanStatus      `json:"status"`
	OutgoingCount        int             `json:"outgoing_count"`
	Findings             []FindingDetail `json:"findings"`
	UnresolvedRecipients []string        `json:"unresolved_recipients,omitempty"`
	SkippedRecords       []SkippedRecord `json:"skipped_records,omitempty"`
	ScannedAt            time.Time       `json:"scanned_at"`
}

// FindingDetail is a finding with the transaction it points at.
type FindingDetail struct {
	model.Finding
	Value     *model.Web3BigInt `json:"value"`
	ValueEth  string            `json:"value_eth"`
	Timestamp time.Time         `json:"timestamp"`
}

type SkippedRecord struct {
	TransactionHash string `json:"transaction_hash"`
	Field           string `json:"field"`
	Error           string `json:"error"`
}

// WatchSummary describes one pass over the watched addresses.
type WatchSummary struct {
	Scanned    int `json:"scanned"`
	NoOutgoing int `json:"no_outgoing"`
	Clean      int `json:"clean"`
	Suspicious int `json:"suspicious"`
	Incomplete int `json:"incomplete"`
	Failed     int `json:"failed"`
	Alerts     int `json:"alerts"`
}

func (s *WatchSummary) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"scanned":     s.Scanned,
		"no_outgoing": s.NoOutgoing,
		"clean":       s.Clean,
		"suspicious":  s.Suspicious,
		"incomplete":  s.Incomplete,
		"failed":      s.Failed,
		"alerts":      s.Alerts,
	}
}
