package watcher

import "context"

type IWatcher interface {
	// Scan checks the recent outgoing transactions of address for stealth
	// drain patterns.
	Scan(ctx context.Context, address string, windowDays int) (*ScanResult, error)
	// WatchAll scans every configured address and alerts on new findings.
	WatchAll(ctx context.Context) (*WatchSummary, error)
}
