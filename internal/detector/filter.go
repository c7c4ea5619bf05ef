package detector

import (
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dwarvesf/drain-watcher/internal/model"
)

const day = 24 * time.Hour

// Selection is the output of a filtering pass.
type Selection struct {
	Transactions []model.Transaction
	// Skipped holds records from the watched address that could not be parsed
	Skipped []*MalformedRecordError
}

// Filter selects outgoing transactions of a watched address.
type Filter struct {
	now func() time.Time
}

// NewFilter returns a Filter reading the wall clock through now, time.Now when nil.
func NewFilter(now func() time.Time) *Filter {
	if now == nil {
		now = time.Now
	}
	return &Filter{now: now}
}

// SelectOutgoing keeps the records sent by watched strictly after
// now - windowDays. The clock is read once so every record is compared to
// the same cutoff. Input order is preserved.
func (f *Filter) SelectOutgoing(raw []model.RawTransaction, watched string, windowDays int) (*Selection, error) {
	return SelectOutgoing(raw, watched, windowDays, f.now())
}

// ValidateScan checks the scan parameters. Callers fetching the feed
// themselves run it before any request goes out.
func ValidateScan(watched string, windowDays int) error {
	if strings.TrimSpace(watched) == "" {
		return invalidConfiguration("watched address is empty")
	}
	return ValidateWindow(windowDays)
}

func ValidateWindow(windowDays int) error {
	if windowDays < 0 {
		return invalidConfiguration("window days must not be negative, got %d", windowDays)
	}
	return nil
}

func SelectOutgoing(raw []model.RawTransaction, watched string, windowDays int, now time.Time) (*Selection, error) {
	if err := ValidateScan(watched, windowDays); err != nil {
		return nil, err
	}
	watched = strings.TrimSpace(watched)

	cutoff := now.Add(-time.Duration(windowDays) * day)
	sel := &Selection{Transactions: []model.Transaction{}}

	for _, r := range raw {
		if !strings.EqualFold(r.From, watched) {
			continue
		}

		tx, err := parseRecord(r)
		if err != nil {
			sel.Skipped = append(sel.Skipped, err)
			continue
		}

		if tx.Timestamp.After(cutoff) {
			sel.Transactions = append(sel.Transactions, tx)
		}
	}

	return sel, nil
}

func parseRecord(r model.RawTransaction) (model.Transaction, *MalformedRecordError) {
	ts, err := strconv.ParseInt(strings.TrimSpace(r.TimeStamp), 10, 64)
	if err != nil {
		return model.Transaction{}, &MalformedRecordError{Hash: r.Hash, Field: "timeStamp", Err: err}
	}

	value, ok := new(big.Int).SetString(strings.TrimSpace(r.Value), 10)
	if !ok {
		return model.Transaction{}, &MalformedRecordError{
			Hash:  r.Hash,
			Field: "value",
			Err:   errors.Errorf("%q is not a base 10 integer", r.Value),
		}
	}
	if value.Sign() < 0 {
		return model.Transaction{}, &MalformedRecordError{
			Hash:  r.Hash,
			Field: "value",
			Err:   errors.Errorf("negative value %s", value),
		}
	}

	return model.Transaction{
		Hash:      r.Hash,
		From:      r.From,
		To:        r.To,
		Value:     value,
		Timestamp: time.Unix(ts, 0),
	}, nil
}
