package detector

import (
	"math/big"
)

// DefaultMicroThreshold is 0.0001 of the native unit at 18 decimals (1e14 wei).
const DefaultMicroThreshold int64 = 100_000_000_000_000

type Config struct {
	// MicroThreshold is exclusive: values strictly below it are micro payments.
	MicroThreshold *big.Int
	// OracleConcurrency > 1 resolves distinct recipients in parallel before the scan.
	OracleConcurrency int
}

func DefaultConfig() Config {
	return Config{
		MicroThreshold:    big.NewInt(DefaultMicroThreshold),
		OracleConcurrency: 1,
	}
}

// NewConfig builds a Config from its textual form, as found in env files.
func NewConfig(microThreshold string, oracleConcurrency int) (Config, error) {
	cfg := DefaultConfig()
	if microThreshold != "" {
		v, ok := new(big.Int).SetString(microThreshold, 10)
		if !ok {
			return Config{}, invalidConfiguration("micro threshold %q is not an integer", microThreshold)
		}
		cfg.MicroThreshold = v
	}
	if oracleConcurrency > 0 {
		cfg.OracleConcurrency = oracleConcurrency
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.MicroThreshold == nil || c.MicroThreshold.Sign() <= 0 {
		return invalidConfiguration("micro threshold must be positive")
	}
	if c.OracleConcurrency < 1 {
		return invalidConfiguration("oracle concurrency must be at least 1, got %d", c.OracleConcurrency)
	}
	return nil
}
