package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dwarvesf/drain-watcher/internal/types/environments"
)

const (
	defaultExplorerAPIURL    = "https://api.etherscan.io/api"
	defaultMicroThreshold    = "100000000000000"
	defaultWindowDays        = 7
	defaultOracleConcurrency = 1
	defaultScanPeriod        = "@every 10m"
	defaultNatsSubject       = "drainwatch.alerts"
)

type AppConfig struct {
	Environment environments.Environment
	ApiServer   ApiServerConfig
	Explorer    ExplorerConfig
	Blockchain  BlockchainConfig
	Detector    DetectorConfig
	Oracle      OracleConfig
	Watch       WatchConfig
	Alert       AlertConfig
}

type ApiServerConfig struct {
	Port           string
	AllowedOrigins string
}

type ExplorerConfig struct {
	APIURL  string
	APIKey  string
	Timeout time.Duration
}

type BlockchainConfig struct {
	// RPCEndpoint is optional, it enables the nonce shortcut of the activity oracle
	RPCEndpoint string
}

type DetectorConfig struct {
	MicroThreshold    string
	WindowDays        int
	OracleConcurrency int
}

type OracleConfig struct {
	CacheTTL time.Duration
}

type WatchConfig struct {
	Addresses  []string
	ScanPeriod string
	JobTimeout time.Duration
	// UptimeWebhookURL is pinged after every watch run that completed
	UptimeWebhookURL string
}

type AlertConfig struct {
	WebhookURL  string
	NatsURL     string
	NatsSubject string
}

func New() *AppConfig {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// this will not override env variables if they already exist
	godotenv.Load(".env." + env)

	return &AppConfig{
		Environment: environments.Environment(env),
		ApiServer: ApiServerConfig{
			Port:           envOrDefault("PORT", "8080"),
			AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		},
		Explorer: ExplorerConfig{
			APIURL:  envOrDefault("EXPLORER_API_URL", defaultExplorerAPIURL),
			APIKey:  os.Getenv("EXPLORER_API_KEY"),
			Timeout: envVarAsDuration("EXPLORER_TIMEOUT", 15*time.Second),
		},
		Blockchain: BlockchainConfig{
			RPCEndpoint: os.Getenv("BLOCKCHAIN_RPC_ENDPOINT"),
		},
		Detector: DetectorConfig{
			MicroThreshold:    envOrDefault("DETECTOR_MICRO_THRESHOLD", defaultMicroThreshold),
			WindowDays:        envVarAtoi("DETECTOR_WINDOW_DAYS", defaultWindowDays),
			OracleConcurrency: envVarAtoi("DETECTOR_ORACLE_CONCURRENCY", defaultOracleConcurrency),
		},
		Oracle: OracleConfig{
			CacheTTL: envVarAsDuration("ORACLE_CACHE_TTL", 0),
		},
		Watch: WatchConfig{
			Addresses:        splitList(os.Getenv("WATCHED_ADDRESSES")),
			ScanPeriod:       envOrDefault("SCAN_PERIOD", defaultScanPeriod),
			JobTimeout:       envVarAsDuration("WATCH_JOB_TIMEOUT", 5*time.Minute),
			UptimeWebhookURL: os.Getenv("UPTIME_WEBHOOK_URL"),
		},
		Alert: AlertConfig{
			WebhookURL:  os.Getenv("ALERT_WEBHOOK_URL"),
			NatsURL:     os.Getenv("NATS_URL"),
			NatsSubject: envOrDefault("NATS_SUBJECT", defaultNatsSubject),
		},
	}
}

func envOrDefault(envName, fallback string) string {
	if v := os.Getenv(envName); v != "" {
		return v
	}
	return fallback
}

func envVarAtoi(envName string, fallback int) int {
	valueStr := os.Getenv(envName)
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		panic(err)
	}

	return value
}

func envVarAsDuration(envName string, fallback time.Duration) time.Duration {
	valueStr := os.Getenv(envName)
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		panic(err)
	}

	return value
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
