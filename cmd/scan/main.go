package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dwarvesf/drain-watcher/internal/baserpc"
	"github.com/dwarvesf/drain-watcher/internal/detector"
	"github.com/dwarvesf/drain-watcher/internal/explorer"
	"github.com/dwarvesf/drain-watcher/internal/server"
	"github.com/dwarvesf/drain-watcher/internal/utils/config"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
	"github.com/dwarvesf/drain-watcher/internal/watcher"
)

const (
	exitClean      = 0
	exitFailed     = 1
	exitSuspicious = 2
)

type options struct {
	apiKey            string
	apiURL            string
	rpcEndpoint       string
	days              int
	microThreshold    string
	oracleConcurrency int
	verbose           bool
}

func main() {
	os.Exit(run())
}

func run() int {
	appConfig := config.New()
	opts := options{
		apiKey:            appConfig.Explorer.APIKey,
		apiURL:            appConfig.Explorer.APIURL,
		rpcEndpoint:       appConfig.Blockchain.RPCEndpoint,
		days:              appConfig.Detector.WindowDays,
		microThreshold:    appConfig.Detector.MicroThreshold,
		oracleConcurrency: appConfig.Detector.OracleConcurrency,
	}

	code := exitFailed
	cmd := &cobra.Command{
		Use:           "scan <address>",
		Short:         "Scan an address for stealth drains",
		Long:          "Fetches the recent outgoing transactions of an address and reports micro payments and transfers to fresh recipients.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := scan(cmd.Context(), appConfig, opts, args[0])
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			code = exitCode(result.Status)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.apiKey, "api-key", opts.apiKey, "explorer API key (EXPLORER_API_KEY)")
	flags.StringVar(&opts.apiURL, "api-url", opts.apiURL, "explorer API base URL (EXPLORER_API_URL)")
	flags.StringVar(&opts.rpcEndpoint, "rpc-endpoint", opts.rpcEndpoint, "optional node endpoint used for nonce lookups (BLOCKCHAIN_RPC_ENDPOINT)")
	flags.IntVar(&opts.days, "days", opts.days, "trailing window in days")
	flags.StringVar(&opts.microThreshold, "micro-threshold", opts.microThreshold, "values strictly below this many base units are micro payments")
	flags.IntVar(&opts.oracleConcurrency, "oracle-concurrency", opts.oracleConcurrency, "recipients resolved in parallel")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "write logs to stdout alongside the result")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitFailed
	}
	return code
}

func scan(ctx context.Context, appConfig *config.AppConfig, opts options, address string) (*watcher.ScanResult, error) {
	appConfig.Explorer.APIKey = opts.apiKey
	appConfig.Explorer.APIURL = opts.apiURL
	appConfig.Blockchain.RPCEndpoint = opts.rpcEndpoint
	appConfig.Detector.WindowDays = opts.days

	log := logger.NewNop()
	if opts.verbose {
		log = logger.New(appConfig.Environment)
	}

	detectorConfig, err := detector.NewConfig(opts.microThreshold, opts.oracleConcurrency)
	if err != nil {
		return nil, err
	}
	classifier, err := detector.NewClassifier(detectorConfig, log)
	if err != nil {
		return nil, err
	}

	explorerClient := explorer.New(appConfig, log)
	var rpc baserpc.IBaseRPC
	if opts.rpcEndpoint != "" {
		rpc, err = baserpc.New(appConfig, log)
		if err != nil {
			return nil, err
		}
	}

	w := watcher.New(
		appConfig,
		explorerClient,
		server.NewActivityOracle(appConfig, explorerClient, rpc, nil, log),
		classifier,
		nil,
		nil,
		log,
	)
	return w.Scan(ctx, address, opts.days)
}

func exitCode(status watcher.ScanStatus) int {
	switch status {
	case watcher.StatusSuspicious:
		return exitSuspicious
	case watcher.StatusIncomplete:
		return exitFailed
	default:
		return exitClean
	}
}
