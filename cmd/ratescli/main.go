package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"currency-rates-service/internal/client/api"
	"currency-rates-service/internal/client/controller"
	"currency-rates-service/internal/client/convert"
	"currency-rates-service/internal/client/store"
	"currency-rates-service/internal/config"
	"currency-rates-service/internal/domain/model"
	"currency-rates-service/pkg/logger"
)

// stderrNotifier prints the controller's toasts to stderr so piped stdout
// stays clean conversion output.
type stderrNotifier struct{}

func (stderrNotifier) Warn(title, message string) {
	fmt.Fprintf(os.Stderr, "warning: %s: %s\n", title, message)
}

func (stderrNotifier) Error(title, message string) {
	fmt.Fprintf(os.Stderr, "error: %s: %s\n", title, message)
}

func main() {
	from := flag.String("from", "USD", "Source currency code")
	to := flag.String("to", "RUB", "Target currency code")
	amount := flag.Float64("amount", 1, "Amount to convert")
	date := flag.String("date", "", "Rates date YYYY-MM-DD (default: latest)")
	retry := flag.Bool("retry", false, "Retry the live request once after a failure")
	flag.Parse()

	log := logger.NewLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	fromCurrency := model.Currency(*from)
	toCurrency := model.Currency(*to)
	if !fromCurrency.IsSupported() || !toCurrency.IsSupported() {
		fmt.Fprintf(os.Stderr, "unsupported currency; supported: %v\n", model.SupportedCurrencies)
		os.Exit(2)
	}

	client := api.NewClient(cfg.Client.BaseURL, cfg.Client.Timeout, log.With("component", "api"))
	st := store.NewStore(cfg.Client.StateDir, log.With("component", "store"))
	ctrl := controller.New(client, st, cfg.Client.CacheTTL, *date, stderrNotifier{}, log.With("component", "controller"))

	ctx := context.Background()
	ctrl.Load(ctx)

	record, _, errMsg := ctrl.State()
	if record == nil && *retry {
		ctrl.Retry(ctx)
		record, _, errMsg = ctrl.State()
	}
	if record == nil {
		fmt.Fprintf(os.Stderr, "rates unavailable: %s\n", errMsg)
		os.Exit(1)
	}

	result, err := convert.Convert(record.Rates, *amount, fromCurrency, toCurrency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "conversion failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%.2f %s = %.2f %s (rates of %s, updated %s)\n",
		*amount, fromCurrency, result, toCurrency, record.Meta.Date, record.Meta.LastUpdatedLocalISO)
}
