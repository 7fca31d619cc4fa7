package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"vaultswap/config"
	"vaultswap/pkg/client"
	"vaultswap/pkg/deposit"
	"vaultswap/pkg/logging"
	"vaultswap/pkg/metrics"
	"vaultswap/pkg/refresh"
	"vaultswap/pkg/session"
)

// app is what every command needs: the loaded config, a session and the
// metrics registry its collectors live on.
type app struct {
	cfg      *config.Config
	session  *session.Session
	registry *prometheus.Registry
	logger   *slog.Logger
	json     bool
	verbose  bool
}

// setup loads configuration and builds a session. It exits on failure.
func setup(cmd *cobra.Command) *app {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger := logging.New(level, os.Stderr)

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	svc := client.NewHTTPClient(cfg.BaseURL, httpClient, newLimiter(cfg), m, logger)

	var transfer deposit.Transferer
	if cfg.LedgerURL != "" {
		ledgerHTTP := client.NewHTTPClient(cfg.LedgerURL, httpClient, newLimiter(cfg), m, logger)
		transfer = client.NewLedgerClient(ledgerHTTP)
	}

	s := session.New(svc, transfer, session.Options{
		User:        cfg.Principal,
		PageSize:    cfg.PageSize,
		SlippagePct: cfg.SlippagePct,
		Poll:        refresh.Options{Tries: cfg.PollTries, Interval: cfg.PollInterval},
		Cutoff:      cfg.EventsCutoff,
		MetaTTL:     cfg.MetaTTL,
	}, m, logger)

	if verbose {
		fmt.Printf("\nDebug: session %s, service %s, principal %q\n", s.ID, cfg.BaseURL, cfg.Principal)
	}

	return &app{
		cfg:      cfg,
		session:  s,
		registry: registry,
		logger:   logger,
		json:     jsonOutput,
		verbose:  verbose,
	}
}

func newLimiter(cfg *config.Config) *rate.Limiter {
	if cfg.RateLimitRPS <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
}

// signalContext is cancelled on Ctrl+C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// withSpinner runs fn behind a spinner unless output is JSON.
func (a *app) withSpinner(suffix string, fn func() error) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !a.json {
		s.Suffix = " " + suffix
		s.Start()
	}
	err := fn()
	if !a.json {
		s.Stop()
	}
	return err
}

func (a *app) fail(err error) {
	if a.json {
		out, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Println(string(out))
	} else {
		printError(err)
	}
	os.Exit(1)
}

func printJSON(v any) {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(jsonData))
}

func confirm(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("\n%s (y/N): ", prompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// banner prints a centered title between rules, colored with paint
// (color.Green and friends).
func banner(title string, width int, paint func(format string, a ...interface{})) {
	fmt.Println("\n" + strings.Repeat("=", width))
	pad := max(0, (width-len(title))/2)
	paint("%s%s", strings.Repeat(" ", pad), title)
	fmt.Println(strings.Repeat("=", width))
}
