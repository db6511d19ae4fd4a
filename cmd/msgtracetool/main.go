// Package main provides msgtracetool, a CLI that pulls Exchange Online
// message trace data for a time range and reports the top senders, recipient
// volume per sender and hour, and messages expanded to distribution groups.
//
// Authentication is app-only against Microsoft Entra ID:
//   - Client Secret: standard App Registration secret
//   - PFX Certificate: certificate file with private key
//
// Every run appends its report lines to an action log (CSV or JSON Lines) in
// the system temp directory.
//
// Example usage:
//
//	msgtracetool -tenantid "..." -clientid "..." -secret "..." -start 2026-10-16T00:00:00 -end 2026-10-17T00:00:00
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"msgtracetool/internal/common/logger"
	"msgtracetool/internal/common/ratelimit"
	"msgtracetool/internal/common/version"
	"msgtracetool/internal/exchange"
)

const toolName = "msgtracetool"

func main() {
	// -completion is handled before flag parsing so only the script is printed.
	for i, arg := range os.Args {
		if arg == "-completion" && i+1 < len(os.Args) {
			switch os.Args[i+1] {
			case "bash":
				fmt.Print(generateBashCompletion())
				os.Exit(0)
			case "powershell":
				fmt.Print(generatePowerShellCompletion())
				os.Exit(0)
			default:
				fmt.Fprintf(os.Stderr, "Error: Invalid completion shell type '%s'\n", os.Args[i+1])
				fmt.Fprintf(os.Stderr, "Valid options: bash, powershell\n\n")
				fmt.Fprintf(os.Stderr, "Usage:\n")
				fmt.Fprintf(os.Stderr, "  %s -completion bash > msgtracetool-completion.bash\n", os.Args[0])
				fmt.Fprintf(os.Stderr, "  %s -completion powershell > msgtracetool-completion.ps1\n", os.Args[0])
				os.Exit(1)
			}
		}
	}

	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

// setupSignalHandling returns a context cancelled on Ctrl+C or SIGTERM.
func setupSignalHandling() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\n\nReceived interrupt signal. Shutting down gracefully...")
		cancel()
	}()

	return ctx, cancel
}

// initializeServices opens the action log and exports the proxy setting.
// A log that cannot be opened is reported and the run continues without it.
func initializeServices(config *Config, slogger *slog.Logger) logger.Logger {
	var actionLog logger.Logger
	format, err := logger.ParseLogFormat(config.LogFormat)
	if err == nil {
		actionLog, err = logger.NewLogger(format, toolName, config.Action)
	}
	if err != nil {
		logger.LogWarn(slogger, "Could not initialize action log", "error", err)
		actionLog = nil
	}

	// net/http picks the proxy up from HTTP_PROXY/HTTPS_PROXY.
	if config.ProxyURL != "" {
		os.Setenv("HTTP_PROXY", config.ProxyURL)
		os.Setenv("HTTPS_PROXY", config.ProxyURL)
		logger.LogInfo(slogger, "Using proxy", "proxy", config.ProxyURL)
	}

	return actionLog
}

// run wires configuration, credentials and clients, then executes the action.
func run() error {
	ctx, cancel := setupSignalHandling()
	defer cancel()

	config := parseAndConfigureFlags()

	if config.ShowVersion {
		fmt.Printf("Exchange Online Message Trace Report Tool - Version %s\n", version.Get())
		return nil
	}

	if err := validateConfiguration(config); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		flag.Usage()
		os.Exit(1)
	}

	runID := uuid.NewString()
	slogger := logger.SetupLogger(config.VerboseMode, config.LogLevel).With("run", runID)
	logger.LogInfo(slogger, "Application starting", "version", version.Get(), "action", config.Action)

	actionLog := initializeServices(config, slogger)
	if actionLog != nil {
		defer actionLog.Close()
	}

	cred, err := getCredential(config, slogger)
	if err != nil {
		return fmt.Errorf("authentication setup failed: %w", err)
	}
	if config.VerboseMode {
		showTokenInfo(ctx, cred)
	}

	limiter := ratelimit.New(config.RateLimit)
	if limiter.Enabled() {
		logger.LogInfo(slogger, "Rate limiting trace queries", "limit", limiter.String())
	}

	client, err := exchange.NewClient(config.TenantID, cred, &exchange.ClientOptions{
		Organization: config.Organization,
		Limiter:      limiter,
		Logger:       slogger,
	})
	if err != nil {
		return fmt.Errorf("exchange client initialization failed: %w", err)
	}

	var extras graphExtras
	if config.ResolveGroups || len(config.MailTo) > 0 {
		graphClient, err := setupGraphClient(cred, slogger)
		if err != nil {
			return err
		}
		if config.ResolveGroups {
			extras.lookupGroup = graphGroupLookup(graphClient)
		}
		if len(config.MailTo) > 0 {
			extras.sendReport = graphReportSender(graphClient)
		}
	}

	info := runInfo{id: runID, version: version.Get(), now: time.Now}
	return executeAction(ctx, client, config, actionLog, extras, info, os.Stdout, slogger)
}
