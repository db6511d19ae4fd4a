package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"msgtracetool/internal/common/logger"
	"msgtracetool/internal/common/security"
	"msgtracetool/internal/common/validation"
	"msgtracetool/internal/common/version"
)

// Config holds all msgtracetool configuration.
type Config struct {
	// Core configuration
	ShowVersion bool
	Action      string // report, topsenders, hourly, groups

	// Authentication (exactly one of Secret or PfxPath)
	TenantID     string
	ClientID     string
	Secret       string
	PfxPath      string
	PfxPass      string
	Organization string // tenant initial domain, used for the anchor mailbox header

	// Trace query
	StartDate    string // raw -start value
	EndDate      string // raw -end value
	Start        time.Time
	End          time.Time
	TimeoutAfter int // minutes
	Sender       string

	// Aggregation and reporting
	Top           int
	StrictBuckets bool
	Timezone      string
	Location      *time.Location

	// Graph extras
	ResolveGroups bool
	Mailbox       string      // sender mailbox for -mailto
	MailTo        stringSlice // report recipients

	// Network configuration
	ProxyURL  string
	RateLimit float64 // page requests per second (0 = unlimited)

	// Runtime configuration
	VerboseMode  bool
	LogLevel     string
	OutputFormat string // text, json
	LogFormat    string // csv, json
}

// Action constants
const (
	ActionReport     = "report"
	ActionTopSenders = "topsenders"
	ActionHourly     = "hourly"
	ActionGroups     = "groups"
)

var validActions = []string{ActionReport, ActionTopSenders, ActionHourly, ActionGroups}

// flagToEnv maps every flag that can be set from the environment to its
// variable name.
var flagToEnv = map[string]string{
	"action":        "MSGTRACEACTION",
	"tenantid":      "MSGTRACETENANTID",
	"clientid":      "MSGTRACECLIENTID",
	"secret":        "MSGTRACESECRET",
	"pfx":           "MSGTRACEPFX",
	"pfxpass":       "MSGTRACEPFXPASS",
	"organization":  "MSGTRACEORGANIZATION",
	"start":         "MSGTRACESTART",
	"end":           "MSGTRACEEND",
	"timeoutafter":  "MSGTRACETIMEOUTAFTER",
	"sender":        "MSGTRACESENDER",
	"top":           "MSGTRACETOP",
	"strictbuckets": "MSGTRACESTRICTBUCKETS",
	"timezone":      "MSGTRACETIMEZONE",
	"ratelimit":     "MSGTRACERATELIMIT",
	"proxy":         "MSGTRACEPROXY",
	"output":        "MSGTRACEOUTPUT",
	"logformat":     "MSGTRACELOGFORMAT",
	"loglevel":      "MSGTRACELOGLEVEL",
	"resolvegroups": "MSGTRACERESOLVEGROUPS",
	"mailbox":       "MSGTRACEMAILBOX",
	"mailto":        "MSGTRACEMAILTO",
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Action:       ActionReport,
		TimeoutAfter: 30,
		Top:          10,
		Timezone:     "UTC",
		Location:     time.UTC,
		LogLevel:     "INFO",
		OutputFormat: "text",
		LogFormat:    "csv",
	}
}

// parseAndConfigureFlags loads .env files, parses the command line and
// overlays MSGTRACE* environment variables on flags that were not given.
// Precedence: flags, then environment, then .env, then defaults.
func parseAndConfigureFlags() *Config {
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Exchange Online Message Trace Report Tool - Version %s\n\n", version.Get())
		fmt.Fprintf(out, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(out, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(out, "\nEnvironment Variables:\n")
		fmt.Fprintf(out, "  All flags can be set via environment variables with MSGTRACE prefix\n")
		fmt.Fprintf(out, "  Example: MSGTRACETENANTID, MSGTRACECLIENTID, MSGTRACESECRET\n")
		fmt.Fprintf(out, "  Variables are also read from .env in the current directory or ~/.config/msgtracetool/.env\n")
		fmt.Fprintf(out, "  Command-line flags take precedence over environment variables\n\n")
		fmt.Fprintf(out, "Actions:\n")
		fmt.Fprintf(out, "  report      - Top senders, hourly volume and group expansions (default)\n")
		fmt.Fprintf(out, "  topsenders  - Senders ranked by recipients reached\n")
		fmt.Fprintf(out, "  hourly      - Recipients per sender and hour\n")
		fmt.Fprintf(out, "  groups      - Messages expanded to distribution groups\n\n")
		fmt.Fprintf(out, "Examples:\n")
		fmt.Fprintf(out, "  %s -tenantid \"...\" -clientid \"...\" -secret \"...\" -start 2026-10-16T00:00:00 -end 2026-10-17T00:00:00\n", os.Args[0])
		fmt.Fprintf(out, "  %s -tenantid \"...\" -clientid \"...\" -pfx cert.pfx -pfxpass \"...\" -action groups -resolvegroups -start ... -end ...\n\n", os.Args[0])
	}

	loadDotEnv(getEnvPaths())

	config, err := parseArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if config.VerboseMode {
		printVerboseConfig(config)
	}
	return config
}

// parseArgs registers all flags on fs, parses args and applies the
// environment overlay.
func parseArgs(fs *flag.FlagSet, args []string) (*Config, error) {
	config := NewConfig()
	registerFlags(fs, config)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := applyEnvVars(fs); err != nil {
		return nil, err
	}

	config.Action = strings.ToLower(config.Action)
	config.OutputFormat = strings.ToLower(config.OutputFormat)
	config.LogFormat = strings.ToLower(config.LogFormat)
	if config.VerboseMode {
		config.LogLevel = "DEBUG"
	}
	return config, nil
}

func registerFlags(fs *flag.FlagSet, c *Config) {
	fs.BoolVar(&c.ShowVersion, "version", false, "Show version information")
	fs.StringVar(&c.Action, "action", c.Action, "Action to perform: report, topsenders, hourly, groups (env: MSGTRACEACTION)")

	fs.StringVar(&c.TenantID, "tenantid", "", "The Azure Tenant ID (env: MSGTRACETENANTID)")
	fs.StringVar(&c.ClientID, "clientid", "", "The Application (Client) ID (env: MSGTRACECLIENTID)")
	fs.StringVar(&c.Secret, "secret", "", "The Client Secret (env: MSGTRACESECRET)")
	fs.StringVar(&c.PfxPath, "pfx", "", "Path to the .pfx certificate file (env: MSGTRACEPFX)")
	fs.StringVar(&c.PfxPass, "pfxpass", "", "Password for the .pfx file (env: MSGTRACEPFXPASS)")
	fs.StringVar(&c.Organization, "organization", "", "Tenant initial domain, e.g. contoso.onmicrosoft.com (env: MSGTRACEORGANIZATION)")

	fs.StringVar(&c.StartDate, "start", "", "Start of the trace window (RFC3339 or 2006-01-02T15:04:05, no zone means UTC) (env: MSGTRACESTART)")
	fs.StringVar(&c.EndDate, "end", "", "End of the trace window (RFC3339 or 2006-01-02T15:04:05, no zone means UTC) (env: MSGTRACEEND)")
	fs.IntVar(&c.TimeoutAfter, "timeoutafter", c.TimeoutAfter, "Stop paginating after this many minutes (env: MSGTRACETIMEOUTAFTER)")
	fs.StringVar(&c.Sender, "sender", "", "Only trace messages from this sender address (env: MSGTRACESENDER)")

	fs.IntVar(&c.Top, "top", c.Top, "Number of top senders to report (env: MSGTRACETOP)")
	fs.BoolVar(&c.StrictBuckets, "strictbuckets", false, "Keep hourly buckets on different days apart (env: MSGTRACESTRICTBUCKETS)")
	fs.StringVar(&c.Timezone, "timezone", c.Timezone, "IANA time zone for dates and hours in the report (env: MSGTRACETIMEZONE)")

	fs.BoolVar(&c.ResolveGroups, "resolvegroups", false, "Resolve expanded group addresses to display names via Microsoft Graph (env: MSGTRACERESOLVEGROUPS)")
	fs.StringVar(&c.Mailbox, "mailbox", "", "Mailbox used to send the report with -mailto (env: MSGTRACEMAILBOX)")
	fs.Var(&c.MailTo, "mailto", "Comma-separated recipients of an HTML report (env: MSGTRACEMAILTO)")

	fs.StringVar(&c.ProxyURL, "proxy", "", "HTTP/HTTPS proxy URL (env: MSGTRACEPROXY)")
	fs.Float64Var(&c.RateLimit, "ratelimit", 0, "Maximum trace page requests per second (0 = unlimited) (env: MSGTRACERATELIMIT)")

	fs.BoolVar(&c.VerboseMode, "verbose", false, "Enable verbose output (shows configuration, tokens, progress)")
	fs.StringVar(&c.LogLevel, "loglevel", c.LogLevel, "Logging level: DEBUG, INFO, WARN, ERROR (env: MSGTRACELOGLEVEL)")
	fs.StringVar(&c.OutputFormat, "output", c.OutputFormat, "Output format: text, json (env: MSGTRACEOUTPUT)")
	fs.StringVar(&c.LogFormat, "logformat", c.LogFormat, "Log file format: csv, json (env: MSGTRACELOGFORMAT)")
}

// applyEnvVars sets every flag that was not given on the command line from
// its MSGTRACE* environment variable, if present.
func applyEnvVars(fs *flag.FlagSet) error {
	provided := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		provided[f.Name] = true
	})

	for flagName, envName := range flagToEnv {
		if provided[flagName] {
			continue
		}
		envValue := os.Getenv(envName)
		if envValue == "" {
			continue
		}
		if err := fs.Set(flagName, envValue); err != nil {
			return fmt.Errorf("invalid value %q for %s: %w", envValue, envName, err)
		}
	}
	return nil
}

// getEnvPaths returns the .env locations to check, in order.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "msgtracetool", ".env"))
	}
	return paths
}

// loadDotEnv loads the first .env file that exists. Variables already in
// the environment are not overridden.
func loadDotEnv(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", path, err)
			}
			return path
		}
	}
	return ""
}

// validateConfiguration validates the configuration and resolves the parsed
// dates and time zone into config.
func validateConfiguration(config *Config) error {
	if !isValidAction(config.Action) {
		return fmt.Errorf("invalid action: %s (use: %s)", config.Action, strings.Join(validActions, ", "))
	}

	if err := validation.ValidateGUID(config.TenantID, "Tenant ID"); err != nil {
		return err
	}
	if err := validation.ValidateGUID(config.ClientID, "Client ID"); err != nil {
		return err
	}

	authMethodCount := 0
	if config.Secret != "" {
		authMethodCount++
	}
	if config.PfxPath != "" {
		authMethodCount++
	}
	if authMethodCount == 0 {
		return fmt.Errorf("missing authentication: must provide one of -secret or -pfx")
	}
	if authMethodCount > 1 {
		return fmt.Errorf("multiple authentication methods provided: use only one of -secret or -pfx")
	}
	if err := validation.ValidateFilePath(config.PfxPath, "PFX certificate file"); err != nil {
		return err
	}

	if config.Timezone == "" {
		config.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", config.Timezone, err)
	}
	config.Location = loc

	if config.StartDate == "" {
		return fmt.Errorf("start date is required (-start)")
	}
	if config.EndDate == "" {
		return fmt.Errorf("end date is required (-end)")
	}
	if config.Start, err = parseFlexibleTime(config.StartDate); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if config.End, err = parseFlexibleTime(config.EndDate); err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}
	if config.End.Before(config.Start) {
		return fmt.Errorf("end date %s is before start date %s", config.EndDate, config.StartDate)
	}

	if config.TimeoutAfter <= 0 {
		return fmt.Errorf("timeoutafter must be a positive number of minutes (got %d)", config.TimeoutAfter)
	}
	if config.Sender != "" {
		sender, err := validation.NormalizeAddress(config.Sender)
		if err != nil {
			return fmt.Errorf("invalid sender: %w", err)
		}
		config.Sender = sender
	}
	if config.Top <= 0 {
		return fmt.Errorf("top must be greater than zero (got %d)", config.Top)
	}
	if config.RateLimit < 0 {
		return fmt.Errorf("ratelimit cannot be negative (got %g)", config.RateLimit)
	}

	if err := validation.ValidateProxyURL(config.ProxyURL); err != nil {
		return fmt.Errorf("invalid proxy URL: %w", err)
	}

	if config.OutputFormat != "text" && config.OutputFormat != "json" {
		return fmt.Errorf("invalid output format: %s (use: text, json)", config.OutputFormat)
	}
	if _, err := logger.ParseLogFormat(config.LogFormat); err != nil {
		return err
	}

	if len(config.MailTo) > 0 {
		if config.Mailbox == "" {
			return fmt.Errorf("-mailto requires -mailbox (the sending mailbox)")
		}
		if err := validation.ValidateEmail(config.Mailbox); err != nil {
			return fmt.Errorf("invalid mailbox: %w", err)
		}
		if err := validation.ValidateEmails(config.MailTo, "Report recipients"); err != nil {
			return err
		}
	}

	return nil
}

func isValidAction(action string) bool {
	for _, a := range validActions {
		if a == action {
			return true
		}
	}
	return false
}

// parseFlexibleTime accepts RFC3339 and the PowerShell "Get-Date -Format s"
// layout. Timestamps without a zone are taken as UTC.
func parseFlexibleTime(timeStr string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, timeStr); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02T15:04:05", timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not RFC3339 (2026-10-17T09:00:00Z) or 2006-01-02T15:04:05", timeStr)
	}
	return t.UTC(), nil
}

// printVerboseConfig prints the effective configuration with credentials masked.
func printVerboseConfig(c *Config) {
	fmt.Println("========================================")
	fmt.Println("VERBOSE MODE ENABLED")
	fmt.Println("========================================")
	fmt.Println()

	fmt.Println("Environment Variables (MSGTRACE*):")
	fmt.Println("----------------------------------")
	envVars := getEnvVariables()
	if len(envVars) == 0 {
		fmt.Println("  (none set)")
	} else {
		keys := make([]string, 0, len(envVars))
		for k := range envVars {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", k, maskEnvValue(k, envVars[k]))
		}
	}
	fmt.Println()

	fmt.Println("Final Configuration:")
	fmt.Println("--------------------")
	fmt.Printf("Version: %s\n", version.Get())
	fmt.Printf("Action: %s\n", c.Action)
	fmt.Printf("Tenant ID: %s\n", security.MaskGUID(c.TenantID))
	fmt.Printf("Client ID: %s\n", security.MaskGUID(c.ClientID))
	if c.Organization != "" {
		fmt.Printf("Organization: %s\n", c.Organization)
	}
	switch {
	case c.Secret != "":
		fmt.Printf("Authentication: Client Secret (%s)\n", security.MaskSecret(c.Secret))
	case c.PfxPath != "":
		fmt.Printf("Authentication: PFX Certificate (%s)\n", c.PfxPath)
	default:
		fmt.Println("Authentication: (none)")
	}
	fmt.Printf("Start: %s\n", c.StartDate)
	fmt.Printf("End: %s\n", c.EndDate)
	fmt.Printf("Timeout after: %d minutes\n", c.TimeoutAfter)
	if c.Sender != "" {
		fmt.Printf("Sender filter: %s\n", c.Sender)
	}
	fmt.Printf("Top senders: %d\n", c.Top)
	fmt.Printf("Strict buckets: %t\n", c.StrictBuckets)
	fmt.Printf("Time zone: %s\n", c.Timezone)
	if c.RateLimit > 0 {
		fmt.Printf("Rate limit: %g requests/second\n", c.RateLimit)
	}
	if c.ProxyURL != "" {
		fmt.Printf("Proxy: %s\n", c.ProxyURL)
	}
	fmt.Printf("Resolve groups: %t\n", c.ResolveGroups)
	if len(c.MailTo) > 0 {
		fmt.Printf("Mail report from %s to %s\n", security.MaskEmail(c.Mailbox), c.MailTo.String())
	}
	fmt.Printf("Output: %s\n", c.OutputFormat)
	fmt.Printf("Log format: %s\n", c.LogFormat)
	fmt.Println()
	fmt.Println("========================================")
	fmt.Println()
}

func maskEnvValue(name, value string) string {
	switch name {
	case "MSGTRACESECRET", "MSGTRACEPFXPASS":
		return security.MaskSecret(value)
	case "MSGTRACETENANTID", "MSGTRACECLIENTID":
		return security.MaskGUID(value)
	}
	return value
}

// getEnvVariables returns all MSGTRACE* variables that are set.
func getEnvVariables() map[string]string {
	envVars := make(map[string]string)
	for _, envVar := range flagToEnv {
		if value := os.Getenv(envVar); value != "" {
			envVars[envVar] = value
		}
	}
	return envVars
}

// stringSlice implements the flag.Value interface for comma-separated string lists.
type stringSlice []string

func (s *stringSlice) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

// Set parses a comma-separated string into a slice of trimmed strings.
func (s *stringSlice) Set(value string) error {
	var result []string
	for _, p := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	*s = result
	return nil
}

// generateBashCompletion generates a bash completion script for the tool
func generateBashCompletion() string {
	return `# msgtracetool bash completion script
# Installation:
#   Linux: Copy to /etc/bash_completion.d/msgtracetool
#   macOS: Copy to /usr/local/etc/bash_completion.d/msgtracetool
#   Manual: source this file in your ~/.bashrc

_msgtracetool_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    opts="-action -tenantid -clientid -secret -pfx -pfxpass -organization
          -start -end -timeoutafter -sender -top -strictbuckets -timezone
          -resolvegroups -mailbox -mailto -proxy -ratelimit
          -verbose -loglevel -output -logformat -version -help -completion"

    case "${prev}" in
        -action)
            COMPREPLY=( $(compgen -W "report topsenders hourly groups" -- ${cur}) )
            return 0
            ;;
        -pfx)
            COMPREPLY=( $(compgen -f -- ${cur}) )
            return 0
            ;;
        -loglevel)
            COMPREPLY=( $(compgen -W "DEBUG INFO WARN ERROR" -- ${cur}) )
            return 0
            ;;
        -output)
            COMPREPLY=( $(compgen -W "text json" -- ${cur}) )
            return 0
            ;;
        -logformat)
            COMPREPLY=( $(compgen -W "csv json" -- ${cur}) )
            return 0
            ;;
        -completion)
            COMPREPLY=( $(compgen -W "bash powershell" -- ${cur}) )
            return 0
            ;;
        -version|-verbose|-help|-strictbuckets|-resolvegroups)
            return 0
            ;;
        -timeoutafter|-top|-ratelimit)
            return 0
            ;;
        -tenantid|-clientid|-secret|-pfxpass|-organization|-start|-end|-sender|-timezone|-mailbox|-mailto|-proxy)
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
    return 0
}

complete -F _msgtracetool_completions msgtracetool.exe
complete -F _msgtracetool_completions msgtracetool
complete -F _msgtracetool_completions ./msgtracetool.exe
complete -F _msgtracetool_completions ./msgtracetool
`
}

// generatePowerShellCompletion generates a PowerShell completion script for the tool
func generatePowerShellCompletion() string {
	return `# msgtracetool PowerShell completion script
# Installation:
#   Add to your PowerShell profile: notepad $PROFILE
#   Or run manually: . .\msgtracetool-completion.ps1

Register-ArgumentCompleter -CommandName msgtracetool.exe,msgtracetool,'.\msgtracetool.exe','.\msgtracetool' -ScriptBlock {
    param($commandName, $parameterName, $wordToComplete, $commandAst, $fakeBoundParameters)

    $actions = @('report', 'topsenders', 'hourly', 'groups')
    $logLevels = @('DEBUG', 'INFO', 'WARN', 'ERROR')
    $outputs = @('text', 'json')
    $logFormats = @('csv', 'json')
    $shellTypes = @('bash', 'powershell')

    $flags = @(
        '-action', '-tenantid', '-clientid', '-secret', '-pfx', '-pfxpass', '-organization',
        '-start', '-end', '-timeoutafter', '-sender', '-top', '-strictbuckets', '-timezone',
        '-resolvegroups', '-mailbox', '-mailto', '-proxy', '-ratelimit',
        '-verbose', '-loglevel', '-output', '-logformat', '-version', '-help', '-completion'
    )

    $lastWord = ''
    if ($commandAst.CommandElements.Count -gt 1) {
        $lastWord = $commandAst.CommandElements[-2].ToString()
    }

    $values = switch ($lastWord) {
        '-action' { $actions }
        '-loglevel' { $logLevels }
        '-output' { $outputs }
        '-logformat' { $logFormats }
        '-completion' { $shellTypes }
        default { $null }
    }
    if ($values) {
        $values | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
        }
        return
    }

    if ($lastWord -eq '-pfx') {
        Get-ChildItem -Path "$wordToComplete*" -File -ErrorAction SilentlyContinue |
            Where-Object { $_.Extension -in @('.pfx', '.p12') -or $wordToComplete -eq '' } |
            ForEach-Object {
                [System.Management.Automation.CompletionResult]::new(
                    $_.FullName,
                    $_.Name,
                    'ParameterValue',
                    "Certificate: $($_.Name)"
                )
            }
        return
    }

    $flags | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
        $description = switch ($_) {
            '-action' { 'Report to print (report, topsenders, hourly, groups)' }
            '-tenantid' { 'Azure Tenant ID (GUID)' }
            '-clientid' { 'Application (Client) ID (GUID)' }
            '-secret' { 'Client Secret for authentication' }
            '-pfx' { 'Path to .pfx certificate file' }
            '-pfxpass' { 'Password for .pfx certificate' }
            '-organization' { 'Tenant initial domain (contoso.onmicrosoft.com)' }
            '-start' { 'Start of the trace window' }
            '-end' { 'End of the trace window' }
            '-timeoutafter' { 'Pagination time limit in minutes (default: 30)' }
            '-sender' { 'Sender address filter' }
            '-top' { 'Number of top senders (default: 10)' }
            '-strictbuckets' { 'Keep hourly buckets on different days apart' }
            '-timezone' { 'IANA time zone for the report (default: UTC)' }
            '-resolvegroups' { 'Resolve group names via Microsoft Graph' }
            '-mailbox' { 'Mailbox sending the report' }
            '-mailto' { 'Comma-separated report recipients' }
            '-proxy' { 'HTTP/HTTPS proxy URL' }
            '-ratelimit' { 'Maximum page requests per second' }
            '-verbose' { 'Enable verbose output' }
            '-loglevel' { 'Logging level (DEBUG, INFO, WARN, ERROR)' }
            '-output' { 'Output format (text, json)' }
            '-logformat' { 'Log file format (csv, json)' }
            '-version' { 'Show version information' }
            '-help' { 'Show help message' }
            '-completion' { 'Generate completion script (bash or powershell)' }
            default { $_ }
        }
        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterName', $description)
    }
}

Write-Host "PowerShell completion for msgtracetool loaded successfully!" -ForegroundColor Green
Write-Host "Try typing: msgtracetool.exe -<TAB>" -ForegroundColor Cyan
`
}
