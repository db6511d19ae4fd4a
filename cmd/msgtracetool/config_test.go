//go:build !integration
// +build !integration

package main

import (
	"flag"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	testTenantID = "12345678-1234-1234-1234-123456789012"
	testClientID = "abcdef12-5678-9012-abcd-ef1234567890"
)

func validConfig() *Config {
	c := NewConfig()
	c.TenantID = testTenantID
	c.ClientID = testClientID
	c.Secret = "my-secret"
	c.StartDate = "2026-10-16T00:00:00"
	c.EndDate = "2026-10-17T00:00:00Z"
	return c
}

func newTestFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("msgtracetool", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestNewConfig(t *testing.T) {
	c := NewConfig()

	if c.Action != ActionReport {
		t.Errorf("Action = %q, want %q", c.Action, ActionReport)
	}
	if c.TimeoutAfter != 30 {
		t.Errorf("TimeoutAfter = %d, want 30", c.TimeoutAfter)
	}
	if c.Top != 10 {
		t.Errorf("Top = %d, want 10", c.Top)
	}
	if c.Timezone != "UTC" || c.Location != time.UTC {
		t.Errorf("Timezone = %q/%v, want UTC", c.Timezone, c.Location)
	}
	if c.OutputFormat != "text" || c.LogFormat != "csv" || c.LogLevel != "INFO" {
		t.Errorf("output/logformat/loglevel = %s/%s/%s", c.OutputFormat, c.LogFormat, c.LogLevel)
	}
}

func TestParseArgs_Flags(t *testing.T) {
	c, err := parseArgs(newTestFlagSet(), []string{
		"-action", "TopSenders",
		"-tenantid", testTenantID,
		"-start", "2026-10-16T00:00:00",
		"-top", "5",
		"-strictbuckets",
		"-mailto", "a@contoso.com, b@contoso.com",
		"-ratelimit", "0.5",
		"-output", "JSON",
	})
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}

	if c.Action != ActionTopSenders {
		t.Errorf("Action = %q, want lower-cased %q", c.Action, ActionTopSenders)
	}
	if c.TenantID != testTenantID || c.StartDate != "2026-10-16T00:00:00" {
		t.Errorf("TenantID/StartDate = %q/%q", c.TenantID, c.StartDate)
	}
	if c.Top != 5 || !c.StrictBuckets || c.RateLimit != 0.5 {
		t.Errorf("Top/StrictBuckets/RateLimit = %d/%t/%g", c.Top, c.StrictBuckets, c.RateLimit)
	}
	if len(c.MailTo) != 2 || c.MailTo[1] != "b@contoso.com" {
		t.Errorf("MailTo = %v", c.MailTo)
	}
	if c.OutputFormat != "json" {
		t.Errorf("OutputFormat = %q, want json", c.OutputFormat)
	}
	if c.TimeoutAfter != 30 {
		t.Errorf("TimeoutAfter = %d, want default 30", c.TimeoutAfter)
	}
}

func TestParseArgs_EnvOverlay(t *testing.T) {
	t.Setenv("MSGTRACETENANTID", testTenantID)
	t.Setenv("MSGTRACECLIENTID", testClientID)
	t.Setenv("MSGTRACETOP", "7")
	t.Setenv("MSGTRACESENDER", "env@contoso.com")
	t.Setenv("MSGTRACESTRICTBUCKETS", "true")
	t.Setenv("MSGTRACETIMEOUTAFTER", "5")
	t.Setenv("MSGTRACEMAILTO", "x@contoso.com,y@contoso.com")

	c, err := parseArgs(newTestFlagSet(), []string{"-top", "3", "-sender", "flag@contoso.com"})
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}

	if c.TenantID != testTenantID || c.ClientID != testClientID {
		t.Errorf("environment IDs not applied: %q/%q", c.TenantID, c.ClientID)
	}
	if c.Top != 3 {
		t.Errorf("Top = %d, flag should win over environment", c.Top)
	}
	if c.Sender != "flag@contoso.com" {
		t.Errorf("Sender = %q, flag should win over environment", c.Sender)
	}
	if !c.StrictBuckets || c.TimeoutAfter != 5 {
		t.Errorf("StrictBuckets/TimeoutAfter = %t/%d, want true/5", c.StrictBuckets, c.TimeoutAfter)
	}
	if len(c.MailTo) != 2 {
		t.Errorf("MailTo = %v, want 2 entries", c.MailTo)
	}
}

func TestParseArgs_InvalidEnvValue(t *testing.T) {
	t.Setenv("MSGTRACETOP", "ten")

	_, err := parseArgs(newTestFlagSet(), nil)
	if err == nil || !strings.Contains(err.Error(), "MSGTRACETOP") {
		t.Errorf("parseArgs() error = %v, want error naming MSGTRACETOP", err)
	}
}

func TestParseArgs_VerboseForcesDebug(t *testing.T) {
	c, err := parseArgs(newTestFlagSet(), []string{"-verbose", "-loglevel", "WARN"})
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if c.LogLevel != "DEBUG" {
		t.Errorf("LogLevel = %q, want DEBUG in verbose mode", c.LogLevel)
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "MSGTRACE_DOTENV_TEST"
	const preset = "MSGTRACE_DOTENV_PRESET"
	os.Unsetenv(key)
	t.Cleanup(func() { os.Unsetenv(key) })
	t.Setenv(preset, "from-environment")

	dir := t.TempDir()
	missing := filepath.Join(dir, "missing", ".env")
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")

	if err := os.WriteFile(first, []byte(key+"=from-first\n"+preset+"=from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte(key+"=from-second\n"), 0600); err != nil {
		t.Fatal(err)
	}

	loaded := loadDotEnv([]string{missing, first, second})
	if loaded != first {
		t.Errorf("loadDotEnv() loaded %q, want %q", loaded, first)
	}
	if got := os.Getenv(key); got != "from-first" {
		t.Errorf("%s = %q, want value from the first existing file", key, got)
	}
	if got := os.Getenv(preset); got != "from-environment" {
		t.Errorf("%s = %q, .env must not override the environment", preset, got)
	}

	if loaded := loadDotEnv([]string{missing}); loaded != "" {
		t.Errorf("loadDotEnv() with no files = %q, want empty", loaded)
	}
}

func TestGetEnvPaths(t *testing.T) {
	paths := getEnvPaths()
	if len(paths) == 0 {
		t.Fatal("getEnvPaths() returned no paths")
	}
	if filepath.Base(paths[0]) != ".env" {
		t.Errorf("first path = %q, want a .env in the working directory", paths[0])
	}
	if len(paths) > 1 && !strings.Contains(paths[1], filepath.Join(".config", "msgtracetool")) {
		t.Errorf("second path = %q, want ~/.config/msgtracetool/.env", paths[1])
	}
}

func TestValidateConfiguration(t *testing.T) {
	pfxFile := filepath.Join(t.TempDir(), "cert.pfx")
	if err := os.WriteFile(pfxFile, []byte("not really a pfx"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{name: "valid with secret", mutate: func(c *Config) {}},
		{name: "valid with pfx", mutate: func(c *Config) { c.Secret = ""; c.PfxPath = pfxFile }},
		{name: "valid every action", mutate: func(c *Config) { c.Action = ActionGroups }},
		{name: "valid sender in brackets", mutate: func(c *Config) { c.Sender = "<a@contoso.com>" }},
		{name: "valid mail report", mutate: func(c *Config) { c.Mailbox = "reports@contoso.com"; c.MailTo = stringSlice{"ops@contoso.com"} }},
		{name: "valid json log", mutate: func(c *Config) { c.LogFormat = "json" }},
		{name: "valid proxy", mutate: func(c *Config) { c.ProxyURL = "http://proxy.contoso.com:8080" }},

		{name: "invalid action", mutate: func(c *Config) { c.Action = "sendmail" }, wantErr: true, errMsg: "invalid action"},
		{name: "missing tenant ID", mutate: func(c *Config) { c.TenantID = "" }, wantErr: true, errMsg: "Tenant ID cannot be empty"},
		{name: "bad client ID", mutate: func(c *Config) { c.ClientID = "not-a-guid" }, wantErr: true, errMsg: "Client ID"},
		{name: "no authentication", mutate: func(c *Config) { c.Secret = "" }, wantErr: true, errMsg: "missing authentication"},
		{name: "two authentication methods", mutate: func(c *Config) { c.PfxPath = pfxFile }, wantErr: true, errMsg: "multiple authentication methods"},
		{name: "missing pfx file", mutate: func(c *Config) { c.Secret = ""; c.PfxPath = filepath.Join(t.TempDir(), "none.pfx") }, wantErr: true, errMsg: "file not found"},
		{name: "missing start", mutate: func(c *Config) { c.StartDate = "" }, wantErr: true, errMsg: "start date is required"},
		{name: "missing end", mutate: func(c *Config) { c.EndDate = "" }, wantErr: true, errMsg: "end date is required"},
		{name: "unparseable start", mutate: func(c *Config) { c.StartDate = "yesterday" }, wantErr: true, errMsg: "invalid start date"},
		{name: "end before start", mutate: func(c *Config) { c.EndDate = "2026-10-15T00:00:00" }, wantErr: true, errMsg: "is before start date"},
		{name: "zero timeout", mutate: func(c *Config) { c.TimeoutAfter = 0 }, wantErr: true, errMsg: "timeoutafter"},
		{name: "bad sender", mutate: func(c *Config) { c.Sender = "nobody" }, wantErr: true, errMsg: "invalid sender"},
		{name: "zero top", mutate: func(c *Config) { c.Top = 0 }, wantErr: true, errMsg: "top must be greater than zero"},
		{name: "unknown timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus_Mons" }, wantErr: true, errMsg: "invalid timezone"},
		{name: "negative rate limit", mutate: func(c *Config) { c.RateLimit = -1 }, wantErr: true, errMsg: "ratelimit cannot be negative"},
		{name: "bad proxy", mutate: func(c *Config) { c.ProxyURL = "ftp://proxy" }, wantErr: true, errMsg: "invalid proxy URL"},
		{name: "bad output", mutate: func(c *Config) { c.OutputFormat = "xml" }, wantErr: true, errMsg: "invalid output format"},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true, errMsg: "unsupported log format"},
		{name: "mailto without mailbox", mutate: func(c *Config) { c.MailTo = stringSlice{"ops@contoso.com"} }, wantErr: true, errMsg: "-mailto requires -mailbox"},
		{name: "mailto bad recipient", mutate: func(c *Config) { c.Mailbox = "reports@contoso.com"; c.MailTo = stringSlice{"ops"} }, wantErr: true, errMsg: "Report recipients"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := validateConfiguration(c)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateConfiguration() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateConfiguration() error = %q, want it to contain %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestValidateConfiguration_ResolvesTimes(t *testing.T) {
	c := validConfig()
	c.Sender = " <a@contoso.com> "
	if err := validateConfiguration(c); err != nil {
		t.Fatalf("validateConfiguration() error = %v", err)
	}

	if want := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC); !c.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", c.Start, want)
	}
	if want := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC); !c.End.Equal(want) {
		t.Errorf("End = %v, want %v", c.End, want)
	}
	if c.Location != time.UTC {
		t.Errorf("Location = %v, want UTC", c.Location)
	}
	if c.Sender != "a@contoso.com" {
		t.Errorf("Sender = %q, want brackets and spaces stripped", c.Sender)
	}
}

func TestParseFlexibleTime(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"2026-10-17T09:00:00Z", time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC), false},
		{"2026-10-17T11:00:00+02:00", time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC), false},
		{"2026-10-17T09:00:00", time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC), false},
		{"2026-10-17 09:00", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseFlexibleTime(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFlexibleTime(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("parseFlexibleTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStringSliceSet(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"a@x.com", []string{"a@x.com"}},
		{" a@x.com , b@x.com ,, ", []string{"a@x.com", "b@x.com"}},
	}

	for _, tt := range tests {
		var s stringSlice
		if err := s.Set(tt.input); err != nil {
			t.Fatalf("Set(%q) error = %v", tt.input, err)
		}
		if len(s) != len(tt.want) {
			t.Fatalf("Set(%q) = %v, want %v", tt.input, s, tt.want)
		}
		for i := range s {
			if s[i] != tt.want[i] {
				t.Errorf("Set(%q)[%d] = %q, want %q", tt.input, i, s[i], tt.want[i])
			}
		}
	}

	var nilSlice *stringSlice
	if nilSlice.String() != "" {
		t.Error("String() on nil stringSlice should be empty")
	}
}

func TestMaskEnvValue(t *testing.T) {
	if got := maskEnvValue("MSGTRACESECRET", "supersecretvalue"); strings.Contains(got, "secretvalue") {
		t.Errorf("secret not masked: %q", got)
	}
	if got := maskEnvValue("MSGTRACETENANTID", testTenantID); got == testTenantID {
		t.Errorf("tenant ID not masked: %q", got)
	}
	if got := maskEnvValue("MSGTRACETOP", "5"); got != "5" {
		t.Errorf("plain value changed: %q", got)
	}
}

func TestFlagToEnv_CoversRegisteredFlags(t *testing.T) {
	fs := newTestFlagSet()
	registerFlags(fs, NewConfig())

	fs.VisitAll(func(f *flag.Flag) {
		switch f.Name {
		case "version", "verbose":
			return
		}
		if _, ok := flagToEnv[f.Name]; !ok {
			t.Errorf("flag -%s has no environment variable", f.Name)
		}
	})
}

func TestGenerateBashCompletion(t *testing.T) {
	script := generateBashCompletion()

	for _, required := range []string{"_msgtracetool_completions", "COMPREPLY", "COMP_WORDS", "-action", "-timeoutafter", "report topsenders hourly groups"} {
		if !strings.Contains(script, required) {
			t.Errorf("generateBashCompletion() missing required string: %q", required)
		}
	}
}

func TestGeneratePowerShellCompletion(t *testing.T) {
	script := generatePowerShellCompletion()

	for _, required := range []string{"Register-ArgumentCompleter", "msgtracetool", "'topsenders'", "-strictbuckets", "CompletionResult"} {
		if !strings.Contains(script, required) {
			t.Errorf("generatePowerShellCompletion() missing required string: %q", required)
		}
	}
}

func TestGenerateBashCompletion_Syntax(t *testing.T) {
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}

	path := filepath.Join(t.TempDir(), "completion.bash")
	if err := os.WriteFile(path, []byte(generateBashCompletion()), 0600); err != nil {
		t.Fatal(err)
	}

	output, err := exec.Command("bash", "-n", path).CombinedOutput()
	if err != nil {
		t.Errorf("bash completion script has invalid syntax: %v\nOutput: %s", err, output)
	}
}
