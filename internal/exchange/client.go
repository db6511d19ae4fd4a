// Package exchange queries Exchange Online message trace through the
// Exchange admin REST endpoint (the same InvokeCommand surface used by the
// ExchangeOnlineManagement module). Client implements trace.QueryService.
package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"

	"msgtracetool/internal/common/logger"
	"msgtracetool/internal/common/ratelimit"
	"msgtracetool/internal/common/version"
	"msgtracetool/internal/trace"
)

const (
	// DefaultEndpoint is the Exchange Online admin API base URL.
	DefaultEndpoint = "https://outlook.office365.com/adminapi/beta"

	// Scope is the application permission scope for the admin API.
	Scope = "https://outlook.office365.com/.default"

	cmdletName = "Get-MessageTrace"
	moduleName = "msgtracetool/exchange"

	// Well-known system mailbox used to route admin API calls to the
	// tenant's home forest.
	anchorMailboxFormat = "UPN:SystemMailbox{bb558c35-97f1-4cb9-8ff7-d53741dc928c}@%s"
)

// ClientOptions configures a Client. The zero value talks to DefaultEndpoint
// with no anchor header and no rate limit.
type ClientOptions struct {
	azcore.ClientOptions

	// Endpoint overrides DefaultEndpoint.
	Endpoint string
	// Organization is the tenant's initial domain (contoso.onmicrosoft.com);
	// when set, requests carry an X-AnchorMailbox header.
	Organization string
	// Limiter paces page requests. Nil means unlimited.
	Limiter *ratelimit.Limiter
	Logger  *slog.Logger
}

// Client calls Get-MessageTrace for one tenant.
type Client struct {
	pipeline runtime.Pipeline
	endpoint string
	tenantID string
	anchor   string
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
}

var _ trace.QueryService = (*Client)(nil)

// NewClient builds a Client authenticating with cred. Retries in the azcore
// pipeline are disabled: a failed page aborts the run.
func NewClient(tenantID string, cred azcore.TokenCredential, opts *ClientOptions) (*Client, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant ID cannot be empty")
	}
	if cred == nil {
		return nil, fmt.Errorf("credential cannot be nil")
	}
	if opts == nil {
		opts = &ClientOptions{}
	}

	endpoint := strings.TrimRight(opts.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid exchange endpoint %q: %w", endpoint, err)
	}

	clientOpts := opts.ClientOptions
	clientOpts.Retry.MaxRetries = -1

	authPolicy := runtime.NewBearerTokenPolicy(cred, []string{Scope}, nil)
	pl := runtime.NewPipeline(moduleName, version.Get(), runtime.PipelineOptions{
		PerRetry: []policy.Policy{authPolicy},
	}, &clientOpts)

	c := &Client{
		pipeline: pl,
		endpoint: endpoint,
		tenantID: tenantID,
		limiter:  opts.Limiter,
		logger:   opts.Logger,
	}
	if opts.Organization != "" {
		c.anchor = fmt.Sprintf(anchorMailboxFormat, opts.Organization)
	}
	return c, nil
}

type cmdletRequest struct {
	CmdletInput cmdletInput `json:"CmdletInput"`
}

type cmdletInput struct {
	CmdletName string          `json:"CmdletName"`
	Parameters traceParameters `json:"Parameters"`
}

type traceParameters struct {
	StartDate     string `json:"StartDate"`
	EndDate       string `json:"EndDate"`
	Page          int    `json:"Page"`
	PageSize      int    `json:"PageSize"`
	SenderAddress string `json:"SenderAddress,omitempty"`
}

type cmdletResponse struct {
	Value []wireRow `json:"value"`
}

type wireRow struct {
	SenderAddress    string    `json:"SenderAddress"`
	RecipientAddress string    `json:"RecipientAddress"`
	Received         traceTime `json:"Received"`
	Status           string    `json:"Status"`
	MessageTraceID   string    `json:"MessageTraceId"`
	Subject          string    `json:"Subject"`
	MessageID        string    `json:"MessageId"`
	Size             int64     `json:"Size"`
	FromIP           string    `json:"FromIP"`
	ToIP             string    `json:"ToIP"`
}

func (w wireRow) row() trace.Row {
	return trace.Row{
		SenderAddress:    w.SenderAddress,
		RecipientAddress: w.RecipientAddress,
		Received:         w.Received.Time,
		Status:           trace.Status(w.Status),
		MessageTraceID:   w.MessageTraceID,
		Subject:          w.Subject,
		MessageID:        w.MessageID,
		Size:             w.Size,
		FromIP:           w.FromIP,
		ToIP:             w.ToIP,
	}
}

// QueryTrace fetches one page of message trace rows for q's window.
func (c *Client) QueryTrace(ctx context.Context, q trace.Query) ([]trace.Row, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := runtime.NewRequest(ctx, http.MethodPost, c.endpoint+"/"+url.PathEscape(c.tenantID)+"/InvokeCommand")
	if err != nil {
		return nil, err
	}
	req.Raw().Header.Set("Accept", "application/json")
	if c.anchor != "" {
		req.Raw().Header.Set("X-AnchorMailbox", c.anchor)
	}

	body := cmdletRequest{CmdletInput: cmdletInput{
		CmdletName: cmdletName,
		Parameters: traceParameters{
			StartDate:     q.Start.UTC().Format(time.RFC3339),
			EndDate:       q.End.UTC().Format(time.RFC3339),
			Page:          q.Page,
			PageSize:      q.PageSize,
			SenderAddress: q.SenderAddress,
		},
	}}
	if err := runtime.MarshalAsJSON(req, body); err != nil {
		return nil, fmt.Errorf("encode %s request: %w", cmdletName, err)
	}

	logger.LogDebug(c.logger, "Invoking cmdlet",
		"cmdlet", cmdletName,
		"start", body.CmdletInput.Parameters.StartDate,
		"end", body.CmdletInput.Parameters.EndDate,
		"page", q.Page)

	resp, err := c.pipeline.Do(req)
	if err != nil {
		return nil, err
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return nil, runtime.NewResponseError(resp)
	}

	var out cmdletResponse
	if err := runtime.UnmarshalAsJSON(resp, &out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", cmdletName, err)
	}

	rows := make([]trace.Row, len(out.Value))
	for i, w := range out.Value {
		rows[i] = w.row()
	}
	return rows, nil
}
