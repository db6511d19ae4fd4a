package main

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/microsoftgraph/msgraph-sdk-go/groups"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/users"

	"msgtracetool/internal/common/logger"
	"msgtracetool/internal/trace"
)

// groupLookup returns the display name of the group whose primary SMTP
// address is mail, or "" when no group matches.
type groupLookup func(ctx context.Context, mail string) (string, error)

// reportSender delivers an HTML message from mailbox to recipients.
type reportSender func(ctx context.Context, mailbox string, to []string, subject, html string) error

// escapeODataString doubles single quotes for use inside an OData string literal.
func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func groupsFilter(mail string) string {
	return fmt.Sprintf("mail eq '%s'", escapeODataString(mail))
}

// graphGroupLookup resolves groups with GET /groups?$filter=mail eq '...'.
func graphGroupLookup(client *msgraphsdk.GraphServiceClient) groupLookup {
	return func(ctx context.Context, mail string) (string, error) {
		filter := groupsFilter(mail)
		top := int32(1)
		requestConfig := &groups.GroupsRequestBuilderGetRequestConfiguration{
			QueryParameters: &groups.GroupsRequestBuilderGetQueryParameters{
				Filter: &filter,
				Select: []string{"id", "displayName", "mail"},
				Top:    &top,
			},
		}

		result, err := client.Groups().Get(ctx, requestConfig)
		if err != nil {
			return "", err
		}
		for _, g := range result.GetValue() {
			if name := g.GetDisplayName(); name != nil {
				return *name, nil
			}
		}
		return "", nil
	}
}

// resolveGroupNames fills GroupName on every event whose recipient resolves
// to a group. Each distinct address is looked up once. Lookup failures are
// logged and leave the name empty.
func resolveGroupNames(ctx context.Context, events []trace.GroupEvent, lookup groupLookup, slogger *slog.Logger) int {
	names := make(map[string]string)
	resolved := 0

	for i := range events {
		key := strings.ToLower(events[i].Recipient)
		name, seen := names[key]
		if !seen {
			var err error
			name, err = lookup(ctx, events[i].Recipient)
			if err != nil {
				err = enrichGraphAPIError(err, slogger, "group lookup")
				logger.LogWarn(slogger, "Could not resolve group", "recipient", events[i].Recipient, "error", err)
				name = ""
			}
			names[key] = name
			if name != "" {
				resolved++
			}
		}
		events[i].GroupName = name
	}

	logger.LogInfo(slogger, "Resolved group names", "distinct", len(names), "resolved", resolved)
	return resolved
}

// graphReportSender sends mail through POST /users/{mailbox}/sendMail.
func graphReportSender(client *msgraphsdk.GraphServiceClient) reportSender {
	return func(ctx context.Context, mailbox string, to []string, subject, html string) error {
		message := models.NewMessage()
		message.SetSubject(&subject)

		body := models.NewItemBody()
		body.SetContent(&html)
		contentType := models.HTML_BODYTYPE
		body.SetContentType(&contentType)
		message.SetBody(body)
		message.SetToRecipients(createRecipients(to))

		requestBody := users.NewItemSendMailPostRequestBody()
		requestBody.SetMessage(message)
		saveToSentItems := false
		requestBody.SetSaveToSentItems(&saveToSentItems)

		return client.Users().ByUserId(mailbox).SendMail().Post(ctx, requestBody, nil)
	}
}

// createRecipients creates a list of recipient objects from email addresses.
func createRecipients(emails []string) []models.Recipientable {
	recipients := make([]models.Recipientable, len(emails))
	for i, email := range emails {
		recipient := models.NewRecipient()
		emailAddress := models.NewEmailAddress()
		address := email
		emailAddress.SetAddress(&address)
		recipient.SetEmailAddress(emailAddress)
		recipients[i] = recipient
	}
	return recipients
}

var reportMailTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
}).Parse(`<html>
<body style="font-family: Segoe UI, Arial, sans-serif; font-size: 10pt">
<h2>Message Trace Report</h2>
<p>{{.Start}} to {{.End}} ({{.Zone}})</p>
<h3>Top Senders</h3>
{{if .TopSenders}}<table border="1" cellpadding="4" cellspacing="0">
<tr><th>#</th><th>Sender</th><th>Recipients</th></tr>
{{range $i, $s := .TopSenders}}<tr><td>{{inc $i}}</td><td>{{$s.SenderAddress}}</td><td align="right">{{comma $s.RecipientCount}}</td></tr>
{{end}}</table>{{else}}<p>No messages found.</p>{{end}}
<h3>Distribution Groups</h3>
<p>{{comma .GroupEvents}} expansions to {{comma .Groups}} groups.</p>
{{if .GroupRows}}<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Group</th><th>Expansions</th></tr>
{{range .GroupRows}}<tr><td>{{.Name}}</td><td align="right">{{comma .Count}}</td></tr>
{{end}}</table>{{end}}
<p style="color: #808080">Generated by msgtracetool {{.Version}}, run {{.RunID}}</p>
</body>
</html>
`))

type groupRow struct {
	Name  string
	Count int
}

type reportMailData struct {
	Start, End, Zone string
	TopSenders       []trace.SenderTotal
	GroupEvents      int
	Groups           int
	GroupRows        []groupRow
	Version          string
	RunID            string
}

// buildReportHTML renders the mail summary: top senders plus expansions per group.
func buildReportHTML(r *trace.Report, config *Config, runID, ver string) (string, error) {
	loc := config.Location
	if loc == nil {
		loc = time.UTC
	}

	counts := make(map[string]*groupRow)
	var order []string
	for _, e := range r.GroupReport {
		key := strings.ToLower(e.Recipient)
		row, ok := counts[key]
		if !ok {
			name := e.Recipient
			if e.GroupName != "" {
				name = fmt.Sprintf("%s (%s)", e.GroupName, e.Recipient)
			}
			row = &groupRow{Name: name}
			counts[key] = row
			order = append(order, key)
		}
		row.Count++
	}
	rows := make([]groupRow, len(order))
	for i, key := range order {
		rows[i] = *counts[key]
	}

	data := reportMailData{
		Start:       config.Start.In(loc).Format("2006-01-02 15:04"),
		End:         config.End.In(loc).Format("2006-01-02 15:04"),
		Zone:        loc.String(),
		TopSenders:  r.TopSenders,
		GroupEvents: len(r.GroupReport),
		Groups:      len(rows),
		GroupRows:   rows,
		Version:     ver,
		RunID:       runID,
	}

	var buf bytes.Buffer
	if err := reportMailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report mail: %w", err)
	}
	return buf.String(), nil
}

func reportSubject(config *Config) string {
	loc := config.Location
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("Message trace report %s - %s",
		config.Start.In(loc).Format("2006-01-02 15:04"),
		config.End.In(loc).Format("2006-01-02 15:04"))
}

// mailReport sends the HTML summary. Failures are logged and returned so the
// caller can record them; they never fail the run.
func mailReport(ctx context.Context, send reportSender, r *trace.Report, config *Config, runID, ver string, slogger *slog.Logger) error {
	html, err := buildReportHTML(r, config, runID, ver)
	if err != nil {
		return err
	}

	if err := send(ctx, config.Mailbox, config.MailTo, reportSubject(config), html); err != nil {
		err = enrichGraphAPIError(err, slogger, "sendMail")
		logger.LogWarn(slogger, "Could not mail report", "mailbox", config.Mailbox, "error", err)
		return err
	}

	logger.LogInfo(slogger, "Report mailed", "mailbox", config.Mailbox, "recipients", len(config.MailTo))
	return nil
}
