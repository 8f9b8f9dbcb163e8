package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"ledger/internal/amqp"
	ports "ledger/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheet is the tab journal rows are appended to when none is configured.
const DefaultSheet = "Journal"

// journalColumns is the header layout of the journal tab.
var journalColumns = []string{
	"Timestamp", "Operation", "Transaction", "Date", "Name", "Type",
	"Amount", "Account", "Category", "Recurring", "Frequency", "Parent", "Goal",
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

var _ ports.JournalWriter = (*Client)(nil)

type Config struct {
	SpreadsheetID string
	Sheet         string
	// Service account key, inline or as a path. Inline wins.
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet := strings.TrimSpace(cfg.Sheet)
	if sheet == "" {
		sheet = DefaultSheet
	}

	creds, err := loadCredentials(cfg.CredentialsJSON, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets journal ready",
		"spreadsheet_id", spreadsheetID,
		"sheet", sheet)

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

// loadCredentials resolves the service account key. GOOGLE_APPLICATION_CREDENTIALS
// is the fallback when neither source is configured.
func loadCredentials(inline, path string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	path = strings.TrimSpace(path)
	if inline == "" && path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// AppendJournal appends one row for the event and returns the updated range.
func (c *Client) AppendJournal(ctx context.Context, ev *amqp.JournalEvent) (string, error) {
	if ev == nil {
		return "", errors.New("nil journal event")
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:%s", c.sheet, columnLetter(len(journalColumns)))
	vr := &gsheet.ValueRange{Values: [][]any{journalRow(ev)}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheet, err)
	}

	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// EnsureHeader writes the column header to row 1 when the tab is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	last := columnLetter(len(journalColumns))
	rng := fmt.Sprintf("%s!A1:%s1", c.sheet, last)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	header := make([]any, len(journalColumns))
	for i, col := range journalColumns {
		header[i] = col
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header to %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Wrote journal header", "sheet", c.sheet)
	return nil
}

// journalRow lays out an event in journalColumns order.
func journalRow(ev *amqp.JournalEvent) []any {
	t := ev.Transaction
	recurring := "no"
	if t.IsRecurring {
		recurring = "yes"
	}
	ts := ""
	if !ev.Timestamp.IsZero() {
		ts = ev.Timestamp.UTC().Format(time.RFC3339)
	}
	return []any{
		ts,
		ev.Op,
		t.ID,
		t.Date,
		t.Name,
		t.Type,
		t.Amount,
		t.AccountID,
		t.CategoryID,
		recurring,
		t.Frequency,
		t.ParentID,
		t.GoalID,
	}
}

// columnLetter maps 1 -> A, 26 -> Z, 27 -> AA.
func columnLetter(n int) string {
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('A' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}
