// Package sheets appends accepted participants to a shared Google Sheet so
// organisers can work from a live roster.
package sheets

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"

	"hogis-registration/config"
)

// Row one roster line
type Row struct {
	ID         string
	Name       string
	Email      string
	Phone      string
	Age        int
	Category   string
	School     string
	ReviewedAt time.Time
	Notes      string
}

// Header column titles, in Row order
var Header = []interface{}{"ID", "Name", "Email", "Phone", "Age", "Category", "School", "Accepted At", "Notes"}

// Values spreadsheet cells for r
func (r Row) Values() []interface{} {
	return []interface{}{
		r.ID, r.Name, r.Email, r.Phone, r.Age, r.Category, r.School,
		r.ReviewedAt.Format("2006-01-02 15:04"), r.Notes,
	}
}

// Roster receives accepted participants
type Roster interface {
	Append(ctx context.Context, row Row) error
}

// Client Google Sheets roster
type Client struct {
	srv           *sheetsv4.Service
	spreadsheetID string
	sheet         string
}

// New creates a Client from a service-account credentials file
func New(ctx context.Context, cfg *config.SheetsConfig) (*Client, error) {
	if _, err := os.Stat(cfg.CredentialsFile); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	srv, err := sheetsv4.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheetsv4.SpreadsheetsScope),
	)
	if err != nil {
		return nil, err
	}
	return NewWithService(srv, cfg.SpreadsheetID, cfg.Sheet), nil
}

// NewWithService wraps an existing service
func NewWithService(srv *sheetsv4.Service, spreadsheetID, sheet string) *Client {
	if sheet == "" {
		sheet = "Accepted"
	}
	return &Client{srv: srv, spreadsheetID: spreadsheetID, sheet: sheet}
}

// Append adds row under the existing data
func (c *Client) Append(ctx context.Context, row Row) error {
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{row.Values()}}
	_, err := c.srv.Spreadsheets.Values.Append(c.spreadsheetID, c.sheet+"!A:I", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append roster row: %w", err)
	}
	return nil
}

// EnsureHeader writes the header row when the sheet is empty
func (c *Client) EnsureHeader(ctx context.Context) error {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, c.sheet+"!A1:I1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read roster header: %w", err)
	}
	if len(resp.Values) > 0 {
		return nil
	}
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{Header}}
	_, err = c.srv.Spreadsheets.Values.Update(c.spreadsheetID, c.sheet+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write roster header: %w", err)
	}
	return nil
}

// Nop discards rows; used when sync is disabled
type Nop struct{}

func (Nop) Append(context.Context, Row) error { return nil }
