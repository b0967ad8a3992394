// Package google reads sales tables from a Google spreadsheet, one tab per
// logical table.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"salesengine/internal/log"
	"salesengine/internal/sources"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	tabs          sources.Mapping
	logger        *log.Logger
}

var _ sources.RowSource = (*Client)(nil)

// DefaultTabs maps each logical table to a tab of the same name.
func DefaultTabs() sources.Mapping {
	m := make(sources.Mapping, len(sources.Names))
	for _, name := range sources.Names {
		m[name] = name
	}
	return m
}

// New creates a Sheets client with service account credentials.
// Required: spreadsheetID.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS. A nil tabs mapping uses DefaultTabs.
func New(ctx context.Context, spreadsheetID string, tabs sources.Mapping, logger *log.Logger) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)
	if tabs == nil {
		tabs = DefaultTabs()
	}
	svc, err := newSheetsService(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, tabs: tabs, logger: logger}, nil
}

// newSheetsService initializes a read-only Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, logger *log.Logger) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		logger.DebugContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		logger.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Rows reads the whole tab mapped to name.
func (c *Client) Rows(ctx context.Context, name string) ([]sources.Row, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	tab, err := c.tabs.Location(name)
	if err != nil {
		return nil, err
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, tab).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", tab, err)
	}
	rows, err := parseValues(resp.Values)
	if err != nil {
		return nil, fmt.Errorf("tab %s: %w", tab, err)
	}
	c.logger.DebugContext(ctx, "Read sheet tab",
		log.FieldTable, name,
		log.FieldRows, len(rows))
	return rows, nil
}
