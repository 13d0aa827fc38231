package sheets

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/tsrajpurohit/AdvDec/internal/table"
)

const spreadsheetScope = "https://www.googleapis.com/auth/spreadsheets"

// Client uploads tables to tabs of a single spreadsheet. It is not safe for
// concurrent use; the pipeline only ever calls it sequentially.
type Client struct {
	SpreadsheetID string
	srv           *sheets.Service
	ctx           context.Context
}

// NewClient authenticates with a service account credentials blob.
func NewClient(ctx context.Context, spreadsheetID string, credentialsJSON []byte) (*Client, error) {
	return newClient(ctx, spreadsheetID,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(spreadsheetScope),
	)
}

func newClient(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets client: %w", err)
	}
	return &Client{
		SpreadsheetID: spreadsheetID,
		srv:           srv,
		ctx:           ctx,
	}, nil
}

// Upload overwrites the named tab with the table contents. An existing tab is
// cleared first; a missing tab is created sized to the table plus its header
// row. Header and data rows go out in a single batch write.
func (c *Client) Upload(t *table.Table, tabName string) error {
	exists, err := c.worksheetExists(tabName)
	if err != nil {
		return fmt.Errorf("resolve worksheet '%s': %w", tabName, err)
	}

	if exists {
		clearRange := quoteTab(tabName)
		if _, err := c.srv.Spreadsheets.Values.Clear(c.SpreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(c.ctx).Do(); err != nil {
			return fmt.Errorf("clear worksheet '%s': %w", tabName, err)
		}
		log.Printf("Worksheet '%s' found, cleared existing data.\n", tabName)
	} else {
		if err := c.addWorksheet(tabName, len(t.Rows)+1, len(t.Columns)); err != nil {
			return fmt.Errorf("create worksheet '%s': %w", tabName, err)
		}
		log.Printf("Worksheet '%s' not found. Created a new one.\n", tabName)
	}

	values := make([][]interface{}, 0, len(t.Rows)+1)
	header := make([]interface{}, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	values = append(values, header)
	values = append(values, t.Rows...)

	vr := &sheets.ValueRange{Values: values}
	writeRange := quoteTab(tabName) + "!A1"
	if _, err := c.srv.Spreadsheets.Values.Update(c.SpreadsheetID, writeRange, vr).ValueInputOption("RAW").Context(c.ctx).Do(); err != nil {
		return fmt.Errorf("write to worksheet '%s': %w", tabName, err)
	}

	return nil
}

func (c *Client) worksheetExists(tabName string) (bool, error) {
	doc, err := c.srv.Spreadsheets.Get(c.SpreadsheetID).Fields("sheets.properties.title").Context(c.ctx).Do()
	if err != nil {
		return false, err
	}
	for _, sheet := range doc.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == tabName {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) addWorksheet(tabName string, rows int, cols int) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: tabName,
						GridProperties: &sheets.GridProperties{
							RowCount:    int64(rows),
							ColumnCount: int64(cols),
						},
					},
				},
			},
		},
	}
	_, err := c.srv.Spreadsheets.BatchUpdate(c.SpreadsheetID, req).Context(c.ctx).Do()
	return err
}

// quoteTab makes a tab name safe for use in an A1 range.
func quoteTab(tabName string) string {
	return "'" + strings.ReplaceAll(tabName, "'", "''") + "'"
}
