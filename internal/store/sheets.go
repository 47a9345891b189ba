package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/jonathan/cv-intake/internal/types"
)

// DefaultSheetTitle is the worksheet used when none is configured.
const DefaultSheetTitle = "Sheet1"

// SheetsScopes are the OAuth scopes the service account needs.
var SheetsScopes = []string{sheets.SpreadsheetsScope}

// Sheets stores candidate rows in one worksheet of a Google spreadsheet.
// Row index 0 is sheet row 1.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	title         string

	mu       sync.Mutex
	sheetID  int64
	resolved bool
}

// NewSheets connects to the spreadsheet. Credentials come from opts, usually
// option.WithCredentialsFile.
func NewSheets(ctx context.Context, spreadsheetID, title string, opts ...option.ClientOption) (*Sheets, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required")
	}
	if title == "" {
		title = DefaultSheetTitle
	}
	opts = append([]option.ClientOption{option.WithScopes(SheetsScopes...)}, opts...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, wrap("sheets", "create client", err)
	}
	return &Sheets{svc: svc, spreadsheetID: spreadsheetID, title: title}, nil
}

// lastColumn is the A1 letter of the Status column.
var lastColumn = string(rune('A' + len(types.Columns) - 1))

// a1 qualifies cells with the quoted worksheet title.
func (s *Sheets) a1(cells string) string {
	return "'" + strings.ReplaceAll(s.title, "'", "''") + "'!" + cells
}

func (s *Sheets) headerRange() string {
	return s.a1("A1:" + lastColumn + "1")
}

// EnsureHeader inserts the header row, bold on a grey background, when the
// first cell is empty.
func (s *Sheets) EnsureHeader(ctx context.Context) error {
	var header []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.resolveSheetID(gctx)
		return err
	})
	g.Go(func() error {
		resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.headerRange()).Context(gctx).Do()
		if err != nil {
			return wrap("sheets", "read header", err)
		}
		if len(resp.Values) > 0 {
			header = toStrings(resp.Values[0])
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if len(header) > 0 && header[0] != "" {
		return nil
	}

	sheetID, _ := s.resolveSheetID(ctx)
	width := int64(len(types.Columns))
	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{
		{InsertDimension: &sheets.InsertDimensionRequest{
			Range: &sheets.DimensionRange{SheetId: sheetID, Dimension: "ROWS", StartIndex: 0, EndIndex: 1},
		}},
		{RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{SheetId: sheetID, StartRowIndex: 0, EndRowIndex: 1, StartColumnIndex: 0, EndColumnIndex: width},
			Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
				TextFormat:      &sheets.TextFormat{Bold: true},
				BackgroundColor: &sheets.Color{Red: 0.8, Green: 0.8, Blue: 0.8},
			}},
			Fields: "userEnteredFormat(textFormat,backgroundColor)",
		}},
	}}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return wrap("sheets", "insert header row", err)
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{toCells(types.Columns)}}
	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.headerRange(), vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return wrap("sheets", "write header", err)
	}
	return nil
}

func (s *Sheets) ReadAll(ctx context.Context) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.a1("A:"+lastColumn)).Context(ctx).Do()
	if err != nil {
		return nil, wrap("sheets", "read rows", err)
	}
	out := make([][]string, 0, len(resp.Values))
	for _, r := range resp.Values {
		out = append(out, toStrings(r))
	}
	return out, nil
}

func (s *Sheets) Append(ctx context.Context, row []string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{toCells(normalizeRow(row, len(types.Columns)))}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.headerRange(), vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return wrap("sheets", "append row", err)
}

func (s *Sheets) DeleteRow(ctx context.Context, index int) error {
	if index < 1 {
		return wrap("sheets", "delete row", ErrRowOutOfRange)
	}
	sheetID, err := s.resolveSheetID(ctx)
	if err != nil {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{
		{DeleteDimension: &sheets.DeleteDimensionRequest{
			Range: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "ROWS",
				StartIndex: int64(index),
				EndIndex:   int64(index + 1),
			},
		}},
	}}
	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	return wrap("sheets", "delete row", err)
}

// resolveSheetID looks up the numeric ID of the worksheet once.
func (s *Sheets) resolveSheetID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolved {
		return s.sheetID, nil
	}

	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, wrap("sheets", "read spreadsheet", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.title {
			s.sheetID = sh.Properties.SheetId
			s.resolved = true
			return s.sheetID, nil
		}
	}
	return 0, wrap("sheets", "read spreadsheet", fmt.Errorf("worksheet %q not found", s.title))
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

func toStrings(cells []interface{}) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if c == nil {
			continue
		}
		out[i] = fmt.Sprint(c)
	}
	return out
}
