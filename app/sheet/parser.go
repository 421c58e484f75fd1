package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Parser decodes uploaded CSV or XLSX bytes into header-keyed rows.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Run decodes the file and returns its data rows. An unsupported extension,
// undecodable bytes or a file without data rows is an input-level error that
// fails the whole ingestion call.
func (p *Parser) Run(data []byte, filename string) ([]Row, error) {
	var records [][]string
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = p.readCSV(data)
	case ".xlsx":
		records, err = p.readXLSX(data)
	default:
		return nil, fmt.Errorf("unsupported file type %q, expected .csv or .xlsx", filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("file contains no data rows")
	}

	headers := make([]string, len(records[0]))
	for i, header := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(header))
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		row := Row{Index: i + 1, Cells: make(map[string]string, len(headers))}
		for j, header := range headers {
			if header == "" {
				continue
			}
			value := ""
			if j < len(record) {
				value = strings.TrimSpace(record[j])
			}
			row.Cells[header] = value
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("file contains no data rows")
	}

	return rows, nil
}

func (p *Parser) readCSV(data []byte) ([][]string, error) {
	// Spreadsheet exports regularly carry a UTF-8 BOM.
	decoded := transform.NewReader(bytes.NewReader(data), unicode.UTF8BOM.NewDecoder())

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		records = append(records, record)
	}

	return records, nil
}

func (p *Parser) readXLSX(data []byte) ([][]string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("XLSX file contains no sheets")
	}

	records, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read XLSX rows: %w", err)
	}

	return records, nil
}
