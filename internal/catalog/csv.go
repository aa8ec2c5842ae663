package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVImporter reads a spreadsheet export of the menu, one item per row, with
// the columns id, name, description, price, category, image_url, available.
type CSVImporter struct {
	reader *csv.Reader
}

func NewCSVImporter(r io.Reader) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // spreadsheets drop trailing empty cells
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr}
}

// Run parses all rows. Blank rows are skipped; a row without id, name or
// price fails the import with its line number.
func (i *CSVImporter) Run() ([]MenuEntry, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"id", "name", "price"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var entries []MenuEntry
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return entries, fmt.Errorf("read row: %w", err)
		}
		line++

		entry, ok, err := parseRow(record, index)
		if err != nil {
			return entries, fmt.Errorf("line %d: %w", line, err)
		}
		if ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (MenuEntry, bool, error) {
	idStr := pick(record, index, "id")
	name := pick(record, index, "name")
	priceStr := strings.TrimPrefix(pick(record, index, "price"), "₹")
	if idStr == "" && name == "" && priceStr == "" {
		return MenuEntry{}, false, nil
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return MenuEntry{}, false, fmt.Errorf("invalid id %q", idStr)
	}
	if name == "" {
		return MenuEntry{}, false, fmt.Errorf("item %d: name required", id)
	}
	price, err := strconv.ParseFloat(strings.ReplaceAll(priceStr, ",", ""), 64)
	if err != nil {
		return MenuEntry{}, false, fmt.Errorf("item %d: invalid price %q", id, priceStr)
	}

	entry := MenuEntry{
		ID:          id,
		Name:        name,
		Description: pick(record, index, "description"),
		Price:       price,
		Category:    pick(record, index, "category"),
		ImageURL:    pick(record, index, "image_url"),
	}
	if v := pick(record, index, "available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			return MenuEntry{}, false, fmt.Errorf("item %d: invalid available %q", id, v)
		}
		entry.Available = &available
	}
	return entry, true, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
