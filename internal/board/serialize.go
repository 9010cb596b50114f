package board

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"

	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ImportResult describes a successful import
type ImportResult struct {
	Rows       int      `json:"rows"`
	Categories []string `json:"categories"` // replaced boards, in file order
	Added      []string `json:"added"`      // categories that were not known before
}

// Export flattens every board into a CSV table with a leading category
// column. Boards without items contribute no rows. When the store holds no
// items at all the result is empty, meaning there is nothing to export.
func (s *Store) Export() ([]byte, error) {
	if s.Len() == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return nil, err
	}
	for _, c := range s.categories {
		for _, it := range s.boards[c] {
			if err := w.Write(exportRecord(c, it)); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func exportRecord(category string, it models.Item) []string {
	rank, cycle := "", ""
	if it.Rank > 0 {
		rank = strconv.Itoa(it.Rank)
	}
	if it.Cycle != nil {
		cycle = strconv.Itoa(*it.Cycle)
	}
	return []string{category, rank, it.Name, it.Group, cycle, it.Notes, string(it.Status)}
}

// ParseTable reads a CSV table into rows keyed by canonical column names.
// It returns the canonical header as well. Cells missing from short
// records are left out of the row.
func ParseTable(data []byte) ([]string, []Row, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: header: %w", ErrMalformedTable, err)
	}
	for i, h := range header {
		header[i] = CanonicalColumn(h)
	}

	var rows []Row
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrMalformedTable, err)
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				if _, dup := row[col]; !dup {
					row[col] = rec[i]
				}
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// MissingColumns returns the required columns absent from header, sorted
func MissingColumns(header []string) []string {
	var missing []string
	for _, c := range Columns {
		if !slices.Contains(header, c) {
			missing = append(missing, c)
		}
	}
	sort.Strings(missing)
	return missing
}

// Import parses a CSV table and replaces the board of every category it
// mentions. Rows with a blank category form their own group. Unknown
// categories are registered. The schema is validated and every group is
// normalized before any board is replaced, so a failed import leaves the
// store untouched.
func (s *Store) Import(data []byte) (ImportResult, error) {
	header, rows, err := ParseTable(data)
	if err != nil {
		return ImportResult{}, err
	}
	if missing := MissingColumns(header); len(missing) > 0 {
		return ImportResult{}, &SchemaError{Missing: missing}
	}

	var order []string
	groups := make(map[string][]Row)
	for _, row := range rows {
		c := NormalizeCategory(row[ColCategory])
		if _, ok := groups[c]; !ok {
			order = append(order, c)
		}
		groups[c] = append(groups[c], row)
	}

	normalized := make(map[string][]models.Item, len(groups))
	for _, c := range order {
		normalized[c] = Reindex(Normalize(groups[c]))
	}

	res := ImportResult{Rows: len(rows), Categories: order, Added: []string{}}
	if res.Categories == nil {
		res.Categories = []string{}
	}
	for _, c := range order {
		if !s.Has(c) {
			res.Added = append(res.Added, c)
		}
		key := s.ensure(c)
		s.boards[key] = normalized[c]
	}
	return res, nil
}
