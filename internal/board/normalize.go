package board

import (
	"math"
	"strconv"
	"strings"

	"github.com/Billy-Davies-2/draft-board-planner/internal/models"
)

// Column names of the flat table, in export order
const (
	ColCategory = "category"
	ColRank     = "rank"
	ColName     = "name"
	ColGroup    = "group"
	ColCycle    = "cycle"
	ColNotes    = "notes"
	ColStatus   = "status"
)

// Columns is the fixed column order of an exported table
var Columns = []string{ColCategory, ColRank, ColName, ColGroup, ColCycle, ColNotes, ColStatus}

// Older exports used the position/player vocabulary
var columnAliases = map[string]string{
	"position": ColCategory,
	"player":   ColName,
	"team":     ColGroup,
	"bye":      ColCycle,
}

// CanonicalColumn maps a header to its canonical column name.
// Unknown headers are returned lower-cased and trimmed.
func CanonicalColumn(header string) string {
	k := strings.ToLower(strings.TrimSpace(header))
	if alias, ok := columnAliases[k]; ok {
		return alias
	}
	return k
}

// Row is a loosely typed row as it arrives from a parser or an edit payload.
// Keys are column names; a missing key means the field was not supplied.
type Row map[string]string

// RowFromAny converts a decoded JSON object into a Row. Nil values are
// treated as missing, numbers are formatted without exponent.
func RowFromAny(m map[string]any) Row {
	row := make(Row, len(m))
	for k, v := range m {
		var s string
		switch val := v.(type) {
		case nil:
			continue
		case string:
			s = val
		case float64:
			s = strconv.FormatFloat(val, 'f', -1, 64)
		case int:
			s = strconv.Itoa(val)
		case bool:
			s = strconv.FormatBool(val)
		default:
			continue
		}
		row[k] = s
	}
	return row
}

// canonical returns a copy of r keyed by canonical column names.
// An exact canonical key wins over an alias for the same column.
func (r Row) canonical() Row {
	out := make(Row, len(r))
	for k, v := range r {
		c := CanonicalColumn(k)
		if c == strings.ToLower(strings.TrimSpace(k)) {
			out[c] = v
		}
	}
	for k, v := range r {
		c := CanonicalColumn(k)
		if _, ok := out[c]; !ok {
			out[c] = v
		}
	}
	return out
}

// NormalizeRow coerces one raw row into a well-formed Item.
// Rank is kept as parsed (0 when unset); it is never re-derived here.
func NormalizeRow(raw Row) models.Item {
	r := raw.canonical()

	item := models.Item{
		Name:   r[ColName],
		Group:  r[ColGroup],
		Notes:  r[ColNotes],
		Status: models.StatusAvailable,
	}
	if n, ok := parseNumber(r[ColRank]); ok && n > 0 {
		item.Rank = n
	}
	if n, ok := parseNumber(r[ColCycle]); ok && n >= 0 {
		item.Cycle = models.IntPtr(n)
	}
	if st, ok := models.ParseStatus(r[ColStatus]); ok {
		item.Status = st
	}
	return item
}

// Normalize coerces a row collection into board items. The result is never nil.
func Normalize(rows []Row) []models.Item {
	items := make([]models.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, NormalizeRow(r))
	}
	return items
}

// parseNumber accepts integers and integral floats ("9", "9.0").
func parseNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// parseCycle is the strict integer parse used for typed-in text.
func parseCycle(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return nil
	}
	return models.IntPtr(n)
}
