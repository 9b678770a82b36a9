package report

import (
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/soundfield/capture-report/internal/conf"
)

// TotalLabel labels an appended column-totals row.
const TotalLabel = "TOTAL"

// RowTotalColumn is the name of an appended per-row totals column.
const RowTotalColumn = "Row Total"

// defaultExcludePatterns lists column name fragments that mark statistical
// columns. Summing a correlation or a confidence bound is meaningless, so
// these columns never participate in totals.
var defaultExcludePatterns = []string{
	"ACF",
	"PACF",
	"Forecast",
	"Lower_CI",
	"Upper_CI",
	"Confidence",
	"Significant",
	"Mean_",
	"Has_Files",
}

// ValidationResult is the outcome of one cross-sheet totals rule.
type ValidationResult struct {
	Rule       string
	Field      string
	Values     map[string]float64 // sheet -> registered value
	Missing    []string           // sheets named by the rule with no registration
	MaxDelta   float64
	Consistent bool
}

// TotalsEngine computes row and column totals and keeps a registry of
// per-sheet totals for cross-sheet validation. Safe for concurrent
// registration.
type TotalsEngine struct {
	mu       sync.Mutex
	exclude  []string
	registry map[string]map[string]float64 // sheet -> field -> value
	logger   *slog.Logger
}

// NewTotalsEngine creates an engine with the default statistical column
// exclusions.
func NewTotalsEngine() *TotalsEngine {
	return &TotalsEngine{
		exclude:  defaultExcludePatterns,
		registry: make(map[string]map[string]float64),
		logger:   slog.Default().With("service", "report"),
	}
}

// Excluded reports whether a column is excluded from totals.
func (e *TotalsEngine) Excluded(column string) bool {
	for _, pattern := range e.exclude {
		if strings.Contains(column, pattern) {
			return true
		}
	}
	return false
}

// AppendTotalRow sums every includable numeric column of the table,
// appends a TOTAL row labeled in labelColumn, and registers each column
// total under the table's name. Columns that are excluded or hold no
// numeric cells stay empty in the total row.
func (e *TotalsEngine) AppendTotalRow(t *Table, labelColumn string) map[string]float64 {
	totals := make(map[string]float64)
	counted := make(map[string]bool)

	for _, row := range t.Rows {
		for _, col := range t.Columns {
			if col == labelColumn || e.Excluded(col) {
				continue
			}
			if v, ok := numeric(row[col]); ok {
				totals[col] += v
				counted[col] = true
			}
		}
	}

	totalRow := map[string]any{labelColumn: TotalLabel}
	for col, sum := range totals {
		if counted[col] {
			totalRow[col] = sum
		}
	}
	t.Append(totalRow)

	for col, sum := range totals {
		e.Register(t.Name, col, sum)
	}
	return totals
}

// AddRowTotals appends a Row Total column summing the includable numeric
// cells of each row.
func (e *TotalsEngine) AddRowTotals(t *Table) {
	t.Columns = append(t.Columns, RowTotalColumn)
	for _, row := range t.Rows {
		var sum float64
		found := false
		for col, v := range row {
			if col == RowTotalColumn || e.Excluded(col) {
				continue
			}
			if n, ok := numeric(v); ok {
				sum += n
				found = true
			}
		}
		if found {
			row[RowTotalColumn] = sum
		}
	}
}

// Register records a sheet-level total for later cross validation.
func (e *TotalsEngine) Register(sheet, field string, value float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.registry[sheet] == nil {
		e.registry[sheet] = make(map[string]float64)
	}
	e.registry[sheet][field] = value
}

// Registered returns the recorded value, if any.
func (e *TotalsEngine) Registered(sheet, field string) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	values, ok := e.registry[sheet]
	if !ok {
		return 0, false
	}
	v, ok := values[field]
	return v, ok
}

// Validate checks every rule against the registry. A rule passes when all
// its sheets registered the field and the spread between the smallest and
// largest value is within the tolerance. Missing registrations fail the
// rule rather than passing it silently.
func (e *TotalsEngine) Validate(rules []conf.TotalsRule) []ValidationResult {
	results := make([]ValidationResult, 0, len(rules))

	for _, rule := range rules {
		result := ValidationResult{
			Rule:   rule.Name,
			Field:  rule.Field,
			Values: make(map[string]float64),
		}

		minV := math.Inf(1)
		maxV := math.Inf(-1)
		for _, sheet := range rule.Sheets {
			v, ok := e.Registered(sheet, rule.Field)
			if !ok {
				result.Missing = append(result.Missing, sheet)
				continue
			}
			result.Values[sheet] = v
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}

		if len(result.Values) > 1 {
			result.MaxDelta = maxV - minV
		}
		result.Consistent = len(result.Missing) == 0 && result.MaxDelta <= rule.Tolerance

		if !result.Consistent {
			e.logger.Warn("totals validation failed",
				"rule", rule.Name,
				"field", rule.Field,
				"max_delta", result.MaxDelta,
				"missing", result.Missing)
		}
		results = append(results, result)
	}
	return results
}
