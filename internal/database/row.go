package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/tablecompare/internal/errs"
)

// ScanColumn reads every row of a result set and returns one column of it
// as strings. The column is the first whose label matches one of preferred
// (case-insensitive), or the first column when none match. This copes with
// metadata commands such as SHOW DATABASES whose output shape differs
// between engines and versions.
//
// The returned slice is always non-nil (empty slice on zero rows).
// ScanColumn always closes the Rows.
func ScanColumn(rows Rows, preferred ...string) ([]string, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}
	if len(columns) == 0 {
		return nil, errs.New(errs.ErrKindQueryFailed, "result set has no columns")
	}
	idx := pickColumn(columns, preferred)

	result := make([]string, 0)

	for rows.Next() {
		// Allocate scan targets as *any so the driver can write any type.
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan row", err)
		}
		result = append(result, StringValue(dest[idx]))
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "error during row iteration", err)
	}

	return result, nil
}

func pickColumn(columns, preferred []string) int {
	for _, want := range preferred {
		for i, c := range columns {
			if strings.EqualFold(strings.Trim(c, "\"`"), want) {
				return i
			}
		}
	}
	return 0
}

// StringValue renders a scanned driver value as text.
func StringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
