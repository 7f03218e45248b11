package compare

import (
	"fmt"
	"strings"

	"github.com/koustreak/tablecompare/internal/database"
	"github.com/koustreak/tablecompare/internal/errs"
)

// Semantics selects how duplicate rows take part in a difference.
type Semantics string

const (
	// Multiset keeps duplicates: a row present three times in the source
	// and twice in the target counts once in rows-only-in-source.
	Multiset Semantics = "multiset"

	// Set collapses duplicates on both sides before subtracting.
	Set Semantics = "set"
)

// ParseSemantics validates a semantics name; empty means Multiset.
func ParseSemantics(s string) (Semantics, error) {
	switch Semantics(strings.ToLower(strings.TrimSpace(s))) {
	case "", Multiset:
		return Multiset, nil
	case Set:
		return Set, nil
	default:
		return "", errs.Newf(errs.ErrKindInvalidInput, "unknown comparison semantics %q (want multiset or set)", s)
	}
}

const ordinalAlias = "__dup_ordinal"

func qualify(d database.Dialect, t TableIdentifier) string {
	return d.Qualify(t.Database, t.Schema, t.Table)
}

func countSQL(d database.Dialect, t TableIdentifier) string {
	return fmt.Sprintf("SELECT %s FROM %s", d.CountExpr(), qualify(d, t))
}

// differenceSQL counts the rows of left that have no counterpart in right,
// projecting both sides through the same explicit column list.
func differenceSQL(d database.Dialect, sem Semantics, columns []string, left, right TableIdentifier) string {
	return fmt.Sprintf("SELECT %s FROM (%s %s %s) AS diff",
		d.CountExpr(),
		projection(d, sem, columns, left),
		d.Except(),
		projection(d, sem, columns, right),
	)
}

// projection selects the column list. Under Multiset each row also carries
// its ordinal among identical rows, which makes every tuple distinct so the
// set operator keeps duplicate counts.
func projection(d database.Dialect, sem Semantics, columns []string, t TableIdentifier) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdent(c)
	}
	list := strings.Join(quoted, ", ")

	if sem == Set {
		return fmt.Sprintf("SELECT %s FROM %s", list, qualify(d, t))
	}
	return fmt.Sprintf("SELECT %s, ROW_NUMBER() OVER (PARTITION BY %s ORDER BY %s) AS %s FROM %s",
		list, list, quoted[0], d.QuoteIdent(uniqueAlias(columns)), qualify(d, t))
}

func uniqueAlias(columns []string) string {
	alias := ordinalAlias
	for {
		clash := false
		for _, c := range columns {
			if strings.EqualFold(c, alias) {
				clash = true
				break
			}
		}
		if !clash {
			return alias
		}
		alias += "_"
	}
}
