package postgres

import (
	"fmt"
	"strings"
)

// ownerScope builds a WHERE clause whose first condition is always
// owner_id = $1. Every media query goes through it so none can skip the
// owner check.
type ownerScope struct {
	conds []string
	args  []any
}

func scopedTo(ownerID string) *ownerScope {
	return &ownerScope{
		conds: []string{"owner_id = $1"},
		args:  []any{ownerID},
	}
}

// and adds "column = value" to the clause.
func (s *ownerScope) and(column string, value any) *ownerScope {
	s.conds = append(s.conds, fmt.Sprintf("%s = %s", column, s.arg(value)))
	return s
}

// arg binds value and returns its placeholder without adding a condition.
func (s *ownerScope) arg(value any) string {
	s.args = append(s.args, value)
	return fmt.Sprintf("$%d", len(s.args))
}

func (s *ownerScope) where() string {
	return " WHERE " + strings.Join(s.conds, " AND ")
}
