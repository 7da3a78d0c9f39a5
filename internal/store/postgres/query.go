package postgres

import (
	"strconv"
	"strings"

	"github.com/gosuda/hrm/internal/domain"
)

// conds accumulates AND-ed WHERE clauses with positional arguments.
type conds struct {
	clauses []string
	args    []any
}

// arg appends v and returns its placeholder.
func (c *conds) arg(v any) string {
	c.args = append(c.args, v)
	return "$" + strconv.Itoa(len(c.args))
}

func (c *conds) add(clause string) {
	c.clauses = append(c.clauses, clause)
}

// search matches term case-insensitively against any of cols.
func (c *conds) search(term string, cols ...string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	p := c.arg("%" + escapeLike(term) + "%")
	ors := make([]string, len(cols))
	for i, col := range cols {
		ors[i] = col + " ILIKE " + p
	}
	c.add("(" + strings.Join(ors, " OR ") + ")")
}

func (c *conds) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// page appends LIMIT/OFFSET for p.
func (c *conds) page(p domain.Page) string {
	return " LIMIT " + c.arg(p.Limit) + " OFFSET " + c.arg(p.Offset())
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
