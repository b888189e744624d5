// Smokewatch - Venue Smoke Detection Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smokewatch

package database

import (
	"fmt"
	"math"
	"strings"
)

// Pagination defaults shared by the list queries.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// whereBuilder accumulates AND-ed conditions with PostgreSQL $n placeholders.
// Conditions are written with "?" for each argument; the builder numbers
// them in order of addition.
//
// Example:
//
//	w := &whereBuilder{}
//	w.add("venue_id = ?", venueID)
//	w.add("detected_at BETWEEN ? AND ?", start, end)
//	// w.sql() = " WHERE venue_id = $1 AND detected_at BETWEEN $2 AND $3"
type whereBuilder struct {
	conditions []string
	args       []interface{}
}

func (w *whereBuilder) add(condition string, args ...interface{}) {
	var b strings.Builder
	next := 0
	for _, r := range condition {
		if r == '?' && next < len(args) {
			w.args = append(w.args, args[next])
			next++
			fmt.Fprintf(&b, "$%d", len(w.args))
			continue
		}
		b.WriteRune(r)
	}
	w.conditions = append(w.conditions, b.String())
}

// arg appends a bare argument and returns its placeholder, for LIMIT and
// OFFSET clauses that follow the WHERE clause.
func (w *whereBuilder) arg(v interface{}) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) sql() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conditions, " AND ")
}

// orderBy resolves a client sort key against a whitelist of SQL
// expressions. Unknown keys fall back to def; order is DESC unless "ASC".
func orderBy(sortBy, sortOrder string, columns map[string]string, def string) string {
	col, ok := columns[sortBy]
	if !ok {
		col = columns[def]
	}
	dir := "DESC"
	if strings.EqualFold(sortOrder, "ASC") {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s NULLS LAST", col, dir)
}

// normalizePage applies pagination defaults and bounds.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	// keep (page-1)*limit inside a PostgreSQL integer OFFSET
	if maxPage := math.MaxInt32 / limit; page > maxPage {
		page = maxPage
	}
	return page, limit
}

// paginate appends LIMIT/OFFSET placeholders to w and returns the clause.
func (w *whereBuilder) paginate(page, limit int) string {
	page, limit = normalizePage(page, limit)
	return fmt.Sprintf(" LIMIT %s OFFSET %s", w.arg(limit), w.arg((page-1)*limit))
}
