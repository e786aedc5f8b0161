// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package translate

import (
	"strings"

	"pgshim/cli/internal/errors"
)

// Rule is one entry of the substitution table. Several rules may share a
// name; they are tried in table order and the first one whose Apply accepts
// the call wins.
type Rule struct {
	// Name is the MySQL function name, matched case-insensitively.
	Name string
	// Arity is the required argument count, or -1 for any.
	Arity int
	// Apply renders the replacement for the whole call. Returning false
	// leaves the call as written.
	Apply func(c *Call) (string, bool)
}

// DefaultRules returns the MySQL to PostgreSQL function table.
func DefaultRules() []Rule {
	return []Rule{
		booleanAggregate("SUM"),
		booleanAggregate("AVG"),

		datePart("YEAR", "YEAR"),
		datePart("MONTH", "MONTH"),
		datePart("DAY", "DAY"),
		datePart("DAYOFMONTH", "DAY"),
		datePart("HOUR", "HOUR"),
		datePart("MINUTE", "MINUTE"),
		datePart("SECOND", "SECOND"),

		niladic("CURDATE", "CURRENT_DATE"),
		niladic("CURRENT_DATE", "CURRENT_DATE"),
		niladic("NOW", "CURRENT_TIMESTAMP"),
		niladic("CURRENT_TIMESTAMP", "CURRENT_TIMESTAMP"),
		niladic("CURTIME", "CURRENT_TIME"),
		niladic("LAST_INSERT_ID", "LASTVAL()"),

		rename("IFNULL", "COALESCE", 2),
		rename("JSON_EXTRACT", "JSONB_PATH_QUERY_FIRST", 2),

		{Name: "IF", Arity: 3, Apply: func(c *Call) (string, bool) {
			return "CASE WHEN " + c.Arg(0) + " THEN " + c.Arg(1) + " ELSE " + c.Arg(2) + " END", true
		}},
	}
}

// booleanAggregate counts rows matching a comparison, which MySQL allows by
// treating booleans as 0/1. Arguments that already hold a CASE are left
// alone so the rule is idempotent.
func booleanAggregate(name string) Rule {
	return Rule{Name: name, Arity: 1, Apply: func(c *Call) (string, bool) {
		if c.NullSafeEquals(0) {
			c.Note(errors.UnsupportedConstruct, "%s over <=> has no translation; left as written", strings.ToUpper(c.Name))
			return "", false
		}
		if !c.Compares(0) || c.Mentions(0, "CASE") {
			return "", false
		}
		return c.Name + "(CASE WHEN " + c.Arg(0) + " THEN 1 ELSE 0 END)", true
	}}
}

func datePart(name, field string) Rule {
	return Rule{Name: name, Arity: 1, Apply: func(c *Call) (string, bool) {
		return "EXTRACT(" + field + " FROM " + c.Arg(0) + ")", true
	}}
}

// niladic replaces an empty call with a target keyword. Calls with a
// precision argument, such as NOW(3), are left as written.
func niladic(name, keyword string) Rule {
	return Rule{Name: name, Arity: -1, Apply: func(c *Call) (string, bool) {
		if c.NumArgs() != 0 {
			return "", false
		}
		return keyword, true
	}}
}

func rename(name, target string, arity int) Rule {
	return Rule{Name: name, Arity: arity, Apply: func(c *Call) (string, bool) {
		return target + "(" + c.Args() + ")", true
	}}
}

func indexRules(rules []Rule) map[string][]Rule {
	index := make(map[string][]Rule, len(rules))
	for _, r := range rules {
		key := strings.ToUpper(r.Name)
		index[key] = append(index[key], r)
	}
	return index
}
