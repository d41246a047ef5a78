package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect captures what differs between the SQL backends
type Dialect struct {
	// DriverName is passed to sql.Open
	DriverName string
	// Schema creates the tables if they don't exist
	Schema string
	// InitStatements run once after opening, before the schema
	InitStatements []string
	// NumberedPlaceholders rewrites ? into $1, $2, ...
	NumberedPlaceholders bool
}

// maxInArgs keeps IN lists well under SQLite's bound parameter limit
const maxInArgs = 500

// placeholders returns n comma separated ? placeholders for an IN list
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Rebind rewrites a query written with ? placeholders for the dialect
func (d Dialect) Rebind(query string) string {
	if !d.NumberedPlaceholders {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
