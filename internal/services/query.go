package services

import (
	"strconv"
	"strings"
)

type column struct {
	name  string
	value any
}

// buildUpdateQuery renders an UPDATE of the given columns for the row
// with the given id, returning the listed columns.
func buildUpdateQuery(table string, columns []column, id any, returning string) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, len(columns)+1)

	sb.WriteString("UPDATE ")
	sb.WriteString(table)
	sb.WriteString("\nSET ")
	for i, c := range columns {
		if i > 0 {
			sb.WriteString(",\n    ")
		}
		args = append(args, c.value)
		sb.WriteString(c.name)
		sb.WriteString(" = $")
		sb.WriteString(strconv.Itoa(len(args)))
	}

	args = append(args, id)
	sb.WriteString("\nWHERE id = $")
	sb.WriteString(strconv.Itoa(len(args)))
	sb.WriteString("\nRETURNING ")
	sb.WriteString(returning)

	return sb.String(), args
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
