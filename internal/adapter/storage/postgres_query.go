// internal/adapter/storage/postgres_query.go

package storage

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"safetails/internal/domain/proximity"
	"safetails/internal/domain/record"
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// pgQuery is a count and data statement pair sharing one WHERE clause
type pgQuery struct {
	count     string
	countArgs []any
	data      string
	dataArgs  []any
}

// pgBuilder accumulates positional arguments
type pgBuilder struct {
	args []any
}

func (b *pgBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// pgColumn returns the SQL expression reading a field as text
func pgColumn(field string) (string, error) {
	if field == record.FieldID {
		return "id", nil
	}
	if !fieldNamePattern.MatchString(field) {
		return "", fmt.Errorf("invalid field name %q", field)
	}
	return fmt.Sprintf("doc->>'%s'", field), nil
}

// buildPostgresQuery renders the statements for one page of a table
func buildPostgresQuery(table string, circle *proximity.Circle, criteria proximity.Criteria) (*pgQuery, error) {
	b := &pgBuilder{}

	var where []string
	if circle != nil {
		where = append(where, fmt.Sprintf(
			"ST_DWithin(location, ST_SetSRID(ST_MakePoint(%s, %s), 4326)::geography, %s, false)",
			b.arg(circle.Center.Longitude), b.arg(circle.Center.Latitude), b.arg(circle.Meters()),
		))
	}

	for _, c := range criteria.Conditions {
		clause, err := pgCondition(b, c)
		if err != nil {
			return nil, err
		}
		where = append(where, clause)
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	q := &pgQuery{
		count:     fmt.Sprintf("SELECT count(*) FROM %s%s", table, whereSQL),
		countArgs: append([]any(nil), b.args...),
	}

	orderSQL, err := pgOrderBy(b, criteria.Sort)
	if err != nil {
		return nil, err
	}

	data := fmt.Sprintf("SELECT doc FROM %s%s%s", table, whereSQL, orderSQL)
	if criteria.Skip > 0 {
		data += " OFFSET " + b.arg(criteria.Skip)
	}
	if criteria.Limit > 0 {
		data += " LIMIT " + b.arg(criteria.Limit)
	}

	q.data = data
	q.dataArgs = b.args

	return q, nil
}

func pgCondition(b *pgBuilder, c proximity.Condition) (string, error) {
	col, err := pgColumn(c.Field)
	if err != nil {
		return "", err
	}

	switch c.Op {
	case proximity.OpEq:
		if c.Field == record.FieldID {
			return fmt.Sprintf("id = %s", b.arg(fmt.Sprint(c.Value))), nil
		}
		contained, err := json.Marshal(map[string]any{c.Field: c.Value})
		if err != nil {
			return "", fmt.Errorf("error marshaling condition on %s: %w", c.Field, err)
		}
		return fmt.Sprintf("doc @> %s::jsonb", b.arg(string(contained))), nil

	case proximity.OpIn:
		return fmt.Sprintf("%s = ANY(%s)", col, b.arg(c.Values)), nil

	case proximity.OpAnyOf:
		return fmt.Sprintf("doc->'%s' ?| %s", c.Field, b.arg(c.Values)), nil

	case proximity.OpContainsFold:
		text, _ := c.Value.(string)
		return fmt.Sprintf("%s ILIKE %s", col, b.arg("%"+likeEscaper.Replace(text)+"%")), nil
	}

	return "", fmt.Errorf("unsupported operator %q on %s", c.Op, c.Field)
}

func pgOrderBy(b *pgBuilder, keys []proximity.SortKey) (string, error) {
	if len(keys) == 0 {
		return "", nil
	}

	terms := make([]string, 0, len(keys))
	for _, k := range keys {
		col, err := pgColumn(k.Field)
		if err != nil {
			return "", err
		}

		expr := col
		switch k.Type {
		case proximity.SortRank:
			var sb strings.Builder
			sb.WriteString("CASE " + col)
			for i, v := range k.Rank {
				fmt.Fprintf(&sb, " WHEN %s THEN %d", b.arg(v), i+1)
			}
			sb.WriteString(" ELSE 0 END")
			expr = sb.String()
		case proximity.SortNumber:
			expr = fmt.Sprintf("(%s)::double precision", col)
		case proximity.SortBool:
			expr = fmt.Sprintf("(%s)::boolean", col)
		case proximity.SortTime:
			expr = fmt.Sprintf("(%s)::timestamptz", col)
		}

		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		terms = append(terms, fmt.Sprintf("%s %s NULLS LAST", expr, dir))
	}

	return " ORDER BY " + strings.Join(terms, ", "), nil
}
