package db

import (
	"github.com/jackc/pgx/v5"

	"dbaccess/src/core/domain"
)

// collect drains rows into a RowSet and always closes them.
func collect(rows pgx.Rows, err error) (*domain.RowSet, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	rs := &domain.RowSet{
		Columns: make([]string, len(fields)),
		Rows:    [][]any{},
	}
	for i, f := range fields {
		rs.Columns[i] = f.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rs.RowsAffected = rows.CommandTag().RowsAffected()
	return rs, nil
}
