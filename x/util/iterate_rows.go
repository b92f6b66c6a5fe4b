package util

import (
	"github.com/jmoiron/sqlx"
)

// IterateRows calls fn with the values of every remaining row and closes
// rows afterwards. Iteration stops at the first error from fn or the rows.
func IterateRows(rows *sqlx.Rows, fn func([]interface{}) error) error {
	defer rows.Close()
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return err
		}
		if err := fn(values); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return rows.Close()
}

// DrainRows buffers every remaining row.
func DrainRows(rows *sqlx.Rows) ([][]interface{}, error) {
	buffered := [][]interface{}{}
	err := IterateRows(rows, func(values []interface{}) error {
		buffered = append(buffered, values)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buffered, nil
}
