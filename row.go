package sqlcipher

import (
	"bytes"
	"encoding/json"
)

// Row is one result row. Keys is nil for tuple rows and holds the column
// names, in column order, for dict rows.
type Row struct {
	Keys   []string
	Values []interface{}
}

// Get returns the value of the named column. It reports false for tuple rows
// and unknown names.
func (r Row) Get(name string) (interface{}, bool) {
	for i, k := range r.Keys {
		if k == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map returns a dict row as a map. Column order is lost.
func (r Row) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.Keys))
	for i, k := range r.Keys {
		m[k] = r.Values[i]
	}
	return m
}

// MarshalJSON renders tuple rows as arrays and dict rows as objects whose
// members keep column order.
func (r Row) MarshalJSON() ([]byte, error) {
	if r.Keys == nil {
		if r.Values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(r.Values)
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func newRows(keys []string, values [][]interface{}) []Row {
	rows := make([]Row, len(values))
	for i, v := range values {
		rows[i] = Row{Keys: keys, Values: v}
	}
	return rows
}
