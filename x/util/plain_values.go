package util

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// NullText is how NULL is displayed.
const NullText = "NULL"

// ToPlainValue renders a scanned value for display. Blobs are shown as
// X'..' literals the way the sqlite3 shell quotes them.
func ToPlainValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return NullText
	case string:
		return x
	case []byte:
		return "X'" + hex.EncodeToString(x) + "'"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05")
	}
	return fmt.Sprint(v)
}

// ToPlainValues renders every value of a row.
func ToPlainValues(values []interface{}) []string {
	plain := make([]string, len(values))
	for i, v := range values {
		plain[i] = ToPlainValue(v)
	}
	return plain
}

// ToJSONValue prepares a scanned value for encoding/json. Blobs become hex
// strings instead of base64.
func ToJSONValue(v interface{}) interface{} {
	switch x := v.(type) {
	case []byte:
		return hex.EncodeToString(x)
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05")
	}
	return v
}
