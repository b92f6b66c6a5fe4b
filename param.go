package sqlcipher

import (
	"database/sql/driver"
	"fmt"
	"math"
	"time"
)

// Param is a statement parameter in one of the shapes the driver knows how to
// bind. The set of implementations is closed: the native Null, Int, Float,
// Text, Blob and Bool plus the temporal and binary adapters.
type Param interface {
	ToSQL() (driver.Value, error)
	param()
}

type Null struct{}

type Int int64

type Float float64

type Text string

type Blob []byte

type Bool bool

func (Null) ToSQL() (driver.Value, error) { return nil, nil }

func (i Int) ToSQL() (driver.Value, error) { return int64(i), nil }

func (f Float) ToSQL() (driver.Value, error) { return float64(f), nil }

func (t Text) ToSQL() (driver.Value, error) { return string(t), nil }

func (b Blob) ToSQL() (driver.Value, error) { return Binary(b).ToSQL() }

// SQLite has no boolean storage class.
func (b Bool) ToSQL() (driver.Value, error) {
	if b {
		return int64(1), nil
	}
	return int64(0), nil
}

func (Null) param()               {}
func (Int) param()                {}
func (Float) param()              {}
func (Text) param()               {}
func (Blob) param()               {}
func (Bool) param()               {}
func (Date) param()               {}
func (Time) param()               {}
func (Timestamp) param()          {}
func (DateFromTicks) param()      {}
func (TimeFromTicks) param()      {}
func (TimestampFromTicks) param() {}
func (Binary) param()             {}

// ToParam dispatches a host value onto its Param variant. A time.Time is an
// instant and binds as a UTC Timestamp. A driver.Valuer is asked for its
// value first, so sql.NullString and friends bind as expected. Any other
// shape fails with ProgrammingError.
func ToParam(v interface{}) (Param, error) {
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Param:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(x), nil
	case int8:
		return Int(x), nil
	case int16:
		return Int(x), nil
	case int32:
		return Int(x), nil
	case int64:
		return Int(x), nil
	case uint:
		return unsignedParam(uint64(x))
	case uint8:
		return Int(x), nil
	case uint16:
		return Int(x), nil
	case uint32:
		return Int(x), nil
	case uint64:
		return unsignedParam(x)
	case float32:
		return Float(x), nil
	case float64:
		return Float(x), nil
	case string:
		return Text(x), nil
	case []byte:
		return Blob(x), nil
	case time.Time:
		return timestampOf(x), nil
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return nil, dataError(err, "could not obtain the value of %T: %v", v, err)
		}
		if _, again := dv.(driver.Valuer); again {
			return nil, newError(KindProgramming, "unsupported parameter type %T", v)
		}
		return ToParam(dv)
	}
	return nil, newError(KindProgramming, "unsupported parameter type %T", v)
}

func unsignedParam(u uint64) (Param, error) {
	if u > math.MaxInt64 {
		return nil, dataError(nil, "integer %d overflows a 64-bit signed integer", u)
	}
	return Int(u), nil
}

// bindValues converts params into driver values in order. The first failure
// aborts the conversion.
func bindValues(params []interface{}) ([]interface{}, error) {
	args := make([]interface{}, len(params))
	for i, v := range params {
		p, err := ToParam(v)
		if err != nil {
			return nil, annotateParam(err, i)
		}
		dv, err := p.ToSQL()
		if err != nil {
			return nil, annotateParam(err, i)
		}
		args[i] = dv
	}
	return args, nil
}

func annotateParam(err error, index int) error {
	if e, ok := err.(*Error); ok {
		c := *e
		c.Msg = fmt.Sprintf("parameter %d: %s", index+1, e.Msg)
		return &c
	}
	return err
}
