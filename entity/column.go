// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package entity

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/satori/go.uuid"
)

// ColumnType names the storage type of a column.  It determines how
// request strings are converted into column values.
type ColumnType string

const (
	// Integer columns hold int64 values.
	Integer ColumnType = "integer"

	// Decimal columns hold exact *big.Rat values.
	Decimal ColumnType = "decimal"

	// Float columns hold float64 values.
	Float ColumnType = "float"

	// Text columns hold string values.  This is the default type.
	Text ColumnType = "text"

	// Boolean columns hold bool values.
	Boolean ColumnType = "boolean"

	// Timestamp columns hold time.Time values.
	Timestamp ColumnType = "timestamp"

	// DateType columns hold Date values.
	DateType ColumnType = "date"

	// UUID columns hold canonical string forms of UUIDs.
	UUID ColumnType = "uuid"
)

// Column describes one stored attribute of a kind.
type Column struct {
	// Name is the attribute and database column name.
	Name string `mapstructure:"name"`

	// Type is the column's storage type; if empty, Text.
	Type ColumnType `mapstructure:"type"`

	// Default, if non-nil, is assigned to new members.  It is
	// converted with Convert().
	Default interface{} `mapstructure:"default"`

	// Private columns are stored but not part of the kind's
	// public names, and so are not serialized by default.
	Private bool `mapstructure:"private"`
}

// Date is a calendar date with no time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the date part of a time.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight UTC on the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func parseTime(s string) (t time.Time, err error) {
	for _, layout := range timeLayouts {
		t, err = time.Parse(layout, s)
		if err == nil {
			return
		}
	}
	return
}

// ParseBool interprets the usual spellings of true and false: 1, t,
// y, yes, on, true, and 0, f, n, no, off, false, nil (case
// insensitive).
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "y", "yes", "on", "true":
		return true, nil
	case "0", "f", "n", "no", "off", "false", "nil":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

// Convert converts a value to this column's type.  Strings are parsed;
// numbers, booleans, and times of compatible types are converted
// directly, which covers values decoded from JSON request bodies and
// values scanned from a database.  nil stays nil.  On failure returns
// ErrBadValue.
func (c Column) Convert(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	if b, isBytes := value.([]byte); isBytes {
		value = string(b)
	}
	var (
		result interface{}
		err    error
	)
	switch c.Type {
	case "", Text:
		result = fmt.Sprint(value)
	case Integer:
		result, err = toInt(value)
	case Float:
		result, err = toFloat(value)
	case Decimal:
		result, err = toRat(value)
	case Boolean:
		switch v := value.(type) {
		case bool:
			result = v
		case string:
			result, err = ParseBool(v)
		default:
			var i int64
			i, err = toInt(v)
			result = i != 0
		}
	case Timestamp:
		switch v := value.(type) {
		case time.Time:
			result = v
		case Date:
			result = v.Time()
		case string:
			result, err = parseTime(v)
		default:
			err = fmt.Errorf("not a timestamp")
		}
	case DateType:
		switch v := value.(type) {
		case Date:
			result = v
		case time.Time:
			result = DateOf(v)
		case string:
			var t time.Time
			t, err = parseTime(v)
			result = DateOf(t)
		default:
			err = fmt.Errorf("not a date")
		}
	case UUID:
		var u uuid.UUID
		u, err = uuid.FromString(fmt.Sprint(value))
		result = u.String()
	default:
		err = fmt.Errorf("unknown column type %q", c.Type)
	}
	if err != nil {
		return nil, ErrBadValue{Column: c.Name, Value: fmt.Sprint(value), Err: err}
	}
	return result, nil
}

func toInt(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("integer overflow")
		}
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("not an integer")
		}
		return int64(v), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	}
	return 0, fmt.Errorf("not an integer")
}

func toFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case *big.Rat:
		f, _ := v.Float64()
		return f, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	return 0, fmt.Errorf("not a number")
}

func toRat(value interface{}) (*big.Rat, error) {
	r := new(big.Rat)
	switch v := value.(type) {
	case *big.Rat:
		return r.Set(v), nil
	case int:
		return r.SetInt64(int64(v)), nil
	case int64:
		return r.SetInt64(v), nil
	case uint64:
		return r.SetFrac(new(big.Int).SetUint64(v), big.NewInt(1)), nil
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, fmt.Errorf("not a finite number")
		}
		return r.SetFloat64(v), nil
	case string:
		if _, ok := r.SetString(strings.TrimSpace(v)); !ok {
			return nil, fmt.Errorf("not a decimal")
		}
		return r, nil
	}
	return nil, fmt.Errorf("not a decimal")
}
