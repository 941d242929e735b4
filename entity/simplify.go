// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package entity

import (
	"math/big"
	"time"
)

// SimpleTimeFormat is the layout timestamps are simplified to.
const SimpleTimeFormat = "2006-01-02 15:04:05.999999"

// Simplify converts a value to something a JSON encoder handles
// directly.  Members become their ToSimple() maps; decimals become an
// int64 if they are integral and fit, or a float64 otherwise;
// timestamps and dates become strings; byte slices become strings.
// Slices of members are simplified element-wise.  Anything else is
// returned unchanged.
func Simplify(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case *Member:
		if v == nil {
			return nil, nil
		}
		return v.ToSimple(nil)
	case []*Member:
		result := make([]interface{}, len(v))
		for i, m := range v {
			simple, err := m.ToSimple(nil)
			if err != nil {
				return nil, err
			}
			result[i] = simple
		}
		return result, nil
	case *big.Rat:
		if v == nil {
			return nil, nil
		}
		if v.IsInt() && v.Num().IsInt64() {
			return v.Num().Int64(), nil
		}
		f, _ := v.Float64()
		return f, nil
	case time.Time:
		return v.Format(SimpleTimeFormat), nil
	case Date:
		return v.String(), nil
	case []byte:
		return string(v), nil
	}
	return value, nil
}
