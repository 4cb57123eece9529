package domain

import (
	"log/slog"
	"time"
)

// ParamKind identifies which variant a Param holds.
type ParamKind uint8

const (
	// ParamNull is SQL NULL.
	ParamNull ParamKind = iota
	// ParamText is a string bound as text.
	ParamText
	// ParamInt is a 64-bit signed integer.
	ParamInt
	// ParamFloat is a double precision float.
	ParamFloat
	// ParamBool is a boolean.
	ParamBool
	// ParamTime is a timestamp.
	ParamTime
	// ParamBytes is binary data bound as bytea.
	ParamBytes
	// ParamTextArray is a text[] array.
	ParamTextArray
	// ParamIntArray is a bigint[] array.
	ParamIntArray
)

var paramKindNames = [...]string{"null", "text", "int", "float", "bool", "time", "bytes", "text[]", "int[]"}

// String returns the kind's type name, "unknown" when out of range.
func (k ParamKind) String() string {
	if int(k) < len(paramKindNames) {
		return paramKindNames[k]
	}
	return "unknown"
}

// Param is a bound statement parameter. Construct it with one of the
// typed constructors; the zero value is SQL NULL.
//
// Param never prints its value: String and LogValue only show the kind.
type Param struct {
	kind  ParamKind
	value any
}

// Null returns a SQL NULL parameter.
func Null() Param { return Param{kind: ParamNull} }

// Text returns a text parameter.
func Text(v string) Param { return Param{kind: ParamText, value: v} }

// Int returns a bigint parameter.
func Int(v int64) Param { return Param{kind: ParamInt, value: v} }

// Float returns a double precision parameter.
func Float(v float64) Param { return Param{kind: ParamFloat, value: v} }

// Bool returns a boolean parameter.
func Bool(v bool) Param { return Param{kind: ParamBool, value: v} }

// Time returns a timestamp parameter.
func Time(v time.Time) Param { return Param{kind: ParamTime, value: v} }

// Bytes returns a bytea parameter.
func Bytes(v []byte) Param { return Param{kind: ParamBytes, value: v} }

// TextArray returns a text[] parameter.
func TextArray(v []string) Param { return Param{kind: ParamTextArray, value: v} }

// IntArray returns a bigint[] parameter.
func IntArray(v []int64) Param { return Param{kind: ParamIntArray, value: v} }

// Kind returns the variant held by p.
func (p Param) Kind() ParamKind { return p.kind }

// Value returns the driver value, nil for NULL.
func (p Param) Value() any { return p.value }

// String shows the kind only.
func (p Param) String() string { return "<" + p.kind.String() + ">" }

// LogValue implements slog.LogValuer.
func (p Param) LogValue() slog.Value { return slog.StringValue(p.String()) }

// Args converts params to driver arguments in order.
func Args(params []Param) []any {
	if len(params) == 0 {
		return nil
	}
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = p.value
	}
	return args
}
