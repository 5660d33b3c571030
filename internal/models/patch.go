package models

import (
	"bytes"
	"encoding/json"
	"reflect"

	"gorm.io/gorm/schema"
)

// Field is one column of a partial update. The zero value leaves the column
// untouched; Null writes NULL.
type Field[T any] struct {
	Set   bool
	Value *T
}

// Set returns a field assigning v.
func Set[T any](v T) Field[T] { return Field[T]{Set: true, Value: &v} }

// Null returns a field clearing the column.
func Null[T any]() Field[T] { return Field[T]{Set: true} }

// Assignment reports the value to write and whether the field was supplied.
func (f Field[T]) Assignment() (any, bool) {
	if !f.Set {
		return nil, false
	}
	if f.Value == nil {
		return nil, true
	}
	return *f.Value, true
}

// UnmarshalJSON marks the field as supplied, null included.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

type assigner interface {
	Assignment() (any, bool)
}

var naming = schema.NamingStrategy{}

// Changes flattens a patch struct into the column map gorm's Updates expects.
// Columns come from a `gorm:"column:x"` tag or the default naming strategy.
func Changes(patch any) map[string]any {
	out := map[string]any{}
	v := reflect.Indirect(reflect.ValueOf(patch))
	if v.Kind() != reflect.Struct {
		return out
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		a, ok := v.Field(i).Interface().(assigner)
		if !ok {
			continue
		}
		val, set := a.Assignment()
		if !set {
			continue
		}
		col := schema.ParseTagSetting(sf.Tag.Get("gorm"), ";")["COLUMN"]
		if col == "" {
			col = naming.ColumnName("", sf.Name)
		}
		out[col] = val
	}
	return out
}
