package session

import (
	"fmt"
	"net/url"
	"reflect"
	"time"
)

// encodeParams adds params to query, skipping nil values. Slices expand to repeated keys.
func encodeParams(query url.Values, params Params) {
	for key, value := range params {
		rv, ok := deref(value)
		if !ok {
			continue
		}
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
			for i := 0; i < rv.Len(); i++ {
				elem, ok := deref(rv.Index(i).Interface())
				if !ok {
					continue
				}
				query.Add(key, formatParam(elem))
			}
			continue
		}
		query.Add(key, formatParam(rv))
	}
}

func deref(value any) (reflect.Value, bool) {
	if value == nil {
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return reflect.Value{}, false
		}
	}
	return rv, true
}

func formatParam(rv reflect.Value) string {
	switch v := rv.Interface().(type) {
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
