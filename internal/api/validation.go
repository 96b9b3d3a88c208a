package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"oblik/internal/entity"
	"oblik/internal/store"
)

type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Коды ошибок валидации
const (
	ErrRequired     = "required"
	ErrTypeMismatch = "type_mismatch"
	ErrUnknownField = "unknown_field"
	ErrRefNotFound  = "ref_not_found"
	ErrNotFound     = "not_found"
)

func ferr(code, field, msg string) FieldError {
	return FieldError{Code: code, Field: field, Message: msg}
}

func statusForErrors(errs []FieldError) int {
	for _, e := range errs {
		if e.Code == ErrRefNotFound {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusBadRequest
}

// ValidateAgainstSchema проверяет полезную нагрузку create-запроса:
// required-поля, известность имён, скалярные типы и разрешимость ссылок.
func ValidateAgainstSchema(st *store.Storage, schema *entity.Schema, obj map[string]any) []FieldError {
	var errs []FieldError

	// 1) required
	for _, f := range schema.OrderedFields() {
		if f.Required {
			if _, ok := obj[f.Name]; !ok {
				errs = append(errs, ferr(ErrRequired, f.Name, "Field '"+f.Name+"' is required"))
			}
		}
	}

	// 2) типы и ссылки
	for name, val := range obj {
		f := schema.FindField(name)
		if f == nil {
			errs = append(errs, ferr(ErrUnknownField, name, "Unknown field"))
			continue
		}
		if val == nil {
			continue
		}

		switch f.Kind {
		case entity.ToOne:
			id, ok := val.(string)
			if !ok {
				errs = append(errs, ferr(ErrTypeMismatch, name, "Expected ref id (string)"))
				continue
			}
			if id != "" && !refExists(st, f.RefTarget, id) {
				errs = append(errs, ferr(ErrRefNotFound, name, fmt.Sprintf("Referenced %s %q not found", f.RefTarget, id)))
			}
		case entity.ToMany:
			ids, ok := asStringSlice(val)
			if !ok {
				errs = append(errs, ferr(ErrTypeMismatch, name, "Expected array of ref ids"))
				continue
			}
			for _, id := range ids {
				if !refExists(st, f.RefTarget, id) {
					errs = append(errs, ferr(ErrRefNotFound, name, fmt.Sprintf("Referenced %s %q not found", f.RefTarget, id)))
				}
			}
		default:
			if e := checkScalar(f, name, val); e != nil {
				errs = append(errs, *e)
			}
		}
	}

	return errs
}

func refExists(st *store.Storage, target, id string) bool {
	fqn, ok := st.NormalizeEntityName("", target)
	if !ok {
		return false
	}
	return st.Exists(fqn, id)
}

func asStringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			s, ok := it.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// checkScalar — нестрогая проверка примитивов (JSON-числа приходят как float64).
func checkScalar(f *entity.FieldDescriptor, name string, val any) *FieldError {
	bad := func(want string) *FieldError {
		e := ferr(ErrTypeMismatch, name, "Expected "+want)
		return &e
	}
	switch f.Type {
	case "string", "text":
		if _, ok := val.(string); !ok {
			return bad("string")
		}
	case "int":
		switch t := val.(type) {
		case float64:
			if t != float64(int64(t)) {
				return bad("integer")
			}
		case int, int64:
		default:
			return bad("integer")
		}
	case "float":
		switch val.(type) {
		case float64, int, int64:
		default:
			return bad("number")
		}
	case "bool":
		if _, ok := val.(bool); !ok {
			return bad("boolean")
		}
	case "date":
		s, ok := val.(string)
		if !ok {
			return bad("date (YYYY-MM-DD)")
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return bad("date (YYYY-MM-DD)")
		}
	case "datetime":
		s, ok := val.(string)
		if !ok {
			return bad("datetime (RFC3339)")
		}
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return bad("datetime (RFC3339)")
		}
	default:
		// array[...] и прочие составные типы не проверяем поэлементно
		if strings.HasPrefix(f.Type, "array[") {
			if _, ok := val.([]any); !ok {
				if _, ok := val.([]string); !ok {
					return bad("array")
				}
			}
		}
	}
	return nil
}
