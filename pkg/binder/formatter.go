package binder

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

const (
	tagMax      = "max"
	tagMin      = "min"
	tagOneOf    = "oneof"
	tagRequired = "required"
	tagURL      = "url"
)

func formatUnmarshalTypeError(err *json.UnmarshalTypeError) string {
	return fmt.Sprintf("%q should be of type %s", strings.Trim(err.Field, "."), err.Type)
}

func formatSchemaConversionError(err schema.ConversionError) string {
	return fmt.Sprintf("%q should be of type %s", err.Key, err.Type)
}

// formatValidationError renders the first failed rule of a payload as the
// message returned to clients.
func formatValidationError(err validator.FieldError) string {
	field := err.Field()

	switch err.Tag() {
	case tagRequired:
		return fmt.Sprintf("%q is required", field)
	case tagURL:
		return fmt.Sprintf("%q must be an http or https link", field)
	case tagMax:
		return formatBound(field, "less", err)
	case tagMin:
		return formatBound(field, "greater", err)
	case tagOneOf:
		quoted := strings.Fields(err.Param())
		for i, p := range quoted {
			quoted[i] = fmt.Sprintf("%q", p)
		}
		return fmt.Sprintf("%q must be one of the following: %s", field, strings.Join(quoted, ", "))
	default:
		return fmt.Sprintf("%q is invalid", field)
	}
}

// formatBound describes a min or max rule. Numbers are compared by value,
// strings by characters and slices by elements.
func formatBound(field, direction string, err validator.FieldError) string {
	param := err.Param()

	var unit string
	//exhaustive:ignore
	switch err.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%q must be %s than or equal to %s", field, direction, param)
	case reflect.Slice, reflect.Array:
		unit = "element"
	default:
		unit = "character"
	}
	if param != "1" {
		unit += "s"
	}
	return fmt.Sprintf("%q length must be %s than or equal to %s %s", field, direction, param, unit)
}
