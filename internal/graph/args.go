package graph

import (
	"fmt"
	"math"

	"shopql.org/internal/gqlerr"
)

// Variables arrive as decoded JSON, so numbers are float64. These helpers
// coerce and validate them; a missing required argument is a client error.

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", gqlerr.Validation(fmt.Sprintf("argument %q is required", key))
	}
	s, ok := v.(string)
	if !ok {
		return "", gqlerr.Validation(fmt.Sprintf("argument %q must be a string", key))
	}
	return s, nil
}

func optionalStringArg(args map[string]any, key string) (*string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, gqlerr.Validation(fmt.Sprintf("argument %q must be a string", key))
	}
	return &s, nil
}

func intArg(args map[string]any, key string) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, gqlerr.Validation(fmt.Sprintf("argument %q is required", key))
	}
	return coerceInt(key, v)
}

func optionalIntArg(args map[string]any, key string) (*int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	n, err := coerceInt(key, v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func coerceInt(key string, v any) (int, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, gqlerr.Validation(fmt.Sprintf("argument %q must be an integer", key))
		}
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, gqlerr.Validation(fmt.Sprintf("argument %q must be an integer", key))
	}
}

func floatArg(args map[string]any, key string) (float64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, gqlerr.Validation(fmt.Sprintf("argument %q is required", key))
	}
	return coerceFloat(key, v)
}

func optionalFloatArg(args map[string]any, key string) (*float64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	f, err := coerceFloat(key, v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func coerceFloat(key string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, gqlerr.Validation(fmt.Sprintf("argument %q must be a number", key))
	}
}
