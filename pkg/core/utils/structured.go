package utils

import (
	"encoding/json"
	"errors"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// ErrUnparseable is returned by SmartParse when no decoder accepts the input.
var ErrUnparseable = errors.New("model output is not JSON")

// RepairJSON fixes the JSON mistakes models tend to make: unquoted keys,
// single quotes, trailing commas, comments and unclosed brackets.
func RepairJSON(raw string) (string, error) {
	fixed, err := jsonrepair.RepairJSON(raw)
	if err != nil {
		return "", fmt.Errorf("repair json: %w", err)
	}
	return fixed, nil
}

// ParseHJSON reads Hjson and re-encodes it as strict JSON.
func ParseHJSON(raw string) (string, error) {
	var v interface{}
	if err := hjson.Unmarshal([]byte(raw), &v); err != nil {
		return "", fmt.Errorf("parse hjson: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode hjson as json: %w", err)
	}
	return string(out), nil
}

type decoder struct {
	name    string
	convert func(string) (string, error)
}

var decoders = []decoder{
	{"json", func(s string) (string, error) { return s, nil }},
	{"repaired json", RepairJSON},
	{"hjson", ParseHJSON},
}

// SmartParse decodes a model answer into dst, trying strict JSON, then
// repaired JSON, then Hjson. It returns the JSON text that decoded.
func SmartParse(input string, dst interface{}) (string, error) {
	var errs []error
	for _, d := range decoders {
		text, err := d.convert(input)
		if err == nil {
			if err = json.Unmarshal([]byte(text), dst); err == nil {
				return text, nil
			}
		}
		errs = append(errs, fmt.Errorf("%s: %w", d.name, err))
	}
	return "", fmt.Errorf("%w: %w", ErrUnparseable, errors.Join(errs...))
}
