// Package query applies jq expressions to API results for the command-line tool.
package query

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itchyny/gojq"
)

// Filter is a compiled jq expression.
type Filter struct {
	expression string
	code       *gojq.Code
}

// Compile parses and compiles a jq expression.
func Compile(expression string) (*Filter, error) {
	parsed, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}

	return &Filter{expression: expression, code: code}, nil
}

// Run applies the filter to v. v is first converted to its generic JSON form
// so struct field names follow their json tags. It returns every value the
// expression emits; the first runtime error stops the run.
func (f *Filter) Run(v any) ([]any, error) {
	input, err := toGeneric(v)
	if err != nil {
		return nil, err
	}

	values := make([]any, 0)
	iter := f.code.Run(input)
	for {
		out, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := out.(error); isErr {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				break
			}
			return values, fmt.Errorf("jq %q: %w", f.expression, err)
		}
		values = append(values, out)
	}

	return values, nil
}

func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding input: %w", err)
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("decoding input: %w", err)
	}
	return generic, nil
}
