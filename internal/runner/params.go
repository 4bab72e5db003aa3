// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package runner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"inventoryops/cli/internal/datastore"
	apperrors "inventoryops/cli/internal/errors"
)

// ParamType is the primitive type a raw string parameter is coerced to.
type ParamType string

const (
	TypeString     ParamType = "string"
	TypeInt        ParamType = "int"
	TypeFloat      ParamType = "float"
	TypeBool       ParamType = "bool"
	TypeUUID       ParamType = "uuid"
	TypeIdent      ParamType = "identifier"
	TypeList       ParamType = "list"
	TypeColumns    ParamType = "columns"
	TypePredicates ParamType = "predicates"
)

// ParamSpec declares one operation parameter.
type ParamSpec struct {
	Name     string
	Type     ParamType
	Required bool
	// Default is coerced like a supplied value when the parameter is absent.
	Default string
	Help    string
	// Check runs after coercion; a non-nil error becomes InvalidParameter.
	Check func(v any) error
}

// Params holds coerced parameter values keyed by name. Absent optional
// parameters without a default have no entry.
type Params map[string]any

// Has reports whether name was supplied or defaulted.
func (p Params) Has(name string) bool {
	_, ok := p[name]
	return ok
}

func (p Params) String(name string) string {
	s, _ := p[name].(string)
	return s
}

func (p Params) Int(name string) int {
	n, _ := p[name].(int)
	return n
}

func (p Params) Float(name string) float64 {
	f, _ := p[name].(float64)
	return f
}

func (p Params) Bool(name string) bool {
	b, _ := p[name].(bool)
	return b
}

func (p Params) UUID(name string) uuid.UUID {
	u, _ := p[name].(uuid.UUID)
	return u
}

func (p Params) List(name string) []string {
	l, _ := p[name].([]string)
	return l
}

func (p Params) Predicates(name string) []datastore.Predicate {
	l, _ := p[name].([]datastore.Predicate)
	return l
}

// coerce converts the raw values of one parameter. Only list-like types
// accept repeated values.
func coerce(spec ParamSpec, raw []string) (any, error) {
	switch spec.Type {
	case TypeList, TypeColumns:
		return splitList(spec, raw)
	case TypePredicates:
		return parsePredicates(raw)
	}

	if len(raw) > 1 {
		return nil, fmt.Errorf("given %d times, expected once", len(raw))
	}
	s := strings.TrimSpace(raw[0])

	switch spec.Type {
	case TypeString, "":
		if s == "" {
			return nil, fmt.Errorf("must not be empty")
		}
		return s, nil
	case TypeIdent:
		if err := datastore.ValidateIdentifier(s); err != nil {
			return nil, err
		}
		return s, nil
	case TypeInt:
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", s)
		}
		return n, nil
	case TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		return f, nil
	case TypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", s)
		}
		return b, nil
	case TypeUUID:
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not a UUID", s)
		}
		return u, nil
	}
	return nil, fmt.Errorf("unsupported parameter type %q", spec.Type)
}

func splitList(spec ParamSpec, raw []string) ([]string, error) {
	var out []string
	for _, r := range raw {
		for _, item := range strings.Split(r, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if spec.Type == TypeColumns && item != "*" {
				if err := datastore.ValidateIdentifier(item); err != nil {
					return nil, err
				}
			}
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("must list at least one value")
	}
	if spec.Type == TypeColumns && len(out) > 1 {
		for _, c := range out {
			if c == "*" {
				return nil, fmt.Errorf("* cannot be combined with named columns")
			}
		}
	}
	return out, nil
}

// parsePredicates accepts repeated values and ';'-separated terms, keeping order.
func parsePredicates(raw []string) ([]datastore.Predicate, error) {
	var out []datastore.Predicate
	for _, r := range raw {
		for _, term := range strings.Split(r, ";") {
			if strings.TrimSpace(term) == "" {
				continue
			}
			p, err := datastore.ParsePredicate(term)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("must contain at least one column:op[:value] term")
	}
	return out, nil
}

// bind validates raw against op's declared parameters.
func bind(op *Operation, raw map[string][]string) (Params, error) {
	for name := range raw {
		if _, ok := op.Param(name); !ok {
			return nil, apperrors.Param(name, "unknown parameter")
		}
	}

	params := Params{}
	for _, spec := range op.Params {
		values, present := raw[spec.Name]
		if !present || len(values) == 0 {
			if spec.Default == "" {
				if spec.Required {
					return nil, apperrors.Param(spec.Name, "required")
				}
				continue
			}
			values = []string{spec.Default}
		}
		v, err := coerce(spec, values)
		if err != nil {
			return nil, apperrors.Param(spec.Name, err.Error())
		}
		if spec.Check != nil {
			if err := spec.Check(v); err != nil {
				return nil, apperrors.Param(spec.Name, err.Error())
			}
		}
		params[spec.Name] = v
	}
	return params, nil
}

// ParseArgs turns "key=value" arguments into raw parameters. Repeated keys accumulate.
func ParseArgs(args []string) (map[string][]string, error) {
	raw := map[string][]string{}
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, apperrors.Param(a, "expected key=value")
		}
		raw[k] = append(raw[k], v)
	}
	return raw, nil
}
