// Package expression converts numeric user input like "0x08000000",
// "256K" or "4K + 0x10" into unsigned 64 bit values.
package expression

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

var (
	ErrExpression     = errors.New("invalid expression")
	ErrNegativeResult = errors.New("expression result is negative")
)

// Error describes a failed evaluation of an input string.
type Error struct {
	Input string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("evaluating '%s': %s", e.Input, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var kilobytes = regexp.MustCompile(`([0-9]+)K`)

// Rewrite replaces every number that is directly followed by a K with
// a multiplication by 1024, for example "4K" becomes "(4 * 1024)".
func Rewrite(s string) string {
	return kilobytes.ReplaceAllString(s, "($1 * 1024)")
}

// Evaluate returns the value of the given expression. An empty string
// evaluates to 0. Plain decimal and 0x prefixed hexadecimal numbers cover
// the full unsigned 64 bit range, arithmetic expressions are evaluated on
// signed 64 bit integers with truncating division and fail on overflow.
func Evaluate(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if value, ok := parseLiteral(s); ok {
		return value, nil
	}

	result, err := eval(Rewrite(s))
	if err != nil {
		return 0, &Error{Input: s, Err: fmt.Errorf("%w: %s", ErrExpression, err)}
	}

	value, err := toInt64(result)
	if err != nil {
		return 0, &Error{Input: s, Err: err}
	}
	if value < 0 {
		return 0, &Error{Input: s, Err: fmt.Errorf("%w: %d", ErrNegativeResult, value)}
	}
	return uint64(value), nil
}

func eval(source string) (any, error) {
	program, err := expr.Compile(source, integerOperators...)
	if err != nil {
		return nil, err
	}
	return expr.Run(program, integerEnv)
}

func parseLiteral(s string) (uint64, bool) {
	var (
		value uint64
		err   error
	)
	if hex, ok := strings.CutPrefix(s, "0x"); ok {
		value, err = strconv.ParseUint(hex, 16, 64)
	} else {
		value, err = strconv.ParseUint(s, 10, 64)
	}
	return value, err == nil
}

// toInt64 converts the result of an evaluation. Floats only result from
// operators without an integer version and are rejected.
func toInt64(result any) (int64, error) {
	switch v := result.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, fmt.Errorf("%w: result %d out of range", ErrExpression, v)
		}
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: result %d out of range", ErrExpression, v)
		}
		return int64(v), nil
	case float64:
		return 0, fmt.Errorf("%w: result %v is not an integer", ErrExpression, v)
	default:
		return 0, fmt.Errorf("%w: unsupported result type %T", ErrExpression, result)
	}
}
