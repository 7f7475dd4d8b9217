package expression

import (
	"errors"
	"math"

	"github.com/expr-lang/expr"
)

var (
	errOverflow       = errors.New("integer overflow")
	errDivisionByZero = errors.New("division by zero")
)

// integerEnv replaces the arithmetic operators for integer operands by
// checked versions. Division truncates toward zero instead of producing
// a float.
var integerEnv = map[string]any{
	"add":  add,
	"sub":  sub,
	"mul":  mul,
	"idiv": idiv,
	"imod": imod,
}

var integerOperators = []expr.Option{
	expr.Env(integerEnv),
	expr.Operator("+", "add"),
	expr.Operator("-", "sub"),
	expr.Operator("*", "mul"),
	expr.Operator("/", "idiv"),
	expr.Operator("%", "imod"),
}

func add(a, b int) (int, error) {
	if (b > 0 && a > math.MaxInt-b) || (b < 0 && a < math.MinInt-b) {
		return 0, errOverflow
	}
	return a + b, nil
}

func sub(a, b int) (int, error) {
	if (b < 0 && a > math.MaxInt+b) || (b > 0 && a < math.MinInt+b) {
		return 0, errOverflow
	}
	return a - b, nil
}

func mul(a, b int) (int, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if (a == -1 && b == math.MinInt) || (b == -1 && a == math.MinInt) {
		return 0, errOverflow
	}
	c := a * b
	if c/b != a {
		return 0, errOverflow
	}
	return c, nil
}

func idiv(a, b int) (int, error) {
	if b == 0 {
		return 0, errDivisionByZero
	}
	if a == math.MinInt && b == -1 {
		return 0, errOverflow
	}
	return a / b, nil
}

func imod(a, b int) (int, error) {
	if b == 0 {
		return 0, errDivisionByZero
	}
	if b == -1 {
		return 0, nil
	}
	return a % b, nil
}
