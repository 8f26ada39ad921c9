package tool

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/chative-tool-agent/agent/contract"
)

const (
	ToolCalculator = "calculator"
)

// Accepts digits, whitespace, decimal points, exponents, operators, and parentheses.
// Anything else (names, quotes, commas, brackets) is rejected before parsing.
var mathExpressionPattern = regexp.MustCompile(`^[\d\s\+\-\*/%\(\)\.eE]+$`)

// EvalError is returned for any input outside the arithmetic grammar.
type EvalError struct {
	Expression string
	Reason     string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("invalid expression: %s: %s", e.Expression, e.Reason)
}

func (e *EvalError) Unwrap() error {
	return contractx.ErrToolFailed
}

// Calculator evaluates decimal arithmetic with + - * / % ** and unary minus.
type Calculator struct{}

var _ contractx.Tool = Calculator{}

func (Calculator) Name() string {
	return ToolCalculator
}

func (Calculator) Description() string {
	return "Evaluate an arithmetic expression built from decimal numbers, + - * / % **, unary minus and parentheses."
}

func (Calculator) Invoke(ctx context.Context, input string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return Evaluate(input)
}

// Evaluate parses and computes expression. It never executes anything other
// than the fixed arithmetic grammar.
func Evaluate(expression string) (float64, error) {
	trimmed := strings.TrimSpace(expression)
	if err := validateMathExpression(trimmed); err != nil {
		return 0, &EvalError{Expression: expression, Reason: err.Error()}
	}

	result, err := evaluateMathExpression(trimmed)
	if err != nil {
		return 0, &EvalError{Expression: expression, Reason: err.Error()}
	}
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return 0, &EvalError{Expression: expression, Reason: "result is not a finite number"}
	}
	return result, nil
}

func validateMathExpression(expression string) error {
	if expression == "" {
		return fmt.Errorf("expression is empty")
	}
	if !mathExpressionPattern.MatchString(expression) {
		return fmt.Errorf("expression contains invalid characters")
	}

	balance := 0
	for _, ch := range expression {
		switch ch {
		case '(':
			balance++
		case ')':
			balance--
			if balance < 0 {
				return fmt.Errorf("expression has unbalanced parentheses")
			}
		}
	}
	if balance != 0 {
		return fmt.Errorf("expression has unbalanced parentheses")
	}
	return nil
}

func evaluateMathExpression(expression string) (float64, error) {
	p := &mathParser{input: expression}
	value, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.hasNext() {
		return 0, fmt.Errorf("unexpected token at position %d", p.pos)
	}
	return value, nil
}

// mathParser is a recursive descent parser for:
//
//	expr    := term (('+' | '-') term)*
//	term    := unary (('*' | '/' | '%') unary)*
//	unary   := '-' unary | power
//	power   := primary ['**' unary]
//	primary := number | '(' expr ')'
type mathParser struct {
	input string
	pos   int
}

func (p *mathParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpaces()
		switch {
		case p.match('+'):
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case p.match('-'):
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *mathParser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpaces()
		if p.lookingAt("**") {
			return 0, fmt.Errorf("unexpected operator at position %d", p.pos)
		}
		switch {
		case p.match('*'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case p.match('/'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case p.match('%'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("modulo by zero")
			}
			left = floorMod(left, right)
		default:
			return left, nil
		}
	}
}

func (p *mathParser) parseUnary() (float64, error) {
	p.skipSpaces()
	if p.match('-') {
		value, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -value, nil
	}
	if p.hasNext() && p.peek() == '+' {
		return 0, fmt.Errorf("unary plus is not supported at position %d", p.pos)
	}
	return p.parsePower()
}

func (p *mathParser) parsePower() (float64, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}

	p.skipSpaces()
	if p.matchString("**") {
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if left == 0 && right < 0 {
			return 0, fmt.Errorf("zero cannot be raised to a negative power")
		}
		return math.Pow(left, right), nil
	}
	return left, nil
}

func (p *mathParser) parsePrimary() (float64, error) {
	p.skipSpaces()
	if p.match('(') {
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if !p.match(')') {
			return 0, fmt.Errorf("missing closing parenthesis at position %d", p.pos)
		}
		return value, nil
	}
	return p.parseNumber()
}

func (p *mathParser) parseNumber() (float64, error) {
	p.skipSpaces()
	start := p.pos
	hasDigit := false
	hasDot := false

	for p.hasNext() {
		ch := p.peek()
		switch {
		case ch >= '0' && ch <= '9':
			hasDigit = true
			p.pos++
		case ch == '.':
			if hasDot {
				return 0, fmt.Errorf("invalid number format at position %d", p.pos)
			}
			hasDot = true
			p.pos++
		default:
			goto done
		}
	}

done:
	if !hasDigit {
		return 0, fmt.Errorf("expected number at position %d", start)
	}
	if err := p.parseExponent(); err != nil {
		return 0, err
	}

	raw := p.input[start:p.pos]
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	return value, nil
}

// parseExponent consumes an optional e[+-]digits suffix.
func (p *mathParser) parseExponent() error {
	if !p.hasNext() || (p.peek() != 'e' && p.peek() != 'E') {
		return nil
	}
	p.pos++
	if p.hasNext() && (p.peek() == '+' || p.peek() == '-') {
		p.pos++
	}
	digits := 0
	for p.hasNext() && p.peek() >= '0' && p.peek() <= '9' {
		p.pos++
		digits++
	}
	if digits == 0 {
		return fmt.Errorf("invalid exponent at position %d", p.pos)
	}
	return nil
}

// floorMod takes the sign of the divisor: -7 % 3 == 2.
func floorMod(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

func (p *mathParser) skipSpaces() {
	for p.hasNext() && (p.peek() == ' ' || p.peek() == '\t') {
		p.pos++
	}
}

func (p *mathParser) hasNext() bool {
	return p.pos < len(p.input)
}

func (p *mathParser) peek() byte {
	return p.input[p.pos]
}

func (p *mathParser) match(expected byte) bool {
	if p.hasNext() && p.peek() == expected {
		p.pos++
		return true
	}
	return false
}

func (p *mathParser) lookingAt(s string) bool {
	return strings.HasPrefix(p.input[p.pos:], s)
}

func (p *mathParser) matchString(s string) bool {
	if p.lookingAt(s) {
		p.pos += len(s)
		return true
	}
	return false
}
