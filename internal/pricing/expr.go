package pricing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	ErrSyntax            = errors.New("syntax error")
	ErrUnknownIdentifier = errors.New("unknown identifier")
	ErrDivisionByZero    = errors.New("division by zero")
	ErrNonFinite         = errors.New("result is not a finite number")
)

// maxDepth bounds nesting so a hostile formula cannot exhaust the stack.
const maxDepth = 200

// Formula is a parsed pricing expression. The grammar is deliberately small:
// numeric literals, identifiers, parentheses, unary + and -, the binary
// operators * / % + -, comparisons (yielding 1 or 0) and cond ? a : b.
// There are no function calls and nothing outside the supplied variables
// can be reached.
type Formula struct {
	text   string
	root   node
	idents []string
}

// ParseFormula parses text into a Formula.
func ParseFormula(text string) (*Formula, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if p.peek().kind == tokEOF {
		return nil, fmt.Errorf("%w: empty formula", ErrSyntax)
	}
	root, err := p.expression()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("%w at offset %d: unexpected %q", ErrSyntax, t.pos, t.text)
	}
	return &Formula{text: text, root: root, idents: p.idents}, nil
}

// String returns the source text.
func (f *Formula) String() string { return f.text }

// Identifiers lists the distinct identifiers in order of first appearance.
func (f *Formula) Identifiers() []string {
	return append([]string(nil), f.idents...)
}

// Eval computes the formula with the given identifier bindings. Every
// identifier must be bound. The result is not rounded.
func (f *Formula) Eval(vars map[string]float64) (float64, error) {
	v, err := f.root.eval(vars)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNonFinite
	}
	return v, nil
}

// --- lexer

type tokKind int

const (
	tokEOF tokKind = iota
	tokNumber
	tokIdent
	tokOp
)

type token struct {
	kind tokKind
	text string
	pos  int
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Longest operators first so "<=" wins over "<".
var operators = []string{"===", "!==", "==", "!=", "<=", ">=", "<", ">", "+", "-", "*", "/", "%", "(", ")", "?", ":"}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
				i++
			}
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < len(src) && isDigit(src[j]) {
					for j < len(src) && isDigit(src[j]) {
						j++
					}
					i = j
				}
			}
			if i < len(src) && isIdentStart(src[i]) {
				return nil, fmt.Errorf("%w at offset %d: malformed number", ErrSyntax, start)
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], pos: start})
		case isIdentStart(c):
			start := i
			for i < len(src) && (isIdentStart(src[i]) || isDigit(src[i])) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		default:
			matched := false
			for _, op := range operators {
				if len(src)-i >= len(op) && src[i:i+len(op)] == op {
					toks = append(toks, token{kind: tokOp, text: op, pos: i})
					i += len(op)
					matched = true
					break
				}
			}
			if !matched {
				return nil, fmt.Errorf("%w at offset %d: unexpected character %q", ErrSyntax, i, c)
			}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

// --- parser

type parser struct {
	toks   []token
	pos    int
	depth  int
	idents []string
	seen   map[string]bool
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) acceptOp(ops ...string) (string, bool) {
	t := p.peek()
	if t.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

func (p *parser) expect(op string) error {
	if _, ok := p.acceptOp(op); ok {
		return nil
	}
	t := p.peek()
	if t.kind == tokEOF {
		return fmt.Errorf("%w at offset %d: expected %q, got end of formula", ErrSyntax, t.pos, op)
	}
	return fmt.Errorf("%w at offset %d: expected %q, got %q", ErrSyntax, t.pos, op, t.text)
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return fmt.Errorf("%w: formula nested too deeply", ErrSyntax)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// expression parses a ternary. The ternary is right-associative and binds
// looser than every binary operator.
func (p *parser) expression() (node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	cond, err := p.equality()
	if err != nil {
		return nil, err
	}
	if _, ok := p.acceptOp("?"); !ok {
		return cond, nil
	}
	then, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	otherwise, err := p.expression()
	if err != nil {
		return nil, err
	}
	return ternaryNode{cond: cond, then: then, otherwise: otherwise}, nil
}

func (p *parser) equality() (node, error) {
	left, err := p.relational()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("===", "!==", "==", "!=")
		if !ok {
			return left, nil
		}
		right, err := p.relational()
		if err != nil {
			return nil, err
		}
		switch op {
		case "===":
			op = "=="
		case "!==":
			op = "!="
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) relational() (node, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("<=", ">=", "<", ">")
		if !ok {
			return left, nil
		}
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) additive() (node, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) multiplicative() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("*", "/", "%")
		if !ok {
			return left, nil
		}
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) unary() (node, error) {
	if op, ok := p.acceptOp("+", "-"); ok {
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op == "-" {
			return negNode{operand: operand}, nil
		}
		return operand, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w at offset %d: malformed number %q", ErrSyntax, t.pos, t.text)
		}
		return numberNode(v), nil
	case tokIdent:
		if p.seen == nil {
			p.seen = make(map[string]bool)
		}
		if !p.seen[t.text] {
			p.seen[t.text] = true
			p.idents = append(p.idents, t.text)
		}
		return identNode(t.text), nil
	case tokOp:
		if t.text == "(" {
			inner, err := p.expression()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return inner, nil
		}
		return nil, fmt.Errorf("%w at offset %d: unexpected %q", ErrSyntax, t.pos, t.text)
	default:
		return nil, fmt.Errorf("%w at offset %d: unexpected end of formula", ErrSyntax, t.pos)
	}
}

// --- evaluation

type node interface {
	eval(vars map[string]float64) (float64, error)
}

type numberNode float64

func (n numberNode) eval(map[string]float64) (float64, error) { return float64(n), nil }

type identNode string

func (n identNode) eval(vars map[string]float64) (float64, error) {
	v, ok := vars[string(n)]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownIdentifier, string(n))
	}
	return v, nil
}

type negNode struct{ operand node }

func (n negNode) eval(vars map[string]float64) (float64, error) {
	v, err := n.operand.eval(vars)
	return -v, err
}

type ternaryNode struct{ cond, then, otherwise node }

// Only the selected branch is evaluated.
func (n ternaryNode) eval(vars map[string]float64) (float64, error) {
	c, err := n.cond.eval(vars)
	if err != nil {
		return 0, err
	}
	if c != 0 && !math.IsNaN(c) {
		return n.then.eval(vars)
	}
	return n.otherwise.eval(vars)
}

type binaryNode struct {
	op          string
	left, right node
}

func (n binaryNode) eval(vars map[string]float64) (float64, error) {
	a, err := n.left.eval(vars)
	if err != nil {
		return 0, err
	}
	b, err := n.right.eval(vars)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	case "%":
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return math.Mod(a, b), nil
	case "<":
		return boolNum(a < b), nil
	case "<=":
		return boolNum(a <= b), nil
	case ">":
		return boolNum(a > b), nil
	case ">=":
		return boolNum(a >= b), nil
	case "==":
		return boolNum(a == b), nil
	case "!=":
		return boolNum(a != b), nil
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrSyntax, n.op)
}

func boolNum(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
