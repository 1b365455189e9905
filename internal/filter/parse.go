package filter

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// The grammar is deliberately closed: comparisons over columns and
// literals, boolean combinators, membership. No calls, no arithmetic,
// no attribute access. Parsing into an explicit tree keeps
// InvalidExpression and TypeMismatch decidable.
//
//	expr       := or
//	or         := and  (("or"  | "|") and)*
//	and        := unary (("and" | "&") unary)*
//	unary      := ("not" | "~") unary | primary
//	primary    := "(" expr ")" | comparison
//	comparison := operand (cmpop operand | ["not"] "in" list)
//	operand    := identifier | number | string
//	list       := ("[" | "(") literal ("," literal)* ("]" | ")")

type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenNumber
	tokenString
	tokenOp
	tokenEOF
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

type node interface{}

type logicalNode struct {
	op    string // "and" | "or"
	left  node
	right node
}

type notNode struct {
	child node
}

type compareNode struct {
	op    string // "==" "!=" ">" ">=" "<" "<="
	left  operand
	right operand
}

type inNode struct {
	value   operand
	items   []operand
	negated bool
}

type operandKind int

const (
	operandColumn operandKind = iota
	operandNumber
	operandString
)

type operand struct {
	kind operandKind
	name string
	num  float64
	str  string
}

func parse(input string) (node, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	tree, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenEOF {
		return nil, invalidf("unexpected token %q", p.peek().text)
	}
	return tree, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	if p.pos >= len(p.tokens) {
		return token{kind: tokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) acceptOp(ops ...string) (string, bool) {
	t := p.peek()
	if t.kind != tokenOp {
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

func (p *parser) expectOp(op string) error {
	if _, ok := p.acceptOp(op); !ok {
		return invalidf("expected %q, got %q", op, p.peek().text)
	}
	return nil
}

func (p *parser) parseExpr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("or", "|"); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &logicalNode{op: "or", left: left, right: right}
	}
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("and", "&"); !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &logicalNode{op: "and", left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	if _, ok := p.acceptOp("not", "~"); ok {
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notNode{child: child}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	// A parenthesis opens either a grouped expression or, after an
	// operand, a membership list; here it can only be a group.
	if _, ok := p.acceptOp("("); ok {
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	if op, ok := p.acceptOp("==", "!=", ">", ">=", "<", "<="); ok {
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return &compareNode{op: op, left: left, right: right}, nil
	}

	negated := false
	if _, ok := p.acceptOp("not"); ok {
		negated = true
	}
	if _, ok := p.acceptOp("in"); ok {
		items, err := p.parseList()
		if err != nil {
			return nil, err
		}
		return &inNode{value: left, items: items, negated: negated}, nil
	}
	if negated {
		return nil, invalidf(`expected "in" after "not"`)
	}
	return nil, invalidf("expected comparison operator after %s", describeOperand(left))
}

func (p *parser) parseOperand() (operand, error) {
	t := p.next()
	switch t.kind {
	case tokenIdent:
		return operand{kind: operandColumn, name: t.text}, nil
	case tokenNumber:
		return operand{kind: operandNumber, num: t.num}, nil
	case tokenString:
		return operand{kind: operandString, str: t.text}, nil
	case tokenEOF:
		return operand{}, invalidf("unexpected end of expression")
	default:
		return operand{}, invalidf("unexpected token %q", t.text)
	}
}

func (p *parser) parseList() ([]operand, error) {
	closer := ""
	if _, ok := p.acceptOp("["); ok {
		closer = "]"
	} else if _, ok := p.acceptOp("("); ok {
		closer = ")"
	} else {
		return nil, invalidf("expected list after \"in\", got %q", p.peek().text)
	}

	var items []operand
	for {
		item, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if item.kind == operandColumn {
			return nil, invalidf("membership lists may contain only literals, got column %q", item.name)
		}
		items = append(items, item)
		if _, ok := p.acceptOp(","); ok {
			continue
		}
		if err := p.expectOp(closer); err != nil {
			return nil, err
		}
		return items, nil
	}
}

func describeOperand(op operand) string {
	switch op.kind {
	case operandColumn:
		return fmt.Sprintf("column %q", op.name)
	case operandNumber:
		return fmt.Sprintf("number %v", op.num)
	default:
		return fmt.Sprintf("string %q", op.str)
	}
}

func lex(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '`':
			end := i + 1
			for end < len(runes) && runes[end] != '`' {
				end++
			}
			if end >= len(runes) {
				return nil, invalidf("unterminated backtick identifier")
			}
			tokens = append(tokens, token{kind: tokenIdent, text: string(runes[i+1 : end])})
			i = end + 1
		case r == '\'' || r == '"':
			quote := r
			end := i + 1
			for end < len(runes) && runes[end] != quote {
				end++
			}
			if end >= len(runes) {
				return nil, invalidf("unterminated string literal")
			}
			tokens = append(tokens, token{kind: tokenString, text: string(runes[i+1 : end])})
			i = end + 1
		case unicode.IsLetter(r) || r == '_':
			end := i
			for end < len(runes) && (unicode.IsLetter(runes[end]) || unicode.IsDigit(runes[end]) || runes[end] == '_') {
				end++
			}
			word := string(runes[i:end])
			switch word {
			case "and", "or", "not", "in":
				tokens = append(tokens, token{kind: tokenOp, text: word})
			default:
				tokens = append(tokens, token{kind: tokenIdent, text: word})
			}
			i = end
		case unicode.IsDigit(r) || (r == '-' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			end := i
			if runes[end] == '-' {
				end++
			}
			sawDot := false
			for end < len(runes) && (unicode.IsDigit(runes[end]) || (runes[end] == '.' && !sawDot)) {
				if runes[end] == '.' {
					sawDot = true
				}
				end++
			}
			text := string(runes[i:end])
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, invalidf("invalid number %q", text)
			}
			tokens = append(tokens, token{kind: tokenNumber, text: text, num: num})
			i = end
		case strings.ContainsRune("=!<>", r):
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenOp, text: string(runes[i : i+2])})
				i += 2
				break
			}
			if r == '<' || r == '>' {
				tokens = append(tokens, token{kind: tokenOp, text: string(r)})
				i++
				break
			}
			return nil, invalidf("unsupported operator %q", string(r))
		case r == '&':
			tokens = append(tokens, token{kind: tokenOp, text: "&"})
			i++
		case r == '|':
			tokens = append(tokens, token{kind: tokenOp, text: "|"})
			i++
		case r == '~':
			tokens = append(tokens, token{kind: tokenOp, text: "~"})
			i++
		case r == '(' || r == ')' || r == '[' || r == ']' || r == ',':
			tokens = append(tokens, token{kind: tokenOp, text: string(r)})
			i++
		default:
			return nil, invalidf("unsupported character %q", string(r))
		}
	}
	return tokens, nil
}
