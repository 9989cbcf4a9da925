package constraint

import (
	"fmt"
	"strconv"

	"github.com/arbormatch/treematcher/treeerr"
)

// Parse compiles a constraint expression source string into an AST. An
// empty source is valid and compiles to a literal `true` (an unconstrained
// pattern node matches any target node).
func Parse(src string) (Expr, error) {
	if src == "" {
		return &Literal{Value: BoolValue(true)}, nil
	}
	p := &parser{lex: newLexer(src), src: src}
	if err := p.advance(); err != nil {
		return nil, wrapParse(err, src)
	}
	expr, err := p.parseOr()
	if err != nil {
		return nil, wrapParse(err, src)
	}
	if p.cur.kind != tokEOF {
		return nil, wrapParse(fmt.Errorf("unexpected token %q", p.cur.text), src)
	}
	return expr, nil
}

func wrapParse(err error, src string) error {
	return &treeerr.ParseError{
		Sentinel: treeerr.ErrMalformedPattern,
		Msg:      "malformed constraint expression: " + err.Error(),
		Snippet:  src,
	}
}

type parser struct {
	lex *lexer
	cur token
	src string
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) expect(k tokKind, text string) error {
	if p.cur.kind != k {
		return fmt.Errorf("expected %q, got %q", text, p.cur.text)
	}
	return p.advance()
}

// parseOr := parseAnd ("or" parseAnd)*
func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.isKeyword("not") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: "not", X: x}, nil
	}
	return p.parseComparison()
}

var cmpOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.cur.kind == tokOp && cmpOps[p.cur.text] {
		op := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: op, Left: left, Right: right}, nil
	}
	if p.isKeyword("in") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: "in", Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokOp && (p.cur.text == "+" || p.cur.text == "-") {
		op := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.cur.kind {
	case tokNumber:
		f, err := strconv.ParseFloat(p.cur.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", p.cur.text)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Literal{Value: NumberValue(f)}, nil

	case tokString:
		s := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Literal{Value: StringValue(s)}, nil

	case tokAttr:
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Attr{Name: name}, nil

	case tokSelf:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &SelfRef{}, nil

	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return inner, nil

	case tokLBracket:
		return p.parseSetLiteral()

	case tokQuantChildren:
		return p.parseQuantifierBody(func(b Expr) Expr { return &ChildrenQuantifier{Body: b} })
	case tokQuantAnyChild:
		return p.parseQuantifierBody(func(b Expr) Expr { return &AnyChildQuantifier{Body: b} })
	case tokQuantAllNodes:
		return p.parseQuantifierBody(func(b Expr) Expr { return &AllNodesQuantifier{Body: b} })

	case tokIdent:
		name := p.cur.text
		switch name {
		case "true":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &Literal{Value: BoolValue(true)}, nil
		case "false":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &Literal{Value: BoolValue(false)}, nil
		case "children":
			return p.parseChildAttr()
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind != tokLParen {
			// A bare label with no '@' and no call parens is shorthand for
			// name equality (the original source's bareword rule): "kk"
			// means @name == "kk".
			return &Binary{Op: "==", Left: &Attr{Name: "name"}, Right: &Literal{Value: StringValue(name)}}, nil
		}
		var args []Expr
		if err := p.advance(); err != nil {
			return nil, err
		}
		for p.cur.kind != tokRParen {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur.kind == tokComma {
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
		}
		if err := p.advance(); err != nil { // consume ')'
			return nil, err
		}
		return &Call{Name: name, Args: args}, nil

	case tokOp:
		if p.cur.text == "-" {
			if err := p.advance(); err != nil {
				return nil, err
			}
			x, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			return &Unary{Op: "-", X: x}, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %q", p.cur.text)
}

func (p *parser) parseChildAttr() (Expr, error) {
	if err := p.advance(); err != nil { // consume "children"
		return nil, err
	}
	if err := p.expect(tokLBracket, "["); err != nil {
		return nil, err
	}
	idx, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokRBracket, "]"); err != nil {
		return nil, err
	}
	if err := p.expect(tokDot, "."); err != nil {
		return nil, err
	}
	if p.cur.kind != tokIdent {
		return nil, fmt.Errorf("expected attribute name after 'children[i].', got %q", p.cur.text)
	}
	attr := p.cur.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &ChildAttr{Index: idx, Attr: attr}, nil
}

func (p *parser) parseSetLiteral() (Expr, error) {
	if err := p.advance(); err != nil { // consume '['
		return nil, err
	}
	var items []string
	for p.cur.kind != tokRBracket {
		if p.cur.kind != tokString && p.cur.kind != tokIdent {
			return nil, fmt.Errorf("expected string in set literal, got %q", p.cur.text)
		}
		items = append(items, p.cur.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.advance(); err != nil { // consume ']'
		return nil, err
	}
	return &SetLiteral{Items: items}, nil
}

func (p *parser) parseQuantifierBody(wrap func(Expr) Expr) (Expr, error) {
	if err := p.advance(); err != nil { // consume the quantifier token
		return nil, err
	}
	if err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	body, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	return wrap(body), nil
}

func (p *parser) isKeyword(kw string) bool {
	return p.cur.kind == tokIdent && p.cur.text == kw
}
