// Package parser turns textual conditions and type annotations into syntax
// trees. It covers the expression subset the narrowing engine understands:
// boolean combinators, comparisons, calls, attribute and subscript access,
// walrus bindings, and literals.
package parser

import (
	"go/token"
	"strconv"

	"github.com/pkg/errors"
	"github.com/pyrite-lang/pyrite/syntax"
)

// ParseExpression parses a single condition such as
// `isinstance(x, int) and x.kind == "leaf"`.
func ParseExpression(src string) (syntax.Expr, error) {
	tokens, err := lexAll(src)
	if err != nil {
		return nil, errors.Wrap(err, "lexing condition")
	}
	p := &parser{tokens: tokens}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenEOF {
		return nil, errors.Errorf("unexpected %s after expression", p.peek())
	}
	return expr, nil
}

type parser struct {
	tokens []lexToken
	i      int
	end    token.Pos // end of the last consumed token
}

func (p *parser) peek() lexToken { return p.tokens[p.i] }

func (p *parser) peek2() lexToken {
	if p.i+1 < len(p.tokens) {
		return p.tokens[p.i+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *parser) advance() lexToken {
	tok := p.tokens[p.i]
	if tok.kind != tokenEOF {
		p.i++
	}
	p.end = tok.pos + token.Pos(len(tok.text))
	return tok
}

func (p *parser) expect(kind tokenKind, what string) (lexToken, error) {
	if p.peek().kind != kind {
		return lexToken{}, errors.Errorf("expected %s, got %s", what, p.peek())
	}
	return p.advance(), nil
}

func (p *parser) span(start token.Pos) syntax.Range {
	return syntax.Range{PosStart: start, PosEnd: p.end}
}

func (p *parser) parseExpression() (syntax.Expr, error) {
	if p.peek().kind == tokenIdent && p.peek2().kind == tokenWalrus {
		start := p.peek().pos
		name := p.advance()
		p.advance() // :=
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &syntax.Named{
			Range:  p.span(start),
			Target: &syntax.Name{Range: syntax.Range{PosStart: name.pos, PosEnd: name.pos + token.Pos(len(name.text))}, Name: name.text},
			Value:  value,
		}, nil
	}
	return p.parseOr()
}

func (p *parser) parseOr() (syntax.Expr, error) {
	return p.parseBoolOp("or", syntax.BoolOr, p.parseAnd)
}

func (p *parser) parseAnd() (syntax.Expr, error) {
	return p.parseBoolOp("and", syntax.BoolAnd, p.parseNot)
}

func (p *parser) parseBoolOp(word string, op syntax.BoolOpKind, operand func() (syntax.Expr, error)) (syntax.Expr, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	if !p.peek().isKeyword(word) {
		return left, nil
	}
	values := []syntax.Expr{left}
	for p.peek().isKeyword(word) {
		p.advance()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		values = append(values, right)
	}
	return &syntax.BoolOp{Range: syntax.RangeBetween(left, values[len(values)-1]), Op: op, Values: values}, nil
}

func (p *parser) parseNot() (syntax.Expr, error) {
	if p.peek().isKeyword("not") && !p.peek2().isKeyword("in") {
		start := p.advance().pos
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &syntax.UnaryOp{Range: p.span(start), Op: syntax.UnaryNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (syntax.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	var ops []syntax.CmpOp
	var comparators []syntax.Expr
	for {
		op, found := p.comparisonOp()
		if !found {
			break
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		comparators = append(comparators, right)
	}
	if len(ops) == 0 {
		return left, nil
	}
	return &syntax.Compare{Range: syntax.RangeBetween(left, comparators[len(comparators)-1]), Left: left, Ops: ops, Comparators: comparators}, nil
}

// comparisonOp consumes the next comparison operator, if any. The two-word
// forms `is not` and `not in` need one token of lookahead.
func (p *parser) comparisonOp() (syntax.CmpOp, bool) {
	tok := p.peek()
	switch tok.kind {
	case tokenEq:
		p.advance()
		return syntax.CmpEq, true
	case tokenNotEq:
		p.advance()
		return syntax.CmpNotEq, true
	case tokenLt:
		p.advance()
		return syntax.CmpLt, true
	case tokenLtE:
		p.advance()
		return syntax.CmpLtE, true
	case tokenGt:
		p.advance()
		return syntax.CmpGt, true
	case tokenGtE:
		p.advance()
		return syntax.CmpGtE, true
	}
	if tok.isKeyword("is") {
		p.advance()
		if p.peek().isKeyword("not") {
			p.advance()
			return syntax.CmpIsNot, true
		}
		return syntax.CmpIs, true
	}
	if tok.isKeyword("in") {
		p.advance()
		return syntax.CmpIn, true
	}
	if tok.isKeyword("not") && p.peek2().isKeyword("in") {
		p.advance()
		p.advance()
		return syntax.CmpNotIn, true
	}
	return 0, false
}

func (p *parser) parseUnary() (syntax.Expr, error) {
	if p.peek().kind == tokenMinus {
		start := p.advance().pos
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &syntax.UnaryOp{Range: p.span(start), Op: syntax.UnaryNeg, Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (syntax.Expr, error) {
	start := p.peek().pos
	expr, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().kind {
		case tokenDot:
			p.advance()
			attr, err := p.expect(tokenIdent, "attribute name")
			if err != nil {
				return nil, err
			}
			expr = &syntax.Attribute{Range: p.span(start), Value: expr, Attr: attr.text}
		case tokenLBracket:
			p.advance()
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokenRBracket, "']'"); err != nil {
				return nil, err
			}
			expr = &syntax.Subscript{Range: p.span(start), Value: expr, Index: index}
		case tokenLParen:
			p.advance()
			args, keywords, err := p.parseCallArguments()
			if err != nil {
				return nil, err
			}
			expr = &syntax.Call{Range: p.span(start), Func: expr, Args: args, Keywords: keywords}
		default:
			return expr, nil
		}
	}
}

func (p *parser) parseCallArguments() ([]syntax.Expr, []syntax.Keyword, error) {
	var args []syntax.Expr
	var keywords []syntax.Keyword
	for p.peek().kind != tokenRParen {
		if p.peek().kind == tokenIdent && p.peek2().kind == tokenAssign {
			start := p.peek().pos
			name := p.advance()
			p.advance() // =
			value, err := p.parseExpression()
			if err != nil {
				return nil, nil, err
			}
			keywords = append(keywords, syntax.Keyword{Range: p.span(start), Name: name.text, Value: value})
		} else {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, nil, err
			}
			args = append(args, arg)
		}
		if p.peek().kind != tokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(tokenRParen, "')'"); err != nil {
		return nil, nil, err
	}
	return args, keywords, nil
}

func (p *parser) parseAtom() (syntax.Expr, error) {
	tok := p.peek()
	switch tok.kind {
	case tokenIdent:
		p.advance()
		return &syntax.Name{Range: p.span(tok.pos), Name: tok.text}, nil
	case tokenInt:
		p.advance()
		value, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "integer literal %q", tok.text)
		}
		return &syntax.IntLit{Range: p.span(tok.pos), Value: value}, nil
	case tokenString:
		p.advance()
		return &syntax.StringLit{Range: p.span(tok.pos), Value: tok.text}, nil
	case tokenKeyword:
		switch tok.text {
		case "True":
			p.advance()
			return &syntax.BoolLit{Range: p.span(tok.pos), Value: true}, nil
		case "False":
			p.advance()
			return &syntax.BoolLit{Range: p.span(tok.pos), Value: false}, nil
		case "None":
			p.advance()
			return &syntax.NoneLit{Range: p.span(tok.pos)}, nil
		}
	case tokenLParen:
		p.advance()
		first, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokenComma {
			_, err := p.expect(tokenRParen, "')'")
			return first, err
		}
		elts := []syntax.Expr{first}
		for p.peek().kind == tokenComma {
			p.advance()
			if p.peek().kind == tokenRParen {
				break // trailing comma
			}
			elt, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			elts = append(elts, elt)
		}
		if _, err := p.expect(tokenRParen, "')'"); err != nil {
			return nil, err
		}
		return &syntax.TupleExpr{Range: p.span(tok.pos), Elts: elts}, nil
	}
	return nil, errors.Errorf("expected an expression, got %s", tok)
}
