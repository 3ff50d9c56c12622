package parser

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/pyrite-lang/pyrite/types"
)

// ParseType parses a type annotation such as `int | None`, `Literal[1, "a"]`,
// `tuple[int, str]`, `type[int]` or `TypeIs[str]`. Class names resolve
// through the given map.
func ParseType(src string, classes map[string]*types.Class) (types.Type, error) {
	tokens, err := lexAll(src)
	if err != nil {
		return nil, errors.Wrap(err, "lexing type annotation")
	}
	p := &typeParser{parser: parser{tokens: tokens}, classes: classes}
	t, err := p.parseUnion()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenEOF {
		return nil, errors.Errorf("unexpected %s after type", p.peek())
	}
	return t, nil
}

type typeParser struct {
	parser
	classes map[string]*types.Class
}

func (p *typeParser) parseUnion() (types.Type, error) {
	first, err := p.parseAtomType()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenPipe {
		return first, nil
	}
	builder := types.NewUnionBuilder().Add(first)
	for p.peek().kind == tokenPipe {
		p.advance()
		next, err := p.parseAtomType()
		if err != nil {
			return nil, err
		}
		builder.Add(next)
	}
	return builder.Build(), nil
}

func (p *typeParser) parseAtomType() (types.Type, error) {
	if p.peek().isKeyword("None") {
		p.advance()
		return types.None(), nil
	}
	name, err := p.expect(tokenIdent, "a type name")
	if err != nil {
		return nil, err
	}

	switch name.text {
	case "Any":
		return types.Dynamic(), nil
	case "Never":
		return types.Never(), nil
	case "object":
		return types.Object(), nil
	case "LiteralString":
		return types.LiteralString(), nil
	case "Literal":
		return p.parseLiteralForm()
	case "tuple":
		return p.parseTupleForm()
	case "type":
		return p.parseTypeForm()
	case "TypeIs":
		guarded, err := p.parseSingleArgument()
		if err != nil {
			return nil, err
		}
		return &types.TypeIsType{Guarded: guarded}, nil
	}

	class, known := p.classes[name.text]
	if !known {
		return nil, errors.Errorf("unknown type name %q", name.text)
	}
	if p.peek().kind == tokenLBracket {
		// a subscripted user class is a generic alias
		p.advance()
		var args []types.Type
		for {
			arg, err := p.parseUnion()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokenComma {
				break
			}
			p.advance()
		}
		if _, err := p.expect(tokenRBracket, "']'"); err != nil {
			return nil, err
		}
		return &types.GenericAlias{Origin: class, Args: args}, nil
	}
	return types.Instance(class), nil
}

// parseLiteralForm parses `Literal[...]`, whose arguments are values, not
// types: ints, strings, True/False, None, and enum members like Color.RED.
func (p *typeParser) parseLiteralForm() (types.Type, error) {
	if _, err := p.expect(tokenLBracket, "'['"); err != nil {
		return nil, err
	}
	builder := types.NewUnionBuilder()
	for {
		value, err := p.parseLiteralValue()
		if err != nil {
			return nil, err
		}
		builder.Add(value)
		if p.peek().kind != tokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(tokenRBracket, "']'"); err != nil {
		return nil, err
	}
	return builder.Build(), nil
}

func (p *typeParser) parseLiteralValue() (types.Type, error) {
	tok := p.peek()
	switch {
	case tok.kind == tokenInt || tok.kind == tokenMinus:
		negative := false
		if tok.kind == tokenMinus {
			p.advance()
			negative = true
			tok = p.peek()
		}
		raw, err := p.expect(tokenInt, "an integer")
		if err != nil {
			return nil, err
		}
		value, err := strconv.ParseInt(raw.text, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "integer literal %q", raw.text)
		}
		if negative {
			value = -value
		}
		return &types.IntLiteral{Value: value}, nil

	case tok.kind == tokenString:
		p.advance()
		return &types.StringLiteral{Value: tok.text}, nil

	case tok.isKeyword("True"):
		p.advance()
		return &types.BooleanLiteral{Value: true}, nil
	case tok.isKeyword("False"):
		p.advance()
		return &types.BooleanLiteral{Value: false}, nil
	case tok.isKeyword("None"):
		p.advance()
		return types.None(), nil

	case tok.kind == tokenIdent:
		p.advance()
		class, known := p.classes[tok.text]
		if !known || !class.IsEnum() {
			return nil, errors.Errorf("%q is not an enum class", tok.text)
		}
		if _, err := p.expect(tokenDot, "'.'"); err != nil {
			return nil, err
		}
		member, err := p.expect(tokenIdent, "an enum member")
		if err != nil {
			return nil, err
		}
		return &types.EnumLiteral{Class: class, Member: member.text}, nil
	}
	return nil, errors.Errorf("expected a literal value, got %s", tok)
}

func (p *typeParser) parseTupleForm() (types.Type, error) {
	if _, err := p.expect(tokenLBracket, "'['"); err != nil {
		return nil, err
	}
	var elements []types.Type
	for {
		element, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		elements = append(elements, element)
		if p.peek().kind != tokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(tokenRBracket, "']'"); err != nil {
		return nil, err
	}
	return &types.TupleType{Elements: elements}, nil
}

func (p *typeParser) parseTypeForm() (types.Type, error) {
	if p.peek().kind != tokenLBracket {
		// bare `type` is the class itself
		return types.Instance(types.TypeClass), nil
	}
	p.advance()
	inner, err := p.expect(tokenIdent, "a class name or Any")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenRBracket, "']'"); err != nil {
		return nil, err
	}
	if inner.text == "Any" {
		return &types.SubclassOf{}, nil
	}
	class, known := p.classes[inner.text]
	if !known {
		return nil, errors.Errorf("unknown class %q in type[...]", inner.text)
	}
	return &types.SubclassOf{Class: class}, nil
}

func (p *typeParser) parseSingleArgument() (types.Type, error) {
	if _, err := p.expect(tokenLBracket, "'['"); err != nil {
		return nil, err
	}
	arg, err := p.parseUnion()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenRBracket, "']'"); err != nil {
		return nil, err
	}
	return arg, nil
}
