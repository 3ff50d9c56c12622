package parser

import (
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenInt
	tokenString
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
	tokenComma
	tokenDot
	tokenPipe
	tokenEq      // ==
	tokenNotEq   // !=
	tokenLt      // <
	tokenLtE     // <=
	tokenGt      // >
	tokenGtE     // >=
	tokenWalrus  // :=
	tokenAssign  // =
	tokenMinus   // -
	tokenKeyword // and or not is in True False None
)

var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "is": true, "in": true,
	"True": true, "False": true, "None": true,
}

type lexToken struct {
	kind tokenKind
	text string
	pos  token.Pos
}

func (t lexToken) isKeyword(word string) bool {
	return t.kind == tokenKeyword && t.text == word
}

func (t lexToken) String() string {
	if t.kind == tokenEOF {
		return "end of input"
	}
	return "'" + t.text + "'"
}

// lexer produces tokens from a single-line condition or type expression.
// Positions are byte offsets into the source, 1-based to match go/token.
type lexer struct {
	src string
	off int
}

func (l *lexer) errorf(format string, args ...interface{}) error {
	return errors.Errorf("offset %d: "+format, append([]interface{}{l.off}, args...)...)
}

func (l *lexer) next() (lexToken, error) {
	for l.off < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.off:])
		if !unicode.IsSpace(r) {
			break
		}
		l.off += size
	}
	start := l.off
	pos := token.Pos(start + 1)
	if l.off >= len(l.src) {
		return lexToken{kind: tokenEOF, pos: pos}, nil
	}

	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	switch {
	case r == '_' || unicode.IsLetter(r):
		for l.off < len(l.src) {
			r, size := utf8.DecodeRuneInString(l.src[l.off:])
			if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				break
			}
			l.off += size
		}
		word := l.src[start:l.off]
		kind := tokenIdent
		if keywords[word] {
			kind = tokenKeyword
		}
		return lexToken{kind: kind, text: word, pos: pos}, nil

	case unicode.IsDigit(r):
		for l.off < len(l.src) && l.src[l.off] >= '0' && l.src[l.off] <= '9' {
			l.off++
		}
		return lexToken{kind: tokenInt, text: l.src[start:l.off], pos: pos}, nil

	case r == '"' || r == '\'':
		quote := byte(r)
		l.off++
		var sb strings.Builder
		for l.off < len(l.src) {
			c := l.src[l.off]
			if c == quote {
				l.off++
				return lexToken{kind: tokenString, text: sb.String(), pos: pos}, nil
			}
			if c == '\\' && l.off+1 < len(l.src) {
				l.off++
				switch l.src[l.off] {
				case 'n':
					sb.WriteByte('\n')
				case 't':
					sb.WriteByte('\t')
				default:
					sb.WriteByte(l.src[l.off])
				}
				l.off++
				continue
			}
			sb.WriteByte(c)
			l.off++
		}
		return lexToken{}, l.errorf("unterminated string literal")
	}

	l.off += size
	simple := func(kind tokenKind, text string) (lexToken, error) {
		return lexToken{kind: kind, text: text, pos: pos}, nil
	}
	switch r {
	case '(':
		return simple(tokenLParen, "(")
	case ')':
		return simple(tokenRParen, ")")
	case '[':
		return simple(tokenLBracket, "[")
	case ']':
		return simple(tokenRBracket, "]")
	case ',':
		return simple(tokenComma, ",")
	case '.':
		return simple(tokenDot, ".")
	case '|':
		return simple(tokenPipe, "|")
	case '-':
		return simple(tokenMinus, "-")
	case '=':
		if l.off < len(l.src) && l.src[l.off] == '=' {
			l.off++
			return simple(tokenEq, "==")
		}
		return simple(tokenAssign, "=")
	case '!':
		if l.off < len(l.src) && l.src[l.off] == '=' {
			l.off++
			return simple(tokenNotEq, "!=")
		}
		return lexToken{}, l.errorf("unexpected character %q", r)
	case '<':
		if l.off < len(l.src) && l.src[l.off] == '=' {
			l.off++
			return simple(tokenLtE, "<=")
		}
		return simple(tokenLt, "<")
	case '>':
		if l.off < len(l.src) && l.src[l.off] == '=' {
			l.off++
			return simple(tokenGtE, ">=")
		}
		return simple(tokenGt, ">")
	case ':':
		if l.off < len(l.src) && l.src[l.off] == '=' {
			l.off++
			return simple(tokenWalrus, ":=")
		}
		return lexToken{}, l.errorf("unexpected character %q", r)
	}
	return lexToken{}, l.errorf("unexpected character %q", r)
}

// lexAll tokenizes the whole input up front; conditions are short enough
// that lookahead over a slice beats a streaming interface.
func lexAll(src string) ([]lexToken, error) {
	l := &lexer{src: src}
	var result []lexToken
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		result = append(result, tok)
		if tok.kind == tokenEOF {
			return result, nil
		}
	}
}
