package expr

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

var errUnknownToken = errors.New("unknown token")
var errInvalidInteger = errors.New("invalid integer literal")
var errInvalidString = errors.New("invalid string literal")

type tokenType uint8

const (
	tokenInvalid tokenType = iota
	tokenIdentifier
	// keywords:
	tokenAnd
	tokenOr
	tokenNot
	tokenIs
	tokenNull
	// keywords end
	tokenEq
	tokenNeq
	tokenLparen
	tokenRparen
	tokenLiteralInt
	tokenLiteralString
	tokenEOF
)

type token struct {
	ttype tokenType
	value []byte
}

var keywords = map[string]tokenType{
	"and":  tokenAnd,
	"or":   tokenOr,
	"not":  tokenNot,
	"is":   tokenIs,
	"null": tokenNull,
}

type tokenScanner struct {
	code     []byte
	position int
}

func tokenize(s string) ([]token, error) {
	scanner := &tokenScanner{code: []byte(s)}
	var tokens []token
	for {
		tok, err := scanner.scan()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.ttype == tokenEOF {
			return tokens, nil
		}
	}
}

func (ts *tokenScanner) peek(n int) []byte {
	ret := make([]byte, n)
	newpos := ts.position + n
	if newpos > len(ts.code) {
		newpos = len(ts.code)
	}
	copy(ret, ts.code[ts.position:newpos])
	return ret
}

func (ts *tokenScanner) scan() (token, error) {
	if ts.position >= len(ts.code) {
		return token{tokenEOF, nil}, nil
	}
	char := ts.code[ts.position]
	switch char {
	case ' ', '\t', '\n':
		ts.position++
		return ts.scan()
	case '(':
		ts.position++
		return token{tokenLparen, nil}, nil
	case ')':
		ts.position++
		return token{tokenRparen, nil}, nil
	case '=':
		if bytes.Equal(ts.peek(2), []byte("==")) {
			ts.position += 2
			return token{tokenEq, nil}, nil
		}
		ts.position++
		return token{}, fmt.Errorf("%w: lone '='", errUnknownToken)
	case '!':
		if bytes.Equal(ts.peek(2), []byte("!=")) {
			ts.position += 2
			return token{tokenNeq, nil}, nil
		}
		ts.position++
		return token{}, fmt.Errorf("%w: lone '!'", errUnknownToken)
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return ts.consumeNumber()
	case '\'':
		return ts.consumeStringLiteral()
	default:
		ident, err := ts.consumeIdentifier()
		if err != nil {
			return token{}, err
		}
		if kw, ok := keywords[strings.ToLower(string(ident.value))]; ok {
			return token{ttype: kw}, nil
		}
		return ident, nil
	}
}

func (ts *tokenScanner) consumeNumber() (token, error) {
	digits := sliceUntil(ts.code[ts.position:], []byte("0123456789"))
	ts.position += len(digits)
	// a number running straight into letters is no number at all
	if ts.position < len(ts.code) && isIdentChar(ts.code[ts.position]) {
		return token{}, fmt.Errorf("%w: %q", errInvalidInteger, digits)
	}
	return token{tokenLiteralInt, digits}, nil
}

const apostrophe = '\''

func (ts *tokenScanner) consumeStringLiteral() (token, error) {
	ret := token{tokenLiteralString, []byte{}}
	for {
		idx := bytes.IndexByte(ts.code[ts.position+1:], apostrophe)
		if idx == -1 {
			ts.position++
			return token{}, fmt.Errorf("%w: no closing apostrophe", errInvalidString)
		}
		ret.value = append(ret.value, ts.code[ts.position+1:ts.position+idx+1]...)
		ts.position += idx + 1
		// apostrophes within literals are escaped by doubling
		if bytes.Equal(ts.peek(2), []byte("''")) {
			ts.position++
			ret.value = append(ret.value, apostrophe)
		} else {
			break
		}
	}
	ts.position++
	return ret, nil
}

func (ts *tokenScanner) consumeIdentifier() (token, error) {
	val := sliceUntil(ts.code[ts.position:], []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_0123456789"))
	if len(val) == 0 {
		ts.position++
		return token{}, fmt.Errorf("%w: 0x%02x", errUnknownToken, ts.code[ts.position-1])
	}
	ts.position += len(val)
	return token{tokenIdentifier, val}, nil
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// slice a given input as long as all the bytes are within the chars
// slice, e.g. ("foobar", "of") yields "foo"
func sliceUntil(s []byte, chars []byte) []byte {
	for j, c := range s {
		if bytes.IndexByte(chars, c) == -1 {
			return s[:j]
		}
	}
	return s
}
