package formula

import (
	"strconv"
	"unicode/utf8"
)

const (
	maxExpressionLength = 2048
	maxTokens           = 512
)

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenIdentifier
	tokenFunction
	tokenOperator
	tokenLParen
	tokenRParen
	tokenComma
)

type token struct {
	kind tokenKind
	num  float64
	text string
	pos  int
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func tokenize(expr string) ([]token, error) {
	var tokens []token
	n := len(expr)

	for i := 0; i < n; {
		c := expr[i]

		switch {
		case isSpace(c):
			i++
			continue

		case isDigit(c) || (c == '.' && i+1 < n && isDigit(expr[i+1])):
			start := i
			i++
			for i < n && (isDigit(expr[i]) || expr[i] == '.') {
				i++
			}
			if i < n && (expr[i] == 'e' || expr[i] == 'E') {
				i++
				if i < n && (expr[i] == '+' || expr[i] == '-') {
					i++
				}
				if i >= n || !isDigit(expr[i]) {
					return nil, newError(expr, ErrInvalidNumber, "malformed exponent at position %d", start)
				}
				for i < n && isDigit(expr[i]) {
					i++
				}
			}
			raw := expr[start:i]
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, newError(expr, ErrInvalidNumber, "%q", raw)
			}
			tokens = append(tokens, token{kind: tokenNumber, num: value, text: raw, pos: start})

		case isIdentStart(c):
			start := i
			i++
			for i < n && isIdentPart(expr[i]) {
				i++
			}
			name := expr[start:i]
			j := i
			for j < n && isSpace(expr[j]) {
				j++
			}
			kind := tokenIdentifier
			if j < n && expr[j] == '(' {
				kind = tokenFunction
			}
			tokens = append(tokens, token{kind: kind, text: name, pos: start})

		case c == '+' || c == '-' || c == '*' || c == '/' || c == '^':
			tokens = append(tokens, token{kind: tokenOperator, text: string(c), pos: i})
			i++

		case c == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "(", pos: i})
			i++

		case c == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")", pos: i})
			i++

		case c == ',':
			tokens = append(tokens, token{kind: tokenComma, text: ",", pos: i})
			i++

		default:
			r, _ := utf8.DecodeRuneInString(expr[i:])
			return nil, newError(expr, ErrUnexpectedCharacter, "%q at position %d", r, i)
		}

		if len(tokens) > maxTokens {
			return nil, newError(expr, ErrTooComplex, "more than %d tokens", maxTokens)
		}
	}

	return tokens, nil
}
