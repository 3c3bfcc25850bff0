package formula

import "strings"

type opKind int

const (
	opNumber opKind = iota
	opVariable
	opBinary
	opUnary
	opCall
)

// instruction is one step of the compiled reverse-polish program.
type instruction struct {
	kind opKind
	num  float64
	name string
	op   byte
	argc int
	pos  int
}

type operatorInfo struct {
	precedence int
	rightAssoc bool
}

var binaryOperators = map[byte]operatorInfo{
	'^': {precedence: 4, rightAssoc: true},
	'*': {precedence: 2},
	'/': {precedence: 2},
	'+': {precedence: 1},
	'-': {precedence: 1},
}

const unaryPrecedence = 3

type stackKind int

const (
	stackOperator stackKind = iota
	stackUnary
	stackLParen
	stackFunction
)

type stackEntry struct {
	kind stackKind
	op   byte
	name string
	pos  int
}

// callFrame tracks argument counting for an open function call.
type callFrame struct {
	name      string
	pos       int
	args      int
	expecting bool
}

type parser struct {
	expr   string
	out    []instruction
	stack  []stackEntry
	frames []*callFrame
	// parenFrame records, per open parenthesis, whether it opened a call.
	parenFrame []bool
}

// parse converts the token stream into reverse-polish instructions.
func parse(expr string, tokens []token) ([]instruction, error) {
	p := &parser{expr: expr}
	var prev *token

	for i := range tokens {
		tok := tokens[i]
		switch tok.kind {
		case tokenNumber:
			p.markArgument()
			p.out = append(p.out, instruction{kind: opNumber, num: tok.num, pos: tok.pos})

		case tokenIdentifier:
			p.markArgument()
			p.out = append(p.out, instruction{kind: opVariable, name: tok.text, pos: tok.pos})

		case tokenFunction:
			p.markArgument()
			p.stack = append(p.stack, stackEntry{kind: stackFunction, name: strings.ToLower(tok.text), pos: tok.pos})

		case tokenOperator:
			op := tok.text[0]
			if isUnaryPosition(prev) {
				if op != '+' && op != '-' {
					return nil, newError(expr, ErrSyntax, "missing operand before %q at position %d", op, tok.pos)
				}
				p.markArgument()
				p.stack = append(p.stack, stackEntry{kind: stackUnary, op: op, pos: tok.pos})
				break
			}
			p.pushBinary(op, tok.pos)

		case tokenLParen:
			isCall := prev != nil && prev.kind == tokenFunction
			if isCall {
				top := p.stack[len(p.stack)-1]
				p.frames = append(p.frames, &callFrame{name: top.name, pos: top.pos, expecting: true})
			} else {
				p.markArgument()
			}
			p.parenFrame = append(p.parenFrame, isCall)
			p.stack = append(p.stack, stackEntry{kind: stackLParen, pos: tok.pos})

		case tokenRParen:
			if err := p.closeParen(tok.pos); err != nil {
				return nil, err
			}

		case tokenComma:
			if err := p.comma(tok.pos); err != nil {
				return nil, err
			}
		}
		prev = &tokens[i]
	}

	for len(p.stack) > 0 {
		top := p.pop()
		switch top.kind {
		case stackLParen:
			return nil, newError(expr, ErrSyntax, "unclosed parenthesis at position %d", top.pos)
		case stackFunction:
			return nil, newError(expr, ErrSyntax, "function %s is missing its argument list", top.name)
		}
		p.emit(top)
	}

	return p.out, nil
}

func isUnaryPosition(prev *token) bool {
	if prev == nil {
		return true
	}
	switch prev.kind {
	case tokenOperator, tokenLParen, tokenComma:
		return true
	}
	return false
}

func (p *parser) markArgument() {
	if len(p.frames) == 0 {
		return
	}
	frame := p.frames[len(p.frames)-1]
	if frame.expecting {
		frame.args++
		frame.expecting = false
	}
}

func (p *parser) pop() stackEntry {
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	return top
}

func (p *parser) emit(e stackEntry) {
	switch e.kind {
	case stackUnary:
		p.out = append(p.out, instruction{kind: opUnary, op: e.op, pos: e.pos})
	case stackOperator:
		p.out = append(p.out, instruction{kind: opBinary, op: e.op, pos: e.pos})
	}
}

func (p *parser) pushBinary(op byte, pos int) {
	info := binaryOperators[op]
	for len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		var topPrec int
		switch top.kind {
		case stackOperator:
			topPrec = binaryOperators[top.op].precedence
		case stackUnary:
			topPrec = unaryPrecedence
		default:
			topPrec = -1
		}
		// A pending unary sign binds looser than '^', so -2^2 == -(2^2).
		if topPrec > info.precedence || (topPrec == info.precedence && !info.rightAssoc) {
			p.emit(p.pop())
			continue
		}
		break
	}
	p.stack = append(p.stack, stackEntry{kind: stackOperator, op: op, pos: pos})
}

func (p *parser) closeParen(pos int) error {
	for {
		if len(p.stack) == 0 {
			return newError(p.expr, ErrSyntax, "unmatched ')' at position %d", pos)
		}
		top := p.pop()
		if top.kind == stackLParen {
			break
		}
		p.emit(top)
	}

	isCall := p.parenFrame[len(p.parenFrame)-1]
	p.parenFrame = p.parenFrame[:len(p.parenFrame)-1]
	if !isCall {
		return nil
	}

	frame := p.frames[len(p.frames)-1]
	p.frames = p.frames[:len(p.frames)-1]
	if frame.expecting {
		return newError(p.expr, ErrSyntax, "missing argument in call to %s at position %d", frame.name, pos)
	}
	fn := p.pop()
	p.out = append(p.out, instruction{kind: opCall, name: fn.name, argc: frame.args, pos: fn.pos})
	return nil
}

func (p *parser) comma(pos int) error {
	if len(p.frames) == 0 || !p.parenFrame[len(p.parenFrame)-1] {
		return newError(p.expr, ErrSyntax, "comma outside of a function call at position %d", pos)
	}
	frame := p.frames[len(p.frames)-1]
	if frame.expecting {
		return newError(p.expr, ErrSyntax, "missing argument before ',' at position %d", pos)
	}
	for len(p.stack) > 0 && p.stack[len(p.stack)-1].kind != stackLParen {
		p.emit(p.pop())
	}
	frame.expecting = true
	return nil
}
