package parser

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenIdent     TokenType = iota // name or keyword; keywords are contextual
	TokenScriptVar                  // $name
	TokenInt                        // 42
	TokenFloat                      // 4.0, 4.0f, 4.0m
	TokenString                     // 'text'

	TokenLParen    // (
	TokenRParen    // )
	TokenComma     // ,
	TokenDot       // .
	TokenSemicolon // ;
	TokenQuestion  // ?
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenLBrace    // {
	TokenRBrace    // }

	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenPercent // %
	TokenEq      // =
	TokenNeq     // <> or !=
	TokenLt      // <
	TokenGt      // >
	TokenLte     // <=
	TokenGte     // >=

	TokenEOF
)

var tokenNames = map[TokenType]string{
	TokenIdent: "identifier", TokenScriptVar: "script variable", TokenInt: "integer",
	TokenFloat: "number", TokenString: "string",
	TokenLParen: "(", TokenRParen: ")", TokenComma: ",", TokenDot: ".", TokenSemicolon: ";",
	TokenQuestion: "?", TokenLBracket: "[", TokenRBracket: "]", TokenLBrace: "{", TokenRBrace: "}",
	TokenPlus: "+", TokenMinus: "-", TokenStar: "*", TokenSlash: "/", TokenPercent: "%",
	TokenEq: "=", TokenNeq: "<>", TokenLt: "<", TokenGt: ">", TokenLte: "<=", TokenGte: ">=",
	TokenEOF: "end of input",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Token(%d)", int(t))
}

// Token is a single lexical token with its 1-based position.
type Token struct {
	Type TokenType
	Val  string
	// Suffix is the precision suffix of a float literal: 0, 'f' or 'm'.
	Suffix rune
	Line   int
	Col    int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Type, t.Val, t.Line, t.Col)
}

// LexError reports an unrecognised character or unterminated literal.
type LexError struct {
	Line, Col int
	Msg       string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

type lexer struct {
	runes  []rune
	i      int
	line   int
	col    int
	tokens []Token
}

// Lex tokenizes PanSQL source. Input is NFC-normalized first so that
// identifiers compare equal regardless of how they were composed.
func Lex(input string) ([]Token, error) {
	l := &lexer{runes: []rune(norm.NFC.String(input)), line: 1, col: 1}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

func (l *lexer) peekAt(off int) rune {
	if l.i+off >= len(l.runes) {
		return 0
	}
	return l.runes[l.i+off]
}

func (l *lexer) next() rune {
	ch := l.runes[l.i]
	l.i++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *lexer) emit(tt TokenType, val string, line, col int) {
	l.tokens = append(l.tokens, Token{Type: tt, Val: val, Line: line, Col: col})
}

func (l *lexer) errorf(line, col int, format string, args ...any) error {
	return &LexError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

var singleChar = map[rune]TokenType{
	'(': TokenLParen, ')': TokenRParen, ',': TokenComma, '.': TokenDot, ';': TokenSemicolon,
	'?': TokenQuestion, '[': TokenLBracket, ']': TokenRBracket, '{': TokenLBrace, '}': TokenRBrace,
	'+': TokenPlus, '*': TokenStar, '%': TokenPercent, '=': TokenEq,
}

func (l *lexer) run() error {
	for l.i < len(l.runes) {
		ch := l.peekAt(0)
		line, col := l.line, l.col

		switch {
		case unicode.IsSpace(ch):
			l.next()
		case ch == '-' && l.peekAt(1) == '-':
			for l.i < len(l.runes) && l.peekAt(0) != '\n' {
				l.next()
			}
		case ch == '/' && l.peekAt(1) == '*':
			l.next()
			l.next()
			for {
				if l.i >= len(l.runes) {
					return l.errorf(line, col, "unterminated comment")
				}
				if l.peekAt(0) == '*' && l.peekAt(1) == '/' {
					l.next()
					l.next()
					break
				}
				l.next()
			}
		case ch == '\'':
			if err := l.lexString(); err != nil {
				return err
			}
		case ch == '$':
			l.next()
			name := l.readWord()
			if name == "" {
				return l.errorf(line, col, "expected script variable name after $")
			}
			l.emit(TokenScriptVar, name, line, col)
		case unicode.IsDigit(ch) || (ch == '.' && unicode.IsDigit(l.peekAt(1))):
			l.lexNumber()
		case unicode.IsLetter(ch) || ch == '_':
			l.emit(TokenIdent, l.readWord(), line, col)
		case ch == '"' || ch == '[' && l.bracketIdent():
			if err := l.lexQuotedIdent(); err != nil {
				return err
			}
		default:
			if err := l.lexOperator(); err != nil {
				return err
			}
		}
	}
	l.emit(TokenEOF, "", l.line, l.col)
	return nil
}

func (l *lexer) readWord() string {
	start := l.i
	for l.i < len(l.runes) {
		ch := l.peekAt(0)
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '_' {
			break
		}
		l.next()
	}
	return string(l.runes[start:l.i])
}

// bracketIdent distinguishes [quoted name] from the [] collection suffix
// of a type reference.
func (l *lexer) bracketIdent() bool {
	return l.peekAt(1) != ']'
}

func (l *lexer) lexQuotedIdent() error {
	line, col := l.line, l.col
	closer := '"'
	if l.next() == '[' {
		closer = ']'
	}
	var b strings.Builder
	for {
		if l.i >= len(l.runes) {
			return l.errorf(line, col, "unterminated quoted identifier")
		}
		ch := l.next()
		if ch == closer {
			break
		}
		b.WriteRune(ch)
	}
	l.emit(TokenIdent, b.String(), line, col)
	return nil
}

// lexString reads a single-quoted string; '' is an escaped quote.
func (l *lexer) lexString() error {
	line, col := l.line, l.col
	l.next()
	var b strings.Builder
	for {
		if l.i >= len(l.runes) {
			return l.errorf(line, col, "unterminated string")
		}
		ch := l.next()
		if ch == '\'' {
			if l.peekAt(0) == '\'' {
				l.next()
				b.WriteRune('\'')
				continue
			}
			break
		}
		b.WriteRune(ch)
	}
	l.emit(TokenString, b.String(), line, col)
	return nil
}

func (l *lexer) lexNumber() {
	line, col := l.line, l.col
	start := l.i
	isFloat := false
	for l.i < len(l.runes) {
		ch := l.peekAt(0)
		if unicode.IsDigit(ch) {
			l.next()
			continue
		}
		if ch == '.' && !isFloat && unicode.IsDigit(l.peekAt(1)) {
			isFloat = true
			l.next()
			continue
		}
		if (ch == 'e' || ch == 'E') && (unicode.IsDigit(l.peekAt(1)) ||
			(l.peekAt(1) == '-' || l.peekAt(1) == '+') && unicode.IsDigit(l.peekAt(2))) {
			isFloat = true
			l.next()
			l.next()
			continue
		}
		break
	}
	text := string(l.runes[start:l.i])

	var suffix rune
	switch l.peekAt(0) {
	case 'f', 'F':
		suffix = 'f'
	case 'm', 'M':
		suffix = 'm'
	}
	if suffix != 0 && !unicode.IsLetter(l.peekAt(1)) && !unicode.IsDigit(l.peekAt(1)) {
		l.next()
		isFloat = true
	} else {
		suffix = 0
	}

	tt := TokenInt
	if isFloat {
		tt = TokenFloat
	}
	l.tokens = append(l.tokens, Token{Type: tt, Val: text, Suffix: suffix, Line: line, Col: col})
}

func (l *lexer) lexOperator() error {
	line, col := l.line, l.col
	ch := l.next()
	if tt, ok := singleChar[ch]; ok {
		l.emit(tt, string(ch), line, col)
		return nil
	}
	switch ch {
	case '-':
		l.emit(TokenMinus, "-", line, col)
	case '/':
		l.emit(TokenSlash, "/", line, col)
	case '<':
		switch l.peekAt(0) {
		case '=':
			l.next()
			l.emit(TokenLte, "<=", line, col)
		case '>':
			l.next()
			l.emit(TokenNeq, "<>", line, col)
		default:
			l.emit(TokenLt, "<", line, col)
		}
	case '>':
		if l.peekAt(0) == '=' {
			l.next()
			l.emit(TokenGte, ">=", line, col)
		} else {
			l.emit(TokenGt, ">", line, col)
		}
	case '!':
		if l.peekAt(0) != '=' {
			return l.errorf(line, col, "unexpected character '!'")
		}
		l.next()
		l.emit(TokenNeq, "<>", line, col)
	default:
		return l.errorf(line, col, "unexpected character %q", ch)
	}
	return nil
}
