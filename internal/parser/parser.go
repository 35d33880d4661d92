// Package parser turns PanSQL source text into an ast.File.
//
// Keywords are contextual and case-insensitive: the lexer emits every word
// as an identifier and the parser matches keywords by position.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/diag"
)

// Parser converts a token stream into an AST.
type Parser struct {
	tokens []Token
	pos    int
}

// Parse parses a complete script. Every failure is a *diag.SyntaxError.
func Parse(input string) (*ast.File, error) {
	tokens, err := Lex(input)
	if err != nil {
		var lexErr *LexError
		if errors.As(err, &lexErr) {
			return nil, &diag.SyntaxError{Line: lexErr.Line, Col: lexErr.Col, Detail: lexErr.Msg}
		}
		return nil, &diag.SyntaxError{Detail: err.Error()}
	}
	p := &Parser{tokens: tokens}
	return p.parseFile()
}

// ParseExpression parses a single expression; used by tests and tooling.
func ParseExpression(input string) (ast.Expression, error) {
	tokens, err := Lex(input)
	if err != nil {
		return nil, &diag.SyntaxError{Detail: err.Error()}
	}
	p := &Parser{tokens: tokens}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, p.errorf(tok, "unexpected %s after expression", describe(tok))
	}
	return expr, nil
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(off int) Token {
	if p.pos+off >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+off]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) errorf(tok Token, format string, args ...any) error {
	return &diag.SyntaxError{Line: tok.Line, Col: tok.Col, Detail: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, p.errorf(tok, "expected %s, got %s", tt, describe(tok))
	}
	return tok, nil
}

// isKeyword reports whether the next token is the given keyword.
func (p *Parser) isKeyword(kw string) bool {
	tok := p.peek()
	return tok.Type == TokenIdent && strings.EqualFold(tok.Val, kw)
}

func (p *Parser) acceptKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectKeyword(kw string) (Token, error) {
	tok := p.advance()
	if tok.Type != TokenIdent || !strings.EqualFold(tok.Val, kw) {
		return tok, p.errorf(tok, "expected %s, got %s", strings.ToUpper(kw), describe(tok))
	}
	return tok, nil
}

func describe(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of input"
	case TokenIdent:
		return fmt.Sprintf("%q", tok.Val)
	case TokenString:
		return fmt.Sprintf("string '%s'", tok.Val)
	}
	return fmt.Sprintf("%s %q", tok.Type, tok.Val)
}

func span(tok Token) ast.Span {
	return ast.Span{At: ast.Pos{Line: tok.Line, Col: tok.Col}}
}

// reserved words cannot be used as aliases.
var reserved = map[string]bool{
	"from": true, "where": true, "into": true, "join": true, "inner": true, "on": true,
	"and": true, "or": true, "not": true, "as": true, "select": true,
}

func (p *Parser) parseFile() (*ast.File, error) {
	file := &ast.File{}
	for {
		for p.peek().Type == TokenSemicolon {
			p.advance()
		}
		if p.peek().Type == TokenEOF {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		file.Statements = append(file.Statements, stmt)
	}
	if len(file.Statements) == 0 {
		return nil, &diag.SyntaxError{Detail: "script contains no statements"}
	}
	return file, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	tok := p.peek()
	if tok.Type != TokenIdent {
		return nil, p.errorf(tok, "expected statement, got %s", describe(tok))
	}
	switch strings.ToLower(tok.Val) {
	case "load":
		return p.parseLoad()
	case "save":
		return p.parseSave()
	case "open":
		return p.parseOpen()
	case "analyze":
		return p.parseAnalyze()
	case "stream", "table":
		return p.parseVarDeclaration()
	case "declare":
		return p.parseScriptVar()
	case "map":
		return p.parseMap()
	case "sync":
		return p.parseSync()
	case "select":
		return p.parseSelect()
	}
	return nil, p.errorf(tok, "unknown statement %q", tok.Val)
}

func (p *Parser) parseIdent() (*ast.Identifier, error) {
	tok, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	return &ast.Identifier{Span: span(tok), Name: tok.Val}, nil
}

func (p *Parser) parseString() (*ast.StringLiteral, error) {
	tok, err := p.expect(TokenString)
	if err != nil {
		return nil, err
	}
	return &ast.StringLiteral{Span: span(tok), Value: tok.Val}, nil
}

func (p *Parser) parseCompound() (*ast.CompoundIdentifier, error) {
	first, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	c := &ast.CompoundIdentifier{Span: first.Span, Parts: []*ast.Identifier{first}}
	for p.peek().Type == TokenDot {
		p.advance()
		part, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		c.Parts = append(c.Parts, part)
	}
	return c, nil
}

// load <name> from '<file>'
func (p *Parser) parseLoad() (ast.Statement, error) {
	kw := p.advance()
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("from"); err != nil {
		return nil, err
	}
	file, err := p.parseString()
	if err != nil {
		return nil, err
	}
	return &ast.LoadStatement{Span: span(kw), Name: name, Filename: file}, nil
}

// save <name> to '<file>'
func (p *Parser) parseSave() (ast.Statement, error) {
	kw := p.advance()
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("to"); err != nil {
		return nil, err
	}
	file, err := p.parseString()
	if err != nil {
		return nil, err
	}
	return &ast.SaveStatement{Span: span(kw), Name: name, Filename: file}, nil
}

// open <name> as <Connector> for read|write|analyze [with <dict>,] <credentials>
func (p *Parser) parseOpen() (ast.Statement, error) {
	kw := p.advance()
	stmt := &ast.OpenStatement{Span: span(kw)}
	var err error
	if stmt.Name, err = p.parseIdent(); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("as"); err != nil {
		return nil, err
	}
	if stmt.Connector, err = p.parseIdent(); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("for"); err != nil {
		return nil, err
	}
	purpose := p.advance()
	switch strings.ToLower(purpose.Val) {
	case "read":
		stmt.Purpose = ast.PurposeRead
	case "write":
		stmt.Purpose = ast.PurposeWrite
	case "analyze":
		stmt.Purpose = ast.PurposeAnalyze
	default:
		return nil, p.errorf(purpose, "expected READ, WRITE or ANALYZE, got %s", describe(purpose))
	}
	if _, err := p.expectKeyword("with"); err != nil {
		return nil, err
	}
	// A dictionary name is followed by a comma; credentials are not.
	if p.peek().Type == TokenIdent && p.peekAt(1).Type == TokenComma {
		if stmt.Dictionary, err = p.parseIdent(); err != nil {
			return nil, err
		}
		p.advance()
	}
	if stmt.Credentials, err = p.parseCredentials(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseCredentials() (ast.Expression, error) {
	tok := p.peek()
	if tok.Type == TokenIdent && p.peekAt(1).Type == TokenLParen {
		var method ast.CredentialMethod
		switch strings.ToLower(tok.Val) {
		case "credentialsfromenv":
			method = ast.CredentialsFromEnv
		case "credentialsfromfile":
			method = ast.CredentialsFromFile
		default:
			return nil, p.errorf(tok, "expected CredentialsFromEnv or CredentialsFromFile, got %q", tok.Val)
		}
		p.advance()
		p.advance()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return &ast.CredentialExpression{Span: span(tok), Method: method, Value: value}, nil
	}
	value, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return &ast.CredentialExpression{Span: span(tok), Method: ast.CredentialsLiteral, Value: value}, nil
}

// analyze <conn> as <dict> [with optimize] [include|exclude (a.b, ...)]
func (p *Parser) parseAnalyze() (ast.Statement, error) {
	kw := p.advance()
	stmt := &ast.AnalyzeStatement{Span: span(kw)}
	var err error
	if stmt.Conn, err = p.parseIdent(); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("as"); err != nil {
		return nil, err
	}
	if stmt.Dictionary, err = p.parseIdent(); err != nil {
		return nil, err
	}
	if p.acceptKeyword("with") {
		if _, err := p.expectKeyword("optimize"); err != nil {
			return nil, err
		}
		stmt.Optimize = true
	}
	switch {
	case p.acceptKeyword("include"):
		stmt.Include, err = p.parseCompoundList()
	case p.acceptKeyword("exclude"):
		stmt.Exclude, err = p.parseCompoundList()
	}
	if err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseCompoundList() ([]*ast.CompoundIdentifier, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	var out []*ast.CompoundIdentifier
	for {
		c, err := p.parseCompound()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		if p.peek().Type != TokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return out, nil
}

// stream|table <name> as <dict>.<Stream>
func (p *Parser) parseVarDeclaration() (ast.Statement, error) {
	kw := p.advance()
	stmt := &ast.VarDeclaration{Span: span(kw), Kind: ast.VarStream}
	if strings.EqualFold(kw.Val, "table") {
		stmt.Kind = ast.VarTable
	}
	var err error
	if stmt.Name, err = p.parseIdent(); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("as"); err != nil {
		return nil, err
	}
	if stmt.Stream, err = p.parseCompound(); err != nil {
		return nil, err
	}
	if len(stmt.Stream.Parts) < 2 {
		return nil, p.errorf(kw, "%s declaration requires a dictionary-qualified stream name", stmt.Kind)
	}
	return stmt, nil
}

// declare $<name> as <type> [= <default>]
func (p *Parser) parseScriptVar() (ast.Statement, error) {
	kw := p.advance()
	tok, err := p.expect(TokenScriptVar)
	if err != nil {
		return nil, err
	}
	stmt := &ast.ScriptVarDeclaration{
		Span: span(kw),
		Name: &ast.ScriptVarReference{Span: span(tok), Name: tok.Val},
	}
	if _, err := p.expectKeyword("as"); err != nil {
		return nil, err
	}
	if stmt.TypeRef, err = p.parseTypeReference(); err != nil {
		return nil, err
	}
	if p.peek().Type == TokenEq {
		p.advance()
		if stmt.Default, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// parseTypeReference reads tag[(n[,m])][?][[]|{}] and keeps it as text
// for the type lattice to interpret.
func (p *Parser) parseTypeReference() (*ast.TypeReference, error) {
	tok, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString(tok.Val)
	if p.peek().Type == TokenLParen {
		p.advance()
		b.WriteByte('(')
		for first := true; ; first = false {
			n, err := p.expect(TokenInt)
			if err != nil {
				return nil, err
			}
			if !first {
				b.WriteByte(',')
			}
			b.WriteString(n.Val)
			if p.peek().Type != TokenComma {
				break
			}
			p.advance()
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		b.WriteByte(')')
	}
	if p.peek().Type == TokenQuestion {
		p.advance()
		b.WriteByte('?')
	}
	switch p.peek().Type {
	case TokenLBracket:
		p.advance()
		if _, err := p.expect(TokenRBracket); err != nil {
			return nil, err
		}
		b.WriteString("[]")
	case TokenLBrace:
		p.advance()
		if _, err := p.expect(TokenRBrace); err != nil {
			return nil, err
		}
		b.WriteString("{}")
	}
	return &ast.TypeReference{Span: span(tok), Text: b.String()}, nil
}

// map <dict>.<Stream> to <dict>.<Stream> [with (src = dst, ...)]
func (p *Parser) parseMap() (ast.Statement, error) {
	kw := p.advance()
	stmt := &ast.MapStatement{Span: span(kw)}
	var err error
	if stmt.Source, err = p.parseCompound(); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("to"); err != nil {
		return nil, err
	}
	if stmt.Target, err = p.parseCompound(); err != nil {
		return nil, err
	}
	if !p.acceptKeyword("with") {
		return stmt, nil
	}
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	for {
		src, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenEq); err != nil {
			return nil, err
		}
		dst, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		stmt.Fields = append(stmt.Fields, &ast.MapField{Span: src.Span, Source: src, Target: dst})
		if p.peek().Type != TokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return stmt, nil
}

// sync <input> to <output>
func (p *Parser) parseSync() (ast.Statement, error) {
	kw := p.advance()
	in, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("to"); err != nil {
		return nil, err
	}
	out, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	return &ast.SyncStatement{Span: span(kw), Input: in, Output: out}, nil
}

// select cols [from t [alias] {[inner] join t [alias] on e}] [where e] [into n]
func (p *Parser) parseSelect() (ast.Statement, error) {
	kw := p.advance()
	stmt := &ast.SqlTransformStatement{Span: span(kw)}
	for {
		col, err := p.parseSelectColumn()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col)
		if p.peek().Type != TokenComma {
			break
		}
		p.advance()
	}

	if p.acceptKeyword("from") {
		from, err := p.parseTableRef()
		if err != nil {
			return nil, err
		}
		stmt.From = from
		for p.isKeyword("join") || p.isKeyword("inner") {
			jtok := p.advance()
			if strings.EqualFold(jtok.Val, "inner") {
				if _, err := p.expectKeyword("join"); err != nil {
					return nil, err
				}
			}
			table, err := p.parseTableRef()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectKeyword("on"); err != nil {
				return nil, err
			}
			on, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			stmt.Joins = append(stmt.Joins, &ast.Join{Span: span(jtok), Table: table, On: on})
		}
	}
	if p.acceptKeyword("where") {
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	if p.acceptKeyword("into") {
		into, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		stmt.Into = into
	}
	return stmt, nil
}

func (p *Parser) parseSelectColumn() (*ast.SelectColumn, error) {
	start := p.peek()
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	col := &ast.SelectColumn{Span: span(start), Expr: expr}
	if p.acceptKeyword("as") {
		if col.Alias, err = p.parseIdent(); err != nil {
			return nil, err
		}
	}
	return col, nil
}

func (p *Parser) parseTableRef() (*ast.TableRef, error) {
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	ref := &ast.TableRef{Span: name.Span, Name: name}
	p.acceptKeyword("as")
	if tok := p.peek(); tok.Type == TokenIdent && !reserved[strings.ToLower(tok.Val)] {
		if ref.Alias, err = p.parseIdent(); err != nil {
			return nil, err
		}
	}
	return ref, nil
}

// Expression grammar, lowest precedence first:
//
//	or      := and { OR and }
//	and     := not { AND not }
//	not     := [NOT] compare
//	compare := additive [ (= | <> | < | <= | > | >=) additive ]
//	additive:= term { (+ | -) term }
//	term    := unary { (* | / | %) unary }
//	unary   := [-] primary
func (p *Parser) parseExpr() (ast.Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		tok := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Span: span(tok), Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		tok := p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Span: span(tok), Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expression, error) {
	if p.isKeyword("not") {
		tok := p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Span: span(tok), Op: "NOT", Operand: operand}, nil
	}
	return p.parseCompare()
}

var compareOps = map[TokenType]string{
	TokenEq: "=", TokenNeq: "<>", TokenLt: "<", TokenLte: "<=", TokenGt: ">", TokenGte: ">=",
}

func (p *Parser) parseCompare() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if op, ok := compareOps[p.peek().Type]; ok {
		tok := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpression{Span: span(tok), Op: op, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenPlus || p.peek().Type == TokenMinus {
		tok := p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Span: span(tok), Op: tok.Val, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseTerm() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for t := p.peek().Type; t == TokenStar || t == TokenSlash || t == TokenPercent; t = p.peek().Type {
		tok := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Span: span(tok), Op: tok.Val, Left: left, Right: right}
	}
	return left, nil
}

// parseUnary folds a minus sign into a directly following numeric literal
// so that SIGN(-5) carries the literal -5.
func (p *Parser) parseUnary() (ast.Expression, error) {
	if p.peek().Type != TokenMinus {
		return p.parsePrimary()
	}
	tok := p.advance()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	switch lit := operand.(type) {
	case *ast.IntegerLiteral:
		lit.Value = -lit.Value
		lit.At = span(tok).At
		return lit, nil
	case *ast.FloatLiteral:
		if strings.HasPrefix(lit.Text, "-") {
			lit.Text = strings.TrimPrefix(lit.Text, "-")
		} else {
			lit.Text = "-" + lit.Text
		}
		lit.At = span(tok).At
		return lit, nil
	}
	return &ast.UnaryExpression{Span: span(tok), Op: "-", Operand: operand}, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok := p.peek()
	switch tok.Type {
	case TokenInt:
		p.advance()
		v, err := strconv.ParseInt(tok.Val, 10, 64)
		if err != nil {
			return nil, p.errorf(tok, "integer literal %s out of range", tok.Val)
		}
		return &ast.IntegerLiteral{Span: span(tok), Value: v}, nil
	case TokenFloat:
		p.advance()
		lit := &ast.FloatLiteral{Span: span(tok), Text: tok.Val, Kind: ast.FloatDouble}
		bits, name := 64, "double"
		switch tok.Suffix {
		case 'f':
			lit.Kind = ast.FloatSingle
			bits, name = 32, "single"
		case 'm':
			lit.Kind = ast.FloatDecimal
			return lit, nil
		}
		if _, err := strconv.ParseFloat(tok.Val, bits); errors.Is(err, strconv.ErrRange) {
			return nil, p.errorf(tok, "%s literal %s out of range", name, tok.Val)
		}
		return lit, nil
	case TokenString:
		p.advance()
		return &ast.StringLiteral{Span: span(tok), Value: tok.Val}, nil
	case TokenScriptVar:
		p.advance()
		return &ast.ScriptVarReference{Span: span(tok), Name: tok.Val}, nil
	case TokenLParen:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return expr, nil
	case TokenIdent:
		if reserved[strings.ToLower(tok.Val)] {
			return nil, p.errorf(tok, "unexpected keyword %s", strings.ToUpper(tok.Val))
		}
		if p.peekAt(1).Type == TokenLParen {
			return p.parseCall()
		}
		c, err := p.parseCompound()
		if err != nil {
			return nil, err
		}
		if len(c.Parts) == 1 {
			return p.bareName(c.Parts[0]), nil
		}
		return c, nil
	}
	return nil, p.errorf(tok, "expected expression, got %s", describe(tok))
}

// niladic names parse as argument-less calls even without parentheses,
// the way the grammar treats CURRENT_TIMESTAMP in SQL.
var niladic = map[string]bool{
	"current_timestamp": true,
	"getdate":           true,
	"getutcdate":        true,
	"pi":                true,
}

func (p *Parser) bareName(id *ast.Identifier) ast.Expression {
	if niladic[strings.ToLower(id.Name)] {
		return &ast.FunctionCallExpression{Span: id.Span, Name: id.Name}
	}
	return id
}

func (p *Parser) parseCall() (ast.Expression, error) {
	name := p.advance()
	p.advance() // (
	call := &ast.FunctionCallExpression{Span: span(name), Name: name.Val, HasParens: true}
	if p.peek().Type == TokenRParen {
		p.advance()
		return call, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		if p.peek().Type != TokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return call, nil
}
