// ==============================================================================================
// FILE: internal/parser/parser.go
// ==============================================================================================
// PACKAGE: parser
// PURPOSE: Recursive-descent, Pratt-expression parser. Converts a token
//          stream into the immutable ast.Program. Every production either
//          returns a well-formed node or a partial node plus a diagnostic,
//          then resynchronizes — the parser is total (spec.md §4.2).
//          Keeps the teacher's prefix/infix function-table Pratt-parsing
//          shape (parser/parser.go) and its curToken/peekToken,
//          expectPeek/peekError plumbing; the grammar itself targets
//          Manaknight instead of Eloquence.
// ==============================================================================================

package parser

import (
	"strings"

	"github.com/manaknight/mkc/internal/ast"
	"github.com/manaknight/mkc/internal/diag"
	"github.com/manaknight/mkc/internal/lexer"
	"github.com/manaknight/mkc/internal/token"
)

// Precedence levels, tightest last reached but highest value binds
// tightest, per the teacher's iota ladder.
const (
	_ int = iota
	LOWEST
	PIPECALL    // |>
	OR_AND      // && ||
	COMPARE     // == != < > <= >=
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -x, !x
	CALL        // f(x), a.b
)

var precedences = map[token.Kind]int{
	token.PIPE:    PIPECALL,
	token.ANDAND:  OR_AND,
	token.OROR:    OR_AND,
	token.EQ:      COMPARE,
	token.NEQ:     COMPARE,
	token.LT:      COMPARE,
	token.GT:      COMPARE,
	token.LE:      COMPARE,
	token.GE:      COMPARE,
	token.PLUS:    SUM,
	token.MINUS:   SUM,
	token.STAR:    PRODUCT,
	token.SLASH:   PRODUCT,
	token.PERCENT: PRODUCT,
	token.LPAREN:  CALL,
	token.DOT:     CALL,
}

// synchronizers are the tokens at which ParseProgram resumes after a
// malformed construct, per spec.md §4.2.
var synchronizers = map[token.Kind]bool{
	token.RBRACE: true,
	token.FN:     true,
	token.API:    true,
	token.MODULE: true,
	token.TYPE:   true,
	token.EFFECT: true,
	token.IMPORT: true,
	token.EOF:    true,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser holds parse state for a single file.
type Parser struct {
	l     *lexer.Lexer
	arena *ast.Arena
	file  string

	curToken  token.Token
	peekToken token.Token

	Diags diag.Bag

	prefixParseFns map[token.Kind]prefixParseFn
	infixParseFns  map[token.Kind]infixParseFn
}

// New builds a Parser reading from l, stamping diagnostics and node
// positions with file.
func New(file string, l *lexer.Lexer, arena *ast.Arena) *Parser {
	p := &Parser{l: l, arena: arena, file: file}

	p.prefixParseFns = map[token.Kind]prefixParseFn{
		token.IDENT:  p.parseIdentifier,
		token.INT:    p.parseIntLiteral,
		token.STRING: p.parseStringLiteral,
		token.BOOL:   p.parseBoolLiteral,
		token.MINUS:  p.parsePrefixExpression,
		token.BANG:   p.parsePrefixExpression,
		token.LPAREN: p.parseGroupedOrUnit,
		token.IF:     p.parseIfExpressionPrefix,
		token.MATCH:  p.parseMatchExpressionPrefix,
		token.FN:     p.parseLambdaExpression,
	}

	p.infixParseFns = map[token.Kind]infixParseFn{
		token.PLUS:    p.parseInfixExpression,
		token.MINUS:   p.parseInfixExpression,
		token.STAR:    p.parseInfixExpression,
		token.SLASH:   p.parseInfixExpression,
		token.PERCENT: p.parseInfixExpression,
		token.EQ:      p.parseInfixExpression,
		token.NEQ:     p.parseInfixExpression,
		token.LT:      p.parseInfixExpression,
		token.GT:      p.parseInfixExpression,
		token.LE:      p.parseInfixExpression,
		token.GE:      p.parseInfixExpression,
		token.ANDAND:  p.parseInfixExpression,
		token.OROR:    p.parseInfixExpression,
		token.PIPE:    p.parsePipeExpression,
		token.LPAREN:  p.parseCallExpression,
		token.DOT:     p.parseQualifiedIdentifier,
	}

	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) pos() ast.Pos {
	return ast.Pos{File: p.file, Line: p.curToken.Line, Column: p.curToken.Column}
}


func (p *Parser) curIs(k token.Kind) bool  { return p.curToken.Kind == k }
func (p *Parser) peekIs(k token.Kind) bool { return p.peekToken.Kind == k }

func (p *Parser) expectPeek(k token.Kind) bool {
	if p.peekIs(k) {
		p.nextToken()
		return true
	}
	p.peekError(k)
	return false
}

func (p *Parser) peekError(k token.Kind) {
	p.Diags.Addf(diag.ErrUnexpectedToken, diag.Position{File: p.file, Line: p.peekToken.Line, Column: p.peekToken.Column},
		"expected next token to be %s, got %s instead", k, p.peekToken.Kind)
}

func (p *Parser) errorf(code diag.Code, format string, args ...any) {
	p.Diags.Addf(code, diag.Position{File: p.file, Line: p.curToken.Line, Column: p.curToken.Column}, format, args...)
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Kind]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Kind]; ok {
		return prec
	}
	return LOWEST
}

// synchronize advances past the rest of a malformed construct to the next
// recovery point, so a single bad declaration does not cascade.
func (p *Parser) synchronize() {
	for !synchronizers[p.curToken.Kind] {
		p.nextToken()
	}
}

// ------------------------------------------------------------------------
// Top level
// ------------------------------------------------------------------------

const rootModuleName = "" // the implicit script-mode module (spec.md §8 scenario 1)

// ParseProgram parses a whole file: modules, api routes, and any loose
// top-level declarations (the "script mode" shape spec.md §8 demonstrates
// with `fn main() -> String { "hi" }` and no enclosing module).
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{Base: ast.NewBase(p.arena, p.pos())}
	root := &ast.Module{Base: ast.NewBase(p.arena, p.pos()), Name: rootModuleName}

	for !p.curIs(token.EOF) {
		parsed := false
		switch p.curToken.Kind {
		case token.MODULE:
			if m := p.parseModule(); m != nil {
				prog.Modules = append(prog.Modules, m)
				parsed = true
			}
		case token.API:
			if r := p.parseAPIRoute(); r != nil {
				prog.Routes = append(prog.Routes, r)
				parsed = true
			}
		case token.FN, token.TYPE, token.EFFECT, token.IMPORT, token.EXPORT:
			if d := p.parseDeclaration(root); d != nil {
				root.Decls = append(root.Decls, d)
				parsed = true
			}
		default:
			p.errorf(diag.ErrUnexpectedToken, "unexpected token %s at top level", p.curToken.Kind)
			p.nextToken()
			p.synchronize()
			continue
		}
		if parsed {
			p.nextToken() // step past the construct's last token
		}
	}

	if len(root.Decls) > 0 {
		prog.Modules = append(prog.Modules, root)
	}
	return prog
}

func (p *Parser) parseModule() *ast.Module {
	start := p.pos()
	p.nextToken() // consume 'module'
	name := p.parseDottedName()
	if !p.expectPeek(token.LBRACE) {
		p.synchronize()
		return nil
	}
	p.nextToken()

	m := &ast.Module{Base: ast.NewBase(p.arena, start), Name: name}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		d := p.parseDeclaration(m)
		if d != nil {
			m.Decls = append(m.Decls, d)
		}
		p.nextToken()
	}
	return m
}

func (p *Parser) parseDottedName() string {
	var parts []string
	if p.curIs(token.IDENT) {
		parts = append(parts, p.curToken.Lexeme)
	}
	for p.peekIs(token.DOT) {
		p.nextToken() // consume DOT
		p.nextToken() // consume next ident
		parts = append(parts, p.curToken.Lexeme)
	}
	return strings.Join(parts, ".")
}

// parseDeclaration dispatches on the current token. An `export` prefix
// marks the wrapped declaration's name in m's export list — a concrete
// syntax for the "explicit export list" spec.md §3 describes without
// giving a grammar for.
func (p *Parser) parseDeclaration(m *ast.Module) ast.Decl {
	exported := false
	if p.curIs(token.EXPORT) {
		exported = true
		p.nextToken()
	}

	var (
		decl ast.Decl
		name string
	)
	switch p.curToken.Kind {
	case token.FN:
		fd := p.parseFuncDecl()
		if fd != nil {
			decl, name = fd, fd.Name
		}
	case token.TYPE:
		td := p.parseTypeDecl()
		if td != nil {
			decl, name = td, td.Name
		}
	case token.EFFECT:
		ed := p.parseEffectDecl()
		if ed != nil {
			decl, name = ed, ed.Name
		}
	case token.IMPORT:
		id := p.parseImportDecl()
		if id != nil {
			decl = id
		}
	default:
		p.errorf(diag.ErrUnexpectedToken, "expected a declaration, got %s", p.curToken.Kind)
		p.synchronize()
		return nil
	}

	if decl == nil {
		return nil
	}
	if exported && name != "" {
		m.Exports = append(m.Exports, name)
	}
	return decl
}

func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	start := p.pos()
	p.nextToken() // consume 'fn'
	if !p.curIs(token.IDENT) {
		p.errorf(diag.ErrUnexpectedToken, "expected function name, got %s", p.curToken.Kind)
		p.synchronize()
		return nil
	}
	fd := &ast.FuncDecl{Base: ast.NewBase(p.arena, start), Name: p.curToken.Lexeme}

	if !p.expectPeek(token.LPAREN) {
		p.synchronize()
		return nil
	}
	fd.Params = p.parseParamList()

	if p.peekIs(token.ARROW) {
		p.nextToken()
		p.nextToken()
		fd.ReturnType = p.parseType()
	} else {
		fd.ReturnType = &ast.PrimitiveType{Base: ast.NewBase(p.arena, p.pos()), Kind: ast.PrimUnit}
	}

	if p.peekIs(token.USES) {
		p.nextToken()
		fd.Effects = p.parseEffectList()
	}

	if !p.expectPeek(token.LBRACE) {
		p.synchronize()
		return nil
	}
	fd.Body = p.parseBlock()
	return fd
}

// parseParamList parses `( IDENT : type (, IDENT : type)* )`; no trailing
// comma accepted (spec.md §4.2).
func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param
	if p.peekIs(token.RPAREN) {
		p.nextToken()
		return params
	}
	p.nextToken()
	params = append(params, p.parseOneParam())
	for p.peekIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		if p.curIs(token.RPAREN) {
			p.errorf(diag.ErrTrailingComma, "trailing comma is not allowed in a parameter list")
			break
		}
		params = append(params, p.parseOneParam())
	}
	if !p.expectPeek(token.RPAREN) {
		return params
	}
	return params
}

func (p *Parser) parseOneParam() ast.Param {
	name := p.curToken.Lexeme
	if !p.expectPeek(token.COLON) {
		return ast.Param{Name: name}
	}
	p.nextToken()
	return ast.Param{Name: name, Type: p.parseType()}
}

func (p *Parser) parseEffectList() []string {
	var effects []string
	if !p.expectPeek(token.LBRACE) {
		return effects
	}
	if p.peekIs(token.RBRACE) {
		p.nextToken()
		return effects
	}
	p.nextToken()
	effects = append(effects, p.curToken.Lexeme)
	for p.peekIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		effects = append(effects, p.curToken.Lexeme)
	}
	p.expectPeek(token.RBRACE)
	return effects
}

func (p *Parser) parseTypeDecl() *ast.TypeDecl {
	start := p.pos()
	p.nextToken() // consume 'type'
	if !p.curIs(token.IDENT) {
		p.errorf(diag.ErrUnexpectedToken, "expected type name, got %s", p.curToken.Kind)
		p.synchronize()
		return nil
	}
	td := &ast.TypeDecl{Base: ast.NewBase(p.arena, start), Name: p.curToken.Lexeme}

	if p.peekIs(token.LT) {
		p.nextToken()
		p.nextToken()
		td.TypeParams = append(td.TypeParams, p.curToken.Lexeme)
		for p.peekIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			td.TypeParams = append(td.TypeParams, p.curToken.Lexeme)
		}
		p.expectPeek(token.GT)
	}

	if !p.expectPeek(token.LBRACE) {
		p.synchronize()
		return nil
	}

	// Disambiguate record vs union by lookahead: a union variant is an
	// identifier followed by '(' or another identifier/'}'; a record field
	// is always `name : type`. We peek for a COLON right after the first
	// identifier in the body to decide.
	if p.peekIs(token.RBRACE) {
		p.nextToken()
		td.Body = ast.RecordBody{}
		return td
	}

	p.nextToken()
	firstName := p.curToken.Lexeme
	if p.peekIs(token.COLON) {
		td.Body = p.parseRecordBodyContinuing(firstName)
	} else {
		td.Body = p.parseUnionBodyContinuing(firstName)
	}
	return td
}

func (p *Parser) parseRecordBodyContinuing(firstName string) ast.RecordBody {
	body := ast.RecordBody{}
	p.nextToken() // consume COLON
	p.nextToken()
	body.Fields = append(body.Fields, ast.Field{Name: firstName, Type: p.parseType()})
	for p.peekIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		name := p.curToken.Lexeme
		if !p.expectPeek(token.COLON) {
			break
		}
		p.nextToken()
		body.Fields = append(body.Fields, ast.Field{Name: name, Type: p.parseType()})
	}
	p.expectPeek(token.RBRACE)
	return body
}

func (p *Parser) parseUnionBodyContinuing(firstName string) ast.UnionBody {
	body := ast.UnionBody{}
	body.Variants = append(body.Variants, p.parseVariantContinuing(firstName))
	for p.peekIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		body.Variants = append(body.Variants, p.parseVariant())
	}
	p.expectPeek(token.RBRACE)
	return body
}

func (p *Parser) parseVariant() ast.Variant {
	name := p.curToken.Lexeme
	return p.parseVariantContinuing(name)
}

func (p *Parser) parseVariantContinuing(name string) ast.Variant {
	v := ast.Variant{Name: name}
	if p.peekIs(token.LPAREN) {
		p.nextToken()
		if p.peekIs(token.RPAREN) {
			p.nextToken()
			return v
		}
		p.nextToken()
		v.Fields = append(v.Fields, ast.Field{Name: "field0", Type: p.parseType()})
		for p.peekIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			v.Fields = append(v.Fields, ast.Field{Name: fieldName(len(v.Fields)), Type: p.parseType()})
		}
		p.expectPeek(token.RPAREN)
	}
	return v
}

func fieldName(i int) string {
	return "field" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var digits []byte
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

func (p *Parser) parseEffectDecl() *ast.EffectDecl {
	start := p.pos()
	p.nextToken() // consume 'effect'
	name := p.curToken.Lexeme
	return &ast.EffectDecl{Base: ast.NewBase(p.arena, start), Name: name}
}

func (p *Parser) parseImportDecl() *ast.ImportDecl {
	start := p.pos()
	p.nextToken() // consume 'import'
	path := p.parseDottedName()
	id := &ast.ImportDecl{Base: ast.NewBase(p.arena, start), Path: path}
	if p.peekIs(token.AS) {
		p.nextToken()
		p.nextToken()
		id.Alias = p.curToken.Lexeme
	}
	return id
}

// ------------------------------------------------------------------------
// API routes
// ------------------------------------------------------------------------

func (p *Parser) parseAPIRoute() *ast.APIRoute {
	start := p.pos()
	p.nextToken() // consume 'api'

	method := p.curToken.Lexeme
	if !token.HTTPMethods[method] {
		p.errorf(diag.ErrBadMethod, "unsupported HTTP method %q", method)
	}
	p.nextToken()

	if !p.curIs(token.STRING) {
		p.errorf(diag.ErrUnexpectedToken, "expected a quoted route path, got %s", p.curToken.Kind)
		p.synchronize()
		return nil
	}
	path := p.curToken.StringValue
	segments, ok := parsePathSegments(path)
	if !ok {
		p.errorf(diag.ErrBadPathSegment, "route path %q contains an empty segment", path)
	}

	route := &ast.APIRoute{Base: ast.NewBase(p.arena, start), Method: method, Path: path, Segments: segments}

	if !p.expectPeek(token.LPAREN) {
		p.synchronize()
		return nil
	}
	route.Params = p.parseParamList()

	if !p.expectPeek(token.ARROW) {
		p.synchronize()
		return nil
	}
	p.nextToken()
	route.ReturnType = p.parseType()

	if !p.expectPeek(token.LBRACE) {
		p.synchronize()
		return nil
	}
	route.Body = p.parseBlock()
	return route
}

// parsePathSegments splits a route path on '/'; an empty segment (i.e.
// "//") is a parse-time error per spec.md §4.2 (E6002).
func parsePathSegments(path string) ([]ast.PathSegment, bool) {
	if !strings.HasPrefix(path, "/") {
		return nil, false
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	segments := make([]ast.PathSegment, 0, len(parts))
	ok := true
	for _, part := range parts {
		if part == "" {
			ok = false
			continue
		}
		if strings.HasPrefix(part, ":") {
			segments = append(segments, ast.PathSegment{Placeholder: strings.TrimPrefix(part, ":")})
		} else {
			segments = append(segments, ast.PathSegment{Literal: part})
		}
	}
	return segments, ok
}

// ------------------------------------------------------------------------
// Blocks & statements
// ------------------------------------------------------------------------

// parseBlock parses `{ stmt* [tail-expr] }`, assuming curToken == '{'.
// Leaves curToken on the closing '}'.
func (p *Parser) parseBlock() *ast.Block {
	start := p.pos()
	block := &ast.Block{Base: ast.NewBase(p.arena, start)}
	p.nextToken()

	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if es, ok := stmt.(*ast.ExprStatement); ok && p.peekIs(token.RBRACE) {
			block.Tail = es.Expr
			p.nextToken()
			break
		}
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}
	if !p.curIs(token.RBRACE) {
		p.errorf(diag.ErrMissingBrace, "expected '}' to close block, got %s", p.curToken.Kind)
	}
	return block
}

// parseStatement parses one block element. A bare expression, `if`, or
// `match` is only committed as a Statement node once it's clear it is not
// the block's tail — parseBlock makes that call by peeking for the
// closing '}' and, when found, unwraps the ExprStatement it got back into
// the block's Tail instead (re-wrapping if/match into their expression
// forms on that path).
func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Kind {
	case token.LET:
		return p.parseLetStatement()
	case token.IF:
		start := p.pos()
		cond, then, els := p.parseIfCore()
		if p.peekIs(token.RBRACE) {
			return &ast.ExprStatement{Base: ast.NewBase(p.arena, start),
				Expr: &ast.IfExpression{Base: ast.NewBase(p.arena, start), Cond: cond, Then: then, Else: els}}
		}
		return &ast.IfStatement{Base: ast.NewBase(p.arena, start), Cond: cond, Then: then, Else: els}
	case token.MATCH:
		start := p.pos()
		scrutinee, arms := p.parseMatchCore()
		if p.peekIs(token.RBRACE) {
			return &ast.ExprStatement{Base: ast.NewBase(p.arena, start),
				Expr: &ast.MatchExpression{Base: ast.NewBase(p.arena, start), Scrutinee: scrutinee, Arms: arms}}
		}
		return &ast.MatchStatement{Base: ast.NewBase(p.arena, start), Scrutinee: scrutinee, Arms: arms}
	default:
		return p.parseExpressionOrTailStatement()
	}
}

func (p *Parser) parseLetStatement() *ast.LetStatement {
	start := p.pos()
	p.nextToken() // consume 'let'
	name := p.curToken.Lexeme
	stmt := &ast.LetStatement{Base: ast.NewBase(p.arena, start), Name: name}

	if p.peekIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		stmt.Declared = p.parseType()
	}
	if !p.expectPeek(token.ASSIGN) {
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	return stmt
}

// parseExpressionOrTailStatement parses a bare expression as an
// ExprStatement; parseBlock decides whether it is really a statement or
// the block's tail by peeking past it.
func (p *Parser) parseExpressionOrTailStatement() *ast.ExprStatement {
	start := p.pos()
	expr := p.parseExpression(LOWEST)
	return &ast.ExprStatement{Base: ast.NewBase(p.arena, start), Expr: expr}
}

// ------------------------------------------------------------------------
// Expression parsing (Pratt)
// ------------------------------------------------------------------------

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Kind]
	if prefix == nil {
		p.errorf(diag.ErrUnexpectedToken, "no prefix parse function for %s", p.curToken.Kind)
		return nil
	}
	left := prefix()

	for !p.peekIs(token.EOF) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Kind]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Base: ast.NewBase(p.arena, p.pos()), Name: p.curToken.Lexeme}
}

func (p *Parser) parseIntLiteral() ast.Expression {
	return &ast.IntLiteral{Base: ast.NewBase(p.arena, p.pos()), Value: p.curToken.IntValue}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Base: ast.NewBase(p.arena, p.pos()), Value: p.curToken.StringValue}
}

func (p *Parser) parseBoolLiteral() ast.Expression {
	return &ast.BoolLiteral{Base: ast.NewBase(p.arena, p.pos()), Value: p.curToken.BoolValue}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	pos := p.pos()
	op := p.curToken.Lexeme
	p.nextToken()
	right := p.parseExpression(PREFIX)
	return &ast.CallExpression{
		Base:   ast.NewBase(p.arena, pos),
		Callee: &ast.Identifier{Base: ast.NewBase(p.arena, pos), Name: prefixOpName(op)},
		Args:   []ast.Expression{right},
	}
}

func prefixOpName(op string) string {
	if op == "!" {
		return "__not"
	}
	return "__neg"
}

// parseGroupedOrUnit handles `(` which starts either a parenthesized
// expression or the Unit literal `()`.
func (p *Parser) parseGroupedOrUnit() ast.Expression {
	pos := p.pos()
	if p.peekIs(token.RPAREN) {
		p.nextToken()
		return &ast.UnitLiteral{Base: ast.NewBase(p.arena, pos)}
	}
	p.nextToken()
	expr := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return expr
	}
	return expr
}

func (p *Parser) parseIfExpressionPrefix() ast.Expression {
	start := p.pos()
	cond, then, els := p.parseIfCore()
	return &ast.IfExpression{Base: ast.NewBase(p.arena, start), Cond: cond, Then: then, Else: els}
}

// parseIfCore parses `if cond { block } else { block }`; else is
// mandatory (spec.md §9's stricter open-question reading, applied
// uniformly to statement and expression position — see SPEC_FULL.md §9).
func (p *Parser) parseIfCore() (cond ast.Expression, then, els *ast.Block) {
	p.nextToken() // consume 'if'
	cond = p.parseExpression(LOWEST)
	if !p.expectPeek(token.LBRACE) {
		return cond, nil, nil
	}
	then = p.parseBlock()
	if !p.expectPeek(token.ELSE) {
		p.errorf(diag.ErrUnexpectedToken, "if requires an else branch")
		return cond, then, nil
	}
	if !p.expectPeek(token.LBRACE) {
		return cond, then, nil
	}
	els = p.parseBlock()
	return cond, then, els
}

func (p *Parser) parseMatchExpressionPrefix() ast.Expression {
	start := p.pos()
	scrutinee, arms := p.parseMatchCore()
	return &ast.MatchExpression{Base: ast.NewBase(p.arena, start), Scrutinee: scrutinee, Arms: arms}
}

// parseMatchCore parses `match expr { (Pattern -> { block })* }`.
func (p *Parser) parseMatchCore() (ast.Expression, []ast.MatchArm) {
	p.nextToken() // consume 'match'
	scrutinee := p.parseExpression(LOWEST)
	if !p.expectPeek(token.LBRACE) {
		return scrutinee, nil
	}
	p.nextToken()

	var arms []ast.MatchArm
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		pat := p.parsePattern()
		if !p.expectPeek(token.ARROW) {
			p.synchronize()
			break
		}
		if !p.expectPeek(token.LBRACE) {
			p.synchronize()
			break
		}
		body := p.parseBlock()
		arms = append(arms, ast.MatchArm{Pattern: pat, Body: body})
		p.nextToken()
	}
	return scrutinee, arms
}

// parsePattern parses either `_` (wildcard, lexed as IDENT "_") or
// `Constructor(binder, binder, ...)`.
func (p *Parser) parsePattern() ast.Pattern {
	pos := p.pos()
	if p.curToken.Kind == token.IDENT && p.curToken.Lexeme == "_" {
		return &ast.WildcardPattern{Base: ast.NewBase(p.arena, pos)}
	}
	name := p.curToken.Lexeme
	pat := &ast.ConstructorPattern{Base: ast.NewBase(p.arena, pos), Constructor: name}
	if p.peekIs(token.LPAREN) {
		p.nextToken()
		if p.peekIs(token.RPAREN) {
			p.nextToken()
			return pat
		}
		p.nextToken()
		pat.Fields = append(pat.Fields, ast.PatternField{Binder: p.curToken.Lexeme})
		for p.peekIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			pat.Fields = append(pat.Fields, ast.PatternField{Binder: p.curToken.Lexeme})
		}
		p.expectPeek(token.RPAREN)
	}
	return pat
}

func (p *Parser) parseLambdaExpression() ast.Expression {
	start := p.pos()
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	params := p.parseParamList()
	// Lambdas are written `fn(params) => expr` (spec.md §4.2), distinct from
	// the `->` a function declaration's return type uses; lambda bodies are
	// a single expression, never a declared return type.
	if !p.expectPeek(token.FATARROW) {
		return nil
	}
	p.nextToken()
	body := p.parseExpression(LOWEST)
	return &ast.LambdaExpression{Base: ast.NewBase(p.arena, start), Params: params, Body: body}
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	pos := p.pos()
	op := p.curToken.Lexeme
	prec := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(prec)
	return &ast.CallExpression{
		Base:   ast.NewBase(p.arena, pos),
		Callee: &ast.Identifier{Base: ast.NewBase(p.arena, pos), Name: infixOpName(op)},
		Args:   []ast.Expression{left, right},
	}
}

func infixOpName(op string) string { return "__op_" + op }

func (p *Parser) parsePipeExpression(left ast.Expression) ast.Expression {
	pos := p.pos()
	p.nextToken()
	right := p.parseExpression(PIPECALL)
	return &ast.PipeExpression{Base: ast.NewBase(p.arena, pos), Left: left, Right: right}
}

func (p *Parser) parseCallExpression(fn ast.Expression) ast.Expression {
	pos := p.pos()
	call := &ast.CallExpression{Base: ast.NewBase(p.arena, pos), Callee: fn}
	call.Args = p.parseExpressionList(token.RPAREN)
	return call
}

// parseQualifiedIdentifier handles `alias.name`, the grammar's only member-
// access form: the qualifier must be a bare identifier naming an aliased
// import (spec.md §4.4), checked later by internal/checker.
func (p *Parser) parseQualifiedIdentifier(left ast.Expression) ast.Expression {
	id, ok := left.(*ast.Identifier)
	if !ok {
		p.Diags.Addf(diag.ErrUnexpectedToken, diag.Position{File: p.file, Line: p.curToken.Line, Column: p.curToken.Column},
			"qualified access requires an identifier on the left of '.'")
		return left
	}
	start := p.pos()
	if !p.expectPeek(token.IDENT) {
		return left
	}
	return &ast.QualifiedIdentifier{Base: ast.NewBase(p.arena, start), Qualifier: id.Name, Name: p.curToken.Lexeme}
}

func (p *Parser) parseExpressionList(end token.Kind) []ast.Expression {
	var list []ast.Expression
	if p.peekIs(end) {
		p.nextToken()
		return list
	}
	p.nextToken()
	list = append(list, p.parseExpression(LOWEST))
	for p.peekIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseExpression(LOWEST))
	}
	p.expectPeek(end)
	return list
}

// ------------------------------------------------------------------------
// Types
// ------------------------------------------------------------------------

func (p *Parser) parseType() ast.Type {
	pos := p.pos()
	switch p.curToken.Kind {
	case token.KW_INT:
		return &ast.PrimitiveType{Base: ast.NewBase(p.arena, pos), Kind: ast.PrimInt}
	case token.KW_BOOL:
		return &ast.PrimitiveType{Base: ast.NewBase(p.arena, pos), Kind: ast.PrimBool}
	case token.KW_STRING:
		return &ast.PrimitiveType{Base: ast.NewBase(p.arena, pos), Kind: ast.PrimString}
	case token.KW_UNIT:
		return &ast.PrimitiveType{Base: ast.NewBase(p.arena, pos), Kind: ast.PrimUnit}
	case token.IDENT:
		name := p.curToken.Lexeme
		nt := &ast.NamedType{Base: ast.NewBase(p.arena, pos), Name: name}
		if p.peekIs(token.LT) {
			p.nextToken()
			p.nextToken()
			nt.Args = append(nt.Args, p.parseType())
			for p.peekIs(token.COMMA) {
				p.nextToken()
				p.nextToken()
				nt.Args = append(nt.Args, p.parseType())
			}
			p.expectPeek(token.GT)
		}
		return nt
	case token.LPAREN:
		ft := &ast.FuncType{Base: ast.NewBase(p.arena, pos)}
		p.nextToken()
		if !p.curIs(token.RPAREN) {
			ft.Params = append(ft.Params, p.parseType())
			for p.peekIs(token.COMMA) {
				p.nextToken()
				p.nextToken()
				ft.Params = append(ft.Params, p.parseType())
			}
			p.expectPeek(token.RPAREN)
		}
		if !p.expectPeek(token.ARROW) {
			return ft
		}
		p.nextToken()
		ft.Return = p.parseType()
		if p.peekIs(token.USES) {
			p.nextToken()
			ft.Effects = p.parseEffectList()
		}
		return ft
	default:
		p.errorf(diag.ErrUnexpectedToken, "expected a type, got %s", p.curToken.Kind)
		return &ast.PrimitiveType{Base: ast.NewBase(p.arena, pos), Kind: ast.PrimUnit}
	}
}

func (p *Parser) Errors() []diag.Diagnostic { return p.Diags.Sorted() }
