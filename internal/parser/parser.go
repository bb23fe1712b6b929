// Package parser is a recursive-descent parser for Mina, producing
// internal/ast nodes and performing the minimal semantic checks
// spec.md §7 places upstream of lowering (redeclaration, use-before-
// declaration, arity, scalar-vs-array kind), so internal/translate (C4)
// can assume well-formed input exactly as spec.md §4.4 describes.
package parser

import (
	"mina/internal/ast"
	"mina/internal/lexer"
	"mina/internal/minaerr"
)

// symbol tracks what a name was declared as, for the upstream semantic
// checks; grounded on original_source/include/Symbol.hpp's kind tags.
type symbol struct {
	kind   symbolKind
	typ    ast.Type
	params int // for functions/procedures, declared arity
}

type symbolKind int

const (
	symVar symbolKind = iota
	symArray
	symFunc
	symProc
)

type scope struct {
	names  map[string]symbol
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{names: make(map[string]symbol), parent: parent}
}

func (s *scope) declare(name string, sym symbol) bool {
	if _, exists := s.names[name]; exists {
		return false
	}
	s.names[name] = sym
	return true
}

func (s *scope) lookup(name string) (symbol, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.names[name]; ok {
			return sym, true
		}
	}
	return symbol{}, false
}

type Parser struct {
	file    string
	tokens  []lexer.Token
	current int
	scope   *scope
}

func NewParser(file string, tokens []lexer.Token) *Parser {
	return &Parser{file: file, tokens: tokens, scope: newScope(nil)}
}

// Parse parses a whole program: a single brace-delimited scope holding
// declarations and statements.
func (p *Parser) Parse() (*ast.Program, error) {
	if _, err := p.consume(lexer.TokenLBrace, "expected '{' to start program"); err != nil {
		return nil, err
	}
	body, err := p.stmtList(lexer.TokenRBrace)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenRBrace, "expected '}' to close program"); err != nil {
		return nil, err
	}
	return &ast.Program{Body: body}, nil
}

// stmtList parses `;`-separated statements until `end` token type (or an
// `else`, which closes an if's then-arm) is the next token, without
// consuming it.
func (p *Parser) stmtList(end lexer.TokenType) ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.check(end) && !p.check(lexer.TokenElse) && !p.isAtEnd() {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if p.check(lexer.TokenSemi) {
			p.advance()
		} else {
			break
		}
	}
	return stmts, nil
}

func (p *Parser) statement() (ast.Stmt, error) {
	switch {
	case p.match(lexer.TokenVar):
		return p.varDecl()
	case p.check(lexer.TokenFunc), p.checkTypeThenFunc():
		return p.funcDecl()
	case p.match(lexer.TokenProc):
		return p.procDecl()
	case p.match(lexer.TokenIf):
		return p.ifStmt()
	case p.match(lexer.TokenRepeat):
		return p.repeatUntilStmt()
	case p.match(lexer.TokenLoop):
		return p.loopStmt()
	case p.match(lexer.TokenExit):
		return &ast.Exit{Position: p.prevPos()}, nil
	case p.match(lexer.TokenPut):
		return p.putStmt()
	case p.match(lexer.TokenGet):
		return p.getStmt()
	case p.match(lexer.TokenReturn):
		return p.returnStmt()
	default:
		return p.assignOrCallStmt()
	}
}

// checkTypeThenFunc looks ahead for `integer func` / `boolean func`,
// the function-declaration form that leads with its return type.
func (p *Parser) checkTypeThenFunc() bool {
	if !p.check(lexer.TokenInteger) && !p.check(lexer.TokenBoolean) {
		return false
	}
	return p.peekType(1) == lexer.TokenFunc
}

func (p *Parser) peekType(offset int) lexer.TokenType {
	idx := p.current + offset
	if idx >= len(p.tokens) {
		return lexer.TokenEOF
	}
	return p.tokens[idx].Type
}

func (p *Parser) varDecl() (ast.Stmt, error) {
	pos := p.prevPos()
	name, err := p.consume(lexer.TokenIdent, "expected variable name")
	if err != nil {
		return nil, err
	}

	if p.match(lexer.TokenLBracket) {
		sizeTok, err := p.consume(lexer.TokenNumber, "expected array size")
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(lexer.TokenRBracket, "expected ']'"); err != nil {
			return nil, err
		}
		if _, err := p.consume(lexer.TokenColon, "expected ':' before array element type"); err != nil {
			return nil, err
		}
		elem, err := p.scalarType()
		if err != nil {
			return nil, err
		}
		size := int(parseIntLiteral(sizeTok.Lexeme))
		typ := ast.Type{Elem: elem, IsArray: true, Size: size}
		if !p.scope.declare(name.Lexeme, symbol{kind: symArray, typ: typ}) {
			return nil, minaerr.NewSemanticError("redeclaration of array", name.Lexeme, p.file, name.Line, name.Column)
		}
		return &ast.VarDecl{Position: pos, Name: name.Lexeme, Type: typ}, nil
	}

	if _, err := p.consume(lexer.TokenColon, "expected ':' before variable type"); err != nil {
		return nil, err
	}
	elem, err := p.scalarType()
	if err != nil {
		return nil, err
	}
	typ := ast.Type{Elem: elem}
	if !p.scope.declare(name.Lexeme, symbol{kind: symVar, typ: typ}) {
		return nil, minaerr.NewSemanticError("redeclaration of variable", name.Lexeme, p.file, name.Line, name.Column)
	}
	return &ast.VarDecl{Position: pos, Name: name.Lexeme, Type: typ}, nil
}

func (p *Parser) scalarType() (ast.ScalarType, error) {
	switch {
	case p.match(lexer.TokenInteger):
		return ast.Integer, nil
	case p.match(lexer.TokenBoolean):
		return ast.Boolean, nil
	default:
		return 0, p.errorAtCurrent("expected 'integer' or 'boolean'")
	}
}

func (p *Parser) paramList() ([]ast.Param, error) {
	var params []ast.Param
	if _, err := p.consume(lexer.TokenLParen, "expected '('"); err != nil {
		return nil, err
	}
	if !p.check(lexer.TokenRParen) {
		for {
			name, err := p.consume(lexer.TokenIdent, "expected parameter name")
			if err != nil {
				return nil, err
			}
			if _, err := p.consume(lexer.TokenColon, "expected ':' before parameter type"); err != nil {
				return nil, err
			}
			elem, err := p.scalarType()
			if err != nil {
				return nil, err
			}
			params = append(params, ast.Param{Name: name.Lexeme, Type: ast.Type{Elem: elem}})
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	if _, err := p.consume(lexer.TokenRParen, "expected ')'"); err != nil {
		return nil, err
	}
	if len(params) > 4 {
		return nil, minaerr.NewLowerError("function/procedure declared with more than 4 parameters")
	}
	return params, nil
}

func (p *Parser) funcDecl() (ast.Stmt, error) {
	pos := p.curPos()
	retType, err := p.scalarType()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenFunc, "expected 'func'"); err != nil {
		return nil, err
	}
	name, err := p.consume(lexer.TokenIdent, "expected function name")
	if err != nil {
		return nil, err
	}
	if !p.scope.declare(name.Lexeme, symbol{kind: symFunc, typ: ast.Type{Elem: retType}}) {
		return nil, minaerr.NewSemanticError("redeclaration of function", name.Lexeme, p.file, name.Line, name.Column)
	}
	params, err := p.paramList()
	if err != nil {
		return nil, err
	}
	p.scope.names[name.Lexeme] = symbol{kind: symFunc, typ: ast.Type{Elem: retType}, params: len(params)}

	body, err := p.funcOrProcBody(params)
	if err != nil {
		return nil, err
	}
	return &ast.FuncDecl{Position: pos, Name: name.Lexeme, Params: params, ReturnType: ast.Type{Elem: retType}, Body: body}, nil
}

func (p *Parser) procDecl() (ast.Stmt, error) {
	pos := p.prevPos()
	name, err := p.consume(lexer.TokenIdent, "expected procedure name")
	if err != nil {
		return nil, err
	}
	if !p.scope.declare(name.Lexeme, symbol{kind: symProc}) {
		return nil, minaerr.NewSemanticError("redeclaration of procedure", name.Lexeme, p.file, name.Line, name.Column)
	}
	params, err := p.paramList()
	if err != nil {
		return nil, err
	}
	p.scope.names[name.Lexeme] = symbol{kind: symProc, params: len(params)}

	body, err := p.funcOrProcBody(params)
	if err != nil {
		return nil, err
	}
	return &ast.ProcDecl{Position: pos, Name: name.Lexeme, Params: params, Body: body}, nil
}

// funcOrProcBody accepts either `= expr` single-expression sugar (desugared
// to `return expr`) or a `{ stmtlist }` block, entering a fresh nested
// scope seeded with the parameters.
func (p *Parser) funcOrProcBody(params []ast.Param) ([]ast.Stmt, error) {
	parent := p.scope
	p.scope = newScope(parent)
	defer func() { p.scope = parent }()
	for _, param := range params {
		p.scope.declare(param.Name, symbol{kind: symVar, typ: param.Type})
	}

	if p.match(lexer.TokenEq) {
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{&ast.Return{Position: expr.Pos(), Value: expr}}, nil
	}
	if _, err := p.consume(lexer.TokenLBrace, "expected '{' or '=' to start body"); err != nil {
		return nil, err
	}
	body, err := p.stmtList(lexer.TokenRBrace)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenRBrace, "expected '}' to close body"); err != nil {
		return nil, err
	}
	return body, nil
}

func (p *Parser) ifStmt() (ast.Stmt, error) {
	pos := p.prevPos()
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenThen, "expected 'then'"); err != nil {
		return nil, err
	}
	thenBody, err := p.stmtList(lexer.TokenEnd)
	var elseBody []ast.Stmt
	if err != nil {
		return nil, err
	}
	if p.check(lexer.TokenElse) {
		p.advance()
		elseBody, err = p.stmtList(lexer.TokenEnd)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(lexer.TokenEnd, "expected 'end'"); err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenIf, "expected 'if' after 'end'"); err != nil {
		return nil, err
	}
	return &ast.If{Position: pos, Cond: cond, Then: thenBody, Else: elseBody}, nil
}

func (p *Parser) repeatUntilStmt() (ast.Stmt, error) {
	pos := p.prevPos()
	body, err := p.stmtList(lexer.TokenUntil)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenUntil, "expected 'until'"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ast.RepeatUntil{Position: pos, Body: body, Cond: cond}, nil
}

func (p *Parser) loopStmt() (ast.Stmt, error) {
	pos := p.prevPos()
	body, err := p.stmtList(lexer.TokenEnd)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenEnd, "expected 'end'"); err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenLoop, "expected 'loop' after 'end'"); err != nil {
		return nil, err
	}
	return &ast.Loop{Position: pos, Body: body}, nil
}

func (p *Parser) putStmt() (ast.Stmt, error) {
	pos := p.prevPos()
	if _, err := p.consume(lexer.TokenLParen, "expected '(' after 'put'"); err != nil {
		return nil, err
	}
	var args []ast.PutArg
	if !p.check(lexer.TokenRParen) {
		for {
			if p.match(lexer.TokenSkip) {
				args = append(args, ast.PutArg{Skip: true})
			} else {
				e, err := p.expression()
				if err != nil {
					return nil, err
				}
				args = append(args, ast.PutArg{Expr: e})
			}
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	if _, err := p.consume(lexer.TokenRParen, "expected ')'"); err != nil {
		return nil, err
	}
	return &ast.Put{Position: pos, Args: args}, nil
}

func (p *Parser) getStmt() (ast.Stmt, error) {
	pos := p.prevPos()
	if _, err := p.consume(lexer.TokenLParen, "expected '(' after 'get'"); err != nil {
		return nil, err
	}
	name, err := p.consume(lexer.TokenIdent, "expected variable name")
	if err != nil {
		return nil, err
	}
	if _, ok := p.scope.lookup(name.Lexeme); !ok {
		return nil, minaerr.NewSemanticError("use of undeclared variable", name.Lexeme, p.file, name.Line, name.Column)
	}
	if _, err := p.consume(lexer.TokenRParen, "expected ')'"); err != nil {
		return nil, err
	}
	return &ast.Get{Position: pos, Name: name.Lexeme}, nil
}

func (p *Parser) returnStmt() (ast.Stmt, error) {
	pos := p.prevPos()
	if p.check(lexer.TokenSemi) || p.check(lexer.TokenRBrace) {
		return &ast.Return{Position: pos}, nil
	}
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ast.Return{Position: pos, Value: e}, nil
}

func (p *Parser) assignOrCallStmt() (ast.Stmt, error) {
	name, err := p.consume(lexer.TokenIdent, "expected statement")
	if err != nil {
		return nil, err
	}
	sym, declared := p.scope.lookup(name.Lexeme)

	if p.match(lexer.TokenLBracket) {
		if declared && sym.kind != symArray {
			return nil, minaerr.NewSemanticError("indexing a non-array variable", name.Lexeme, p.file, name.Line, name.Column)
		}
		idx, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(lexer.TokenRBracket, "expected ']'"); err != nil {
			return nil, err
		}
		if _, err := p.consume(lexer.TokenAssign, "expected ':=' after array index"); err != nil {
			return nil, err
		}
		val, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &ast.ArrayAssign{Position: p.posOf(name), Name: name.Lexeme, Index: idx, Value: val}, nil
	}

	if p.match(lexer.TokenLParen) {
		args, err := p.argList()
		if err != nil {
			return nil, err
		}
		if declared && sym.kind != symFunc && sym.kind != symProc {
			return nil, minaerr.NewSemanticError("calling a non-callable symbol", name.Lexeme, p.file, name.Line, name.Column)
		}
		if declared && sym.params != len(args) {
			return nil, minaerr.NewLowerError("call to " + name.Lexeme + " has wrong arity")
		}
		return &ast.ExprStmt{Position: p.posOf(name), Expr: &ast.Call{Position: p.posOf(name), Callee: name.Lexeme, Args: args}}, nil
	}

	if !declared {
		return nil, minaerr.NewSemanticError("use of undeclared variable", name.Lexeme, p.file, name.Line, name.Column)
	}
	if sym.kind != symVar {
		return nil, minaerr.NewSemanticError("assigning to a non-scalar symbol", name.Lexeme, p.file, name.Line, name.Column)
	}
	if _, err := p.consume(lexer.TokenAssign, "expected ':=' in assignment"); err != nil {
		return nil, err
	}
	val, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Position: p.posOf(name), Name: name.Lexeme, Value: val}, nil
}

func (p *Parser) argList() ([]ast.Expr, error) {
	var args []ast.Expr
	if !p.check(lexer.TokenRParen) {
		for {
			e, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, e)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	if _, err := p.consume(lexer.TokenRParen, "expected ')'"); err != nil {
		return nil, err
	}
	if len(args) > 4 {
		return nil, minaerr.NewLowerError("call has more than 4 arguments")
	}
	return args, nil
}

func parseIntLiteral(lexeme string) int64 {
	var n int64
	for _, c := range lexeme {
		n = n*10 + int64(c-'0')
	}
	return n
}
