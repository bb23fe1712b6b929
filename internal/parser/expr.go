package parser

import (
	"mina/internal/ast"
	"mina/internal/lexer"
	"mina/internal/minaerr"
)

// expression parses the full binary-operator precedence chain, lowest
// to highest: or > and > comparison > additive > multiplicative > unary
// > primary. Grounded on the teacher's parser.go precedence-climbing
// shape (internal/parser/parser.go's parseEquality/.../parsePrimary
// chain), adapted to Mina's operator set.
func (p *Parser) expression() (ast.Expr, error) {
	return p.orExpr()
}

func (p *Parser) orExpr() (ast.Expr, error) {
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.TokenOr) {
		pos := p.prevPos()
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Position: pos, Op: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) andExpr() (ast.Expr, error) {
	left, err := p.comparison()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.TokenAnd) {
		pos := p.prevPos()
		right, err := p.comparison()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Position: pos, Op: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

var comparisonOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.TokenEq:    ast.OpEq,
	lexer.TokenNotEq: ast.OpNE,
	lexer.TokenLT:    ast.OpLT,
	lexer.TokenLE:    ast.OpLE,
	lexer.TokenGT:    ast.OpGT,
	lexer.TokenGE:    ast.OpGE,
}

func (p *Parser) comparison() (ast.Expr, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := comparisonOps[p.peek().Type]
		if !ok {
			break
		}
		pos := p.curPos()
		p.advance()
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Position: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) additive() (ast.Expr, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.TokenPlus) || p.check(lexer.TokenMinus) {
		pos := p.curPos()
		op := ast.OpAdd
		if p.peek().Type == lexer.TokenMinus {
			op = ast.OpSub
		}
		p.advance()
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Position: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) multiplicative() (ast.Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.TokenStar) || p.check(lexer.TokenSlash) {
		pos := p.curPos()
		op := ast.OpMul
		if p.peek().Type == lexer.TokenSlash {
			op = ast.OpDiv
		}
		p.advance()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Position: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) unary() (ast.Expr, error) {
	if p.match(lexer.TokenMinus) {
		pos := p.prevPos()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Position: pos, Op: ast.UnaryNeg, Operand: operand}, nil
	}
	if p.match(lexer.TokenTilde) {
		pos := p.prevPos()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Position: pos, Op: ast.UnaryNot, Operand: operand}, nil
	}
	return p.primary()
}

func (p *Parser) primary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenNumber:
		p.advance()
		return &ast.IntLit{Position: p.posOf(tok), Value: parseIntLiteral(tok.Lexeme)}, nil
	case lexer.TokenTrue:
		p.advance()
		return &ast.BoolLit{Position: p.posOf(tok), Value: true}, nil
	case lexer.TokenFalse:
		p.advance()
		return &ast.BoolLit{Position: p.posOf(tok), Value: false}, nil
	case lexer.TokenString:
		p.advance()
		return &ast.StringLit{Position: p.posOf(tok), Value: tok.Lexeme}, nil
	case lexer.TokenLParen:
		p.advance()
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(lexer.TokenRParen, "expected ')'"); err != nil {
			return nil, err
		}
		return e, nil
	case lexer.TokenIdent:
		return p.identOrAccess()
	default:
		return nil, p.errorAtCurrent("expected expression")
	}
}

func (p *Parser) identOrAccess() (ast.Expr, error) {
	name, err := p.consume(lexer.TokenIdent, "expected identifier")
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
		return &ast.ArrayAccess{
			Position: p.posOf(name),
			Array:    &ast.Ident{Position: p.posOf(name), Name: name.Lexeme},
			Index:    idx,
		}, nil
	}

	if p.match(lexer.TokenLParen) {
		if !declared {
			return nil, minaerr.NewSemanticError("call to undeclared function", name.Lexeme, p.file, name.Line, name.Column)
		}
		if sym.kind != symFunc {
			return nil, minaerr.NewSemanticError("call to a non-function symbol in an expression", name.Lexeme, p.file, name.Line, name.Column)
		}
		args, err := p.argList()
		if err != nil {
			return nil, err
		}
		if sym.params != len(args) {
			return nil, minaerr.NewLowerError("call to " + name.Lexeme + " has wrong arity")
		}
		return &ast.Call{Position: p.posOf(name), Callee: name.Lexeme, Args: args}, nil
	}

	if !declared {
		return nil, minaerr.NewSemanticError("use of undeclared variable", name.Lexeme, p.file, name.Line, name.Column)
	}
	if sym.kind != symVar && sym.kind != symArray {
		return nil, minaerr.NewSemanticError("using a callable symbol as a value", name.Lexeme, p.file, name.Line, name.Column)
	}
	return &ast.Ident{Position: p.posOf(name), Name: name.Lexeme}, nil
}
