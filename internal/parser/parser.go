package parser

import (
	"errors"
	"fmt"

	"github.com/tinyrange/minilang/internal/ast"
	"github.com/tinyrange/minilang/internal/lexer"
)

// ErrSyntax is wrapped by every parse failure.
var ErrSyntax = errors.New("syntax error")

type Parser struct {
	toks []lexer.Token
	pos  int
	tok  lexer.Token
}

// Parse builds the single function a program consists of:
//
//	function := 'fn' IDENT '(' ')' '{' stmt* '}'
//
// The first mismatch aborts the parse; no partial tree is returned.
func Parse(toks []lexer.Token) (*ast.Function, error) {
	p := &Parser{toks: toks}
	p.pos = -1
	p.next()
	fn, err := p.parseFunction()
	if err != nil {
		return nil, err
	}
	if p.tok.Type != lexer.EOF {
		return nil, p.errorf("unexpected %s after function body", describe(p.tok))
	}
	return fn, nil
}

// ParseSource tokenizes and parses src.
func ParseSource(src string) (*ast.Function, error) {
	return Parse(lexer.Tokenize(src))
}

func (p *Parser) next() {
	if p.pos < len(p.toks) {
		p.pos++
	}
	if p.pos < len(p.toks) {
		p.tok = p.toks[p.pos]
		return
	}
	// synthesize EOF just past the last token
	eof := lexer.Token{Type: lexer.EOF, Line: 1, Col: 1}
	if n := len(p.toks); n > 0 {
		last := p.toks[n-1]
		eof.Line, eof.Col = last.Line, last.Col+len([]rune(last.Lex))
	}
	p.tok = eof
}

// peekIs reports whether the token after the current one has type tt.
func (p *Parser) peekIs(tt lexer.TokenType) bool {
	return p.pos+1 < len(p.toks) && p.toks[p.pos+1].Type == tt
}

func (p *Parser) errorf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: %s at %d:%d", ErrSyntax, msg, p.tok.Line, p.tok.Col)
}

func describe(t lexer.Token) string {
	switch t.Type {
	case lexer.EOF:
		return "end of input"
	case lexer.ILLEGAL:
		return fmt.Sprintf("illegal character %q", t.Lex)
	case lexer.IDENT:
		return fmt.Sprintf("identifier %q", t.Lex)
	case lexer.INT:
		return fmt.Sprintf("number %s", t.Lex)
	}
	return fmt.Sprintf("%q", t.Type.String())
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if p.tok.Type != tt {
		return lexer.Token{}, p.errorf("expected %q, got %s", tt.String(), describe(p.tok))
	}
	t := p.tok
	p.next()
	return t, nil
}

func (p *Parser) parseFunction() (*ast.Function, error) {
	if _, err := p.expect(lexer.KW_FN); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Function{Name: nameTok.Lex, Body: body}, nil
}

// parseBlock parses '{' stmt* '}'. The result is never nil, so an empty
// else clause stays distinguishable from a missing one.
func (p *Parser) parseBlock() ([]ast.Stmt, error) {
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	stmts := []ast.Stmt{}
	for p.tok.Type != lexer.RBRACE && p.tok.Type != lexer.EOF {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.tok.Type {
	case lexer.KW_LET:
		p.next()
		nameTok, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.ASSIGN); err != nil {
			return nil, err
		}
		init, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		return &ast.LetStmt{Name: nameTok.Lex, Init: init}, nil
	case lexer.KW_IF:
		p.next()
		cond, err := p.parseCond()
		if err != nil {
			return nil, err
		}
		then, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		s := &ast.IfStmt{Cond: cond, Then: then}
		if p.tok.Type == lexer.KW_ELSE {
			p.next()
			if s.Else, err = p.parseBlock(); err != nil {
				return nil, err
			}
		}
		return s, nil
	case lexer.KW_WHILE:
		p.next()
		cond, err := p.parseCond()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.WhileStmt{Cond: cond, Body: body}, nil
	case lexer.IDENT:
		// one token of lookahead separates `x = e;` from an expression statement
		if p.peekIs(lexer.ASSIGN) {
			name := p.tok.Lex
			p.next()
			p.next()
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.SEMI); err != nil {
				return nil, err
			}
			return &ast.AssignStmt{Name: name, Value: v}, nil
		}
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{X: e}, nil
}

// parseCond parses '(' expr ')'.
func (p *Parser) parseCond() (ast.Expr, error) {
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return cond, nil
}

// Expr grammar:
// expr    = cmp
// cmp     = add { (==|!=|<|<=|>|>=) add }
// add     = mul { (+|-) mul }
// mul     = primary { (*|/) primary }
// primary = INT | IDENT | '(' expr ')'
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseCmp()
}

func (p *Parser) parseCmp() (ast.Expr, error) {
	return p.parseBinary(p.parseAdd, lexer.EQEQ, lexer.NEQ, lexer.LT, lexer.LE, lexer.GT, lexer.GE)
}

func (p *Parser) parseAdd() (ast.Expr, error) {
	return p.parseBinary(p.parseMul, lexer.PLUS, lexer.MINUS)
}

func (p *Parser) parseMul() (ast.Expr, error) {
	return p.parseBinary(p.parsePrimary, lexer.STAR, lexer.SLASH)
}

// parseBinary parses one left-associative precedence tier whose operands
// come from operand.
func (p *Parser) parseBinary(operand func() (ast.Expr, error), ops ...lexer.TokenType) (ast.Expr, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for isOneOf(p.tok.Type, ops) {
		op := binOpFromToken(p.tok.Type)
		p.next()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func isOneOf(tt lexer.TokenType, set []lexer.TokenType) bool {
	for _, s := range set {
		if tt == s {
			return true
		}
	}
	return false
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.tok.Type {
	case lexer.IDENT:
		id := &ast.Ident{Name: p.tok.Lex}
		p.next()
		return id, nil
	case lexer.INT:
		lit := &ast.IntLit{Value: p.tok.Value}
		p.next()
		return lit, nil
	case lexer.LPAREN:
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, p.errorf("unexpected %s", describe(p.tok))
	}
}

func binOpFromToken(t lexer.TokenType) ast.BinOp {
	switch t {
	case lexer.PLUS:
		return ast.OpAdd
	case lexer.MINUS:
		return ast.OpSub
	case lexer.STAR:
		return ast.OpMul
	case lexer.SLASH:
		return ast.OpDiv
	case lexer.EQEQ:
		return ast.OpEq
	case lexer.NEQ:
		return ast.OpNe
	case lexer.LT:
		return ast.OpLt
	case lexer.LE:
		return ast.OpLe
	case lexer.GT:
		return ast.OpGt
	case lexer.GE:
		return ast.OpGe
	}
	panic("parser: no binary operator for token " + t.String())
}
