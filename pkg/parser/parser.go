// Package parser implements the Pratt expression parser and the
// statement/global parser built on top of it.
package parser

import (
	"fmt"

	"github.com/nevakrien/small-lang/pkg/ast"
	"github.com/nevakrien/small-lang/pkg/lexer"
	"github.com/nevakrien/small-lang/pkg/token"
)

// Parser drives a lexer.Stream through the grammar. It holds no state
// beyond the stream; every parse function is a straightforward
// recursive-descent consumer of it.
type Parser struct {
	s *lexer.Stream
}

func New(s *lexer.Stream) *Parser {
	return &Parser{s: s}
}

func errf(pos int, format string, args ...interface{}) error {
	return &lexer.ParseError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

var prefixOps = map[token.Type]ast.Operator{
	token.Plus:  ast.OpPlus,
	token.Minus: ast.OpNeg,
	token.Not:   ast.OpNot,
	token.And:   ast.OpAddr,
	token.Star:  ast.OpDeref,
	token.Inc:   ast.OpInc,
	token.Dec:   ast.OpDec,
}

var infixOps = map[token.Type]ast.Operator{
	token.Plus:   ast.OpAdd,
	token.Minus:  ast.OpSub,
	token.Star:   ast.OpMul,
	token.Slash:  ast.OpDiv,
	token.Rem:    ast.OpRem,
	token.And:    ast.OpBitAnd,
	token.Or:     ast.OpBitOr,
	token.Xor:    ast.OpBitXor,
	token.AndAnd: ast.OpAnd,
	token.OrOr:   ast.OpOr,
	token.Eq:     ast.OpAssign,
	token.EqEq:   ast.OpEq,
	token.Neq:    ast.OpNeq,
	token.Lt:     ast.OpLt,
	token.Gt:     ast.OpGt,
	token.Lte:    ast.OpLte,
	token.Gte:    ast.OpGte,
	token.Dot:    ast.OpDot,
	token.Arrow:  ast.OpArrow,
}

var postfixOps = map[token.Type]ast.Operator{
	token.Inc: ast.OpInc,
	token.Dec: ast.OpDec,
}

// ParseExpression is the Pratt entry point, recursing on itself with
// the right-hand binding power of an operator to build correct
// associativity.
func (p *Parser) ParseExpression(minBP int) (*ast.Expr, error) {
	head, err := p.parseHead()
	if err != nil {
		return nil, err
	}

	for {
		begin := head.Begin

		if p.s.PeekOperator() == token.LParen {
			if ast.CallBP < minBP {
				break
			}
			p.s.TryConsume(token.LParen)
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			if _, err := p.s.Consume(token.RParen); err != nil {
				return nil, err
			}
			head = ast.NewCall(head, args, begin, p.s.Pos())
			continue
		}

		if p.s.PeekOperator() == token.LBracket {
			if ast.SubScriptBP < minBP {
				break
			}
			p.s.TryConsume(token.LBracket)
			idx, err := p.ParseExpression(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.s.Consume(token.RBracket); err != nil {
				return nil, err
			}
			head = ast.NewSubScript(head, idx, begin, p.s.Pos())
			continue
		}

		tt := p.s.PeekOperator()

		if op, ok := postfixOps[tt]; ok {
			bp := ast.Table[op].Postfix
			if bp > 0 && bp >= minBP {
				p.s.TryConsume(tt)
				head = ast.NewPreOp(op, head, true, begin, p.s.Pos())
				continue
			}
		}

		if op, ok := infixOps[tt]; ok {
			bp := ast.Table[op]
			if bp.InfixLeft > 0 && bp.InfixLeft >= minBP {
				p.s.TryConsume(tt)
				rhs, err := p.ParseExpression(bp.InfixRight)
				if err != nil {
					return nil, err
				}
				head = ast.NewBinOp(op, head, rhs, begin, rhs.End)
				continue
			}
		}

		break
	}

	return head, nil
}

func (p *Parser) parseArgList() ([]*ast.Expr, error) {
	var args []*ast.Expr
	if p.s.PeekOperator() == token.RParen {
		return args, nil
	}
	for {
		arg, err := p.ParseExpression(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if _, ok := p.s.TryConsume(token.Comma); !ok {
			break
		}
	}
	return args, nil
}

// parseHead parses the left-hand head of a Pratt expression: a prefix
// operator application, a parenthesized expression, a cast, or an atom.
func (p *Parser) parseHead() (*ast.Expr, error) {
	begin := p.s.Pos()
	tt := p.s.PeekOperator()

	if op, ok := prefixOps[tt]; ok {
		p.s.TryConsume(tt)
		inner, err := p.ParseExpression(ast.Table[op].Prefix)
		if err != nil {
			return nil, err
		}
		return ast.NewPreOp(op, inner, false, begin, inner.End), nil
	}

	if tt == token.LParen {
		p.s.TryConsume(token.LParen)
		inner, err := p.ParseExpression(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.s.Consume(token.RParen); err != nil {
			return nil, err
		}
		return inner, nil
	}

	if tt == token.At {
		p.s.TryConsume(token.At)
		name, err := p.s.ConsumeName()
		if err != nil {
			return nil, err
		}
		inner, err := p.ParseExpression(ast.CastBP)
		if err != nil {
			return nil, err
		}
		return ast.NewTypeCast(name.Text, inner, begin, inner.End), nil
	}

	if v, tok, ok := p.s.TryNumber(); ok {
		return ast.NewNum(v, tok.Text, begin, tok.End), nil
	}

	if tok, ok := p.s.TryConsume(token.True); ok {
		return ast.NewNum(1, "true", begin, tok.End), nil
	}
	if tok, ok := p.s.TryConsume(token.False); ok {
		return ast.NewNum(0, "false", begin, tok.End), nil
	}

	if tok, ok := p.s.TryName(); ok {
		return ast.NewVar(tok.Text, begin, tok.End), nil
	}

	return nil, errf(begin, "expected an expression, found %s", p.s.FoundToken())
}

// ParseStatement parses a single statement.
func (p *Parser) ParseStatement() (*ast.Stmt, error) {
	begin := p.s.Pos()
	switch p.s.PeekOperator() {
	case token.LBrace:
		return p.parseBlock()
	case token.If:
		return p.parseIf()
	case token.While:
		return p.parseWhile()
	case token.Return:
		p.s.TryConsume(token.Return)
		e, err := p.ParseExpression(0)
		if err != nil {
			return nil, err
		}
		p.s.TryConsume(token.Semi)
		return ast.NewReturn(e, begin, e.End), nil
	case token.Break:
		p.s.TryConsume(token.Break)
		if _, err := p.s.Consume(token.Semi); err != nil {
			return nil, err
		}
		return ast.NewBreak(begin, p.s.Pos()), nil
	case token.Continue:
		p.s.TryConsume(token.Continue)
		if _, err := p.s.Consume(token.Semi); err != nil {
			return nil, err
		}
		return ast.NewContinue(begin, p.s.Pos()), nil
	case token.Const:
		p.s.TryConsume(token.Const)
		e, err := p.ParseExpression(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.s.Consume(token.Semi); err != nil {
			return nil, err
		}
		return ast.NewConstBasic(e, begin, e.End), nil
	}

	e, err := p.ParseExpression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.s.Consume(token.Semi); err != nil {
		return nil, err
	}
	return ast.NewBasic(e, begin, e.End), nil
}

// parseBlockOrStmt implements the grammar's block-or-stmt production: a
// bare ';' (empty), a braced block, or a single statement.
func (p *Parser) parseBlockOrStmt() (*ast.Stmt, error) {
	begin := p.s.Pos()
	if tok, ok := p.s.TryConsume(token.Semi); ok {
		return ast.NewBlock(nil, begin, tok.End), nil
	}
	if p.s.PeekOperator() == token.LBrace {
		return p.parseBlock()
	}
	return p.ParseStatement()
}

func (p *Parser) parseBlock() (*ast.Stmt, error) {
	begin := p.s.Pos()
	if _, err := p.s.Consume(token.LBrace); err != nil {
		return nil, err
	}
	var parts []*ast.Stmt
	for p.s.PeekOperator() != token.RBrace {
		if p.s.Empty() {
			return nil, errf(p.s.Pos(), "unexpected EOF, expected '}'")
		}
		stmt, err := p.ParseStatement()
		if err != nil {
			return nil, err
		}
		parts = append(parts, stmt)
	}
	end, err := p.s.Consume(token.RBrace)
	if err != nil {
		return nil, err
	}
	return ast.NewBlock(parts, begin, end.End), nil
}

func (p *Parser) parseIf() (*ast.Stmt, error) {
	begin := p.s.Pos()
	p.s.TryConsume(token.If)
	cond, err := p.ParseExpression(0)
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlockOrStmt()
	if err != nil {
		return nil, err
	}
	var els *ast.Stmt
	if _, ok := p.s.TryConsume(token.Else); ok {
		// The else branch, when present, replaces else_block -- never
		// then's field, which is the bug one parser draft had.
		els, err = p.parseBlockOrStmt()
		if err != nil {
			return nil, err
		}
	}
	end := then.End
	if els != nil {
		end = els.End
	}
	return ast.NewIf(cond, then, els, begin, end), nil
}

func (p *Parser) parseWhile() (*ast.Stmt, error) {
	begin := p.s.Pos()
	p.s.TryConsume(token.While)
	cond, err := p.ParseExpression(0)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlockOrStmt()
	if err != nil {
		return nil, err
	}
	return ast.NewWhile(cond, body, begin, body.End), nil
}

// ParseGlobal parses a single top-level item: a function declaration or
// definition, or a top-level expression statement.
func (p *Parser) ParseGlobal() (*ast.Global, error) {
	begin := p.s.Pos()
	isC := false
	switch p.s.PeekOperator() {
	case token.Cfn:
		isC = true
		p.s.TryConsume(token.Cfn)
	case token.Fn:
		p.s.TryConsume(token.Fn)
	default:
		e, err := p.ParseExpression(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.s.Consume(token.Semi); err != nil {
			return nil, err
		}
		return ast.NewGlobalBasic(e, begin, e.End), nil
	}

	name, err := p.s.ConsumeName()
	if err != nil {
		return nil, err
	}
	if _, err := p.s.Consume(token.LParen); err != nil {
		return nil, err
	}
	var args []string
	if p.s.PeekOperator() != token.RParen {
		for {
			argName, err := p.s.ConsumeName()
			if err != nil {
				return nil, err
			}
			args = append(args, argName.Text)
			if _, ok := p.s.TryConsume(token.Comma); !ok {
				break
			}
		}
	}
	if _, err := p.s.Consume(token.RParen); err != nil {
		return nil, err
	}

	if end, ok := p.s.TryConsume(token.Semi); ok {
		return ast.NewFuncDec(isC, name.Text, args, begin, end.End), nil
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewFunction(isC, name.Text, args, body, begin, body.End), nil
}

// ParseProgram parses every global in the stream until EOF.
func (p *Parser) ParseProgram() ([]*ast.Global, error) {
	var globals []*ast.Global
	for !p.s.Empty() {
		g, err := p.ParseGlobal()
		if err != nil {
			return globals, err
		}
		globals = append(globals, g)
	}
	return globals, nil
}
