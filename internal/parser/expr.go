package parser

import (
	"strconv"
	"strings"

	"nps/internal/ast"
	"nps/internal/lexer"
	"nps/internal/model"
)

// opStackEntry is either a LeftParen marker or a real operator, kept on
// the shunting-yard operator stack.
type opStackEntry struct {
	leftParen bool
	kind      ast.OpKind
}

// compileExpr runs the shunting-yard algorithm over the token run
// starting at the parser's current position, stopping just before the
// first token of one of the given terminator types (or EOF), whatever
// the parenthesis depth at that point. It does not consume the terminator. The algorithm is
// implemented iteratively: an equivalent recursive formulation exists
// but the pop loop below is easier to reason about and to test.
func (p *Parser) compileExpr(terminators ...lexer.TokenType) (*model.ProductionFunction, lexer.TokenType) {
	var items []model.Item
	var opStack []opStackEntry
	var infixParts []string

	isTerminator := func(t lexer.TokenType) bool {
		for _, term := range terminators {
			if t == term {
				return true
			}
		}
		return false
	}

	popToItems := func() {
		top := opStack[len(opStack)-1]
		opStack = opStack[:len(opStack)-1]
		items = append(items, model.OpItem(top.kind))
	}

	pushOperator := func(kind ast.OpKind) {
		prec := ast.Precedence(kind)
		rightAssoc := ast.Catalog[kind].Assoc == ast.AssocRight
		for len(opStack) > 0 && !opStack[len(opStack)-1].leftParen {
			topPrec := ast.Precedence(opStack[len(opStack)-1].kind)
			if rightAssoc {
				if topPrec <= prec {
					break
				}
			} else {
				if topPrec < prec {
					break
				}
			}
			popToItems()
		}
		opStack = append(opStack, opStackEntry{kind: kind})
	}

	var terminatedBy lexer.TokenType
	for {
		tok := p.peek()
		if tok.Type == lexer.TokenEOF {
			terminatedBy = lexer.TokenEOF
			break
		}
		if isTerminator(tok.Type) {
			terminatedBy = tok.Type
			break
		}
		p.advance()
		infixParts = append(infixParts, tok.Lexeme)

		switch tok.Type {
		case lexer.TokenNumber:
			n, _ := strconv.ParseInt(tok.Lexeme, 10, 64)
			items = append(items, model.IntegerItem(n))
		case lexer.TokenNumberFloat:
			f, _ := strconv.ParseFloat(tok.Lexeme, 64)
			items = append(items, model.RealItem(f))
		case lexer.TokenIdent:
			items = append(items, model.VarRefItem(tok.Lexeme))
		case lexer.TokenLParen:
			opStack = append(opStack, opStackEntry{leftParen: true})
		case lexer.TokenRParen:
			matched := false
			for len(opStack) > 0 {
				top := opStack[len(opStack)-1]
				opStack = opStack[:len(opStack)-1]
				if top.leftParen {
					matched = true
					break
				}
				items = append(items, model.OpItem(top.kind))
			}
			if !matched {
				panic(p.errorAt(tok, "matching '('", ")"))
			}
		case lexer.TokenFuncName:
			pushOperator(funcKind(tok.Lexeme))
		case lexer.TokenNegate:
			pushOperator(ast.OpNegate)
		case lexer.TokenPlus:
			pushOperator(ast.OpAdd)
		case lexer.TokenMinus:
			pushOperator(ast.OpSub)
		case lexer.TokenStar:
			pushOperator(ast.OpMul)
		case lexer.TokenSlash:
			pushOperator(ast.OpDiv)
		case lexer.TokenCaret:
			pushOperator(ast.OpPow)
		case lexer.TokenEqEq:
			pushOperator(ast.OpEq)
		case lexer.TokenNotEqual:
			pushOperator(ast.OpNe)
		case lexer.TokenLT:
			pushOperator(ast.OpLt)
		case lexer.TokenLE:
			pushOperator(ast.OpLe)
		case lexer.TokenGT:
			pushOperator(ast.OpGt)
		case lexer.TokenGE:
			pushOperator(ast.OpGe)
		default:
			panic(p.errorAt(tok, "an expression token", tok.Lexeme))
		}
	}

	for len(opStack) > 0 {
		top := opStack[len(opStack)-1]
		opStack = opStack[:len(opStack)-1]
		if top.leftParen {
			panic(p.errorAt(p.peek(), "matching ')'", "end of expression"))
		}
		items = append(items, model.OpItem(top.kind))
	}

	return &model.ProductionFunction{
		Infix: strings.Join(infixParts, " "),
		Items: items,
	}, terminatedBy
}

func funcKind(name string) ast.OpKind {
	return ast.OpKind(name)
}
