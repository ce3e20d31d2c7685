// Package parser implements the recursive-descent parser and the
// shunting-yard expression compiler for the NPS input language. The
// parser shape — a token cursor with match/check/consume/peek/advance
// helpers and panic-based error propagation recovered at the call
// boundary — generalizes a single-grammar recursive descent parser to
// the NPS num_ps/H/structure/membrane grammar.
package parser

import (
	"fmt"

	"nps/internal/lexer"
	"nps/internal/model"
	"nps/internal/nerrors"
)

// Parser holds the token cursor and the handful of semantic-check state
// variables the NPS grammar needs (H must be known before membrane
// blocks are parsed).
type Parser struct {
	tokens  []lexer.Token
	current int
	file    string

	sys      *model.System
	hParsed  bool
	hSet     map[string]bool
	seenBlks map[string]bool
}

// New creates a Parser over tokens. file is used only for error messages.
func New(tokens []lexer.Token, file string) *Parser {
	return &Parser{
		tokens:   tokens,
		file:     file,
		sys:      model.NewSystem(),
		hSet:     map[string]bool{},
		seenBlks: map[string]bool{},
	}
}

// Parse runs the full system grammar and returns the (unlinked) model.
// Syntax errors raised internally via panic(*nerrors.NPSError) are
// recovered here and returned as a plain error, the way a CLI entry point
// recovers a panic into an exit code at its call boundary.
func (p *Parser) Parse() (sys *model.System, err error) {
	defer func() {
		if r := recover(); r != nil {
			if nerr, ok := r.(*nerrors.NPSError); ok {
				err = nerr
				return
			}
			panic(r)
		}
	}()

	p.parseSystem()
	return p.sys, nil
}

func (p *Parser) parseSystem() {
	p.consume(lexer.TokenNumPS, "'num_ps'")
	p.consume(lexer.TokenAssign, "'='")
	p.consume(lexer.TokenLBrace, "'{'")
	for !p.check(lexer.TokenRBrace) && !p.atEnd() {
		p.parseSysStmt()
	}
	p.consume(lexer.TokenRBrace, "'}'")
	p.consume(lexer.TokenSemicolon, "';'")

	for _, n := range p.sys.H {
		if !p.seenBlks[n] {
			panic(p.errorAt(p.previous(), fmt.Sprintf("a block for membrane %q listed in H", n), "none"))
		}
	}
}

func (p *Parser) parseSysStmt() {
	switch {
	case p.check(lexer.TokenH):
		p.advance()
		p.consume(lexer.TokenAssign, "'='")
		p.consume(lexer.TokenLBrace, "'{'")
		names := p.parseNameList()
		p.consume(lexer.TokenRBrace, "'}'")
		p.consume(lexer.TokenSemicolon, "';'")
		seen := map[string]bool{}
		for _, n := range names {
			if seen[n] {
				panic(nerrors.Duplicate(n))
			}
			seen[n] = true
		}
		p.sys.H = names
		p.hSet = seen
		p.hParsed = true

	case p.check(lexer.TokenStructure):
		p.advance()
		p.consume(lexer.TokenAssign, "'='")
		p.sys.Structure = p.parseStructure()
		p.consume(lexer.TokenSemicolon, "';'")

	case p.check(lexer.TokenIdent) || p.check(lexer.TokenNumber):
		name := p.advance().Lexeme
		if !p.hParsed {
			panic(p.errorAt(p.previous(), "'H' to be declared before any membrane block", name))
		}
		if !p.hSet[name] {
			panic(p.errorAt(p.previous(), "a membrane name listed in H", name))
		}
		if p.seenBlks[name] {
			panic(nerrors.Duplicate(name))
		}
		p.seenBlks[name] = true
		p.sys.Membranes[name] = p.parseMembraneBlock(name)

	default:
		panic(p.errorAt(p.peek(), "'H', 'structure' or a membrane name", p.peek().Lexeme))
	}
}

func (p *Parser) parseMembraneBlock(name string) *model.Membrane {
	m := model.NewMembrane(name)
	p.consume(lexer.TokenAssign, "'='")
	p.consume(lexer.TokenLBrace, "'{'")

	var varNames, enzNames []string
	var var0, e0 []float64
	haveVar0, haveE0 := false, false

	for !p.check(lexer.TokenRBrace) && !p.atEnd() {
		switch {
		case p.match(lexer.TokenVar):
			p.consume(lexer.TokenAssign, "'='")
			p.consume(lexer.TokenLBrace, "'{'")
			varNames = p.parseNameList()
			p.consume(lexer.TokenRBrace, "'}'")
			p.consume(lexer.TokenSemicolon, "';'")

		case p.match(lexer.TokenE):
			p.consume(lexer.TokenAssign, "'='")
			p.consume(lexer.TokenLBrace, "'{'")
			enzNames = p.parseNameList()
			p.consume(lexer.TokenRBrace, "'}'")
			p.consume(lexer.TokenSemicolon, "';'")

		case p.match(lexer.TokenVar0):
			p.consume(lexer.TokenAssign, "'='")
			p.consume(lexer.TokenLBrace, "'{'")
			var0 = p.parseNumList()
			p.consume(lexer.TokenRBrace, "'}'")
			p.consume(lexer.TokenSemicolon, "';'")
			haveVar0 = true

		case p.match(lexer.TokenE0):
			p.consume(lexer.TokenAssign, "'='")
			p.consume(lexer.TokenLBrace, "'{'")
			e0 = p.parseNumList()
			p.consume(lexer.TokenRBrace, "'}'")
			p.consume(lexer.TokenSemicolon, "';'")
			haveE0 = true

		case p.match(lexer.TokenPr):
			p.consume(lexer.TokenAssign, "'='")
			p.consume(lexer.TokenLBrace, "'{'")
			prog := p.parseProgram(m)
			p.consume(lexer.TokenRBrace, "'}'")
			p.consume(lexer.TokenSemicolon, "';'")
			m.Programs = append(m.Programs, prog)

		default:
			panic(p.errorAt(p.peek(), "'var', 'E', 'var0', 'E0' or 'pr'", p.peek().Lexeme))
		}
	}
	p.consume(lexer.TokenRBrace, "'}'")
	p.consume(lexer.TokenSemicolon, "';'")

	if haveVar0 && len(var0) != len(varNames) {
		panic(p.errorAt(p.previous(), fmt.Sprintf("var0 of length %d to match var", len(varNames)), fmt.Sprintf("length %d", len(var0))))
	}
	if haveE0 && len(e0) != len(enzNames) {
		panic(p.errorAt(p.previous(), fmt.Sprintf("E0 of length %d to match E", len(enzNames)), fmt.Sprintf("length %d", len(e0))))
	}

	m.Vars = make([]*model.Cell, len(varNames))
	for i, n := range varNames {
		c := model.NewCell(n)
		if haveVar0 {
			c.Value = var0[i]
		}
		m.Vars[i] = c
	}
	m.Enzymes = make([]*model.Cell, len(enzNames))
	for i, n := range enzNames {
		c := model.NewCell(n)
		if haveE0 {
			c.Value = e0[i]
		}
		m.Enzymes[i] = c
	}

	return m
}

// parseProgram parses `expr ( '->' distrib | '[' ID '->' ']' distrib )`.
func (p *Parser) parseProgram(m *model.Membrane) *model.Program {
	prod, term := p.compileExpr(lexer.TokenArrow, lexer.TokenLBracket)

	prog := &model.Program{Prod: prod}

	switch term {
	case lexer.TokenArrow:
		p.consume(lexer.TokenArrow, "'->'")
		prog.Distrib = p.parseDistrib()
	case lexer.TokenLBracket:
		p.consume(lexer.TokenLBracket, "'['")
		enzTok := p.consume(lexer.TokenIdent, "an enzyme name")
		prog.EnzymeName = enzTok.Lexeme
		p.consume(lexer.TokenArrow, "'->'")
		p.consume(lexer.TokenRBracket, "']'")
		prog.Distrib = p.parseDistrib()
	default:
		panic(p.errorAt(p.peek(), "'->' or '['", p.peek().Lexeme))
	}
	return prog
}

func (p *Parser) parseDistrib() *model.DistributionFunction {
	df := &model.DistributionFunction{}
	var exprParts []string

	appendRule := func() {
		propTok := p.consume(lexer.TokenNumber, "a proportion integer")
		p.consume(lexer.TokenPipe, "'|'")
		nameTok := p.consume(lexer.TokenIdent, "a target variable name")

		var prop int64
		fmt.Sscanf(propTok.Lexeme, "%d", &prop)
		df.Rules = append(df.Rules, &model.DistributionRule{
			Proportion: prop,
			TargetName: nameTok.Lexeme,
		})
		df.ProportionTotal += prop
		exprParts = append(exprParts, propTok.Lexeme+"|"+nameTok.Lexeme)
	}

	appendRule()
	for p.match(lexer.TokenPlus) {
		appendRule()
	}

	if df.ProportionTotal <= 0 {
		panic(p.errorAt(p.previous(), "a positive proportion total", "non-positive total"))
	}

	for i, part := range exprParts {
		if i > 0 {
			df.Expr += " + "
		}
		df.Expr += part
	}
	return df
}

func (p *Parser) parseNameList() []string {
	var names []string
	names = append(names, p.consumeName())
	for p.match(lexer.TokenComma) {
		names = append(names, p.consumeName())
	}
	return names
}

// consumeName accepts an identifier, or a bare NUMBER token used as a
// membrane/variable name (membrane names may be purely numeric).
func (p *Parser) consumeName() string {
	if p.check(lexer.TokenIdent) || p.check(lexer.TokenNumber) {
		return p.advance().Lexeme
	}
	panic(p.errorAt(p.peek(), "a name", p.peek().Lexeme))
}

func (p *Parser) parseNumList() []float64 {
	var nums []float64
	nums = append(nums, p.parseSignedNum())
	for p.match(lexer.TokenComma) {
		nums = append(nums, p.parseSignedNum())
	}
	return nums
}

func (p *Parser) parseSignedNum() float64 {
	neg := p.match(lexer.TokenMinus)
	var v float64
	switch {
	case p.check(lexer.TokenNumber):
		fmt.Sscanf(p.advance().Lexeme, "%f", &v)
	case p.check(lexer.TokenNumberFloat):
		fmt.Sscanf(p.advance().Lexeme, "%f", &v)
	default:
		panic(p.errorAt(p.peek(), "a number", p.peek().Lexeme))
	}
	if neg {
		v = -v
	}
	return v
}

// parseStructure parses the structTok+ list, already positioned after
// "structure =". Every bracket and name token up to the terminating ';'
// belongs to the list: the leading '[' and trailing ']' are themselves
// structTok elements (the root membrane's own open/close markers), not a
// separate pair of statement delimiters.
func (p *Parser) parseStructure() []model.StructTok {
	var toks []model.StructTok
	for !p.check(lexer.TokenSemicolon) && !p.atEnd() {
		switch {
		case p.match(lexer.TokenLBracket):
			toks = append(toks, model.StructTok{Kind: model.StructOpen})
		case p.match(lexer.TokenRBracket):
			toks = append(toks, model.StructTok{Kind: model.StructClose})
		case p.check(lexer.TokenIdent) || p.check(lexer.TokenNumber):
			toks = append(toks, model.StructTok{Kind: model.StructName, Name: p.advance().Lexeme})
		default:
			panic(p.errorAt(p.peek(), "'[', ']' or a membrane name", p.peek().Lexeme))
		}
	}
	if len(toks) == 0 {
		panic(p.errorAt(p.peek(), "a non-empty structure list", ";"))
	}
	return toks
}

// --- token cursor utilities ---

func (p *Parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) check(t lexer.TokenType) bool {
	return !p.atEnd() && p.peek().Type == t
}

func (p *Parser) consume(t lexer.TokenType, expected string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	panic(p.errorAt(p.peek(), expected, p.peek().Lexeme))
}

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.current]
	if !p.atEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) peek() lexer.Token {
	if p.current >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current]
}

func (p *Parser) previous() lexer.Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *Parser) atEnd() bool {
	return p.peek().Type == lexer.TokenEOF
}

func (p *Parser) errorAt(tok lexer.Token, expected, got string) *nerrors.NPSError {
	err := nerrors.Parse(tok.Line, tok.Column, expected, got)
	if p.file != "" {
		err.Location.File = p.file
	}
	return err
}
