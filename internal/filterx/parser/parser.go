package parser

import (
	"fmt"
	"strings"

	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/expr"
	"github.com/rakunlabs/filterx/internal/filterx/function"
	"github.com/rakunlabs/filterx/internal/filterx/object"
	"github.com/rakunlabs/filterx/internal/filterx/scope"
)

// Parse compiles FilterX source text into a single expression node (a
// Compound if more than one statement is present), resolving every
// variable reference against handles and every call against registry
// against reg. Both tables are shared across a whole configuration load
// (spec.md §3.6, §4.12).
func Parse(file, src string, handles *scope.Table, reg *function.Registry) (expr.Node, error) {
	p := &parser{file: file, src: src, lex: newLexer(src), handles: handles, reg: reg}
	if err := p.advance(); err != nil {
		return nil, err
	}
	stmts, err := p.parseStatements(tEOF)
	if err != nil {
		return nil, err
	}
	if err := p.expect(tEOF); err != nil {
		return nil, err
	}
	if len(stmts) == 1 {
		return stmts[0], nil
	}
	return expr.NewCompound(p.loc(0, len(src)), stmts, true), nil
}

type parser struct {
	file    string
	src     string
	lex     *lexer
	handles *scope.Table
	reg     *function.Registry

	cur token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) loc(start, end int) eval.Location {
	text := p.src
	if start >= 0 && end <= len(p.src) && start <= end {
		text = p.src[start:end]
	}
	return eval.Location{File: p.file, StartLine: 1, StartCol: start + 1, EndLine: 1, EndCol: end + 1, Text: strings.TrimSpace(text)}
}

func (p *parser) tokLoc(t token) eval.Location {
	end := t.pos + len(t.text)
	if end <= t.pos {
		end = t.pos + 1
	}
	return p.loc(t.pos, end)
}

func (p *parser) errf(format string, args ...any) error {
	return fmt.Errorf("parser: %s (at offset %d): %s", p.file, p.cur.pos, fmt.Sprintf(format, args...))
}

func (p *parser) expect(k tokenKind) error {
	if p.cur.kind != k {
		return p.errf("unexpected token %q", p.cur.text)
	}
	return p.advance()
}

// parseStatements parses a `;`-separated statement sequence until a
// token of kind stop (or EOF) is seen, mirroring spec.md §4.3's compound
// block.
func (p *parser) parseStatements(stop tokenKind) ([]expr.Node, error) {
	var stmts []expr.Node
	for p.cur.kind != stop && p.cur.kind != tEOF {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		for p.cur.kind == tSemicolon {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if len(stmts) == 0 {
		stmts = append(stmts, expr.NewLiteral(p.loc(0, 0), object.NewBoolean(true)))
	}
	return stmts, nil
}

func (p *parser) parseStatement() (expr.Node, error) {
	switch p.cur.kind {
	case tKwIf:
		return p.parseIf()
	case tKwSwitch:
		return p.parseSwitch()
	case tKwBreak:
		loc := p.tokLoc(p.cur)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr.NewBreak(loc), nil
	case tKwDone:
		loc := p.tokLoc(p.cur)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr.NewDone(loc), nil
	case tKwDrop:
		loc := p.tokLoc(p.cur)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr.NewDrop(loc), nil
	case tLBrace:
		return p.parseBlock()
	default:
		return p.parseAssignExpr()
	}
}

func (p *parser) parseBlock() (expr.Node, error) {
	start := p.cur.pos
	if err := p.advance(); err != nil { // consume {
		return nil, err
	}
	stmts, err := p.parseStatements(tRBrace)
	if err != nil {
		return nil, err
	}
	end := p.cur.pos + 1
	if err := p.expect(tRBrace); err != nil {
		return nil, err
	}
	return expr.NewCompound(p.loc(start, end), stmts, true), nil
}

// parseIf implements if/elif/else (spec.md §4.4) as a chain of
// Conditional nodes, each elif becoming the previous node's FalseBranch.
func (p *parser) parseIf() (expr.Node, error) {
	loc := p.tokLoc(p.cur)
	if err := p.advance(); err != nil { // consume 'if'
		return nil, err
	}
	cond, err := p.parseParenOrBareExpr()
	if err != nil {
		return nil, err
	}
	trueBranch, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	var falseBranch expr.Node
	switch p.cur.kind {
	case tKwElif:
		p.cur.kind = tKwIf // reuse parseIf by rewriting elif -> if
		falseBranch, err = p.parseIf()
		if err != nil {
			return nil, err
		}
	case tKwElse:
		if err := p.advance(); err != nil {
			return nil, err
		}
		falseBranch, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	return expr.NewConditional(loc, cond, trueBranch, falseBranch), nil
}

// parseParenOrBareExpr accepts either `(expr)` or a bare expression
// before a block, since FilterX configs commonly omit the parens that a
// C-like grammar would require.
func (p *parser) parseParenOrBareExpr() (expr.Node, error) {
	return p.parseAssignExpr()
}

// parseSwitch implements spec.md §4.5.
func (p *parser) parseSwitch() (expr.Node, error) {
	loc := p.tokLoc(p.cur)
	if err := p.advance(); err != nil { // consume 'switch'
		return nil, err
	}
	selector, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tLBrace); err != nil {
		return nil, err
	}

	var stmts []expr.Node
	var cases []expr.Case
	defaultTarget := -1
	for p.cur.kind != tRBrace && p.cur.kind != tEOF {
		switch p.cur.kind {
		case tKwCase:
			if err := p.advance(); err != nil {
				return nil, err
			}
			val, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tColon); err != nil {
				return nil, err
			}
			cases = append(cases, expr.Case{Value: val, Target: len(stmts)})
		case tKwDefault:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expect(tColon); err != nil {
				return nil, err
			}
			defaultTarget = len(stmts)
		default:
			s, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
			for p.cur.kind == tSemicolon {
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
		}
	}
	end := p.cur.pos + 1
	if err := p.expect(tRBrace); err != nil {
		return nil, err
	}
	if len(stmts) == 0 {
		stmts = append(stmts, expr.NewLiteral(p.loc(0, 0), object.NewBoolean(true)))
	}
	body := expr.NewCompound(p.loc(loc.StartCol-1, end), stmts, true)
	return expr.NewSwitch(loc, selector, cases, defaultTarget, body), nil
}

// parseAssignExpr handles `=`, `+=`, `??=` (spec.md §4.6), then falls
// through to the null-coalesce/or/and precedence chain.
func (p *parser) parseAssignExpr() (expr.Node, error) {
	lhs, err := p.parseNullCoalesce()
	if err != nil {
		return nil, err
	}

	switch p.cur.kind {
	case tAssign:
		loc := p.tokLoc(p.cur)
		if err := p.advance(); err != nil {
			return nil, err
		}
		assignable, err := toLValue(lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		return expr.NewAssign(loc, assignable, rhs), nil
	case tNullCoalesceAssign:
		loc := p.tokLoc(p.cur)
		if err := p.advance(); err != nil {
			return nil, err
		}
		assignable, err := toLValue(lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		return expr.NewNullCoalesceAssign(loc, assignable, rhs), nil
	case tPlusAssign:
		loc := p.tokLoc(p.cur)
		if err := p.advance(); err != nil {
			return nil, err
		}
		assignable, err := toLValue(lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		return expr.NewPlusAssign(loc, assignable, lhs, rhs), nil
	}
	return lhs, nil
}

func (p *parser) parseNullCoalesce() (expr.Node, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tNullCoalesce {
		loc := p.tokLoc(p.cur)
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		left = expr.NewNullCoalesce(loc, left, right)
	}
	return left, nil
}

func (p *parser) parseOr() (expr.Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tOr {
		loc := p.tokLoc(p.cur)
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = expr.NewOr(loc, left, right)
	}
	return left, nil
}

func (p *parser) parseAnd() (expr.Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tAnd {
		loc := p.tokLoc(p.cur)
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = expr.NewAnd(loc, left, right)
	}
	return left, nil
}

func (p *parser) parseNot() (expr.Node, error) {
	if p.cur.kind == tNot {
		loc := p.tokLoc(p.cur)
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return expr.NewNot(loc, operand), nil
	}
	return p.parseCompare()
}

func (p *parser) parseCompare() (expr.Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	var op expr.CompareOp
	switch p.cur.kind {
	case tEq:
		op = expr.CmpEq
	case tNe:
		op = expr.CmpNe
	case tLt:
		op = expr.CmpLt
	case tLe:
		op = expr.CmpLe
	case tGt:
		op = expr.CmpGt
	case tGe:
		op = expr.CmpGe
	default:
		return left, nil
	}
	loc := p.tokLoc(p.cur)
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return expr.NewCompare(loc, op, left, right), nil
}

func (p *parser) parseAdditive() (expr.Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tPlus || p.cur.kind == tMinus {
		op := expr.OpAdd
		if p.cur.kind == tMinus {
			op = expr.OpSub
		}
		loc := p.tokLoc(p.cur)
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = expr.NewArithmetic(loc, op, left, right)
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (expr.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tStar || p.cur.kind == tSlash || p.cur.kind == tPercent {
		var op expr.ArithOp
		switch p.cur.kind {
		case tStar:
			op = expr.OpMul
		case tSlash:
			op = expr.OpDiv
		case tPercent:
			op = expr.OpMod
		}
		loc := p.tokLoc(p.cur)
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = expr.NewArithmetic(loc, op, left, right)
	}
	return left, nil
}

func (p *parser) parseUnary() (expr.Node, error) {
	if p.cur.kind == tMinus {
		loc := p.tokLoc(p.cur)
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.NewNegate(loc, operand), nil
	}
	return p.parsePostfix()
}

// parsePostfix handles `.key`, `[expr]` and `(args)` chains (spec.md
// §4.7, §4.12).
func (p *parser) parsePostfix() (expr.Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur.kind {
		case tDot:
			loc := p.tokLoc(p.cur)
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.kind != tIdent {
				return nil, p.errf("expected identifier after '.'")
			}
			key := p.cur.text
			if err := p.advance(); err != nil {
				return nil, err
			}
			n = expr.NewGetAttr(loc, n, key)
		case tLBracket:
			loc := p.tokLoc(p.cur)
			if err := p.advance(); err != nil {
				return nil, err
			}
			key, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tRBracket); err != nil {
				return nil, err
			}
			n = expr.NewSubscript(loc, n, key)
		case tLParen:
			call, err := p.finishCall(n)
			if err != nil {
				return nil, err
			}
			n = call
		default:
			return n, nil
		}
	}
}

// finishCall parses a call's argument list against an already-parsed
// callee expression, which must be a bare identifier reference (function
// names are not first-class values in FilterX).
func (p *parser) finishCall(callee expr.Node) (expr.Node, error) {
	ref, ok := callee.(*identRef)
	if !ok {
		return nil, p.errf("only a plain function name can be called")
	}
	loc := p.tokLoc(p.cur)
	if err := p.advance(); err != nil { // consume (
		return nil, err
	}
	var args []expr.Arg
	seenNamed := false
	for p.cur.kind != tRParen {
		if len(args) > 0 {
			if err := p.expect(tComma); err != nil {
				return nil, err
			}
			if p.cur.kind == tRParen {
				break
			}
		}
		name := ""
		if p.cur.kind == tIdent {
			save := p.lex.pos
			savedCur := p.cur
			ident := p.cur.text
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.kind == tColon {
				name = ident
				seenNamed = true
				if err := p.advance(); err != nil {
					return nil, err
				}
			} else {
				// not a named argument; rewind the lexer and reparse as
				// an expression starting at the identifier.
				p.lex.pos = save
				p.cur = savedCur
			}
		} else if seenNamed {
			return nil, p.errf("positional argument after named argument")
		}
		valExpr, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, expr.Arg{Name: name, Expr: valExpr})
	}
	end := p.cur.pos + 1
	if err := p.expect(tRParen); err != nil {
		return nil, err
	}
	fn, err := p.reg.Construct(ref.name, args)
	if err != nil {
		return nil, fmt.Errorf("parser: %w", err)
	}
	callLoc := p.loc(loc.StartCol-1, end)
	return expr.NewFunctionCall(callLoc, fn, args), nil
}

// identRef is a parser-internal placeholder standing for a bare name
// before it's known whether the name is a floating variable reference or
// a function-call callee; resolveIdent turns it into a real
// *expr.VariableRef once the choice is clear.
type identRef struct {
	expr.Base
	expr.NoChildren
	name string
}

func (n *identRef) Eval(ctx *eval.Context) (*object.Value, error) {
	return nil, fmt.Errorf("parser: internal error: unresolved identifier %q", n.name)
}
func (n *identRef) Optimize() expr.Node { return n }

func (p *parser) parsePrimary() (expr.Node, error) {
	switch p.cur.kind {
	case tInt:
		loc := p.tokLoc(p.cur)
		n, err := parseIntLiteral(p.cur.text)
		if err != nil {
			return nil, p.errf("invalid integer literal %q", p.cur.text)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr.NewLiteral(loc, object.NewInteger(n)), nil
	case tDouble:
		loc := p.tokLoc(p.cur)
		f, err := parseDoubleLiteral(p.cur.text)
		if err != nil {
			return nil, p.errf("invalid double literal %q", p.cur.text)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr.NewLiteral(loc, object.NewDouble(f)), nil
	case tString:
		loc := p.tokLoc(p.cur)
		s := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr.NewLiteral(loc, object.NewString(s)), nil
	case tTemplate:
		loc := p.tokLoc(p.cur)
		parts, err := splitTemplate(p.cur.text)
		if err != nil {
			return nil, p.errf("%s", err.Error())
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr.NewTemplate(loc, parts), nil
	case tKwTrue:
		loc := p.tokLoc(p.cur)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr.NewLiteral(loc, object.NewBoolean(true)), nil
	case tKwFalse:
		loc := p.tokLoc(p.cur)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr.NewLiteral(loc, object.NewBoolean(false)), nil
	case tKwNull:
		loc := p.tokLoc(p.cur)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr.NewLiteral(loc, object.NewNull()), nil
	case tMessageVar:
		loc := p.tokLoc(p.cur)
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		h := p.handles.MessageHandle(name)
		return expr.NewVariableRef(loc, h, name, false), nil
	case tIdent:
		loc := p.tokLoc(p.cur)
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind == tLParen {
			return &identRef{name: name}, nil
		}
		h := p.handles.FloatingHandle(name)
		return expr.NewVariableRef(loc, h, name, false), nil
	case tLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tRParen); err != nil {
			return nil, err
		}
		return n, nil
	case tLBracket:
		return p.parseListLiteral()
	case tLBrace:
		return p.parseDictLiteral()
	default:
		return nil, p.errf("unexpected token %q", p.cur.text)
	}
}

func (p *parser) parseListLiteral() (expr.Node, error) {
	loc := p.tokLoc(p.cur)
	if err := p.advance(); err != nil { // consume [
		return nil, err
	}
	var items []expr.Node
	for p.cur.kind != tRBracket {
		if len(items) > 0 {
			if err := p.expect(tComma); err != nil {
				return nil, err
			}
			if p.cur.kind == tRBracket {
				break
			}
		}
		item, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	end := p.cur.pos + 1
	if err := p.expect(tRBracket); err != nil {
		return nil, err
	}
	return expr.NewListLiteral(p.loc(loc.StartCol-1, end), items), nil
}

func (p *parser) parseDictLiteral() (expr.Node, error) {
	loc := p.tokLoc(p.cur)
	if err := p.advance(); err != nil { // consume {
		return nil, err
	}
	var keys []string
	var values []expr.Node
	for p.cur.kind != tRBrace {
		if len(keys) > 0 {
			if err := p.expect(tComma); err != nil {
				return nil, err
			}
			if p.cur.kind == tRBrace {
				break
			}
		}
		if p.cur.kind != tString && p.cur.kind != tIdent {
			return nil, p.errf("expected dict key")
		}
		key := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expect(tColon); err != nil {
			return nil, err
		}
		val, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		values = append(values, val)
	}
	end := p.cur.pos + 1
	if err := p.expect(tRBrace); err != nil {
		return nil, err
	}
	return expr.NewDictLiteral(p.loc(loc.StartCol-1, end), keys, values), nil
}

// toLValue converts a parsed postfix-access expression into the
// Assignable the assignment operators need (spec.md §4.6/§4.7/§4.13): a
// bare variable or single-level getattr/subscript is already Assignable
// as parsed; a deeper chain is flattened into a DPathLValue, the only
// node spec.md §4.13 allows for multi-level writes.
func toLValue(n expr.Node) (expr.Assignable, error) {
	if a, ok := n.(expr.Assignable); ok {
		if depth(n) <= 1 {
			return a, nil
		}
	}
	root, elems, ok := flattenChain(n)
	if !ok {
		return nil, fmt.Errorf("parser: left-hand side is not assignable")
	}
	if len(elems) == 0 {
		return root, nil
	}
	return expr.NewDPathLValue(root.Loc(), root, elems, false), nil
}

func depth(n expr.Node) int {
	switch v := n.(type) {
	case *expr.VariableRef:
		_ = v
		return 0
	case *expr.GetAttr:
		return 1 + depth(v.Object)
	case *expr.Subscript:
		return 1 + depth(v.Object)
	}
	return 0
}

func flattenChain(n expr.Node) (*expr.VariableRef, []expr.DPathElement, bool) {
	var elems []expr.DPathElement
	cur := n
	for {
		switch v := cur.(type) {
		case *expr.VariableRef:
			reverse(elems)
			return v, elems, true
		case *expr.GetAttr:
			elems = append(elems, expr.DPathElement{LiteralKey: v.Key})
			cur = v.Object
		case *expr.Subscript:
			elems = append(elems, expr.DPathElement{KeyExpr: v.Key})
			cur = v.Object
		default:
			return nil, nil, false
		}
	}
}

func reverse(e []expr.DPathElement) {
	for i, j := 0, len(e)-1; i < j; i, j = i+1, j-1 {
		e[i], e[j] = e[j], e[i]
	}
}
