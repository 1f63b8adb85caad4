package frontend

import (
	"fmt"

	"vecc/src/source"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// parser is a simple recursive-descent reader over the token stream, grounded in the grammar
// original_source/compiler/parser.py implements for the same surface syntax.
type parser struct {
	toks []token
	pos  int
}

// ---------------------
// ----- Functions -----
// ---------------------

// Parse lexes and parses src into a Source-language Program. It is the sole entry point external
// callers (the CLI, the test harness) use to turn surface syntax into a source.Node tree.
func Parse(src string) (*source.Program, error) {
	l := newLexer(src)
	toks, err := l.lex()
	if err != nil {
		return nil, fmt.Errorf("syntax error: %s", err)
	}
	p := &parser{toks: toks}
	body, err := p.parseExpr()
	if err != nil {
		return nil, fmt.Errorf("syntax error: %s", err)
	}
	if p.cur().typ != tokEOF {
		return nil, fmt.Errorf("syntax error: unexpected trailing input at %s", p.cur())
	}
	return &source.Program{Body: body}, nil
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance()    { p.pos++ }

func (p *parser) expect(t tokenType, what string) (token, error) {
	tok := p.cur()
	if tok.typ != t {
		return tok, fmt.Errorf("expected %s, got %s", what, tok)
	}
	p.advance()
	return tok, nil
}

// parseExpr parses one expression: a literal, a bare identifier, or a parenthesized form.
func (p *parser) parseExpr() (source.Node, error) {
	tok := p.cur()
	switch tok.typ {
	case tokInt:
		p.advance()
		v, err := parseIntLiteral(tok.val)
		if err != nil {
			return nil, fmt.Errorf("invalid integer literal %q at %s", tok.val, tok)
		}
		return &source.Int{Value: v}, nil
	case tokBool:
		p.advance()
		return &source.Bool{Value: tok.val == "#t"}, nil
	case tokSym:
		p.advance()
		if source.IsRuntimeOp(tok.val) {
			return &source.Apply{Op: tok.val}, nil
		}
		return &source.Var{Name: tok.val}, nil
	case tokLParen:
		return p.parseList()
	default:
		return nil, fmt.Errorf("unexpected token %s", tok)
	}
}

// parseList parses a parenthesized form: (let ...), (if ...), (vector ...), (op args...), etc.
func (p *parser) parseList() (source.Node, error) {
	if _, err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	head := p.cur()
	if head.typ == tokSym {
		switch head.val {
		case "let":
			p.advance()
			return p.parseLet()
		case "if":
			p.advance()
			return p.parseIf()
		case "void":
			p.advance()
			if _, err := p.expect(tokRParen, ")"); err != nil {
				return nil, err
			}
			return &source.Void{}, nil
		case "vector":
			p.advance()
			return p.parseVectorInit()
		case "vector-ref":
			p.advance()
			return p.parseVectorRef()
		case "vector-set!":
			p.advance()
			return p.parseVectorSet()
		case "lambda":
			p.advance()
			return p.parseLambda()
		case "define":
			p.advance()
			return p.parseDefine()
		case source.OpAdd, source.OpNeg, source.OpEq, source.OpLt, source.OpLe, source.OpGt, source.OpGe,
			source.OpAnd, source.OpOr, source.OpNot, source.OpRead, source.OpReadInt, source.OpReadBool:
			p.advance()
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			return &source.Apply{Op: head.val, Args: args}, nil
		}
	}
	return nil, fmt.Errorf("unexpected form head %s", head)
}

// parseArgList parses zero or more expressions up to the closing paren.
func (p *parser) parseArgList() ([]source.Node, error) {
	var args []source.Node
	for p.cur().typ != tokRParen {
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	p.advance() // consume ')'
	return args, nil
}

// parseLet parses "(let ([name init] ...) body)".
func (p *parser) parseLet() (source.Node, error) {
	if _, err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	var bindings []source.Binding
	for p.cur().typ != tokRParen {
		if _, err := p.expect(tokLParen, "["); err != nil {
			return nil, err
		}
		name, err := p.expect(tokSym, "binding name")
		if err != nil {
			return nil, err
		}
		init, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "]"); err != nil {
			return nil, err
		}
		bindings = append(bindings, source.Binding{Name: name.val, Init: init})
	}
	p.advance() // consume the bindings list's ')'
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	return &source.Let{Bindings: bindings, Body: body}, nil
}

// parseIf parses "(if cond then else)".
func (p *parser) parseIf() (source.Node, error) {
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	return &source.If{Cond: cond, Then: then, Else: els}, nil
}

// parseVectorInit parses "(vector e1 e2 ...)".
func (p *parser) parseVectorInit() (source.Node, error) {
	elems, err := p.parseArgList()
	if err != nil {
		return nil, err
	}
	return &source.VectorInit{Elems: elems}, nil
}

// parseVectorRef parses "(vector-ref v i)". i must be a literal integer (spec.md §3).
func (p *parser) parseVectorRef() (source.Node, error) {
	vec, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	idx, err := p.expect(tokInt, "literal integer index")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	i, err := parseIntLiteral(idx.val)
	if err != nil {
		return nil, err
	}
	return &source.VectorRef{Vec: vec, Index: int(i)}, nil
}

// parseVectorSet parses "(vector-set! v i val)".
func (p *parser) parseVectorSet() (source.Node, error) {
	vec, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	idx, err := p.expect(tokInt, "literal integer index")
	if err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	i, err := parseIntLiteral(idx.val)
	if err != nil {
		return nil, err
	}
	return &source.VectorSet{Vec: vec, Index: int(i), Val: val}, nil
}

// parseLambda parses "(lambda (params...) body)" into a placeholder node (spec.md §9).
func (p *parser) parseLambda() (source.Node, error) {
	if _, err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	var params []string
	for p.cur().typ != tokRParen {
		name, err := p.expect(tokSym, "parameter name")
		if err != nil {
			return nil, err
		}
		params = append(params, name.val)
	}
	p.advance()
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	return &source.Lambda{Params: params, Body: body}, nil
}

// parseDefine parses "(define name (lambda ...))" into a placeholder node (spec.md §9).
func (p *parser) parseDefine() (source.Node, error) {
	name, err := p.expect(tokSym, "define name")
	if err != nil {
		return nil, err
	}
	fn, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	lam, ok := fn.(*source.Lambda)
	if !ok {
		return nil, fmt.Errorf("define %s: expected a lambda body", name.val)
	}
	return &source.Define{Name: name.val, Fn: lam}, nil
}

// TokenStream lexes src and returns a print-friendly token listing, mirroring the teacher's -ts flag.
func TokenStream(src string) ([]string, error) {
	l := newLexer(src)
	toks, err := l.lex()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, t := range toks {
		if t.typ == tokEOF {
			break
		}
		out = append(out, t.String())
	}
	return out, nil
}
