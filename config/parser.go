// Copyright (C) 2024 The Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"github.com/koffeinflummi/pbokit/core/diag"
	"github.com/koffeinflummi/pbokit/core/fault"
	"github.com/koffeinflummi/pbokit/core/log"
	"github.com/koffeinflummi/pbokit/core/memory/arena"
)

// parser is a recursive-descent parser over the preprocessed config text.
// Grammar (§4.1.2):
//
//	unit       := definition*
//	definition := class-def | assignment ';' | "delete" name ';'
//	class-def  := "class" name (":" name)? ( "{" definition* "}" ";"? | ";" )
//	assignment := name ("[" "]")? ("=" | "+=") expr ";"
//	expr       := string | number | array | ident
//	array      := "{" (expr ("," expr)*)? "}"
type parser struct {
	file  string
	lex   *lexer
	tok   token
	arena *arena.Arena[Class]
	ctx   log.Context
	sink  *diag.Sink
}

// Parse lexes and parses one preprocessed config file into an AST. Class
// bodies are allocated from a fresh arena.Arena[Class] owned by the
// returned AST. An unquoted identifier where a value is expected is
// accepted as a string value (per §4.1.2), reporting diag.KindUnquotedString
// on sink rather than failing the parse.
func Parse(ctx log.Context, file, src string, sink *diag.Sink) (*AST, error) {
	p := &parser{file: file, lex: newLexer(src), arena: &arena.Arena[Class]{}, ctx: ctx, sink: sink}
	if err := p.advance(); err != nil {
		return nil, err
	}
	defs, err := p.definitions(tokEOF)
	if err != nil {
		return nil, err
	}
	return &AST{Root: Class{Defs: defs}, Arena: p.arena}, nil
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) errf(msg string) error {
	return &fault.SyntaxError{File: p.file, Line: p.tok.line, Message: msg}
}

func (p *parser) expectPunct(s string) error {
	if p.tok.kind != tokPunct || p.tok.text != s {
		return p.errf("expected '" + s + "'")
	}
	return p.advance()
}

// definitions parses definition* until either EOF or a closing '}', per
// end's kind (tokEOF for the top-level unit, tokPunct "}" for a class body).
func (p *parser) definitions(end tokenKind) ([]Definition, error) {
	var defs []Definition
	for {
		if end == tokEOF && p.tok.kind == tokEOF {
			return defs, nil
		}
		if end == tokPunct && p.tok.kind == tokPunct && p.tok.text == "}" {
			return defs, nil
		}
		if p.tok.kind == tokEOF {
			return nil, p.errf("unexpected end of file")
		}
		def, err := p.definition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
}

func (p *parser) definition() (Definition, error) {
	if p.tok.kind == tokIdent && p.tok.text == "class" {
		return p.classDef()
	}
	if p.tok.kind == tokIdent && p.tok.text == "delete" {
		if err := p.advance(); err != nil {
			return Definition{}, err
		}
		if p.tok.kind != tokIdent {
			return Definition{}, p.errf("expected class name after 'delete'")
		}
		name := p.tok.text
		if err := p.advance(); err != nil {
			return Definition{}, err
		}
		if err := p.expectPunct(";"); err != nil {
			return Definition{}, err
		}
		return Definition{Kind: DefDelete, Name: name}, nil
	}
	return p.assignment()
}

func (p *parser) classDef() (Definition, error) {
	if err := p.advance(); err != nil { // consume "class"
		return Definition{}, err
	}
	if p.tok.kind != tokIdent {
		return Definition{}, p.errf("expected class name")
	}
	name := p.tok.text
	if err := p.advance(); err != nil {
		return Definition{}, err
	}

	var parent string
	if p.tok.kind == tokPunct && p.tok.text == ":" {
		if err := p.advance(); err != nil {
			return Definition{}, err
		}
		if p.tok.kind != tokIdent {
			return Definition{}, p.errf("expected parent class name")
		}
		parent = p.tok.text
		if err := p.advance(); err != nil {
			return Definition{}, err
		}
	}

	if p.tok.kind == tokPunct && p.tok.text == ";" {
		if err := p.advance(); err != nil {
			return Definition{}, err
		}
		ref := p.arena.New(Class{Name: name, Parent: parent, IsExtern: true})
		return Definition{Kind: DefExtern, Class: ref, Name: name}, nil
	}

	if err := p.expectPunct("{"); err != nil {
		return Definition{}, err
	}
	defs, err := p.definitions(tokPunct)
	if err != nil {
		return Definition{}, err
	}
	if err := p.expectPunct("}"); err != nil {
		return Definition{}, err
	}
	if p.tok.kind == tokPunct && p.tok.text == ";" {
		if err := p.advance(); err != nil {
			return Definition{}, err
		}
	}
	ref := p.arena.New(Class{Name: name, Parent: parent, Defs: defs})
	return Definition{Kind: DefClass, Class: ref, Name: name}, nil
}

func (p *parser) assignment() (Definition, error) {
	if p.tok.kind != tokIdent {
		return Definition{}, p.errf("expected identifier")
	}
	name := p.tok.text
	if err := p.advance(); err != nil {
		return Definition{}, err
	}

	kind := VarScalar
	if p.tok.kind == tokPunct && p.tok.text == "[" {
		if err := p.advance(); err != nil {
			return Definition{}, err
		}
		if err := p.expectPunct("]"); err != nil {
			return Definition{}, err
		}
		kind = VarArray
	}

	switch {
	case p.tok.kind == tokPunct && p.tok.text == "=":
		if err := p.advance(); err != nil {
			return Definition{}, err
		}
	case p.tok.kind == tokPunct && p.tok.text == "+=":
		if kind != VarArray {
			return Definition{}, p.errf("'+=' is only valid for array variables")
		}
		kind = VarArrayAppend
		if err := p.advance(); err != nil {
			return Definition{}, err
		}
	default:
		return Definition{}, p.errf("expected '=' or '+='")
	}

	value, err := p.expr()
	if err != nil {
		return Definition{}, err
	}
	if err := p.expectPunct(";"); err != nil {
		return Definition{}, err
	}
	return Definition{Kind: DefVariable, Variable: Variable{Name: name, Kind: kind, Value: value}}, nil
}

func (p *parser) expr() (Expr, error) {
	switch {
	case p.tok.kind == tokString:
		v := Expr{Kind: ExprString, Str: p.tok.text}
		return v, p.advance()
	case p.tok.kind == tokNumber:
		if p.tok.isFloat {
			v := Expr{Kind: ExprFloat, Float: p.tok.asFloat()}
			return v, p.advance()
		}
		v := Expr{Kind: ExprInt, Int: p.tok.asInt()}
		return v, p.advance()
	case p.tok.kind == tokPunct && p.tok.text == "{":
		return p.array()
	case p.tok.kind == tokIdent:
		p.sink.WarnAt(p.ctx, diag.KindUnquotedString, p.file, p.tok.line, "unquoted value %q treated as a string", p.tok.text)
		v := Expr{Kind: ExprString, Str: p.tok.text}
		return v, p.advance()
	default:
		return Expr{}, p.errf("expected a value")
	}
}

func (p *parser) array() (Expr, error) {
	if err := p.advance(); err != nil { // consume "{"
		return Expr{}, err
	}
	var elems []Expr
	if !(p.tok.kind == tokPunct && p.tok.text == "}") {
		for {
			e, err := p.expr()
			if err != nil {
				return Expr{}, err
			}
			elems = append(elems, e)
			if p.tok.kind == tokPunct && p.tok.text == "," {
				if err := p.advance(); err != nil {
					return Expr{}, err
				}
				continue
			}
			break
		}
	}
	if err := p.expectPunct("}"); err != nil {
		return Expr{}, err
	}
	return Expr{Kind: ExprArray, Elements: elems}, nil
}
