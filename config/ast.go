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

// Package config implements the configuration language front end: a
// preprocessor with macro expansion and conditional inclusion (Preprocess),
// a recursive-descent parser producing a typed AST (Parse), a binary
// encoder ("rapifier", Rapify) and its inverse (Derapify), plus
// inheritance-aware path lookup (AST.Lookup).
//
// The AST node shape — small structs with an isNode marker method, fields
// named after the grammar they represent — follows the teacher's
// gapil/ast convention, generalized from gapil's expression/statement
// language down to this format's simpler class/variable/array grammar.
package config

import "github.com/koffeinflummi/pbokit/core/memory/arena"

// ExprKind tags a scalar or composite value in the AST.
type ExprKind int

const (
	ExprString ExprKind = iota
	ExprFloat
	ExprInt
	ExprArray
)

// Expr is one value: a scalar (String/Float/Int) or an ordered, possibly
// nested array of Exprs.
type Expr struct {
	Kind     ExprKind
	Str      string
	Float    float32
	Int      int32
	Elements []Expr
}

func (Expr) isNode() {}

// VarKind distinguishes a plain scalar assignment from an array assignment
// from an array-append assignment ("+=").
type VarKind int

const (
	VarScalar VarKind = iota
	VarArray
	VarArrayAppend
)

// Variable is a name = expression (or name[] = / name[] += ) definition.
type Variable struct {
	Name  string
	Kind  VarKind
	Value Expr
}

func (Variable) isNode() {}

// DefKind tags the four shapes a Definition can take.
type DefKind int

const (
	DefVariable DefKind = iota
	DefClass
	DefDelete
	DefExtern
)

// Definition is one member of a class body: a Variable, a nested Class
// (by arena.Ref), a delete-sentinel, or an extern-declaration sentinel.
type Definition struct {
	Kind     DefKind
	Variable Variable
	Class    arena.Ref // valid when Kind == DefClass
	Name     string    // delete/extern target name
}

func (Definition) isNode() {}

// Class is a class body: an optional base-class name, an ordered sequence
// of Definitions. Class bodies are allocated from one Arena per parse and
// referred to by arena.Ref (per the "Arena for AST" design note) so that
// the rapifier's nested-class offset fixups are a flat second pass over a
// slice instead of a pointer-chasing tree walk.
type Class struct {
	Name     string
	Parent   string
	Defs     []Definition
	IsDelete bool // true for a bodyless "delete Foo;" entry reused as a Class
	IsExtern bool // true for a bodyless "class Foo;" forward declaration
}

func (Class) isNode() {}

// AST is the parsed result: the root pseudo-class holding every top-level
// definition, plus the arena owning every nested Class.
type AST struct {
	Root  Class
	Arena *arena.Arena[Class]
}

// ClassAt dereferences ref against a's arena.
func (a *AST) ClassAt(ref arena.Ref) *Class { return a.Arena.At(ref) }
