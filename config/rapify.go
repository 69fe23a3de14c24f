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
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// Magic is the 4-byte signature every rapified config starts with.
const Magic = "\x00raP"

// memberTag identifies the shape of one class-body entry. Grounded on
// armake's rapify.cpp: 0 is emitted by the class-body loop directly (a
// nested class has no tag byte of its own — its presence is implied by the
// body-offset slot following the parent-name/compressed-length prologue),
// so the tags below only ever appear for the other four member kinds.
type memberTag byte

const (
	tagVariable     memberTag = 1
	tagArray        memberTag = 2
	tagExtern       memberTag = 3
	tagDelete       memberTag = 4
	tagArrayAppend  memberTag = 5
	arrayAppendFlag           = 1
)

type exprTag byte

const (
	exprTagString exprTag = 0
	exprTagFloat  exprTag = 1
	exprTagInt    exprTag = 2
	exprTagArray  exprTag = 3
)

// Rapify encodes ast to its binary form (§4.1.3).
func Rapify(ast *AST) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(Magic)
	buf.Write([]byte{0, 0, 8, 0, 0, 0, 0})

	enumOffsetPos := buf.Len()
	buf.Write([]byte{0, 0, 0, 0}) // placeholder, patched below

	r := &rapifier{ast: ast, w: &buf}
	if err := r.writeClassBody(&ast.Root); err != nil {
		return nil, err
	}

	enumTableOffset := uint32(buf.Len())
	buf.Write([]byte{0, 0, 0, 0}) // empty enum table

	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[enumOffsetPos:], enumTableOffset)
	return out, nil
}

type rapifier struct {
	ast *AST
	w   *bytes.Buffer
}

// writeClassBody emits one class body: parent name, compressed entry
// count, each member in order. Matches armake's rapify_class: the member
// loop writes a tag byte for every Definition except a nested class, which
// instead gets its body-offset placeholder patched in after the whole
// class-body buffer up to that point is known.
func (r *rapifier) writeClassBody(cls *Class) error {
	if cls.Parent != "" {
		if err := writeCString(r.w, cls.Parent); err != nil {
			return err
		}
	} else {
		r.w.WriteByte(0)
	}
	if err := writeVarint(r.w, uint32(len(cls.Defs))); err != nil {
		return err
	}

	// nested class bodies are written after every sibling's tag/placeholder
	// has been emitted, matching armake's two-pass approach: this loop
	// collects their offset-patch positions, then a second loop appends
	// the bodies and backpatches.
	type pending struct {
		patchAt int
		class   *Class
	}
	var nested []pending

	for _, def := range cls.Defs {
		switch def.Kind {
		case DefVariable:
			if err := r.writeVariable(def.Variable); err != nil {
				return err
			}
		case DefExtern:
			r.w.WriteByte(byte(tagExtern))
		case DefDelete:
			r.w.WriteByte(byte(tagDelete))
		case DefClass:
			child := r.ast.ClassAt(def.Class)
			if child.IsExtern {
				r.w.WriteByte(byte(tagExtern))
				continue
			}
			if child.IsDelete {
				r.w.WriteByte(byte(tagDelete))
				continue
			}
			patchAt := r.w.Len()
			r.w.Write([]byte{0, 0, 0, 0})
			nested = append(nested, pending{patchAt: patchAt, class: child})
		}
	}

	out := r.w.Bytes()
	for _, p := range nested {
		offset := uint32(len(out))
		binary.LittleEndian.PutUint32(out[p.patchAt:], offset)
		if err := r.writeClassBody(p.class); err != nil {
			return err
		}
		out = r.w.Bytes()
	}
	return nil
}

func (r *rapifier) writeVariable(v Variable) error {
	switch v.Kind {
	case VarScalar:
		r.w.WriteByte(byte(tagVariable))
		return writeName(r.w, v.Name, v.Value)
	case VarArray:
		r.w.WriteByte(byte(tagArray))
		if err := writeCString(r.w, v.Name); err != nil {
			return err
		}
		return r.writeArray(v.Value)
	case VarArrayAppend:
		r.w.WriteByte(byte(tagArrayAppend))
		var four [4]byte
		binary.LittleEndian.PutUint32(four[:], arrayAppendFlag)
		r.w.Write(four[:])
		if err := writeCString(r.w, v.Name); err != nil {
			return err
		}
		return r.writeArray(v.Value)
	}
	return nil
}

// writeName emits a scalar variable's sub-tag, name, then value.
func writeName(w io.Writer, name string, v Expr) error {
	var sub exprTag
	switch v.Kind {
	case ExprString:
		sub = exprTagString
	case ExprFloat:
		sub = exprTagFloat
	case ExprInt:
		sub = exprTagInt
	}
	if _, err := w.Write([]byte{byte(sub)}); err != nil {
		return err
	}
	if err := writeCString(w, name); err != nil {
		return err
	}
	return writeScalar(w, v)
}

func writeScalar(w io.Writer, v Expr) error {
	switch v.Kind {
	case ExprString:
		return writeCString(w, v.Str)
	case ExprFloat:
		var four [4]byte
		binary.LittleEndian.PutUint32(four[:], math.Float32bits(v.Float))
		_, err := w.Write(four[:])
		return err
	case ExprInt:
		var four [4]byte
		binary.LittleEndian.PutUint32(four[:], uint32(v.Int))
		_, err := w.Write(four[:])
		return err
	}
	return nil
}

func (r *rapifier) writeArray(v Expr) error {
	if err := writeVarint(r.w, uint32(len(v.Elements))); err != nil {
		return err
	}
	for _, e := range v.Elements {
		switch e.Kind {
		case ExprString:
			r.w.WriteByte(byte(exprTagString))
		case ExprFloat:
			r.w.WriteByte(byte(exprTagFloat))
		case ExprInt:
			r.w.WriteByte(byte(exprTagInt))
		case ExprArray:
			r.w.WriteByte(byte(exprTagArray))
			if err := r.writeArray(e); err != nil {
				return err
			}
			continue
		}
		if err := writeScalar(r.w, e); err != nil {
			return err
		}
	}
	return nil
}

func writeCString(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}
