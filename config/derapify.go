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
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/koffeinflummi/pbokit/core/fault"
	"github.com/koffeinflummi/pbokit/core/memory/arena"
)

// ErrBadMagic is returned by Derapify when the input doesn't start with the
// rapified-config signature.
const ErrBadMagic = fault.Const("config: not a rapified config (bad magic)")

type derapifier struct {
	r     *bufio.Reader
	arena *arena.Arena[Class]
}

// DerapifyAST decodes a rapified binary config back into an AST (the first
// half of §4.1.4; Derapify below renders the AST as canonical text).
func DerapifyAST(data []byte) (*AST, error) {
	if len(data) < 4 || string(data[:4]) != Magic {
		return nil, ErrBadMagic
	}
	d := &derapifier{r: bufio.NewReader(bytes.NewReader(data[15:])), arena: &arena.Arena[Class]{}}
	root, err := d.readClassBody()
	if err != nil {
		return nil, err
	}
	return &AST{Root: root, Arena: d.arena}, nil
}

func (d *derapifier) readCString() (string, error) {
	s, err := d.r.ReadString(0)
	if err != nil {
		return "", err
	}
	return s[:len(s)-1], nil
}

func (d *derapifier) readClassBody() (Class, error) {
	parent, err := d.readCString()
	if err != nil {
		return Class{}, err
	}
	count, err := readVarint(d.r)
	if err != nil {
		return Class{}, err
	}

	cls := Class{Parent: parent}
	for i := uint32(0); i < count; i++ {
		def, err := d.readDefinition()
		if err != nil {
			return Class{}, err
		}
		cls.Defs = append(cls.Defs, def)
	}
	return cls, nil
}

func (d *derapifier) readDefinition() (Definition, error) {
	tagByte, err := d.r.ReadByte()
	if err != nil {
		return Definition{}, err
	}
	switch memberTag(tagByte) {
	case tagVariable:
		return d.readScalarVariable()
	case tagArray:
		name, err := d.readCString()
		if err != nil {
			return Definition{}, err
		}
		v, err := d.readArray()
		if err != nil {
			return Definition{}, err
		}
		return Definition{Kind: DefVariable, Variable: Variable{Name: name, Kind: VarArray, Value: v}}, nil
	case tagArrayAppend:
		if _, err := d.readN(4); err != nil { // skip the literal flag word
			return Definition{}, err
		}
		name, err := d.readCString()
		if err != nil {
			return Definition{}, err
		}
		v, err := d.readArray()
		if err != nil {
			return Definition{}, err
		}
		return Definition{Kind: DefVariable, Variable: Variable{Name: name, Kind: VarArrayAppend, Value: v}}, nil
	case tagExtern:
		name, err := d.readCString()
		if err != nil {
			return Definition{}, err
		}
		ref := d.arena.New(Class{Name: name, IsExtern: true})
		return Definition{Kind: DefExtern, Class: ref, Name: name}, nil
	case tagDelete:
		name, err := d.readCString()
		if err != nil {
			return Definition{}, err
		}
		return Definition{Kind: DefDelete, Name: name}, nil
	default:
		// Nested class: the tag byte position actually holds the start
		// of a name/bodyOffset pair, not one of the five member tags
		// above; treat what we just consumed as the first name byte.
		return d.readNestedClass(tagByte)
	}
}

// readNestedClass reconstructs a class member: name C-string (firstByte is
// its first byte, already consumed while probing the tag), then a 4-byte
// body offset which we don't need to follow since the stream is read
// sequentially in body order.
func (d *derapifier) readNestedClass(firstByte byte) (Definition, error) {
	rest, err := d.readCString()
	if err != nil {
		return Definition{}, err
	}
	name := string(firstByte) + rest
	if _, err := d.readN(4); err != nil { // body-offset field, unused in sequential decode
		return Definition{}, err
	}
	body, err := d.readClassBody()
	if err != nil {
		return Definition{}, err
	}
	body.Name = name
	ref := d.arena.New(body)
	return Definition{Kind: DefClass, Class: ref, Name: name}, nil
}

func (d *derapifier) readScalarVariable() (Definition, error) {
	sub, err := d.r.ReadByte()
	if err != nil {
		return Definition{}, err
	}
	name, err := d.readCString()
	if err != nil {
		return Definition{}, err
	}
	v, err := d.readScalar(exprTag(sub))
	if err != nil {
		return Definition{}, err
	}
	return Definition{Kind: DefVariable, Variable: Variable{Name: name, Kind: VarScalar, Value: v}}, nil
}

func (d *derapifier) readScalar(tag exprTag) (Expr, error) {
	switch tag {
	case exprTagString:
		s, err := d.readCString()
		return Expr{Kind: ExprString, Str: s}, err
	case exprTagFloat:
		b, err := d.readN(4)
		if err != nil {
			return Expr{}, err
		}
		return Expr{Kind: ExprFloat, Float: math.Float32frombits(binary.LittleEndian.Uint32(b))}, nil
	case exprTagInt:
		b, err := d.readN(4)
		if err != nil {
			return Expr{}, err
		}
		return Expr{Kind: ExprInt, Int: int32(binary.LittleEndian.Uint32(b))}, nil
	default:
		return Expr{}, fmt.Errorf("config: unknown scalar tag %d", tag)
	}
}

func (d *derapifier) readArray() (Expr, error) {
	count, err := readVarint(d.r)
	if err != nil {
		return Expr{}, err
	}
	arr := Expr{Kind: ExprArray}
	for i := uint32(0); i < count; i++ {
		tagByte, err := d.r.ReadByte()
		if err != nil {
			return Expr{}, err
		}
		if exprTag(tagByte) == exprTagArray {
			sub, err := d.readArray()
			if err != nil {
				return Expr{}, err
			}
			arr.Elements = append(arr.Elements, sub)
			continue
		}
		sub, err := d.readScalar(exprTag(tagByte))
		if err != nil {
			return Expr{}, err
		}
		arr.Elements = append(arr.Elements, sub)
	}
	return arr, nil
}

func (d *derapifier) readN(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

var radPattern = regexp.MustCompile(`^\s*rad\s+(-?[0-9.eE+-]+)\s*$`)

// Derapify renders ast as canonical config text (§4.1.4): two-space
// indentation per nesting level, doubled-quote string escaping, and
// round-trippable float formatting.
func Derapify(ast *AST) string {
	var b strings.Builder
	writeClassMembers(&b, ast, &ast.Root, 0)
	return b.String()
}

func writeClassMembers(b *strings.Builder, ast *AST, cls *Class, indent int) {
	pad := strings.Repeat("  ", indent)
	for _, def := range cls.Defs {
		switch def.Kind {
		case DefVariable:
			writeVariableText(b, pad, def.Variable)
		case DefDelete:
			fmt.Fprintf(b, "%sdelete %s;\n", pad, def.Name)
		case DefExtern:
			fmt.Fprintf(b, "%sclass %s;\n", pad, def.Name)
		case DefClass:
			child := ast.ClassAt(def.Class)
			if child.Parent != "" {
				fmt.Fprintf(b, "%sclass %s: %s\n%s{\n", pad, child.Name, child.Parent, pad)
			} else {
				fmt.Fprintf(b, "%sclass %s\n%s{\n", pad, child.Name, pad)
			}
			writeClassMembers(b, ast, child, indent+1)
			fmt.Fprintf(b, "%s};\n", pad)
		}
	}
}

func writeVariableText(b *strings.Builder, pad string, v Variable) {
	op := "="
	suffix := ""
	if v.Kind == VarArray || v.Kind == VarArrayAppend {
		suffix = "[]"
	}
	if v.Kind == VarArrayAppend {
		op = "+="
	}
	fmt.Fprintf(b, "%s%s%s %s %s;\n", pad, v.Name, suffix, op, formatExpr(v.Value))
}

func formatExpr(v Expr) string {
	switch v.Kind {
	case ExprString:
		return `"` + escapeString(v.Str) + `"`
	case ExprFloat:
		return formatFloat(v.Float)
	case ExprInt:
		return strconv.FormatInt(int64(v.Int), 10)
	case ExprArray:
		parts := make([]string, len(v.Elements))
		for i, e := range v.Elements {
			parts[i] = formatExpr(e)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return ""
}

// escapeString doubles embedded quotes per the config language's own
// quoting rule ("" means a literal ") and escapes embedded newlines as the
// literal two-character sequence \n, matching §4.1.4.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, `"`, `""`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// formatFloat renders f with the shortest decimal representation that
// round-trips exactly through a float32, per §4.1.4's "enough digits to
// round-trip" requirement.
func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// RadiansToDegrees converts a `rad <number>` string value (as produced by
// some config sources for angle literals) to its degree equivalent, per
// §4.1.4's "string values matching ^\s*rad\s+<number>$ ... multiplied by
// 180/π" lookup-time conversion rule.
func RadiansToDegrees(s string) (float64, bool) {
	m := radPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return n * 180 / math.Pi, true
}
