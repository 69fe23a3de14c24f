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
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/koffeinflummi/pbokit/core/diag"
	"github.com/koffeinflummi/pbokit/core/fault"
	"github.com/koffeinflummi/pbokit/core/log"
)

// maxExpansionDepth bounds recursive macro expansion; a macro that expands
// to (directly or transitively) itself stops re-expanding once its name is
// already on the expansion stack, per the "cyclic macro expansion" rule:
// the innermost occurrence is left untouched rather than looping forever.
const maxExpansionDepth = 64

const ErrUnterminatedConditional = fault.Const("config: unterminated #ifdef/#ifndef")
const ErrUnexpectedEndif = fault.Const("config: #else/#endif without matching #ifdef/#ifndef")
const ErrIncludeDepth = fault.Const("config: #include nesting too deep")

type macroTable map[string]macro

// preprocessor holds the mutable state threaded through one file's (and its
// transitive #includes') expansion: the macro table, the lineref being
// built, and the conditional-compilation stack. Only the sequential driver
// mutates it; expandLine (run in parallel over independent lines) only
// reads a snapshot of the macro table.
type preprocessor struct {
	ctx      log.Context
	resolve  Resolver
	sink     *diag.Sink
	macros   macroTable
	lineref  *Lineref
	includes int
}

// Preprocess runs the config-language preprocessor (§4.1.1) over src: C-style
// comment stripping, #define/#undef object- and function-like macros with
// #/## operators, #ifdef/#ifndef/#else/#endif conditional compilation, and
// #include (resolved via resolve). It returns the expanded text alongside a
// Lineref mapping each output line back to its origin, for diagnostics
// raised against the parsed AST.
func Preprocess(ctx log.Context, filename, src string, resolve Resolver, sink *diag.Sink) (string, *Lineref, error) {
	p := &preprocessor{
		ctx:     ctx,
		resolve: resolve,
		sink:    sink,
		macros:  macroTable{},
		lineref: &Lineref{},
	}
	out, err := p.run(filename, src)
	if err != nil {
		return "", nil, errors.Wrapf(err, "preprocess %s", filename)
	}
	return out, p.lineref, nil
}

func (p *preprocessor) run(filename, src string) (string, error) {
	p.includes++
	defer func() { p.includes-- }()
	if p.includes > 32 {
		return "", ErrIncludeDepth
	}

	src = stripComments(src, true)
	lines := strings.Split(src, "\n")

	var out []string
	// condStack[i] is true while the branch at nesting depth i is active
	// (i.e. every enclosing #ifdef/#ifndef condition held).
	var condStack []bool
	active := func() bool {
		for _, c := range condStack {
			if !c {
				return false
			}
		}
		return true
	}

	// batch accumulates consecutive plain-text lines (no directive, no
	// continuation) so they can be macro-expanded concurrently: none of
	// them mutate p.macros, so expansion order doesn't affect correctness,
	// only output position does — which batchExpand preserves.
	var batch []string
	var batchLines []int
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		expanded, err := p.batchExpand(batch)
		if err != nil {
			return err
		}
		for i, e := range expanded {
			out = append(out, e)
			p.lineref.record(filename, batchLines[i])
		}
		batch, batchLines = nil, nil
		return nil
	}

	for i := 0; i < len(lines); i++ {
		lineNo := i + 1
		line := lines[i]
		// join backslash-newline continuations
		for strings.HasSuffix(line, "\\") && i+1 < len(lines) {
			line = line[:len(line)-1] + lines[i+1]
			i++
		}
		trimmed := strings.TrimSpace(line)

		if !strings.HasPrefix(trimmed, "#") {
			if active() {
				batch = append(batch, line)
				batchLines = append(batchLines, lineNo)
			}
			continue
		}

		// A directive breaks a batch: everything queued so far must be
		// expanded and emitted before the directive can change macro
		// state or conditional visibility.
		if err := flush(); err != nil {
			return "", err
		}

		directive := strings.TrimSpace(trimmed[1:])
		switch {
		case strings.HasPrefix(directive, "define"):
			if !active() {
				continue
			}
			m, ok := parseDefine(strings.TrimSpace(directive[len("define"):]))
			if !ok {
				return "", &fault.SyntaxError{File: filename, Line: lineNo, Message: "malformed #define"}
			}
			if _, redefined := p.macros[m.Name]; redefined {
				p.sink.WarnAt(p.ctx, diag.KindRedefinitionWithoutUndef, filename, lineNo,
					"redefinition of macro %q without #undef", m.Name)
			}
			if hasLeadingOrTrailingConcat(m.Body) {
				p.sink.WarnAt(p.ctx, diag.KindExcessiveConcatenation, filename, lineNo,
					"leading or trailing ## in macro %q", m.Name)
			}
			p.macros[m.Name] = m

		case strings.HasPrefix(directive, "undef"):
			if !active() {
				continue
			}
			name := strings.TrimSpace(directive[len("undef"):])
			delete(p.macros, name)

		case strings.HasPrefix(directive, "ifdef"):
			name := strings.TrimSpace(directive[len("ifdef"):])
			_, ok := p.macros[name]
			condStack = append(condStack, ok)

		case strings.HasPrefix(directive, "ifndef"):
			name := strings.TrimSpace(directive[len("ifndef"):])
			_, ok := p.macros[name]
			condStack = append(condStack, !ok)

		case directive == "else":
			if len(condStack) == 0 {
				return "", ErrUnexpectedEndif
			}
			condStack[len(condStack)-1] = !condStack[len(condStack)-1]

		case directive == "endif":
			if len(condStack) == 0 {
				return "", ErrUnexpectedEndif
			}
			condStack = condStack[:len(condStack)-1]

		case strings.HasPrefix(directive, "include"):
			if !active() {
				continue
			}
			target, err := parseIncludeTarget(directive[len("include"):])
			if err != nil {
				return "", &fault.SyntaxError{File: filename, Line: lineNo, Message: err.Error()}
			}
			text, logical, err := p.resolveInclude(target, filename)
			if err != nil {
				return "", &fault.SyntaxError{File: filename, Line: lineNo, Message: err.Error()}
			}
			sub, err := p.run(logical, text)
			if err != nil {
				return "", err
			}
			out = append(out, sub)

		default:
			return "", &fault.SyntaxError{File: filename, Line: lineNo, Message: fmt.Sprintf("unknown directive %q", directive)}
		}
	}
	if err := flush(); err != nil {
		return "", err
	}
	if len(condStack) != 0 {
		return "", ErrUnterminatedConditional
	}
	return strings.Join(out, "\n"), nil
}

// resolveInclude resolves a relative target against fromLogicalPath's
// directory, falling back to the configured Resolver (which owns absolute,
// $PBOPREFIX$-rooted targets).
func (p *preprocessor) resolveInclude(target, fromLogicalPath string) (string, string, error) {
	if isRelativeInclude(target) {
		joined := joinRelative(fromLogicalPath, target)
		if p.resolve != nil {
			if src, logical, ok := p.resolve.Resolve(joined, fromLogicalPath); ok {
				return src, logical, nil
			}
		}
	}
	if p.resolve != nil {
		if src, logical, ok := p.resolve.Resolve(target, fromLogicalPath); ok {
			return src, logical, nil
		}
	}
	return "", "", ErrIncludeNotFound
}

// parseIncludeTarget extracts the quoted or angle-bracketed target from the
// text following "#include".
func parseIncludeTarget(rest string) (string, error) {
	rest = strings.TrimSpace(rest)
	if len(rest) < 2 {
		return "", fmt.Errorf("malformed #include")
	}
	open, close := rest[0], byte(0)
	switch open {
	case '"':
		close = '"'
	case '<':
		close = '>'
	default:
		return "", fmt.Errorf("malformed #include")
	}
	end := strings.IndexByte(rest[1:], close)
	if end < 0 {
		return "", fmt.Errorf("malformed #include")
	}
	return rest[1 : end+1], nil
}

// batchExpand macro-expands a run of independent lines concurrently,
// preserving their original order in the returned slice. Parallelism here
// mirrors the teacher's worker-pool idiom for embarrassingly-parallel,
// order-preserving batches, applied to §4.1.1/§5's "independent line-level
// macro expansions within one file may be performed in parallel as long as
// output order is preserved."
func (p *preprocessor) batchExpand(lines []string) ([]string, error) {
	out := make([]string, len(lines))
	if len(lines) == 1 {
		var err error
		out[0], err = p.expandLine(lines[0])
		return out, err
	}
	var g errgroup.Group
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			expanded, err := p.expandLine(line)
			if err != nil {
				return err
			}
			out[i] = expanded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// expandLine performs macro substitution over one line against a snapshot
// of p.macros. It is safe to call concurrently for distinct lines: it only
// reads the macro table, never writes it.
func (p *preprocessor) expandLine(line string) (string, error) {
	return p.expand(line, nil, 0)
}

func (p *preprocessor) expand(s string, stack []string, depth int) (string, error) {
	if depth >= maxExpansionDepth {
		return s, nil
	}
	var out strings.Builder
	runes := []rune(s)
	inString := false
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if inString {
			out.WriteRune(c)
			if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out.WriteRune(c)
			continue
		}
		if !isIdentStart(c) {
			out.WriteRune(c)
			continue
		}
		j := i
		for j < len(runes) && isIdentCont(runes[j]) {
			j++
		}
		name := string(runes[i:j])
		i = j - 1

		m, ok := p.macros[name]
		if !ok || onStack(stack, name) {
			out.WriteString(name)
			continue
		}

		if m.Params == nil {
			expanded, err := p.expand(m.Body, append(stack, name), depth+1)
			if err != nil {
				return "", err
			}
			out.WriteString(expanded)
			continue
		}

		// function-like macro: consume the call's parenthesized argument
		// list, if present; otherwise the name is left as plain text.
		k := j
		for k < len(runes) && (runes[k] == ' ' || runes[k] == '\t') {
			k++
		}
		if k >= len(runes) || runes[k] != '(' {
			out.WriteString(name)
			continue
		}
		depthParen := 0
		end := k
		for ; end < len(runes); end++ {
			if runes[end] == '(' {
				depthParen++
			} else if runes[end] == ')' {
				depthParen--
				if depthParen == 0 {
					break
				}
			}
		}
		if end >= len(runes) {
			out.WriteString(name)
			continue
		}
		argsRaw := string(runes[k+1 : end])
		args := splitMacroArgs(argsRaw)
		for a := range args {
			expanded, err := p.expand(args[a], stack, depth+1)
			if err != nil {
				return "", err
			}
			args[a] = expanded
		}
		body, err := substitute(m.Body, m.Params, args)
		if err != nil {
			return "", fmt.Errorf("macro %q: %w", name, err)
		}
		expanded, err := p.expand(body, append(stack, name), depth+1)
		if err != nil {
			return "", err
		}
		out.WriteString(expanded)
		i = end
	}
	return out.String(), nil
}

func onStack(stack []string, name string) bool {
	for _, s := range stack {
		if s == name {
			return true
		}
	}
	return false
}
