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

// Package log provides a logging system that works well with context.
// It stores all accumulated key/value pairs into the context itself, so a
// logging call site never has to thread a *Logger through a call chain —
// it carries a Context instead, and the diagnostic fields (current target
// path, source file, line) ride along for free.
//
// Basic usage:
//
//	ctx = ctx.S("target", path)
//	ctx.Info().Log("opening archive")
package log

import (
	"context"
	"fmt"
)

type ctxKeyHandler struct{}
type ctxKeyTags struct{}

// Context wraps a context.Context with fluent logging methods. Because it
// embeds context.Context it can be passed to any function that takes one.
type Context struct {
	context.Context
}

// Wrap adapts a context.Context to a log.Context.
func Wrap(ctx context.Context) Context { return Context{ctx} }

// Background returns a fresh root Context with no handler attached
// (messages are discarded until Handler is called).
func Background() Context { return Wrap(context.Background()) }

// Handler returns a derived Context that sends messages to h.
func (c Context) Handler(h Handler) Context {
	return Context{context.WithValue(c.Context, ctxKeyHandler{}, h)}
}

func (c Context) handler() Handler {
	if h, ok := c.Value(ctxKeyHandler{}).(Handler); ok {
		return h
	}
	return Discard
}

func (c Context) tags() map[string]interface{} {
	if t, ok := c.Value(ctxKeyTags{}).(map[string]interface{}); ok {
		return t
	}
	return nil
}

// V returns a derived Context with an additional key/value pair. Repeating
// a key overwrites the previous value, matching the teacher's WithValue.
func (c Context) V(key string, value interface{}) Context {
	old := c.tags()
	next := make(map[string]interface{}, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[key] = value
	return Context{context.WithValue(c.Context, ctxKeyTags{}, next)}
}

// S is shorthand for V restricted to strings; it mirrors the teacher's
// typed helpers (S, I, F) that keep common tag values allocation-free.
func (c Context) S(key, value string) Context { return c.V(key, value) }

// Logger is returned by a severity accessor (Info, Warning, Error, Debug)
// and holds the one finished Log/Logf call.
type Logger struct {
	ctx Context
	sev Severity
}

func (c Context) at(sev Severity) Logger { return Logger{ctx: c, sev: sev} }

// Debug returns a Logger at Debug severity.
func (c Context) Debug() Logger { return c.at(Debug) }

// Info returns a Logger at Info severity.
func (c Context) Info() Logger { return c.at(Info) }

// Warning returns a Logger at Warning severity. Used for every diagnostic
// in §7 that has a fallback and is merely recoverable.
func (c Context) Warning() Logger { return c.at(Warning) }

// Error returns a Logger at Error severity. Used immediately before an
// operation gives up and returns a fatal error.
func (c Context) Error() Logger { return c.at(Error) }

// Log sends msg as a finished log record to the context's handler.
func (l Logger) Log(msg string) {
	l.ctx.handler().Handle(Message{Severity: l.sev, Text: msg, Tags: l.ctx.tags()})
}

// Logf formats and sends a log record.
func (l Logger) Logf(format string, args ...interface{}) {
	l.ctx.handler().Handle(Message{Severity: l.sev, Text: fmt.Sprintf(format, args...), Tags: l.ctx.tags()})
}
