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

package log

import (
	"fmt"
	"io"
	"sync"
)

// Message is a single log record, with the accumulated key/value pairs
// attached by a chain of Context.V calls.
type Message struct {
	Severity Severity
	Text     string
	Tags     map[string]interface{}
}

// Handler receives finished log Messages. Handlers must be safe for
// concurrent use: the preprocessor's parallel line expansion (§5) logs
// from worker goroutines.
type Handler interface {
	Handle(m Message)
}

// HandlerFunc adapts a plain function to a Handler.
type HandlerFunc func(Message)

// Handle implements Handler.
func (f HandlerFunc) Handle(m Message) { f(m) }

// Writer returns a Handler that formats each message as a single line of
// "SEVERITY: text {k=v, …}" and writes it to w, guarded by a mutex.
func Writer(w io.Writer) Handler {
	var mu sync.Mutex
	return HandlerFunc(func(m Message) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "%s: %s", m.Severity.Short(), m.Text)
		for k, v := range m.Tags {
			fmt.Fprintf(w, " %s=%v", k, v)
		}
		fmt.Fprintln(w)
	})
}

// Short returns the severity string with a single character, matching the
// compact prefix conventional CLI tools print before each log line.
func (s Severity) Short() string {
	switch s {
	case Debug:
		return "D"
	case Info:
		return "I"
	case Warning:
		return "W"
	case Error:
		return "E"
	default:
		return "?"
	}
}

// Discard is a Handler that drops every message; the default for a context
// that hasn't been wired to a real sink yet.
var Discard Handler = HandlerFunc(func(Message) {})
