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

// Package diag models the recoverable diagnostics a pipeline run can emit:
// a fixed set of named kinds, individually suppressible by the --warning NAME
// CLI flag, routed through core/log so every diagnostic also becomes a
// structured log record.
package diag

import (
	"fmt"
	"sync"

	"github.com/koffeinflummi/pbokit/core/log"
)

// Kind identifies one diagnostic category. The string value is the name
// accepted by the CLI's --warning flag.
type Kind string

const (
	KindRedefinitionWithoutUndef Kind = "redefinition-without-undef"
	KindUnquotedString           Kind = "unquoted-string"
	KindExcessiveConcatenation   Kind = "excessive-concatenation"
	KindModelWithoutPrefix       Kind = "model-without-prefix"
	KindAnimatedWithoutSkeleton  Kind = "animated-without-skeleton"
	KindNoProxyFace              Kind = "no-proxy-face"
	KindUnknownBone              Kind = "unknown-bone"
	KindUnknownUVSource          Kind = "unknown-uv-source"
	KindUnknownShader            Kind = "unknown-shader"
	KindUnknownRenderFlag        Kind = "unknown-render-flag"
	KindUnknownTextureFilter     Kind = "unknown-texture-filter"
)

// Sink receives diagnostics and tracks which kinds are currently suppressed.
// It is safe for concurrent use: the preprocessor's parallel line expansion
// reports from worker goroutines.
type Sink struct {
	mu         sync.Mutex
	suppressed map[Kind]bool
}

// NewSink returns a Sink with nothing suppressed.
func NewSink() *Sink { return &Sink{suppressed: map[Kind]bool{}} }

// Suppress mutes every future diagnostic of kind.
func (s *Sink) Suppress(kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suppressed == nil {
		s.suppressed = map[Kind]bool{}
	}
	s.suppressed[kind] = true
}

func (s *Sink) isSuppressed(kind Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suppressed[kind]
}

// Warn reports a recoverable diagnostic of kind through ctx, unless kind is
// suppressed on this sink.
func (s *Sink) Warn(ctx log.Context, kind Kind, format string, args ...interface{}) {
	if s == nil || s.isSuppressed(kind) {
		return
	}
	ctx.V("diagnostic", string(kind)).Warning().Logf(format, args...)
}

// WarnAt is Warn with a (file, line) location prefixed onto the message.
func (s *Sink) WarnAt(ctx log.Context, kind Kind, file string, line int, format string, args ...interface{}) {
	s.Warn(ctx, kind, "%s:%d: %s", file, line, fmt.Sprintf(format, args...))
}
