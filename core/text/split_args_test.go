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

package text_test

import (
	"fmt"
	"testing"

	"github.com/koffeinflummi/pbokit/core/assert"
	"github.com/koffeinflummi/pbokit/core/text"
)

func ExampleSplitArgs() {
	for i, s := range text.SplitArgs(`--cat=meow -dog woof "fish"="\"blub blub\""`) {
		fmt.Printf("%v: '%v'\n", i, s)
	}
	// Output:
	// 0: '--cat=meow'
	// 1: '-dog'
	// 2: 'woof'
	// 3: 'fish="blub blub"'
}

func TestSplitArgs(t *testing.T) {
	for _, test := range []struct {
		str      string
		expected []string
	}{
		{`a b c`, []string{`a`, `b`, `c`}},
		{`"a b c"`, []string{`a b c`}},
		{`meow \" woof`, []string{`meow`, `"`, `woof`}},
	} {
		got := text.SplitArgs(test.str)
		assert.For(t, "text.SplitArgs(%v)", test.str).That(got).Equals(test.expected)
	}
}

func TestQuote(t *testing.T) {
	for _, test := range []struct {
		str      []string
		expected []string
	}{
		{[]string{`a`, `b`, `c`}, []string{`a`, `b`, `c`}},
		{[]string{`a`, `a b c`}, []string{`a`, `"a b c"`}},
	} {
		got := text.Quote(test.str)
		assert.For(t, "text.Quote(%v)", test.str).That(got).Equals(test.expected)
	}
}
