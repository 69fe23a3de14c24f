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

package pack_test

import (
	"bytes"
	"crypto/sha1"
	"io"
	"testing"

	"github.com/koffeinflummi/pbokit/core/assert"
	"github.com/koffeinflummi/pbokit/pack"
)

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	props := []pack.Property{{Key: "prefix", Value: `a\b`}}
	producers := []pack.Producer{
		pack.FileProducer{EntryName: "c.txt", Data: []byte("abc")},
		pack.FileProducer{EntryName: "d.txt", Data: []byte("defgh")},
	}
	if err := pack.Write(&buf, props, producers); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw := buf.Bytes()
	assert.For(t, "trailer").That(raw[len(raw)-21]).Equals(byte(0))

	h := sha1.Sum(raw[:len(raw)-20])
	assert.For(t, "trailer digest").That(raw[len(raw)-20:]).Equals(h[:])

	a, err := pack.Open(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	assert.For(t, "properties").That(a.Properties).Equals(props)
	if len(a.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(a.Entries))
	}
	assert.For(t, "entry 0 name").That(a.Entries[0].Name).Equals("c.txt")
	assert.For(t, "entry 1 name").That(a.Entries[1].Name).Equals("d.txt")

	sub := a.Open(a.Entries[0])
	got, _ := io.ReadAll(sub)
	assert.For(t, "entry 0 body").That(got).Equals([]byte("abc"))

	sub1 := a.Open(a.Entries[1])
	got1, _ := io.ReadAll(sub1)
	assert.For(t, "entry 1 body").That(got1).Equals([]byte("defgh"))
}

func TestSubStreamSeek(t *testing.T) {
	var buf bytes.Buffer
	pack.Write(&buf, nil, []pack.Producer{
		pack.FileProducer{EntryName: "f.bin", Data: []byte("0123456789")},
	})
	a, err := pack.Open(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sub := a.Open(a.Entries[0])

	if _, err := sub.Seek(5, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	b, ok := sub.Get()
	if !ok || b != '5' {
		t.Fatalf("got %q, %v, want '5', true", b, ok)
	}
	if _, err := sub.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	rest, _ := io.ReadAll(sub)
	assert.For(t, "full re-read").That(rest).Equals([]byte("0123456789"))
}

func TestGlob(t *testing.T) {
	f := pack.Glob("*.PAA")
	assert.For(t, "match").That(f("tex\\wood.paa")).IsTrue()
	assert.For(t, "no match").That(f("tex\\wood.rvmat")).IsFalse()
}
