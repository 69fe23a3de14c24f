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
	"io"

	"github.com/koffeinflummi/pbokit/core/fault"
)

// ErrVarintTooLong is returned by readVarint when a compressed-length field
// never terminates within 5 bytes (more than 32 bits worth of groups).
const ErrVarintTooLong = fault.Const("config: variable-length integer too long")

// writeVarint encodes n as the rapifier's "compressed length": little-endian
// 7-bit groups, continuation flagged by the group's high bit. Grounded on
// armake's write_compressed_int (utils.cpp) — a distinct, simpler scheme
// from the teacher's own framework/binary/vle (a MIDI-style big-endian VLQ),
// so it is implemented fresh rather than reused from the teacher.
func writeVarint(w io.Writer, n uint32) error {
	if n == 0 {
		_, err := w.Write([]byte{0})
		return err
	}
	var buf []byte
	for n > 0 {
		b := byte(n & 0x7f)
		n >>= 7
		if n > 0 {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	_, err := w.Write(buf)
	return err
}

// readVarint decodes a writeVarint-encoded value from r.
func readVarint(r io.ByteReader) (uint32, error) {
	var n uint32
	for shift := uint(0); shift < 35; shift += 7 {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		n |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return n, nil
		}
	}
	return 0, ErrVarintTooLong
}
