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

package sign_test

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/koffeinflummi/pbokit/core/assert"
	"github.com/koffeinflummi/pbokit/pack"
	"github.com/koffeinflummi/pbokit/sign"
)

// buildTestKey synthesizes a minimal well-formed private-key blob (a real
// small RSA keypair, not a cryptographically meaningful one) in the
// on-disk PRIVATEKEYBLOB layout ReadPrivateKey expects.
func buildTestKey(t *testing.T, bits int) []byte {
	t.Helper()
	p, _ := rand.Prime(rand.Reader, bits/2)
	q, _ := rand.Prime(rand.Reader, bits/2)
	n := new(big.Int).Mul(p, q)
	phi := new(big.Int).Mul(new(big.Int).Sub(p, big.NewInt(1)), new(big.Int).Sub(q, big.NewInt(1)))
	e := big.NewInt(65537)
	d := new(big.Int).ModInverse(e, phi)

	byteLen := bits / 8
	le := func(v *big.Int) []byte {
		be := v.Bytes()
		out := make([]byte, byteLen)
		copy(out[byteLen-len(be):], be)
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
		return out
	}

	var buf bytes.Buffer
	buf.WriteString("testkey")
	buf.WriteByte(0)
	buf.Write(make([]byte, 16))
	binary.Write(&buf, binary.LittleEndian, uint32(bits))
	binary.Write(&buf, binary.LittleEndian, uint32(65537))
	buf.Write(le(n))
	buf.Write(make([]byte, (byteLen/2)*5))
	buf.Write(le(d))
	return buf.Bytes()
}

func TestReadPrivateKeyRoundTrip(t *testing.T) {
	data := buildTestKey(t, 512)
	key, err := sign.ReadPrivateKey(bytes.NewReader(data))
	assert.For(t, "read err").ThatError(err).Succeeded()
	assert.For(t, "name").That(key.Name).Equals("testkey")
	assert.For(t, "bits").That(key.BitLength).Equals(uint32(512))
	assert.For(t, "exponent").That(key.Exponent).Equals(uint32(65537))
}

func TestSignProducesValidVersionField(t *testing.T) {
	data := buildTestKey(t, 512)
	key, err := sign.ReadPrivateKey(bytes.NewReader(data))
	assert.For(t, "read err").ThatError(err).Succeeded()

	var archiveBuf bytes.Buffer
	err = pack.Write(&archiveBuf, []pack.Property{{Key: "prefix", Value: "mypbo"}}, []pack.Producer{
		pack.FileProducer{EntryName: "BETA.hpp", Data: []byte("class B {};")},
		pack.FileProducer{EntryName: "alpha.sqf", Data: []byte("hint \"x\";")},
	})
	assert.For(t, "write err").ThatError(err).Succeeded()

	archive, err := pack.Open(bytes.NewReader(archiveBuf.Bytes()))
	assert.For(t, "open err").ThatError(err).Succeeded()

	sig, err := sign.Sign(archive, archiveBuf.Bytes(), key, sign.V3)
	assert.For(t, "sign err").ThatError(err).Succeeded()
	assert.For(t, "version").That(sig.Version).Equals(sign.V3)

	var out bytes.Buffer
	err = sig.WriteTo(&out)
	assert.For(t, "writeTo err").ThatError(err).Succeeded()
	assert.For(t, "nonempty").That(out.Len() > 0).Equals(true)
}
