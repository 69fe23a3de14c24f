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

// Package sign computes the three content digests over a package archive
// and produces a detached RSA signature file, per §4.4. Grounded on
// armake's sign.cpp.
package sign

import (
	"bufio"
	"encoding/binary"
	"io"
	"math/big"

	"github.com/koffeinflummi/pbokit/core/fault"
)

// ErrMalformedKey is returned when a private-key file doesn't match the
// expected Microsoft CryptoAPI PRIVATEKEYBLOB layout the toolchain's
// keys are stored in.
const ErrMalformedKey = fault.Const("sign: malformed private key file")

// PrivateKey is the subset of an RSA private key the signer needs: the
// modulus, the public exponent (stored alongside the key for convenience,
// written verbatim into the signature file), and the private exponent used
// for the raw RSA operation (no CRT acceleration, matching the source).
type PrivateKey struct {
	Name      string
	BitLength uint32
	Exponent  uint32 // public exponent, little-endian in the signature file
	Modulus   *big.Int
	D         *big.Int // private exponent
}

// ReadPrivateKey parses a .biprivatekey file: key name (NUL-terminated), a
// 16-byte unused header, 4-byte key length in bits, 4-byte little-endian
// public exponent, the modulus (keyLen/8 bytes, little-endian), then
// (keyLen/16)*5 bytes of CRT parameters (unused by this signer, which does
// a plain modular exponentiation) followed by the keyLen/8-byte private
// exponent, all little-endian.
func ReadPrivateKey(r io.Reader) (*PrivateKey, error) {
	br := bufio.NewReader(r)
	name, err := br.ReadString(0)
	if err != nil {
		return nil, err
	}
	name = name[:len(name)-1]

	if _, err := io.CopyN(io.Discard, br, 16); err != nil {
		return nil, err
	}

	var keyLength, exponent uint32
	if err := binary.Read(br, binary.LittleEndian, &keyLength); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &exponent); err != nil {
		return nil, err
	}
	if keyLength == 0 || keyLength%16 != 0 {
		return nil, ErrMalformedKey
	}
	byteLen := int(keyLength / 8)

	modulusBytes := make([]byte, byteLen)
	if _, err := io.ReadFull(br, modulusBytes); err != nil {
		return nil, err
	}
	reverseBytes(modulusBytes)
	modulus := new(big.Int).SetBytes(modulusBytes)

	if _, err := io.CopyN(io.Discard, br, int64(byteLen/2)*5); err != nil {
		return nil, err
	}

	dBytes := make([]byte, byteLen)
	if _, err := io.ReadFull(br, dBytes); err != nil {
		return nil, err
	}
	reverseBytes(dBytes)
	d := new(big.Int).SetBytes(dBytes)

	return &PrivateKey{Name: name, BitLength: keyLength, Exponent: exponent, Modulus: modulus, D: d}, nil
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// leBytes renders n as exactly size little-endian bytes, matching
// custom_bn2lebinpad.
func leBytes(n *big.Int, size int) []byte {
	be := n.Bytes()
	out := make([]byte, size)
	copy(out[size-len(be):], be)
	reverseBytes(out)
	return out
}

// padHash applies the signature's fixed PKCS#1-v1.5-shaped padding: 00 01,
// 0xFF filler, a 00 separator, the 15-byte ASN.1 DER prefix identifying
// SHA-1, then the raw
// 20-byte digest — all within a size-byte buffer. Grounded on pad_hash.
func padHash(hash [20]byte, size int) *big.Int {
	buf := make([]byte, size)
	buf[0] = 0
	buf[1] = 1
	for i := 2; i < size-36; i++ {
		buf[i] = 0xff
	}
	copy(buf[size-36:], []byte{0x00, 0x30, 0x21, 0x30, 0x09, 0x06, 0x05, 0x2b, 0x0e, 0x03, 0x02, 0x1a, 0x05, 0x00, 0x04, 0x14})
	copy(buf[size-20:], hash[:])
	return new(big.Int).SetBytes(buf)
}
