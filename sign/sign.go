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

package sign

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"io"
	"math/big"
	"path/filepath"
	"sort"
	"strings"

	"github.com/koffeinflummi/pbokit/pack"
)

// Version selects the signed-file-extension set and the signature file's
// version field.
type Version uint32

const (
	V2 Version = 2
	V3 Version = 3
)

// v2Blacklist excludes binary media extensions from the file hash; v3
// instead whitelists text-like script/config extensions. Both grounded on
// sign.cpp's #ifdef BISIGN_V2 branches.
var v2Blacklist = map[string]bool{
	".paa": true, ".jpg": true, ".p3d": true, ".tga": true, ".rvmat": true,
	".lip": true, ".ogg": true, ".wss": true, ".png": true, ".rtm": true,
	".pac": true, ".fxy": true, ".wrp": true,
}

var v3Whitelist = map[string]bool{
	".sqf": true, ".inc": true, ".bikb": true, ".ext": true, ".fsm": true,
	".sqm": true, ".hpp": true, ".cfg": true, ".sqs": true, ".h": true,
}

func included(version Version, name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if version == V2 {
		return !v2Blacklist[ext]
	}
	return v3Whitelist[ext]
}

// Signature holds the three computed RSA signatures plus the key material
// needed to render the detached signature file.
type Signature struct {
	Key     *PrivateKey
	Version Version
	Sig1    *big.Int // over the archive's trailing SHA-1 hash
	Sig2    *big.Int // over archiveHash || nameHash || prefix
	Sig3    *big.Int // over fileHash || nameHash || prefix
}

// Sign computes the three digests over archive (per §4.4) and signs them
// with key, matching sign_pbo's RSA scheme: a raw modular exponentiation
// over a PKCS#1-v1.5-shaped padded hash, no CRT.
func Sign(archive *pack.Archive, archiveData []byte, key *PrivateKey, version Version) (*Signature, error) {
	prefix := prefixProperty(archive)

	names := make([]string, len(archive.Entries))
	for i, e := range archive.Entries {
		names[i] = strings.ToLower(e.Name)
	}
	sort.Strings(names)

	nameHash := sha1.New()
	for _, n := range names {
		io.WriteString(nameHash, n)
	}
	var nameSum [20]byte
	copy(nameSum[:], nameHash.Sum(nil))

	fileHash := sha1.New()
	found := false
	for _, e := range archive.Entries {
		if !included(version, e.Name) {
			continue
		}
		found = true
		sub := archive.Open(e)
		if _, err := io.Copy(fileHash, sub); err != nil {
			return nil, err
		}
	}
	if !found {
		if version == V2 {
			io.WriteString(fileHash, "nothing")
		} else {
			io.WriteString(fileHash, "gnihton")
		}
	}
	var fileSum [20]byte
	copy(fileSum[:], fileHash.Sum(nil))

	archiveSum := trailerHash(archiveData)

	h2 := sha1.New()
	h2.Write(archiveSum[:])
	h2.Write(nameSum[:])
	io.WriteString(h2, prefix)
	var sum2 [20]byte
	copy(sum2[:], h2.Sum(nil))

	h3 := sha1.New()
	h3.Write(fileSum[:])
	h3.Write(nameSum[:])
	io.WriteString(h3, prefix)
	var sum3 [20]byte
	copy(sum3[:], h3.Sum(nil))

	size := int(key.BitLength / 8)
	modExp := func(hash [20]byte) *big.Int {
		padded := padHash(hash, size)
		return new(big.Int).Exp(padded, key.D, key.Modulus)
	}

	return &Signature{
		Key:     key,
		Version: version,
		Sig1:    modExp(archiveSum),
		Sig2:    modExp(sum2),
		Sig3:    modExp(sum3),
	}, nil
}

// prefixProperty returns the archive's "prefix" property with a trailing
// path separator appended, or "" if absent — matching sign_pbo's handling
// of H2/H3's optional prefix component.
func prefixProperty(archive *pack.Archive) string {
	for _, p := range archive.Properties {
		if strings.EqualFold(p.Key, "prefix") {
			return p.Value + "\\"
		}
	}
	return ""
}

// trailerHash extracts the archive's own trailing SHA-1 digest (the last
// 20 bytes, immediately preceded by the single zero byte of §4.3.2),
// taken verbatim as hash 1.
func trailerHash(archiveData []byte) [20]byte {
	var sum [20]byte
	copy(sum[:], archiveData[len(archiveData)-20:])
	return sum
}

// WriteTo renders the detached signature file layout of §4.4: key name,
// key-block header, modulus, then the three length-prefixed signatures
// with the version field between sig1 and sig2.
func (s *Signature) WriteTo(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString(s.Key.Name)
	buf.WriteByte(0)

	size := int(s.Key.BitLength / 8)
	writeU32(&buf, uint32(size+20))
	buf.Write([]byte{0x06, 0x02, 0x00, 0x00, 0x00, 0x24, 0x00, 0x00})
	buf.WriteString("RSA1")
	writeU32(&buf, s.Key.BitLength)
	writeU32(&buf, s.Key.Exponent)
	buf.Write(leBytes(s.Key.Modulus, size))

	writeU32(&buf, uint32(size))
	buf.Write(leBytes(s.Sig1, size))

	writeU32(&buf, uint32(s.Version))

	writeU32(&buf, uint32(size))
	buf.Write(leBytes(s.Sig2, size))

	writeU32(&buf, uint32(size))
	buf.Write(leBytes(s.Sig3, size))

	_, err := w.Write(buf.Bytes())
	return err
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
