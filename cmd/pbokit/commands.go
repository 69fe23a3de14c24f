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

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/koffeinflummi/pbokit/config"
	"github.com/koffeinflummi/pbokit/core/log"
	"github.com/koffeinflummi/pbokit/model"
	"github.com/koffeinflummi/pbokit/pack"
	"github.com/koffeinflummi/pbokit/sign"
)

func openOutput(dst string, force bool) (*os.File, error) {
	if !force {
		if _, err := os.Stat(dst); err == nil {
			return nil, argErr("%s already exists (use --force)", dst)
		}
	}
	return os.Create(dst)
}

// includeResolver builds a config.Resolver over the --include roots.
func includeResolver(roots []string) config.Resolver {
	tree := osPrefixTree{}
	return &config.PrefixResolver{Roots: roots, Tree: tree}
}

// runBinarize implements `binarize SRC [DST]`: dispatches on SRC's
// extension to either the config rapifier or the model transcoder, per
// §6.1 and §6.3's NATIVEBIN contract (this module has no external vendor
// binarizer to defer to, so the internal pipeline always runs).
func runBinarize(ctx log.Context, c *commonFlags, pos []string) error {
	if len(pos) < 1 {
		return argErr("binarize: missing SRC")
	}
	src := pos[0]
	dst := src
	if len(pos) >= 2 {
		dst = pos[1]
	}

	switch strings.ToLower(filepath.Ext(src)) {
	case ".cfg", ".hpp", ".ext", ".rvmat", ".h":
		return binarizeConfig(ctx, c, src, dst)
	case ".p3d":
		return binarizeModel(ctx, c, src, dst)
	default:
		return &unknownTypeError{msg: fmt.Sprintf("binarize: unrecognized file type %q", src)}
	}
}

func binarizeConfig(ctx log.Context, c *commonFlags, src, dst string) error {
	raw, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	sink := c.sink()
	resolver := includeResolver(c.include)
	pre, _, err := config.Preprocess(ctx, src, string(raw), resolver, sink)
	if err != nil {
		return cmdErr(3, "binarize: preprocess: %v", err)
	}
	ast, err := config.Parse(ctx, src, pre, sink)
	if err != nil {
		return cmdErr(4, "binarize: parse: %v", err)
	}
	out, err := config.Rapify(ast)
	if err != nil {
		return cmdErr(5, "binarize: rapify: %v", err)
	}
	f, err := openOutput(dst, c.force)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(out)
	return err
}

func binarizeModel(ctx log.Context, c *commonFlags, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	mlod, err := model.Read(in)
	if err != nil {
		return cmdErr(6, "binarize: read MLOD: %v", err)
	}

	idx := model.Classify(mlod)
	info := model.SynthesizeModelInfo(mlod, idx)
	sink := c.sink()
	resolver := includeResolver(c.include)
	loader := osSourceLoader{roots: c.include, base: filepath.Dir(src)}

	lods := make([]*model.OdolLOD, len(mlod.LODs))
	for i := range mlod.LODs {
		lod := &mlod.LODs[i]
		materials, err := model.ResolveMaterials(ctx, lod, loader, resolver, sink)
		if err != nil {
			return cmdErr(7, "binarize: resolve materials for LOD %d: %v", i, err)
		}
		lods[i] = model.Convert(lod, materials, map[string]bool{})
	}

	if info.Buoyancy && info.AutoCenter {
		if buoy, err := model.BuildBuoyancy(mlod, idx, 0, 0); err == nil && buoy != nil {
			ctx.V("volume", buoy.Volume).Info().Log("computed buoyancy")
		}
	}

	out := model.WriteODOL(mlod, info, lods, model.DefaultAppID)
	f, err := openOutput(dst, c.force)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(out)
	return err
}

// runPreprocess implements `preprocess SRC DST`.
func runPreprocess(ctx log.Context, c *commonFlags, pos []string) error {
	if len(pos) < 2 {
		return argErr("preprocess: requires SRC and DST")
	}
	src, dst := pos[0], pos[1]
	raw, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	sink := c.sink()
	resolver := includeResolver(c.include)
	out, _, err := config.Preprocess(ctx, src, string(raw), resolver, sink)
	if err != nil {
		return cmdErr(3, "preprocess: %v", err)
	}
	f, err := openOutput(dst, c.force)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.WriteString(f, out)
	return err
}

// runDerapify implements `derapify [SRC [DST]]`, reading from stdin and
// writing to stdout when either positional is omitted.
func runDerapify(ctx log.Context, c *commonFlags, pos []string) error {
	var raw []byte
	var err error
	if len(pos) >= 1 {
		raw, err = os.ReadFile(pos[0])
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return err
	}

	ast, err := config.DerapifyAST(raw)
	if err != nil {
		return cmdErr(4, "derapify: %v", err)
	}
	text := config.Derapify(ast)

	if len(pos) >= 2 {
		f, err := openOutput(pos[1], c.force)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.WriteString(f, text)
		return err
	}
	_, err = io.WriteString(os.Stdout, text)
	return err
}

// runBuild implements `build SRCDIR DSTFILE`: binarizes every source file
// under SRCDIR not matched by --exclude, packs the results into a PA
// archive, and optionally signs it when --privatekey is given.
func runBuild(ctx log.Context, c *commonFlags, pos []string) error {
	if len(pos) < 2 {
		return argErr("build: requires SRCDIR and DSTFILE")
	}
	srcDir, dstFile := pos[0], pos[1]

	names, err := walkFiles(srcDir)
	if err != nil {
		return err
	}
	exclude := pack.GlobAny(c.exclude)

	var producers []pack.Producer
	for _, name := range names {
		if name == "$PBOPREFIX$" || exclude(name) {
			continue
		}
		abs := filepath.Join(srcDir, filepath.FromSlash(name))
		data, _, err := binarizeToMemory(ctx, c, abs)
		if err != nil {
			if _, ok := err.(*unknownTypeError); ok {
				data, rerr := os.ReadFile(abs)
				if rerr != nil {
					return rerr
				}
				producers = append(producers, pack.FileProducer{EntryName: name, Data: data})
				continue
			}
			return err
		}
		producers = append(producers, pack.FileProducer{EntryName: name, Data: data})
	}

	var properties []pack.Property
	if marker, ok := osPrefixTree{}.PrefixMarker(srcDir); ok {
		properties = append(properties, pack.Property{Key: "prefix", Value: strings.TrimSpace(marker)})
	}

	f, err := openOutput(dstFile, c.force)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := pack.Write(&buf, properties, producers); err != nil {
		return cmdErr(8, "build: %v", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return err
	}

	if c.privateKey != "" {
		return signArchive(dstFile, c.privateKey, c.signature)
	}
	return nil
}

// binarizeToMemory mirrors binarizeConfig/binarizeModel but returns bytes
// instead of writing a file, for the build pipeline.
func binarizeToMemory(ctx log.Context, c *commonFlags, src string) ([]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(src))
	switch ext {
	case ".cfg", ".hpp", ".ext", ".rvmat", ".h":
		raw, err := os.ReadFile(src)
		if err != nil {
			return nil, ext, err
		}
		sink := c.sink()
		resolver := includeResolver(c.include)
		pre, _, err := config.Preprocess(ctx, src, string(raw), resolver, sink)
		if err != nil {
			return nil, ext, cmdErr(3, "build: preprocess %s: %v", src, err)
		}
		ast, err := config.Parse(ctx, src, pre, sink)
		if err != nil {
			return nil, ext, cmdErr(4, "build: parse %s: %v", src, err)
		}
		out, err := config.Rapify(ast)
		if err != nil {
			return nil, ext, cmdErr(5, "build: rapify %s: %v", src, err)
		}
		return out, ext, nil
	case ".p3d":
		var buf bytes.Buffer
		if err := binarizeModelTo(ctx, c, src, &buf); err != nil {
			return nil, ext, err
		}
		return buf.Bytes(), ext, nil
	default:
		return nil, ext, &unknownTypeError{msg: fmt.Sprintf("build: unrecognized file type %q", src)}
	}
}

func binarizeModelTo(ctx log.Context, c *commonFlags, src string, w io.Writer) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	mlod, err := model.Read(in)
	if err != nil {
		return cmdErr(6, "build: read MLOD %s: %v", src, err)
	}
	idx := model.Classify(mlod)
	info := model.SynthesizeModelInfo(mlod, idx)
	sink := c.sink()
	resolver := includeResolver(c.include)
	loader := osSourceLoader{roots: c.include, base: filepath.Dir(src)}

	lods := make([]*model.OdolLOD, len(mlod.LODs))
	for i := range mlod.LODs {
		lod := &mlod.LODs[i]
		materials, err := model.ResolveMaterials(ctx, lod, loader, resolver, sink)
		if err != nil {
			return cmdErr(7, "build: resolve materials %s LOD %d: %v", src, i, err)
		}
		lods[i] = model.Convert(lod, materials, map[string]bool{})
	}

	if info.Buoyancy && info.AutoCenter {
		if buoy, err := model.BuildBuoyancy(mlod, idx, 0, 0); err == nil && buoy != nil {
			ctx.V("volume", buoy.Volume).Info().Log("computed buoyancy")
		}
	}

	out := model.WriteODOL(mlod, info, lods, model.DefaultAppID)
	_, err = w.Write(out)
	return err
}

func signArchive(pbo, keyFile, sigOut string) error {
	data, err := os.ReadFile(pbo)
	if err != nil {
		return err
	}
	archive, err := pack.Open(bytes.NewReader(data))
	if err != nil {
		return cmdErr(9, "sign: %v", err)
	}
	kf, err := os.Open(keyFile)
	if err != nil {
		return err
	}
	defer kf.Close()
	key, err := sign.ReadPrivateKey(kf)
	if err != nil {
		return cmdErr(10, "sign: %v", err)
	}
	sig, err := sign.Sign(archive, data, key, sign.V3)
	if err != nil {
		return cmdErr(11, "sign: %v", err)
	}
	if sigOut == "" {
		sigOut = pbo + ".bisign"
	}
	out, err := os.Create(sigOut)
	if err != nil {
		return err
	}
	defer out.Close()
	return sig.WriteTo(out)
}

// runInspect implements `inspect PAFILE`: prints the archive's properties
// and entry table. A bare ".p3d" argument is inspected directly, printing
// its per-LOD face/point complexity summary instead.
func runInspect(ctx log.Context, c *commonFlags, pos []string) error {
	if len(pos) < 1 {
		return argErr("inspect: missing PAFILE")
	}

	if strings.ToLower(filepath.Ext(pos[0])) == ".p3d" {
		return inspectModel(pos[0])
	}

	data, err := os.ReadFile(pos[0])
	if err != nil {
		return err
	}
	archive, err := pack.Open(bytes.NewReader(data))
	if err != nil {
		return cmdErr(9, "inspect: %v", err)
	}
	for _, p := range archive.Properties {
		fmt.Printf("%s=%s\n", p.Key, p.Value)
	}
	for _, e := range archive.Entries {
		fmt.Printf("%-40s %10d bytes  method=%d\n", e.Name, e.DataSize, e.Method)
	}
	return nil
}

func inspectModel(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	mlod, err := model.Read(f)
	if err != nil {
		return cmdErr(6, "inspect: read MLOD: %v", err)
	}
	stats := model.Summarize(mlod)
	fmt.Printf("LODs: %d\n", len(mlod.LODs))
	fmt.Printf("faces/LOD:  avg=%.1f stddev=%.1f median=%d\n", stats.Faces.Average, stats.Faces.Stddev, stats.Faces.Median)
	fmt.Printf("points/LOD: avg=%.1f stddev=%.1f median=%d\n", stats.Points.Average, stats.Points.Stddev, stats.Points.Median)
	return nil
}

// runUnpack implements `unpack PAFILE DSTDIR`.
func runUnpack(ctx log.Context, c *commonFlags, pos []string) error {
	if len(pos) < 2 {
		return argErr("unpack: requires PAFILE and DSTDIR")
	}
	data, err := os.ReadFile(pos[0])
	if err != nil {
		return err
	}
	archive, err := pack.Open(bytes.NewReader(data))
	if err != nil {
		return cmdErr(9, "unpack: %v", err)
	}
	exclude := pack.GlobAny(c.exclude)
	for _, e := range archive.Entries {
		if exclude(e.Name) {
			continue
		}
		dst := filepath.Join(pos[1], filepath.FromSlash(strings.ReplaceAll(e.Name, "\\", "/")))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		out, err := openOutput(dst, c.force)
		if err != nil {
			return err
		}
		sub := archive.Open(e)
		if _, err := io.Copy(out, sub); err != nil {
			out.Close()
			return err
		}
		out.Close()
	}
	return nil
}

// runCat implements `cat PAFILE ENTRY`.
func runCat(ctx log.Context, c *commonFlags, pos []string) error {
	if len(pos) < 2 {
		return argErr("cat: requires PAFILE and ENTRY")
	}
	data, err := os.ReadFile(pos[0])
	if err != nil {
		return err
	}
	archive, err := pack.Open(bytes.NewReader(data))
	if err != nil {
		return cmdErr(9, "cat: %v", err)
	}
	for _, e := range archive.Entries {
		if strings.EqualFold(e.Name, pos[1]) {
			_, err := io.Copy(os.Stdout, archive.Open(e))
			return err
		}
	}
	return cmdErr(12, "cat: entry %q not found", pos[1])
}

// runSignCmd implements `sign PAFILE KEY [--signature OUT]`.
func runSignCmd(ctx log.Context, c *commonFlags, pos []string) error {
	if len(pos) < 2 {
		return argErr("sign: requires PAFILE and KEY")
	}
	return signArchive(pos[0], pos[1], c.signature)
}

// runImg2Paa and runPaa2Img implement the image-codec subcommands, which
// §1 scopes out of the core as an external collaborator (the value is in
// third-party block compressors this module does not vendor).
func runImg2Paa(ctx log.Context, c *commonFlags, pos []string) error {
	return cmdErr(13, "img2paa: texture compression is an external collaborator, not implemented by this core (§1)")
}

func runPaa2Img(ctx log.Context, c *commonFlags, pos []string) error {
	return cmdErr(13, "paa2img: texture decompression is an external collaborator, not implemented by this core (§1)")
}
