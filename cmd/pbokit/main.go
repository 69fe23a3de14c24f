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
	"flag"
	"fmt"
	"os"

	"github.com/koffeinflummi/pbokit/core/diag"
	"github.com/koffeinflummi/pbokit/core/log"
)

// commonFlags holds the options shared across every subcommand, per §6.1.
type commonFlags struct {
	force      bool
	include    stringList
	exclude    stringList
	warning    stringList
	privateKey string
	signature  string
}

// stringList implements flag.Value for a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return fmt.Sprint([]string(*s)) }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func newCommonFlags(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.BoolVar(&c.force, "force", false, "overwrite existing outputs")
	fs.Var(&c.include, "include", "add an include root (repeatable)")
	fs.Var(&c.exclude, "exclude", "exclude a logical path glob (repeatable)")
	fs.Var(&c.warning, "warning", "suppress a named warning (repeatable)")
	fs.StringVar(&c.privateKey, "privatekey", "", "private key file (build/sign)")
	fs.StringVar(&c.signature, "signature", "", "signature output/input file")
	return c
}

func (c *commonFlags) sink() *diag.Sink {
	sink := diag.NewSink()
	for _, w := range c.warning {
		sink.Suppress(diag.Kind(w))
	}
	return sink
}

// exit codes per §6.1.
const (
	exitOK          = 0
	exitBadArgs     = 128
	exitUnknownType = 1 // dispatcher's mapping of the core's internal -1
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: pbokit <command> [flags] args...")
		return exitBadArgs
	}

	cmd, rest := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	common := newCommonFlags(fs)
	if err := fs.Parse(rest); err != nil {
		return exitBadArgs
	}
	pos := fs.Args()

	ctx := log.Background().Handler(log.Writer(os.Stderr))

	var err error
	switch cmd {
	case "binarize":
		err = runBinarize(ctx, common, pos)
	case "preprocess":
		err = runPreprocess(ctx, common, pos)
	case "derapify":
		err = runDerapify(ctx, common, pos)
	case "build":
		err = runBuild(ctx, common, pos)
	case "inspect":
		err = runInspect(ctx, common, pos)
	case "unpack":
		err = runUnpack(ctx, common, pos)
	case "cat":
		err = runCat(ctx, common, pos)
	case "sign":
		err = runSignCmd(ctx, common, pos)
	case "img2paa":
		err = runImg2Paa(ctx, common, pos)
	case "paa2img":
		err = runPaa2Img(ctx, common, pos)
	default:
		fmt.Fprintf(os.Stderr, "pbokit: unknown command %q\n", cmd)
		return exitBadArgs
	}

	if err == nil {
		return exitOK
	}
	if ae, ok := err.(*argError); ok {
		fmt.Fprintln(os.Stderr, "pbokit:", ae.Error())
		return exitBadArgs
	}
	if ue, ok := err.(*unknownTypeError); ok {
		fmt.Fprintln(os.Stderr, "pbokit:", ue.Error())
		return exitUnknownType
	}
	fmt.Fprintln(os.Stderr, "pbokit:", err.Error())
	if ce, ok := err.(*commandError); ok {
		return ce.code
	}
	return 2
}

// argError signals a bad/missing positional argument (exit 128).
type argError struct{ msg string }

func (e *argError) Error() string { return e.msg }

func argErr(format string, args ...interface{}) *argError {
	return &argError{msg: fmt.Sprintf(format, args...)}
}

// unknownTypeError signals an unrecognized source file type, the core's
// internal "-1" mapped to exit code 1 by the dispatcher.
type unknownTypeError struct{ msg string }

func (e *unknownTypeError) Error() string { return e.msg }

// commandError carries a component-specific nonzero exit code.
type commandError struct {
	code int
	msg  string
}

func (e *commandError) Error() string { return e.msg }

func cmdErr(code int, format string, args ...interface{}) *commandError {
	return &commandError{code: code, msg: fmt.Sprintf(format, args...)}
}
