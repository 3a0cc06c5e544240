package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tinyrange/minilang/internal/driver"
)

func main() {
	fs := flag.NewFlagSet("minilang", flag.ExitOnError)
	tokens := fs.Bool("tokens", false, "print the token stream")
	showAST := fs.Bool("ast", false, "print the syntax tree")
	run := fs.Bool("run", false, "print the interpreter trace")
	showIR := fs.Bool("ir", false, "print the lowered IR")
	exec := fs.Bool("exec", false, "execute the lowered IR and print its result")
	maxSteps := fs.Int("max-steps", 0, "stop the interpreter and IR executor after this many steps (0 = unlimited)")
	outPath := fs.String("o", "", "write the IR to this file instead of stdout")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: minilang [flags] [file]\n")
		fmt.Fprintf(os.Stderr, "Without a file the built-in demo program is used. Without section flags every section is printed.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if fs.NArg() > 1 {
		fs.Usage()
		os.Exit(2)
	}

	src, name := driver.Demo, "demo"
	if fs.NArg() == 1 {
		srcPath := fs.Arg(0)
		data, err := os.ReadFile(srcPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			os.Exit(1)
		}
		src = string(data)
		name = strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	}

	rep, err := driver.Compile(context.Background(), src, &driver.Options{MaxSteps: *maxSteps, ModuleName: name})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if !*tokens && !*showAST && !*run && !*showIR && !*exec {
		*tokens, *showAST, *run, *showIR, *exec = true, true, true, true, true
	}
	var sections []string
	add := func(on bool, s string) {
		if on {
			sections = append(sections, s)
		}
	}
	add(*tokens, driver.SectionTokens)
	add(*showAST, driver.SectionAST)
	add(*run, driver.SectionRun)
	add(*showIR && *outPath == "", driver.SectionIR)
	add(*exec, driver.SectionExec)

	failed := rep.WriteSections(os.Stdout, os.Stderr, sections...)

	if *outPath != "" {
		if rep.LowerErr != nil {
			fmt.Fprintln(os.Stderr, rep.LowerErr)
			os.Exit(1)
		}
		if err := os.WriteFile(*outPath, []byte(rep.Module.String()), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "write error: %v\n", err)
			os.Exit(1)
		}
	}
	if failed {
		os.Exit(1)
	}
}
