// Package driver strings the compiler stages together for the command-line
// tool and the playground.
package driver

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tinyrange/minilang/internal/ast"
	"github.com/tinyrange/minilang/internal/interp"
	"github.com/tinyrange/minilang/internal/ir"
	"github.com/tinyrange/minilang/internal/lexer"
	"github.com/tinyrange/minilang/internal/parser"
)

// Demo is the program used when no source is given.
const Demo = `fn main() {
    let x = 0;
    while (x < 5) {
        x = x + 1;
    }
    if (x == 5) {
        42;
    } else {
        0;
    }
}
`

type Stage string

const (
	StageParse Stage = "parse"
	StageRun   Stage = "run"
	StageLower Stage = "ir"
	StageExec  Stage = "exec"
)

// StageError records which stage of the pipeline failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s error: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

type Options struct {
	// MaxSteps bounds both the interpreter and the IR executor. Zero means
	// unlimited.
	MaxSteps int
	// ModuleName names the IR module. Defaults to "main".
	ModuleName string
}

func (o *Options) normalize() Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.MaxSteps < 0 {
		out.MaxSteps = 0
	}
	if out.ModuleName == "" {
		out.ModuleName = "main"
	}
	return out
}

// Program is parsed source. The AST is never modified after parsing, so
// both backends may read it at the same time.
type Program struct {
	Source string
	Tokens []lexer.Token
	Func   *ast.Function
}

func Parse(src string) (*Program, error) {
	toks := lexer.Tokenize(src)
	fn, err := parser.Parse(toks)
	if err != nil {
		return nil, &StageError{Stage: StageParse, Err: err}
	}
	return &Program{Source: src, Tokens: toks, Func: fn}, nil
}

func (p *Program) Interpret(ctx context.Context, opt *Options) (*interp.Result, error) {
	o := opt.normalize()
	res, err := interp.RunContext(ctx, p.Func, &interp.Options{MaxSteps: o.MaxSteps})
	if err != nil {
		return nil, &StageError{Stage: StageRun, Err: err}
	}
	return res, nil
}

func (p *Program) Lower(opt *Options) (*ir.Module, error) {
	o := opt.normalize()
	m := ir.NewModule(o.ModuleName)
	if err := ir.BuildModule(p.Func, m); err != nil {
		return nil, &StageError{Stage: StageLower, Err: err}
	}
	return m, nil
}

// Execute runs the first function of m on the reference executor.
func Execute(ctx context.Context, m *ir.Module, opt *Options) (int64, error) {
	o := opt.normalize()
	if len(m.Funcs) == 0 {
		return 0, &StageError{Stage: StageExec, Err: fmt.Errorf("module %s has no functions", m.Name)}
	}
	v, err := ir.ExecuteContext(ctx, m.Funcs[0], &ir.ExecOptions{MaxSteps: o.MaxSteps})
	if err != nil {
		return 0, &StageError{Stage: StageExec, Err: err}
	}
	return v, nil
}

// Report holds everything one compilation produced. A backend failure is
// recorded in its own field and does not stop the other backend.
type Report struct {
	Program *Program

	Run    *interp.Result
	RunErr error

	Module   *ir.Module
	LowerErr error

	Exec    int64
	ExecErr error
}

// Compile parses src and then runs the interpreter and the lowering (plus
// execution of the lowered code) concurrently. Only a parse failure or a
// cancelled ctx is returned as an error; both backends poll ctx while they
// run, so cancelling it stops a program that would never terminate.
func Compile(ctx context.Context, src string, opt *Options) (*Report, error) {
	prog, err := Parse(src)
	if err != nil {
		return nil, err
	}
	r := &Report{Program: prog}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		r.Run, r.RunErr = prog.Interpret(gctx, opt)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		r.Module, r.LowerErr = prog.Lower(opt)
		if r.LowerErr != nil {
			return nil
		}
		r.Exec, r.ExecErr = Execute(gctx, r.Module, opt)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// a backend stopped by cancellation has only a partial answer
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r, nil
}

// Err returns the first backend failure, in pipeline order.
func (r *Report) Err() error {
	for _, err := range []error{r.RunErr, r.LowerErr, r.ExecErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteTokens prints one token per line with its position.
func WriteTokens(w io.Writer, toks []lexer.Token) {
	for _, t := range toks {
		fmt.Fprintf(w, "%d:%d\t%s\n", t.Line, t.Col, t)
	}
}

// WriteTrace prints the interpreter trace followed by the function result.
func WriteTrace(w io.Writer, res *interp.Result) {
	for _, line := range res.Lines() {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "result: %d\n", res.Value)
}

// Section names accepted by WriteSections.
const (
	SectionTokens = "tokens"
	SectionAST    = "ast"
	SectionRun    = "run"
	SectionIR     = "ir"
	SectionExec   = "exec"
)

// WriteSections prints the requested parts of r to out, each under a
// "=== name ===" header, and backend failures to errOut. It reports whether
// any requested section failed.
func (r *Report) WriteSections(out, errOut io.Writer, sections ...string) (failed bool) {
	for _, s := range sections {
		switch s {
		case SectionTokens:
			fmt.Fprintln(out, "=== Tokens ===")
			WriteTokens(out, r.Program.Tokens)
		case SectionAST:
			fmt.Fprintln(out, "=== AST ===")
			fmt.Fprintln(out, ast.SExpr(r.Program.Func))
		case SectionRun:
			fmt.Fprintln(out, "=== Interpreter ===")
			if r.RunErr != nil {
				fmt.Fprintln(errOut, r.RunErr)
				failed = true
				continue
			}
			WriteTrace(out, r.Run)
		case SectionIR:
			fmt.Fprintln(out, "=== IR ===")
			if r.LowerErr != nil {
				fmt.Fprintln(errOut, r.LowerErr)
				failed = true
				continue
			}
			io.WriteString(out, r.Module.String())
		case SectionExec:
			fmt.Fprintln(out, "=== IR execution ===")
			switch {
			case r.LowerErr != nil:
				fmt.Fprintln(errOut, r.LowerErr)
				failed = true
			case r.ExecErr != nil:
				fmt.Fprintln(errOut, r.ExecErr)
				failed = true
			default:
				fmt.Fprintf(out, "result: %d\n", r.Exec)
			}
		default:
			fmt.Fprintf(errOut, "unknown section %q\n", s)
			failed = true
		}
	}
	return failed
}

// TokensText is WriteTokens into a string.
func TokensText(toks []lexer.Token) string {
	var b strings.Builder
	WriteTokens(&b, toks)
	return b.String()
}
