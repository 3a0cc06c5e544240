package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nalgeon/be"
	"github.com/tinyrange/minilang/internal/ast"
	"github.com/tinyrange/minilang/internal/interp"
	"github.com/tinyrange/minilang/internal/ir"
	"github.com/tinyrange/minilang/internal/parser"
	"github.com/tinyrange/minilang/internal/testcase"
)

func TestMarkdownCases(t *testing.T) {
	files, err := filepath.Glob("testdata/*.md")
	be.Err(t, err, nil)
	be.True(t, len(files) > 0)

	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".md"), func(t *testing.T) {
			content, err := os.ReadFile(file)
			be.Err(t, err, nil)
			cases, err := testcase.Extract(string(content))
			be.Err(t, err, nil)
			for _, tc := range cases {
				t.Run(tc.Name, func(t *testing.T) {
					runCase(t, tc)
				})
			}
		})
	}
}

func runCase(t *testing.T, tc testcase.Case) {
	t.Helper()
	rep, perr := Compile(context.Background(), tc.Source(), &Options{MaxSteps: 10000})
	for _, a := range tc.Assertions {
		if a.Type == testcase.AssertParseError {
			be.True(t, rep == nil)
			be.Err(t, perr, a.Content)
			be.True(t, errors.Is(perr, parser.ErrSyntax))
			continue
		}
		if perr != nil {
			t.Fatalf("line %d: unexpected parse error: %v", a.Line, perr)
		}
		switch a.Type {
		case testcase.AssertTokens:
			be.Equal(t, strings.TrimRight(TokensText(rep.Program.Tokens), "\n"), a.Content)
		case testcase.AssertAST:
			be.Equal(t, ast.SExpr(rep.Program.Func), a.Content)
		case testcase.AssertTrace:
			be.Err(t, rep.RunErr, nil)
			be.Equal(t, strings.Join(rep.Run.Lines(), "\n"), a.Content)
		case testcase.AssertResult:
			want, err := strconv.ParseInt(a.Content, 10, 64)
			be.Err(t, err, nil)
			be.Err(t, rep.RunErr, nil)
			be.Err(t, rep.LowerErr, nil)
			be.Err(t, rep.ExecErr, nil)
			be.Equal(t, rep.Run.Value, want)
			be.Equal(t, rep.Exec, want)
		case testcase.AssertIR:
			be.Err(t, rep.LowerErr, nil)
			be.Equal(t, strings.TrimRight(rep.Module.Funcs[0].String(), "\n"), a.Content)
		case testcase.AssertRunError:
			be.Err(t, rep.RunErr, a.Content)
		case testcase.AssertLowerError:
			be.Err(t, rep.LowerErr, a.Content)
		default:
			t.Fatalf("line %d: unhandled assertion %s", a.Line, a.Type)
		}
	}
}

func TestStageErrors(t *testing.T) {
	_, err := Parse("fn main() { let = 1; }")
	var se *StageError
	be.True(t, errors.As(err, &se))
	be.Equal(t, se.Stage, StageParse)
	be.True(t, strings.HasPrefix(err.Error(), "parse error: "))

	prog, err := Parse("fn main() { y = 1; }")
	be.Err(t, err, nil)
	_, err = prog.Interpret(context.Background(), nil)
	be.True(t, errors.As(err, &se))
	be.Equal(t, se.Stage, StageRun)
	be.True(t, errors.Is(err, interp.ErrUndefinedVariable))

	_, err = prog.Lower(nil)
	be.True(t, errors.As(err, &se))
	be.Equal(t, se.Stage, StageLower)
	be.True(t, errors.Is(err, ir.ErrUndefinedVariable))
}

func TestCompileKeepsBackendsIndependent(t *testing.T) {
	rep, err := Compile(context.Background(), "fn main() { let z = 0; 1 / z; }", nil)
	be.Err(t, err, nil)
	be.True(t, errors.Is(rep.RunErr, interp.ErrDivisionByZero))
	be.Err(t, rep.LowerErr, nil)
	be.True(t, rep.Module != nil)
	be.True(t, errors.Is(rep.ExecErr, ir.ErrDivisionByZero))
	be.True(t, errors.Is(rep.Err(), interp.ErrDivisionByZero))
}

func TestCompileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := Compile(ctx, Demo, nil)
	be.True(t, rep == nil)
	be.True(t, errors.Is(err, context.Canceled))
}

func TestCompileStopsRunningBackendsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	// no step limit: only cancellation can end this program
	rep, err := Compile(ctx, "fn main() { let x = 1; while (x) { x = x + 1; } }", nil)
	be.True(t, rep == nil)
	be.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestBackendsReportCancellation(t *testing.T) {
	prog, err := Parse("fn main() { let x = 1; while (x) { } }")
	be.Err(t, err, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = prog.Interpret(ctx, nil)
	var se *StageError
	be.True(t, errors.As(err, &se))
	be.Equal(t, se.Stage, StageRun)
	be.True(t, errors.Is(err, context.Canceled))

	m, err := prog.Lower(nil)
	be.Err(t, err, nil)
	_, err = Execute(ctx, m, nil)
	be.True(t, errors.As(err, &se))
	be.Equal(t, se.Stage, StageExec)
	be.True(t, errors.Is(err, context.Canceled))
}

func TestStepLimitAppliesToBothBackends(t *testing.T) {
	rep, err := Compile(context.Background(), "fn main() { let x = 1; while (x) { } }", &Options{MaxSteps: 50})
	be.Err(t, err, nil)
	be.True(t, errors.Is(rep.RunErr, interp.ErrStepLimit))
	be.True(t, errors.Is(rep.ExecErr, ir.ErrStepLimit))
}

func TestWriteSectionsDemo(t *testing.T) {
	rep, err := Compile(context.Background(), Demo, &Options{ModuleName: "demo"})
	be.Err(t, err, nil)
	be.Err(t, rep.Err(), nil)

	var out, errOut bytes.Buffer
	failed := rep.WriteSections(&out, &errOut, SectionRun, SectionIR, SectionExec)
	be.True(t, !failed)
	be.Equal(t, errOut.String(), "")

	got := out.String()
	be.True(t, strings.HasPrefix(got, "=== Interpreter ===\nlet x = 0\nx = 1\n"))
	be.True(t, strings.Contains(got, "expr => 42\nresult: 0\n=== IR ===\n; module demo\n"))
	be.True(t, strings.Contains(got, "ifend:  ; preds = %then, %else\n  ret i64 0\n}\n"))
	be.True(t, strings.HasSuffix(got, "=== IR execution ===\nresult: 0\n"))
}

func TestWriteSectionsReportsFailures(t *testing.T) {
	rep, err := Compile(context.Background(), "fn main() { q; }", nil)
	be.Err(t, err, nil)

	var out, errOut bytes.Buffer
	failed := rep.WriteSections(&out, &errOut, SectionAST, SectionRun, SectionIR, "bogus")
	be.True(t, failed)
	be.Equal(t, out.String(), "=== AST ===\n(fn \"main\" (block (expr (ident \"q\"))))\n=== Interpreter ===\n=== IR ===\n")
	be.True(t, strings.Contains(errOut.String(), "run error: main: use of q: undefined variable"))
	be.True(t, strings.Contains(errOut.String(), "ir error: main: use of q: undefined variable"))
	be.True(t, strings.Contains(errOut.String(), `unknown section "bogus"`))
}

func TestWriteTokens(t *testing.T) {
	prog, err := Parse("fn f() { 12; }")
	be.Err(t, err, nil)
	be.Equal(t, TokensText(prog.Tokens), "1:1\tfn\n1:4\tIdent(\"f\")\n1:5\t(\n1:6\t)\n1:8\t{\n1:10\tNumber(12)\n1:12\t;\n1:14\t}\n")
}
