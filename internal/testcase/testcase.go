// Package testcase extracts compiler test cases from Markdown documents.
//
// A case starts at a heading of the form "Test: name" and holds exactly one
// input fence (minilang or minilang-body) followed by one or more assertion
// fences:
//
//	## Test: addition
//	```minilang-body
//	1 + 2;
//	```
//	```result
//	3
//	```
package testcase

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputType is the language of an input fence.
type InputType string

const (
	// InputProgram is a complete "fn name() { ... }" program.
	InputProgram InputType = "minilang"
	// InputBody is a function body; it runs as the body of fn main.
	InputBody InputType = "minilang-body"
)

// AssertionType is the language of an assertion fence.
type AssertionType string

const (
	AssertTokens     AssertionType = "tokens"
	AssertAST        AssertionType = "ast"
	AssertTrace      AssertionType = "trace"
	AssertResult     AssertionType = "result"
	AssertIR         AssertionType = "ir"
	AssertParseError AssertionType = "parse-error"
	AssertRunError   AssertionType = "run-error"
	AssertLowerError AssertionType = "lower-error"
)

var assertionTypes = map[AssertionType]bool{
	AssertTokens:     true,
	AssertAST:        true,
	AssertTrace:      true,
	AssertResult:     true,
	AssertIR:         true,
	AssertParseError: true,
	AssertRunError:   true,
	AssertLowerError: true,
}

type Assertion struct {
	Type    AssertionType
	Content string // fence body without the trailing newline
	Line    int
}

type Case struct {
	Name       string
	Input      string
	InputType  InputType
	Assertions []Assertion
}

// Source returns the case input as a complete program.
func (c *Case) Source() string {
	if c.InputType == InputBody {
		return "fn main() {\n" + c.Input + "\n}"
	}
	return c.Input
}

// Extract parses a Markdown document and returns its test cases in order.
func Extract(markdown string) ([]Case, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []Case
	var cur *Case

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, source)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkContinue, nil
			}
			if cur != nil {
				if err := validate(cur); err != nil {
					return ast.WalkStop, err
				}
				cases = append(cases, *cur)
			}
			cur = &Case{Name: strings.TrimPrefix(heading, "Test: ")}

		case *ast.FencedCodeBlock:
			lang := string(n.Language(source))
			line := lineOf(n, source)
			if cur == nil {
				if lang != "" {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence outside of a test case", line, lang)
				}
				return ast.WalkContinue, nil
			}
			body := strings.TrimRight(fenceBody(n, source), "\n")
			switch {
			case lang == string(InputProgram) || lang == string(InputBody):
				if cur.InputType != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple input fences in test %q", line, cur.Name)
				}
				cur.Input = body
				cur.InputType = InputType(lang)
			case assertionTypes[AssertionType(lang)]:
				cur.Assertions = append(cur.Assertions, Assertion{Type: AssertionType(lang), Content: body, Line: line})
			case lang == "":
				// plain code blocks are commentary
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language %q in test %q", line, lang, cur.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	if cur != nil {
		if err := validate(cur); err != nil {
			return nil, err
		}
		cases = append(cases, *cur)
	}
	return cases, nil
}

func validate(c *Case) error {
	if c.InputType == "" {
		return fmt.Errorf("test %q has no input fence", c.Name)
	}
	if len(c.Assertions) == 0 {
		return fmt.Errorf("test %q has no assertion fences", c.Name)
	}
	return nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceBody(n *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

func lineOf(n ast.Node, source []byte) int {
	if n.Lines().Len() == 0 {
		return 1
	}
	start := n.Lines().At(0).Start
	return bytes.Count(source[:min(start, len(source))], []byte("\n")) + 1
}
