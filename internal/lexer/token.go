package lexer

import "fmt"

type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL

	// Identifiers + literals
	IDENT
	INT

	// Keywords
	KW_FN
	KW_LET
	KW_IF
	KW_ELSE
	KW_WHILE

	// Symbols
	LPAREN // (
	RPAREN // )
	LBRACE // {
	RBRACE // }
	SEMI   // ;
	ASSIGN // =

	// Arithmetic
	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /

	// Comparison
	EQEQ // ==
	NEQ  // !=
	LT   // <
	LE   // <=
	GT   // >
	GE   // >=
)

var tokenNames = [...]string{
	EOF:      "EOF",
	ILLEGAL:  "ILLEGAL",
	IDENT:    "IDENT",
	INT:      "INT",
	KW_FN:    "fn",
	KW_LET:   "let",
	KW_IF:    "if",
	KW_ELSE:  "else",
	KW_WHILE: "while",
	LPAREN:   "(",
	RPAREN:   ")",
	LBRACE:   "{",
	RBRACE:   "}",
	SEMI:     ";",
	ASSIGN:   "=",
	PLUS:     "+",
	MINUS:    "-",
	STAR:     "*",
	SLASH:    "/",
	EQEQ:     "==",
	NEQ:      "!=",
	LT:       "<",
	LE:       "<=",
	GT:       ">",
	GE:       ">=",
}

func (tt TokenType) String() string {
	if tt >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

var keywords = map[string]TokenType{
	"fn":    KW_FN,
	"let":   KW_LET,
	"if":    KW_IF,
	"else":  KW_ELSE,
	"while": KW_WHILE,
}

type Token struct {
	Type  TokenType
	Lex   string
	Value int64 // INT only
	Line  int
	Col   int
}

func (t Token) Is(op TokenType) bool { return t.Type == op }

// String renders the token the way diagnostics print it: Number(1), Ident("a"), Le.
func (t Token) String() string {
	switch t.Type {
	case INT:
		return fmt.Sprintf("Number(%d)", t.Value)
	case IDENT:
		return fmt.Sprintf("Ident(%q)", t.Lex)
	case ILLEGAL:
		return fmt.Sprintf("Error(%q)", t.Lex)
	}
	return t.Type.String()
}
