package lexer

import (
	"unicode"
)

// eof marks the end of input; a NUL byte in the source is an ordinary illegal character.
const eof rune = -1

type Lexer struct {
	src  []rune
	i    int
	ch   rune
	line int
	col  int
}

func New(src string) *Lexer {
	l := &Lexer{src: []rune(src), line: 1}
	l.read()
	return l
}

// Tokenize scans the whole source. It never fails: characters outside the
// language become ILLEGAL tokens and are left for the parser to reject. The
// result does not include an EOF token.
func Tokenize(src string) []Token {
	l := New(src)
	var toks []Token
	for {
		t := l.Next()
		if t.Type == EOF {
			return toks
		}
		toks = append(toks, t)
	}
}

func (l *Lexer) read() {
	if l.i >= len(l.src) {
		l.ch = eof
		return
	}
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	l.ch = l.src[l.i]
	l.i++
	l.col++
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch rune) bool { return '0' <= ch && ch <= '9' }

func isIdentStart(ch rune) bool { return unicode.IsLetter(ch) || ch == '_' }

func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

func (l *Lexer) Next() Token {
	for isSpace(l.ch) {
		l.read()
	}
	tok := Token{Line: l.line, Col: l.col}
	switch ch := l.ch; ch {
	case eof:
		tok.Type = EOF
	case '(':
		tok.Type, tok.Lex = LPAREN, string(ch)
		l.read()
	case ')':
		tok.Type, tok.Lex = RPAREN, string(ch)
		l.read()
	case '{':
		tok.Type, tok.Lex = LBRACE, string(ch)
		l.read()
	case '}':
		tok.Type, tok.Lex = RBRACE, string(ch)
		l.read()
	case ';':
		tok.Type, tok.Lex = SEMI, string(ch)
		l.read()
	case '+':
		tok.Type, tok.Lex = PLUS, string(ch)
		l.read()
	case '-':
		tok.Type, tok.Lex = MINUS, string(ch)
		l.read()
	case '*':
		tok.Type, tok.Lex = STAR, string(ch)
		l.read()
	case '/':
		tok.Type, tok.Lex = SLASH, string(ch)
		l.read()
	case '=':
		tok.Type, tok.Lex = l.twoChar(ASSIGN, EQEQ)
	case '!':
		tok.Type, tok.Lex = l.twoChar(ILLEGAL, NEQ)
	case '<':
		tok.Type, tok.Lex = l.twoChar(LT, LE)
	case '>':
		// a lone '>' is not part of the language; only '>=' is
		tok.Type, tok.Lex = l.twoChar(ILLEGAL, GE)
	default:
		if isIdentStart(ch) {
			ident := []rune{ch}
			l.read()
			for isIdentPart(l.ch) {
				ident = append(ident, l.ch)
				l.read()
			}
			lex := string(ident)
			if kw, ok := keywords[lex]; ok {
				tok.Type = kw
			} else {
				tok.Type = IDENT
			}
			tok.Lex = lex
		} else if isDigit(ch) {
			num := []rune{ch}
			// wraps on overflow: v*10+d in two's complement
			v := int64(ch - '0')
			l.read()
			for isDigit(l.ch) {
				num = append(num, l.ch)
				v = v*10 + int64(l.ch-'0')
				l.read()
			}
			tok.Type, tok.Lex, tok.Value = INT, string(num), v
		} else {
			tok.Type, tok.Lex = ILLEGAL, string(ch)
			l.read()
		}
	}
	return tok
}

// twoChar consumes the current character and, when the next one is '=',
// that one too. single is returned for the one-character form.
func (l *Lexer) twoChar(single, double TokenType) (TokenType, string) {
	first := l.ch
	l.read()
	if l.ch == '=' {
		l.read()
		return double, string(first) + "="
	}
	return single, string(first)
}
