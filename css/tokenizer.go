package css

import (
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// TokenKind classifies tokens produced by Tokenizer.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdent
	// TokenFunction holds complete parenthesized segment including function
	// name and closing parenthesis, e.g. "rgb(10%, 0, 255)".
	TokenFunction
	TokenURL
	TokenAtKeyword
	TokenHash
	TokenString
	TokenNumber
	TokenPercentage
	TokenDimension
	TokenDelim
	TokenColon
	TokenSemicolon
	TokenComma
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenLParen
	TokenRParen
	TokenWhitespace
	TokenBad
)

var tokenKindNames = [...]string{
	"EOF", "ident", "function", "url", "at-keyword", "hash", "string", "number",
	"percentage", "dimension", "delim", "colon", "semicolon", "comma", "{", "}",
	"[", "]", "(", ")", "whitespace", "bad",
}

func (k TokenKind) String() string {
	if k >= 0 && int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return "unknown"
}

// Token is a single lexical unit. Data is a copy of the source text.
type Token struct {
	Kind TokenKind
	Data string
}

func (t Token) Is(kind TokenKind, data string) bool {
	return t.Kind == kind && (data == "" || strings.EqualFold(t.Data, data))
}

// Tokenizer turns style sheet text into tokens. Comments and HTML comment
// delimiters are dropped, whitespace runs are returned as single tokens and
// function calls are returned whole. Any number of tokens may be pushed back.
type Tokenizer struct {
	lex  *css.Lexer
	back []Token
	err  error
}

func NewTokenizer(data []byte) *Tokenizer {
	return &Tokenizer{lex: css.NewLexer(parse.NewInputBytes(data))}
}

// Err returns lexer error other than end of input.
func (t *Tokenizer) Err() error {
	return t.err
}

// Unread pushes token back, tokens are returned in LIFO order.
func (t *Tokenizer) Unread(tok Token) {
	t.back = append(t.back, tok)
}

// Peek returns next token without consuming it.
func (t *Tokenizer) Peek() Token {
	tok := t.Next()
	t.Unread(tok)
	return tok
}

// NextSignificant skips whitespace.
func (t *Tokenizer) NextSignificant() Token {
	for {
		if tok := t.Next(); tok.Kind != TokenWhitespace {
			return tok
		}
	}
}

func (t *Tokenizer) Next() Token {
	if n := len(t.back); n > 0 {
		tok := t.back[n-1]
		t.back = t.back[:n-1]
		return tok
	}
	for {
		tt, data := t.lex.Next()
		switch tt {
		case css.ErrorToken:
			if err := t.lex.Err(); err != nil && !errors.Is(err, io.EOF) {
				t.err = err
			}
			return Token{Kind: TokenEOF}
		case css.CommentToken, css.CDOToken, css.CDCToken:
			continue
		case css.FunctionToken:
			return t.function(string(data))
		}
		return Token{Kind: kindOf(tt), Data: string(data)}
	}
}

// function collects tokens up to the matching closing parenthesis.
func (t *Tokenizer) function(name string) Token {
	var sb strings.Builder
	sb.WriteString(name)
	depth := 1
	for depth > 0 {
		tt, data := t.lex.Next()
		switch tt {
		case css.ErrorToken:
			if err := t.lex.Err(); err != nil && !errors.Is(err, io.EOF) {
				t.err = err
			}
			return Token{Kind: TokenBad, Data: sb.String()}
		case css.CommentToken:
			continue
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth--
		}
		sb.Write(data)
	}
	return Token{Kind: TokenFunction, Data: sb.String()}
}

func kindOf(tt css.TokenType) TokenKind {
	switch tt {
	case css.IdentToken, css.CustomPropertyNameToken:
		return TokenIdent
	case css.URLToken:
		return TokenURL
	case css.AtKeywordToken:
		return TokenAtKeyword
	case css.HashToken:
		return TokenHash
	case css.StringToken:
		return TokenString
	case css.NumberToken:
		return TokenNumber
	case css.PercentageToken:
		return TokenPercentage
	case css.DimensionToken:
		return TokenDimension
	case css.DelimToken:
		return TokenDelim
	case css.ColonToken:
		return TokenColon
	case css.SemicolonToken:
		return TokenSemicolon
	case css.CommaToken:
		return TokenComma
	case css.LeftBraceToken:
		return TokenLBrace
	case css.RightBraceToken:
		return TokenRBrace
	case css.LeftBracketToken:
		return TokenLBracket
	case css.RightBracketToken:
		return TokenRBracket
	case css.LeftParenthesisToken:
		return TokenLParen
	case css.RightParenthesisToken:
		return TokenRParen
	case css.WhitespaceToken:
		return TokenWhitespace
	}
	return TokenBad
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// functionArgs splits "name(a, b c)" into name and raw comma separated
// arguments.
func functionArgs(s string) (string, []string) {
	name, rest, ok := strings.Cut(s, "(")
	if !ok {
		return strings.ToLower(s), nil
	}
	rest = strings.TrimSuffix(rest, ")")
	var args []string
	for a := range strings.SplitSeq(rest, ",") {
		args = append(args, strings.TrimSpace(a))
	}
	return strings.ToLower(name), args
}

// extractURL returns address from url(...) token text.
func extractURL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 4 && strings.EqualFold(s[:4], "url(") {
		s = strings.TrimSuffix(s[4:], ")")
	}
	return unquote(s)
}
