package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#[0-9A-Fa-f]{6}\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Paper", Pattern: `[24]A0\b`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\.\d+|\d+)(?:pt|px|mm|cm|in)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[:;,]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	tokenNames       = invertSymbols(dslLexer.Symbols())
	newlineTokenType = mustTokenType("Newline")
	lbraceTokenType  = mustTokenType("LBrace")
	rbraceTokenType  = mustTokenType("RBrace")
	symbolTokenType  = mustTokenType("Symbol")
	stringTokenType  = mustTokenType("String")

	fileParser = participle.MustBuild[File](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// File 是设置文件的根节点：foundry <版本> { 段落... }
type File struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Version  string         `parser:"Newline* 'foundry' @Ident"`
	Sections []*Section     `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Section 是顶层段落之一：document、qr 或 page。
type Section struct {
	Document *DocumentSection `parser:"  @@"`
	QR       *QRSection       `parser:"| @@"`
	Page     *PageSection     `parser:"| @@"`
}

// Kind returns the section keyword.
func (s *Section) Kind() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Document != nil:
		return "document"
	case s.QR != nil:
		return "qr"
	case s.Page != nil:
		return "page"
	default:
		return "unknown"
	}
}

type DocumentSection struct {
	Block *Block `parser:"'document' @@"`
}

type QRSection struct {
	Block *Block `parser:"'qr' @@"`
}

// PageSection 形如 `page A4 landscape margin 10mm 5mm`，纸张之后的参数原样保留。
type PageSection struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Size   string         `parser:"'page' @(Ident | Paper)"`
	Params []*Lexeme      `parser:"@@*"`
}

// Block is a brace-delimited list of assignments.
type Block struct {
	Assignments []*Assignment `parser:"'{' Newline* ( @@ ( ';' | ',' | Newline )* )* '}'"`
}

// Assignment uses colon syntax (key: value).
type Assignment struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident"`
	Value *Value         `parser:"':' Newline* @@"`
}

// Value 是标量值。
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Ident  *string        `parser:"| @Ident"`
}

// Text 返回值的文本形式，字符串已去掉引号。
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Ident != nil:
		return *v.Ident
	default:
		return ""
	}
}

// Lookup 返回块内 key 最后一次赋值。
func (b *Block) Lookup(key string) (*Value, bool) {
	if b == nil {
		return nil, false
	}
	var found *Value
	for _, a := range b.Assignments {
		if a.Key == key {
			found = a.Value
		}
	}
	return found, found != nil
}

// Lexeme captures a single lexical token.
type Lexeme struct {
	Type  string         `json:"type"`
	Value string         `json:"value"`
	Raw   string         `json:"raw"`
	Pos   lexer.Position `json:"-"`
}

// Parse implements participle.Parseable so Lexeme can act as a grammar atom.
func (l *Lexeme) Parse(lex *lexer.PeekingLexer) error {
	tok := lex.Peek()
	if shouldStopArg(tok) {
		return participle.NextMatch
	}

	lexeme, err := consumeLexeme(lex)
	if err != nil {
		return err
	}
	*l = *lexeme
	return nil
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("字符串字面量缺少值")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses a settings file from an io.Reader.
func Parse(r io.Reader) (*File, error) {
	return fileParser.Parse("", r)
}

// ParseString parses a settings file from a string.
func ParseString(input string) (*File, error) {
	return fileParser.ParseString("", input)
}

func consumeLexeme(lex *lexer.PeekingLexer) (*Lexeme, error) {
	tok := lex.Next()
	if tok.EOF() {
		return nil, participle.NextMatch
	}

	lexeme, err := newLexeme(*tok)
	if err != nil {
		return nil, err
	}
	return &lexeme, nil
}

func shouldStopArg(tok *lexer.Token) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	switch tok.Type {
	case newlineTokenType, rbraceTokenType, lbraceTokenType:
		return true
	case symbolTokenType:
		return tok.Value == ";"
	default:
		return false
	}
}

func newLexeme(tok lexer.Token) (Lexeme, error) {
	name, ok := tokenNames[tok.Type]
	if !ok {
		name = fmt.Sprintf("#%d", tok.Type)
	}
	val := tok.Value
	if tok.Type == stringTokenType {
		unquoted, err := strconv.Unquote(tok.Value)
		if err != nil {
			return Lexeme{}, err
		}
		val = unquoted
	}

	return Lexeme{
		Type:  name,
		Value: val,
		Raw:   tok.Value,
		Pos:   tok.Pos,
	}, nil
}

func invertSymbols(symbols map[string]lexer.TokenType) map[lexer.TokenType]string {
	out := make(map[lexer.TokenType]string, len(symbols))
	for name, tt := range symbols {
		out[tt] = name
	}
	return out
}

func mustTokenType(name string) lexer.TokenType {
	symbols := dslLexer.Symbols()
	tt, ok := symbols[name]
	if !ok {
		panic(fmt.Sprintf("token %s not defined", name))
	}
	return tt
}
