package transformer

import (
	"errors"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

// token is a lexed token with its byte range in the source
type token struct {
	tt    js.TokenType
	text  string
	start int
	end   int
}

func (t token) trivia() bool {
	switch t.tt {
	case js.WhitespaceToken, js.LineTerminatorToken, js.CommentToken, js.CommentLineTerminatorToken:
		return true
	}
	return false
}

// keywords after which a slash starts a regular expression literal
var regexpKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

// keywords whose parenthesized head is followed by a statement
var statementHeads = map[string]bool{
	"if": true, "while": true, "for": true, "with": true,
}

// opening bracket kinds; a slash after the closing bracket of a statement
// head or a block starts a regular expression
type group int

const (
	groupExpr group = iota
	groupHead
	groupBlock
)

// tokenize lexes src completely. The JS lexer cannot tell a division from a
// regular expression on its own, so the previous significant token and the
// kind of bracket it closed decide.
func tokenize(src string) ([]token, error) {
	l := js.NewLexer(parse.NewInputString(src))

	var tokens []token
	var groups []group
	var prev *token
	closed := groupExpr
	offset := 0

	for {
		tt, data := l.Next()
		if tt == js.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			break
		}

		if (tt == js.DivToken || tt == js.DivEqToken) && regexpAllowed(prev, closed) {
			tt, data = l.RegExp()
			if tt == js.ErrorToken {
				return nil, l.Err()
			}
		}

		tok := token{tt: tt, text: string(data), start: offset, end: offset + len(data)}
		offset = tok.end
		tokens = append(tokens, tok)
		if tok.trivia() {
			continue
		}

		switch tok.text {
		case "(":
			groups = append(groups, parenKind(prev))
		case "{":
			groups = append(groups, braceKind(prev, groups))
		case "[":
			groups = append(groups, groupExpr)
		case ")", "}", "]":
			closed = groupExpr
			if n := len(groups); n > 0 {
				closed = groups[n-1]
				groups = groups[:n-1]
			}
		}

		last := tok
		prev = &last
	}

	return tokens, nil
}

func parenKind(prev *token) group {
	if prev != nil && statementHeads[prev.text] {
		return groupHead
	}
	return groupExpr
}

// braceKind tells a block from an object literal by what precedes it
func braceKind(prev *token, groups []group) group {
	if prev == nil {
		return groupBlock
	}
	if opensExpression(prev) {
		return groupExpr
	}
	switch prev.text {
	case ")", ";", "{", "}", "=>", "else", "do", "try", "finally", "static":
		return groupBlock
	case ":":
		// case clause or label inside a block, property value inside an object
		if n := len(groups); n > 0 && groups[n-1] == groupBlock {
			return groupBlock
		}
		return groupExpr
	}
	if regexpKeywords[prev.text] || !wordLike(prev.text) {
		return groupExpr
	}
	// class or interface names
	return groupBlock
}

func regexpAllowed(prev *token, closed group) bool {
	if prev == nil {
		return true
	}

	switch prev.tt {
	case js.TemplateToken, js.TemplateEndToken:
		return false
	}
	if opensExpression(prev) {
		return true
	}

	switch prev.text {
	case ")", "}":
		return closed != groupExpr
	case "]":
		return false
	}

	if !wordLike(prev.text) {
		return true
	}
	return regexpKeywords[prev.text]
}

// opensExpression reports a template head or middle, which ends in ${
func opensExpression(prev *token) bool {
	return prev.tt == js.TemplateStartToken || prev.tt == js.TemplateMiddleToken
}

func wordLike(text string) bool {
	c := text[0]
	return c == '_' || c == '$' || c == '"' || c == '\'' || c == '`' || c == '#' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c >= 0x80
}

// cursor navigates a token stream skipping trivia
type cursor struct {
	tokens []token
}

// next returns the index of the next significant token at or after i, or -1
func (c *cursor) next(i int) int {
	for ; i < len(c.tokens); i++ {
		if !c.tokens[i].trivia() {
			return i
		}
	}
	return -1
}

// prev returns the index of the closest significant token before i, or -1
func (c *cursor) prev(i int) int {
	for i--; i >= 0; i-- {
		if !c.tokens[i].trivia() {
			return i
		}
	}
	return -1
}

func (c *cursor) text(i int) string {
	if i < 0 || i >= len(c.tokens) {
		return ""
	}
	return c.tokens[i].text
}

// skipGroup expects an opening bracket at i and returns the index of its match
func (c *cursor) skipGroup(i int) int {
	depth := 0
	for ; i < len(c.tokens); i++ {
		switch c.tokens[i].text {
		case "{", "(", "[":
			depth++
		case "}", ")", "]":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isString(t token) bool {
	return t.tt == js.StringToken
}

func unquote(s string) (string, bool) {
	if len(s) < 2 || strings.ContainsRune(s, '\\') {
		return "", false
	}
	return s[1 : len(s)-1], true
}
