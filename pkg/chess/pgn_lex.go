package chess

import (
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokTag
	tokMove
	tokResult
	tokComment
	tokNAG
	tokVarStart
	tokVarEnd
	tokBlank
	tokError
)

type token struct {
	kind  tokenKind
	text  string
	value string // tag value
	line  int
}

// lexer splits PGN text into tokens lazily. Blank lines outside comments are reported as
// tokBlank because they delimit games whose movetext lacks a result.
type lexer struct {
	src       string
	pos       int
	line      int
	lineStart bool
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, lineStart: true}
}

func (l *lexer) next() token {
	newlines := 0
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if l.lineStart && c == '%' {
			l.skipLine()
			continue
		}
		switch c {
		case '\n':
			newlines++
			l.line++
			l.pos++
			l.lineStart = true
			continue
		case ' ', '\t', '\r', '\f', '\v':
			l.pos++
			continue
		}
		if newlines >= 2 {
			return token{kind: tokBlank, line: l.line}
		}
		l.lineStart = false
		return l.scan()
	}
	if newlines >= 2 {
		return token{kind: tokBlank, line: l.line}
	}
	return token{kind: tokEOF, line: l.line}
}

func (l *lexer) skipLine() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
}

func (l *lexer) scan() token {
	line := l.line
	switch c := l.src[l.pos]; c {
	case '[':
		return l.scanTag()
	case '{':
		end := strings.IndexByte(l.src[l.pos:], '}')
		var body string
		if end < 0 {
			body = l.src[l.pos+1:]
			l.pos = len(l.src)
		} else {
			body = l.src[l.pos+1 : l.pos+end]
			l.pos += end + 1
		}
		l.line += strings.Count(body, "\n")
		return token{kind: tokComment, text: body, line: line}
	case ';':
		start := l.pos + 1
		l.skipLine()
		return token{kind: tokComment, text: l.src[start:l.pos], line: line}
	case '(':
		l.pos++
		return token{kind: tokVarStart, text: "(", line: line}
	case ')':
		l.pos++
		return token{kind: tokVarEnd, text: ")", line: line}
	case '$':
		start := l.pos
		l.pos++
		for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
			l.pos++
		}
		return token{kind: tokNAG, text: l.src[start:l.pos], line: line}
	}

	start := l.pos
	for l.pos < len(l.src) && !isDelimiter(l.src[l.pos]) {
		l.pos++
	}
	sym := l.src[start:l.pos]
	if sym == "" {
		// stray closing bracket or brace
		l.pos++
		return token{kind: tokError, text: l.src[start:l.pos], line: line}
	}
	switch sym {
	case "1-0", "0-1", "1/2-1/2", "*":
		return token{kind: tokResult, text: sym, line: line}
	}
	sym = stripMoveNumber(sym)
	switch {
	case sym == "":
		return l.next()
	case strings.Trim(sym, "!?") == "", sym == "e.p.", sym == "ep":
		// annotations; an en-passant marker written apart from its move counts as one
		return token{kind: tokNAG, text: sym, line: line}
	}
	return token{kind: tokMove, text: sym, line: line}
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', '\v', '[', ']', '{', '}', '(', ')', ';', '$':
		return true
	}
	return false
}

// stripMoveNumber removes a leading "12." or "12..." from a symbol.
func stripMoveNumber(sym string) string {
	i := 0
	for i < len(sym) && sym[i] >= '0' && sym[i] <= '9' {
		i++
	}
	switch {
	case i == 0:
		return sym
	case i == len(sym):
		return ""
	case sym[i] != '.':
		return sym
	}
	return strings.TrimLeft(sym[i:], ".")
}

func (l *lexer) scanTag() token {
	line := l.line
	start := l.pos
	end := strings.IndexByte(l.src[l.pos:], '\n')
	if end < 0 {
		end = len(l.src) - l.pos
	}
	raw := l.src[l.pos : l.pos+end]
	name, value, n, ok := parseTag(raw)
	if !ok {
		l.pos += end
		return token{kind: tokError, text: "malformed tag " + strings.TrimSpace(raw), line: line}
	}
	l.pos = start + n
	return token{kind: tokTag, text: name, value: value, line: line}
}

// parseTag parses `[Name "Value"]` at the start of s and returns the consumed length.
func parseTag(s string) (name, value string, n int, ok bool) {
	i := 1
	skip := func() {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
	}
	skip()
	ns := i
	for i < len(s) && (isAlnum(s[i]) || s[i] == '_') {
		i++
	}
	if i == ns {
		return "", "", 0, false
	}
	name = s[ns:i]
	skip()
	if i >= len(s) || s[i] != '"' {
		return "", "", 0, false
	}
	i++
	var b strings.Builder
	for {
		if i >= len(s) {
			return "", "", 0, false
		}
		c := s[i]
		if c == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\') {
			b.WriteByte(s[i+1])
			i += 2
			continue
		}
		if c == '"' {
			i++
			break
		}
		b.WriteByte(c)
		i++
	}
	skip()
	if i >= len(s) || s[i] != ']' {
		return "", "", 0, false
	}
	return name, b.String(), i + 1, true
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// block is the raw content of one game: its tags and its mainline move tokens.
type block struct {
	tags    []Tag
	moves   []string
	result  string
	err     string
	started bool
}

// blockScanner groups tokens into games. A game ends at a result token, at a blank line
// after movetext, or where a tag follows movetext or a blank line closing a header.
type blockScanner struct {
	lex     *lexer
	pending *token
}

func newBlockScanner(src string) *blockScanner {
	return &blockScanner{lex: newLexer(src)}
}

func (s *blockScanner) token() token {
	if s.pending != nil {
		t := *s.pending
		s.pending = nil
		return t
	}
	return s.lex.next()
}

func (s *blockScanner) next() (block, bool) {
	var b block
	movetext, headerClosed := false, false
	depth := 0
	for {
		t := s.token()
		switch t.kind {
		case tokEOF:
			if depth > 0 && b.err == "" {
				b.err = "unterminated variation"
			}
			return b, b.started
		case tokTag:
			if movetext || headerClosed {
				s.pending = &t
				return b, true
			}
			b.tags = append(b.tags, Tag{Name: t.text, Value: t.value})
			b.started = true
		case tokMove:
			b.started, movetext = true, true
			if depth == 0 {
				b.moves = append(b.moves, t.text)
			}
		case tokVarStart:
			b.started, movetext = true, true
			depth++
		case tokVarEnd:
			b.started, movetext = true, true
			if depth == 0 {
				if b.err == "" {
					b.err = "unbalanced ')' on line " + strconv.Itoa(t.line)
				}
				continue
			}
			depth--
		case tokResult:
			b.started = true
			if depth == 0 {
				b.result = t.text
				return b, true
			}
		case tokBlank:
			if movetext && depth == 0 {
				return b, true
			}
			headerClosed = len(b.tags) > 0
		case tokError:
			b.started = true
			if b.err == "" {
				b.err = t.text + " on line " + strconv.Itoa(t.line)
			}
		}
	}
}
