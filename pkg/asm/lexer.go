/*
Copyright © 2022 Jeff Berkowitz (pdxjjb@gmail.com)

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package asm

import (
	"fmt"
	"strings"
)

// Token kinds
const (
	tkError = iota
	tkDirective
	tkOpcode
	tkLabel
	tkReg8
	tkReg16
	tkReg24
	tkPGC
	tkAt
	tkPlus
	tkMinus
	tkComma
	tkConstant
	tkIdent
	tkString
	tkEnd
)

var kindToString = []string{
	"error",
	"directive",
	"opcode",
	"label",
	"8-bit register",
	"16-bit register",
	"24-bit register",
	"PGC",
	"@",
	"+",
	"-",
	"comma",
	"constant",
	"identifier",
	"string",
	"end of input",
}

// A token refers into the source; tokenText is a substring of it and
// is never copied. For tkLabel the colon is not part of the text. For
// tkString the quotes are.
type token struct {
	tokenText string
	tokenKind int
	line      int
	col       int
	value     int32 // tkConstant only
	err       error // tkError only
}

func (t *token) String() string {
	return fmt.Sprintf("{%s %s}", kindToString[t.tokenKind], t.tokenText)
}

func (t *token) text() string {
	return t.tokenText
}

func (t *token) kind() int {
	return t.tokenKind
}

// True for the tokens that can only begin a statement. The scanner
// uses these to find the end of the operands of the previous one.
func (t *token) startsStatement() bool {
	switch t.tokenKind {
	case tkDirective, tkOpcode, tkLabel, tkEnd:
		return true
	}
	return false
}

// Strip the quotes from a tkString
func (t *token) stringValue() string {
	return t.tokenText[1 : len(t.tokenText)-1]
}

type lexer struct {
	src    string
	pos    int  // next byte to scan
	start  int  // start of the token being scanned
	line   int  // 1-based
	col    int  // 1-based
	bos    bool // at beginning of statement
	peeked *token
}

func newLexer(src string) *lexer {
	lx := &lexer{src: src}
	lx.reset()
	return lx
}

func (lx *lexer) reset() {
	lx.pos = 0
	lx.start = 0
	lx.line = 1
	lx.col = 1
	lx.bos = true
	lx.peeked = nil
}

// Return the next token without consuming it
func (lx *lexer) peek() *token {
	if lx.peeked == nil {
		lx.peeked = lx.scan()
	}
	return lx.peeked
}

func getToken(lx *lexer) *token {
	if tk := lx.peeked; tk != nil {
		lx.peeked = nil
		return tk
	}
	return lx.scan()
}

func (lx *lexer) at(offset int) byte {
	if lx.pos+offset < len(lx.src) {
		return lx.src[lx.pos+offset]
	}
	return 0
}

func (lx *lexer) advance() {
	if lx.src[lx.pos] == '\n' {
		lx.line++
		lx.col = 1
		lx.bos = true
	} else {
		lx.col++
	}
	lx.pos++
}

func (lx *lexer) advanceTo(end int) {
	for lx.pos < end {
		lx.advance()
	}
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.src) {
		switch c := lx.src[lx.pos]; {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			lx.advance()
		case c == ';':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.advance()
			}
		default:
			return
		}
	}
}

func (lx *lexer) newToken(kind int) *token {
	return &token{tokenText: lx.src[lx.start:lx.pos], tokenKind: kind}
}

func (lx *lexer) scan() *token {
	lx.skipSpace()
	lx.start = lx.pos
	line, col := lx.line, lx.col
	tk := lx.classify()
	tk.line, tk.col = line, col
	if tk.tokenKind != tkLabel && tk.tokenKind != tkEnd {
		lx.bos = false
	}
	return tk
}

func (lx *lexer) classify() *token {
	if lx.pos >= len(lx.src) || lx.src[lx.pos] == 0 {
		return lx.newToken(tkEnd)
	}

	c := lx.src[lx.pos]
	if lx.bos {
		switch {
		case c == '.' && isAlnum(lx.at(1)):
			lx.advance()
			lx.advanceTo(lx.identEnd(lx.pos))
			return lx.newToken(tkDirective)
		case isAlpha(c):
			end := lx.identEnd(lx.pos)
			if end < len(lx.src) && lx.src[end] == ':' {
				lx.advanceTo(end)
				tk := lx.newToken(tkLabel)
				lx.advance() // the colon; bos stays set
				return tk
			}
			// Optional size suffix: MOV.W
			if end+1 < len(lx.src) && lx.src[end] == '.' && isAlpha(lx.src[end+1]) &&
				!isAlnum(lx.byteAt(end+2)) {
				end += 2
			}
			lx.advanceTo(end)
			return lx.newToken(tkOpcode)
		}
	}

	switch {
	case c == '$' || c == '%' || isDigit(c):
		val, end, err := decodeConstantAt(lx.src, lx.pos)
		if end == lx.pos {
			end++
		}
		lx.advanceTo(end)
		if err != nil {
			tk := lx.newToken(tkError)
			tk.err = err
			return tk
		}
		tk := lx.newToken(tkConstant)
		tk.value = val
		return tk
	case c == '"':
		end := strings.IndexByte(lx.src[lx.pos+1:], '"')
		if end < 0 {
			lx.advanceTo(len(lx.src))
			tk := lx.newToken(tkError)
			tk.err = fmt.Errorf("unterminated string")
			return tk
		}
		lx.advanceTo(lx.pos + end + 2)
		return lx.newToken(tkString)
	}

	if kind, n := lx.register(); n > 0 {
		lx.advanceTo(lx.pos + n)
		return lx.newToken(kind)
	}

	switch c {
	case '@':
		lx.advance()
		return lx.newToken(tkAt)
	case '+':
		lx.advance()
		return lx.newToken(tkPlus)
	case '-':
		lx.advance()
		return lx.newToken(tkMinus)
	case ',':
		lx.advance()
		return lx.newToken(tkComma)
	}

	if isAlpha(c) {
		lx.advanceTo(lx.identEnd(lx.pos))
		return lx.newToken(tkIdent)
	}

	lx.advance()
	tk := lx.newToken(tkError)
	tk.err = fmt.Errorf("character 0x%02x (%q) unexpected", c, c)
	return tk
}

// Recognize a register name at the current position. The checks run
// in a fixed order (8, 16, 24 bit, then PGC) and each one requires
// that the name not run on into a longer identifier.
func (lx *lexer) register() (int, int) {
	c0 := upper(lx.at(0))
	c1 := upper(lx.at(1))
	switch {
	case (c0 == 'L' || c0 == 'M') && c1 >= '0' && c1 <= '3' && !isAlnum(lx.at(2)):
		return tkReg8, 2
	case c0 == 'W' && c1 >= '0' && c1 <= '7' && !isAlnum(lx.at(2)):
		return tkReg16, 2
	case c0 == 'S' && c1 == 'P' && !isAlnum(lx.at(2)):
		return tkReg24, 2
	case c0 == 'P' && c1 >= '0' && c1 <= '7' && !isAlnum(lx.at(2)):
		return tkReg24, 2
	case c0 == 'P' && c1 == 'G' && upper(lx.at(2)) == 'C' && !isAlnum(lx.at(3)):
		return tkPGC, 3
	}
	return tkError, 0
}

func (lx *lexer) identEnd(pos int) int {
	for pos < len(lx.src) && isAlnum(lx.src[pos]) {
		pos++
	}
	return pos
}

func (lx *lexer) byteAt(pos int) byte {
	if pos < len(lx.src) {
		return lx.src[pos]
	}
	return 0
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isAlnum(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
