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
	"strconv"
)

// DecodeConstant decodes a numeral: $ for hex, % for binary, otherwise
// decimal. The whole text must be a numeral.
func DecodeConstant(text string) (int32, error) {
	val, end, err := decodeConstantAt(text, 0)
	if err != nil {
		return 0, err
	}
	if end != len(text) {
		return 0, &ConstantError{InvalidDigits, text}
	}
	return val, nil
}

// Decode the numeral starting at src[pos]. Returns the value and the
// offset of the first byte after the numeral. The lexer uses this to
// scan numerals in place.
func decodeConstantAt(src string, pos int) (int32, int, error) {
	if pos >= len(src) {
		return 0, pos, &ConstantError{InvalidPrefix, ""}
	}

	base := 10
	start := pos
	switch c := src[pos]; {
	case c == '$':
		base = 16
		pos++
	case c == '%':
		base = 2
		pos++
	case isDigit(c):
	default:
		return 0, pos, &ConstantError{InvalidPrefix, src[start : start+1]}
	}

	digits := pos
	for pos < len(src) && digitValue(src[pos]) < base {
		pos++
	}
	if pos == digits {
		return 0, pos, &ConstantError{InvalidDigits, src[start:pos]}
	}

	n, err := strconv.ParseUint(src[digits:pos], base, 32)
	if err != nil {
		return 0, pos, &ConstantError{InvalidDigits, src[start:pos]}
	}
	return int32(uint32(n)), pos, nil
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return 99
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
