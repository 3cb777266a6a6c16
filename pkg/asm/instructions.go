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

// Pilot instruction encoding:
//
//	byte 0      opcode
//	byte 1      operation size (bits 7-6) | mode of operand A (bits 5-0)
//	...         extension bytes of operand A
//	next byte   mode of operand B (bits 5-0)
//	...         extension bytes of operand B
//
// An instruction without operands is two bytes with byte 1 zero.

package asm

import "strings"

// Size is the operation size selected by an opcode suffix.
type Size int

const (
	SizeNone Size = -1 // not given; inferred or defaulted
	SizeByte Size = 0  // .B
	SizeWord Size = 1  // .W
	SizePtr  Size = 2  // .P, 24 bits
)

const sizeShift = 6

func (s Size) String() string {
	switch s {
	case SizeByte:
		return ".B"
	case SizeWord:
		return ".W"
	case SizePtr:
		return ".P"
	}
	return "(none)"
}

func sizeBySuffix(c byte) (Size, bool) {
	switch upper(c) {
	case 'B':
		return SizeByte, true
	case 'W':
		return SizeWord, true
	case 'P':
		return SizePtr, true
	}
	return SizeNone, false
}

// Sizes an instruction may be given, as a bit mask of 1<<Size
const (
	allowB   = 1 << SizeByte
	allowW   = 1 << SizeWord
	allowP   = 1 << SizePtr
	allowAll = allowB | allowW | allowP
)

type instruction struct {
	name     string
	code     byte
	operands int
	size     Size // default when neither a suffix nor a register decides
	allowed  int
}

var instructionTable = []instruction{
	{"NOP", 0x00, 0, SizeNone, 0},
	{"HALT", 0x01, 0, SizeNone, 0},
	{"RET", 0x02, 0, SizeNone, 0},
	{"RETI", 0x03, 0, SizeNone, 0},
	{"EI", 0x04, 0, SizeNone, 0},
	{"DI", 0x05, 0, SizeNone, 0},

	{"MOV", 0x10, 2, SizeWord, allowAll},
	{"ADD", 0x11, 2, SizeWord, allowAll},
	{"ADC", 0x12, 2, SizeWord, allowAll},
	{"SUB", 0x13, 2, SizeWord, allowAll},
	{"SBC", 0x14, 2, SizeWord, allowAll},
	{"CMP", 0x15, 2, SizeWord, allowAll},
	{"AND", 0x16, 2, SizeWord, allowAll},
	{"OR", 0x17, 2, SizeWord, allowAll},
	{"XOR", 0x18, 2, SizeWord, allowAll},
	{"LEA", 0x19, 2, SizePtr, allowP},

	{"INC", 0x20, 1, SizeWord, allowAll},
	{"DEC", 0x21, 1, SizeWord, allowAll},
	{"NEG", 0x22, 1, SizeWord, allowAll},
	{"NOT", 0x23, 1, SizeWord, allowAll},
	{"SHL", 0x24, 1, SizeWord, allowAll},
	{"SHR", 0x25, 1, SizeWord, allowAll},
	{"PUSH", 0x26, 1, SizeWord, allowAll},
	{"POP", 0x27, 1, SizeWord, allowAll},

	{"JMP", 0x30, 1, SizePtr, allowP},
	{"CALL", 0x31, 1, SizePtr, allowP},
	{"JZ", 0x32, 1, SizePtr, allowP},
	{"JNZ", 0x33, 1, SizePtr, allowP},
	{"JC", 0x34, 1, SizePtr, allowP},
	{"JNC", 0x35, 1, SizePtr, allowP},
	{"JS", 0x36, 1, SizePtr, allowP},
	{"JNS", 0x37, 1, SizePtr, allowP},
}

var instructionsByName = func() map[string]*instruction {
	m := make(map[string]*instruction, len(instructionTable))
	for i := range instructionTable {
		m[instructionTable[i].name] = &instructionTable[i]
	}
	return m
}()

// Split an opcode token into the instruction and its size suffix.
// The second result is false if the mnemonic is unknown or the suffix
// is not one of B, W, P.
func lookupInstruction(text string) (*instruction, Size, bool) {
	size := SizeNone
	if n := len(text); n > 2 && text[n-2] == '.' {
		var ok bool
		if size, ok = sizeBySuffix(text[n-1]); !ok {
			return nil, SizeNone, false
		}
		text = text[:n-2]
	}
	ins, ok := instructionsByName[strings.ToUpper(text)]
	return ins, size, ok
}

func (ins *instruction) allows(size Size) bool {
	return size >= 0 && ins.allowed&(1<<size) != 0
}
