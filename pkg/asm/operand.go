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
	"encoding/binary"
	"strings"
)

// Register classes, which are also the class field of an index
// descriptor.
type regClass int

const (
	class8 regClass = iota
	class16
	class24
)

func (c regClass) size() Size {
	return Size(c)
}

type register struct {
	class regClass
	ord   byte
}

// Decode a register name. The name must be exactly a register; the
// lexer has already made sure registers do not run into identifiers.
func registerByName(name string) (register, bool) {
	if len(name) != 2 {
		return register{}, false
	}
	c0, c1 := upper(name[0]), upper(name[1])
	switch {
	case c0 == 'L' && c1 >= '0' && c1 <= '3':
		return register{class8, c1 - '0'}, true
	case c0 == 'M' && c1 >= '0' && c1 <= '3':
		return register{class8, c1 - '0' + 4}, true
	case c0 == 'W' && c1 >= '0' && c1 <= '7':
		return register{class16, c1 - '0'}, true
	case c0 == 'P' && c1 >= '0' && c1 <= '7':
		return register{class24, c1 - '0'}, true
	case c0 == 'S' && c1 == 'P':
		return register{class24, 7}, true
	}
	return register{}, false
}

func registerOf(tk *token) register {
	reg, ok := registerByName(tk.text())
	if !ok {
		panic("registerOf: not a register: " + tk.String())
	}
	return reg
}

// An index written W1SX is scaled by the operation size.
func indexByName(tk *token) (register, bool, bool) {
	switch tk.kind() {
	case tkReg8, tkReg16, tkReg24:
		return registerOf(tk), false, true
	case tkIdent:
		name := tk.text()
		if len(name) == 4 && strings.EqualFold(name[2:], "SX") {
			if reg, ok := registerByName(name[:2]); ok {
				return reg, true, true
			}
		}
	}
	return register{}, false, false
}

func (reg register) descriptor(scaled bool) byte {
	d := byte(reg.class)<<6 | reg.ord
	if scaled {
		d |= 0x20
	}
	return d
}

// Operand shapes, as written in the source
type shape int

const (
	shapeRegister        shape = iota // L0, W0, P0
	shapeImmediate                    // n
	shapeAbsolute                     // @n
	shapeAbsIndexed                   // @n+W1
	shapePCRel                        // @PGC+n, @PGC
	shapeIndirectDisp                 // P0+n, P0-n
	shapeIndirectIndexed              // P0+W1
	shapePreDec                       // -P0
	shapePostInc                      // P0+
)

type operand struct {
	shape   shape
	reg     register
	index   register
	scaled  bool
	value   int32
	forward bool // value came from a forward referenced symbol
	pending bool // that symbol has no value yet
	tk      *token
}

// Extension formats
const (
	extNone      = iota
	extWord      // 2 bytes
	extLong      // 3 bytes and a zero pad
	extLongIndex // 3 byte base and an index descriptor
	extRegIndex  // base register ordinal and an index descriptor
)

type form struct {
	mode   byte
	ext    int
	regged bool // the register ordinal goes in bits 4-2
}

// Mode and extension of each shape, narrow (16 bit) and wide (24 bit).
// Shapes without a 24-bit form repeat the narrow one.
var forms = [...][2]form{
	shapeRegister:        {{0x00, extNone, true}, {0x00, extNone, true}},
	shapeImmediate:       {{0x21, extWord, false}, {0x25, extLong, false}},
	shapeAbsolute:        {{0x29, extWord, false}, {0x2D, extLong, false}},
	shapeAbsIndexed:      {{0x3D, extLongIndex, false}, {0x3D, extLongIndex, false}},
	shapePCRel:           {{0x31, extWord, false}, {0x35, extLong, false}},
	shapeIndirectDisp:    {{0x01, extWord, true}, {0x01, extWord, true}},
	shapeIndirectIndexed: {{0x39, extRegIndex, false}, {0x39, extRegIndex, false}},
	shapePreDec:          {{0x22, extNone, true}, {0x22, extNone, true}},
	shapePostInc:         {{0x20, extNone, true}, {0x20, extNone, true}},
}

const (
	modeRegIndirect = 0x02
	modeSmallImm    = 0x03
	smallImmMax     = 0x0F
)

// Limits of a value in an operand. Values in the top 32K of the 24-bit
// space are 16-bit negatives sign extended.
const (
	valueMin = -0x8000
	valueMax = 0xFFFFFF
)

func inRange(v int32) bool {
	return v >= valueMin && v <= valueMax
}

func fits16(v int32) bool {
	return v < 0x8000 || v > 0xFF7FFF
}

func fitsSize(v int32, size Size) bool {
	switch size {
	case SizeByte:
		return v >= -0x80 && v <= 0xFF
	case SizeWord:
		return v >= -0x8000 && v <= 0xFFFF
	}
	return true
}

// ----------------
// Operand parsing
// ----------------

// Parse a value: an optional minus, then a constant or an identifier.
// first is the token already consumed.
func (st *asmState) parseValue(first *token, op *operand) error {
	tk := first
	negate := false
	if tk.kind() == tkMinus {
		negate = true
		tk = getToken(st.lx)
	}
	switch tk.kind() {
	case tkConstant:
		op.value = tk.value
	case tkIdent:
		op.value, op.forward, op.pending = st.symbolValue(tk)
	case tkError:
		return tokenError(tk)
	default:
		return newError(tk, SyntaxError, "expected constant or identifier, found %s", tk)
	}
	if negate {
		op.value = -op.value
	}
	return nil
}

// Parse one operand. Nothing is emitted; the operation size may not be
// known until the first operand has been seen.
func (st *asmState) parseOperand() (*operand, error) {
	tk := getToken(st.lx)
	op := &operand{tk: tk}
	switch tk.kind() {
	case tkReg8, tkReg16:
		op.shape = shapeRegister
		op.reg = registerOf(tk)
	case tkReg24:
		op.reg = registerOf(tk)
		return op, st.parseAfterPointer(op)
	case tkMinus:
		if st.lx.peek().kind() == tkReg24 {
			op.shape = shapePreDec
			op.reg = registerOf(getToken(st.lx))
			return op, nil
		}
		op.shape = shapeImmediate
		return op, st.parseValue(tk, op)
	case tkConstant, tkIdent:
		op.shape = shapeImmediate
		return op, st.parseValue(tk, op)
	case tkAt:
		return op, st.parseMemory(op)
	case tkError:
		return nil, tokenError(tk)
	default:
		return nil, newError(tk, SyntaxError, "expected operand, found %s", tk)
	}
	return op, nil
}

// P0, P0+, P0+n, P0-n, P0+W1
func (st *asmState) parseAfterPointer(op *operand) error {
	op.shape = shapeRegister
	switch st.lx.peek().kind() {
	case tkPlus:
		getToken(st.lx)
		next := st.lx.peek()
		if next.kind() == tkComma || next.startsStatement() {
			op.shape = shapePostInc
			return nil
		}
		if index, scaled, ok := indexByName(next); ok {
			getToken(st.lx)
			op.shape = shapeIndirectIndexed
			op.index, op.scaled = index, scaled
			return nil
		}
		op.shape = shapeIndirectDisp
		return st.parseValue(getToken(st.lx), op)
	case tkMinus:
		op.shape = shapeIndirectDisp
		return st.parseValue(getToken(st.lx), op)
	}
	return nil
}

// @n, @n+W1, @PGC, @PGC+n, @PGC-n
func (st *asmState) parseMemory(op *operand) error {
	tk := getToken(st.lx)
	if tk.kind() == tkPGC {
		op.shape = shapePCRel
		switch st.lx.peek().kind() {
		case tkPlus:
			getToken(st.lx)
			return st.parseValue(getToken(st.lx), op)
		case tkMinus:
			return st.parseValue(getToken(st.lx), op)
		}
		return nil
	}
	op.shape = shapeAbsolute
	if err := st.parseValue(tk, op); err != nil {
		return err
	}
	if st.lx.peek().kind() != tkPlus {
		return nil
	}
	getToken(st.lx)
	next := getToken(st.lx)
	index, scaled, ok := indexByName(next)
	if !ok {
		return newError(next, SyntaxError, "expected index register, found %s", next)
	}
	op.shape = shapeAbsIndexed
	op.index, op.scaled = index, scaled
	return nil
}

func tokenError(tk *token) error {
	if ce, ok := tk.err.(*ConstantError); ok {
		return &Error{Kind: ConstantDecodeError, Line: tk.line, Col: tk.col, Msg: ce.Error(), Err: ce}
	}
	return &Error{Kind: LexError, Line: tk.line, Col: tk.col, Msg: tk.err.Error(), Err: tk.err}
}

// ----------------
// Operand encoding
// ----------------

// Operation size when the opcode has no suffix: the first register
// direct operand decides, else the instruction default.
func inferSize(ins *instruction, ops ...*operand) Size {
	for _, op := range ops {
		if op != nil && op.shape == shapeRegister {
			return op.reg.class.size()
		}
	}
	return ins.size
}

// Emit the extension bytes of an operand and return its mode. The
// caller has already emitted the byte that will carry the mode.
func (st *asmState) encodeOperand(op *operand, size Size) (byte, error) {
	if err := st.checkOperand(op, size); err != nil {
		return 0, err
	}

	switch {
	case op.shape == shapeRegister && op.reg.class == class24 && size != SizePtr:
		return modeRegIndirect | op.reg.ord<<2, nil
	case op.shape == shapeImmediate && !op.forward && op.value >= 0 && op.value <= smallImmMax:
		return modeSmallImm | byte(op.value)<<2, nil
	}

	wide := op.forward || !fits16(op.value)
	f := forms[op.shape][0]
	if wide {
		f = forms[op.shape][1]
	}
	mode := f.mode
	if f.regged {
		mode |= op.reg.ord << 2
	}

	var ext []byte
	switch f.ext {
	case extWord:
		ext = binary.LittleEndian.AppendUint16(nil, uint16(op.value))
	case extLong:
		ext = append(long24(op.value), 0)
	case extLongIndex:
		ext = append(long24(op.value), op.index.descriptor(op.scaled))
	case extRegIndex:
		ext = []byte{op.reg.ord, op.index.descriptor(op.scaled)}
	}
	if err := st.emit(ext...); err != nil {
		return 0, err
	}
	return mode, nil
}

func long24(v int32) []byte {
	u := uint32(v) & 0xFFFFFF
	return []byte{byte(u), byte(u >> 8), byte(u >> 16)}
}

// Range and size checks. A value that is still pending has nothing to
// check; it is checked on the pass that resolves it.
func (st *asmState) checkOperand(op *operand, size Size) error {
	if op.shape == shapeRegister && op.reg.class != class24 && op.reg.class.size() != size {
		return newError(op.tk, OperandSizeMismatch, "register %s used with size %s", op.tk.text(), size)
	}
	if op.pending {
		return nil
	}
	switch op.shape {
	case shapeImmediate, shapeAbsolute, shapeAbsIndexed, shapePCRel:
		if !inRange(op.value) {
			return deferIf(op.forward, newError(op.tk, OperandRangeError,
				"value %d outside [%d, $%X]", op.value, valueMin, valueMax))
		}
	case shapeIndirectDisp:
		if !inRange(op.value) || !fits16(op.value) {
			return deferIf(op.forward, newError(op.tk, OperandRangeError,
				"displacement %d does not fit 16 bits", op.value))
		}
	}
	if op.shape == shapeImmediate && !fitsSize(op.value, size) {
		return deferIf(op.forward, newError(op.tk, OperandRangeError,
			"immediate %d does not fit size %s", op.value, size))
	}
	return nil
}
