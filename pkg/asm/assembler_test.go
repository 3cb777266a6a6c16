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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

const program = `
; blink the light
	.HXH_TITLE "Blink"
	.DEFINE LIGHT $4000
start:
	MOV.B L0, 1
loop:
	MOV.B @LIGHT, L0
	CALL @wait
	JMP @loop
wait:
	MOV W1, $1000
spin:
	DEC W1
	JNZ @PGC-4
	RET
`

func TestAssemble1(t *testing.T) {
	a := New()
	require.NoError(t, a.Assemble(program))
	assert.Equal(t, 2, a.Passes())
	assert.Equal(t, "Blink", a.Title())
	assert.Equal(t, "", a.LastError())

	values := map[string]int32{}
	for _, sym := range a.Symbols() {
		assert.True(t, sym.Resolved, sym.Name)
		values[sym.Name] = sym.Value
	}
	assert.Equal(t, int32(0x4000), values["LIGHT"])
	assert.Equal(t, int32(0xFF0000), values["start"])
	assert.Equal(t, int32(0xFF0003), values["loop"])
	// MOV.B @LIGHT, L0 is 5 bytes, CALL @wait and JMP @loop 6 each
	assert.Equal(t, int32(0xFF0014), values["wait"])
	assert.Equal(t, int32(0xFF0019), values["spin"])

	rom := a.ROM()
	assert.Equal(t, []byte{0x31, 0xAD, 0x14, 0x00, 0xFF, 0x00}, rom[8:14])
	assert.Equal(t, []byte{0x30, 0xAD, 0x03, 0x00, 0xFF, 0x00}, rom[14:20])
	assert.Equal(t, []byte{0x33, 0xB1, 0xFC, 0xFF, 0x02, 0x00}, rom[0x1B:0x21])
}

func TestAssembleForward(t *testing.T) {
	a := New()
	require.NoError(t, a.Assemble("JMP @target\nNOP\ntarget: NOP\n"))
	assert.Equal(t, 2, a.Passes())
	assert.Equal(t, []byte{0x30, 0xAD, 0x08, 0x00, 0xFF, 0x00, 0, 0, 0, 0}, a.ROM()[:10])
}

func TestAssembleBackward(t *testing.T) {
	a := New()
	require.NoError(t, a.Assemble(".DEFINE VAL $1234\nMOV W0, VAL\n"))
	assert.Equal(t, 1, a.Passes())
	assert.Equal(t, []byte{0x10, 0x40, 0x21, 0x34, 0x12}, a.ROM()[:5])
}

// A forward reference is encoded at full width even when the value
// turns out to be small, so code does not move between passes.
func TestAssembleForwardWidth(t *testing.T) {
	assert.Equal(t, []byte{0x10, 0x40, 0x25, 0x34, 0x12, 0x00, 0x00},
		emitted(t, "MOV W0, VAL\n.DEFINE VAL $1234\n"))
	assert.Equal(t, []byte{0x10, 0x40, 0x25, 0x05, 0x00, 0x00, 0x00},
		emitted(t, "MOV W0, FIVE\n.DEFINE FIVE 5\n"))
	assert.Equal(t, []byte{7}, emitted(t, ".DB X\n.DEFINE X 7\n"))
}

func TestAssembleEmpty(t *testing.T) {
	a := New()
	require.NoError(t, a.Assemble(""))
	assert.Equal(t, 1, a.Passes())
	assert.Equal(t, BankUnit, len(a.ROM()))
	assert.False(t, a.Used(BankROM))
}

func TestAssembleUndefined(t *testing.T) {
	a := New()
	err := a.Assemble("JMP @nowhere\n")
	assert.True(t, IsKind(err, ConvergenceError))
	assert.Contains(t, a.LastError(), "nowhere")
	assert.Equal(t, 2, a.Passes())
	assert.Nil(t, a.ROM())
	assert.Nil(t, a.Symbols())
}

func TestAssembleDeferredRange(t *testing.T) {
	a := New()
	err := a.Assemble("MOV.B L0, BIG\n.DEFINE BIG $100\n")
	assert.True(t, IsKind(err, OperandRangeError))
	assert.Equal(t, 2, a.Passes())
	assert.Equal(t, 1, len(multierr.Errors(err)))
	assert.True(t, strings.HasPrefix(a.LastError(), "line 1:"), a.LastError())
}

func TestAssembleDuplicate(t *testing.T) {
	a := New()
	err := a.Assemble("a: NOP\na: NOP\n")
	assert.True(t, IsKind(err, DuplicateLabelError))
	assert.Contains(t, a.LastError(), "first defined on line 1")
	assert.Equal(t, 1, a.Passes())

	err = New().Assemble(".DEFINE a 1\na: NOP\n")
	assert.True(t, IsKind(err, DuplicateLabelError))
	err = New().Assemble("W0: NOP\n")
	assert.True(t, IsKind(err, SyntaxError))
}

// After an error the scanner picks up at the next statement, so one
// run reports every bad statement.
func TestAssembleRecovery(t *testing.T) {
	a := New()
	err := a.Assemble("MOV.B W0, W1\n.BANK XYZ\nNOP\n?\nMOV W0 W1\nHALT\n")
	errs := multierr.Errors(err)
	require.Equal(t, 4, len(errs))
	assert.True(t, IsKind(errs[0], OperandSizeMismatch))
	assert.True(t, IsKind(errs[1], BankNameError))
	assert.True(t, IsKind(errs[2], LexError))
	assert.True(t, IsKind(errs[3], SyntaxError))
	assert.Equal(t, 4, len(strings.Split(a.LastError(), "\n")))
}

func TestAssembleRepeatable(t *testing.T) {
	first := New()
	second := New()
	require.NoError(t, first.Assemble(program))
	require.NoError(t, second.Assemble(program))
	assert.Equal(t, first.ROM(), second.ROM())

	rom := first.ROM()
	require.NoError(t, first.Assemble(program))
	assert.Equal(t, rom, first.ROM())
}

func TestAssembleFailureClearsResults(t *testing.T) {
	a := New()
	require.NoError(t, a.Assemble(program))
	assert.NotNil(t, a.ROM())
	assert.Error(t, a.Assemble(".BANK NONE"))
	assert.Nil(t, a.ROM())
	assert.Equal(t, "", a.Title())
	require.NoError(t, a.Assemble("NOP"))
	assert.Equal(t, "", a.LastError())
}

func TestPassState(t *testing.T) {
	st := newAsmState("")
	st.beginPass(0)
	assert.Equal(t, stateDone, st.endPass())

	st.symbols.defineOrGet("x")
	st.newForwardRefs = 1
	assert.Equal(t, stateNeedsAnotherPass, st.endPass())

	st.beginPass(1)
	assert.Equal(t, stateFailed, st.endPass())
	assert.True(t, IsKind(st.errs, ConvergenceError))
}
