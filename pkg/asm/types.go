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

	"go.uber.org/multierr"
)

// ---------------------------
// State of one assembly job.
// ---------------------------

// Everything an assembly touches hangs off this struct. A new one is
// made for each call to Assemble and nothing outlives the call except
// what is copied into the Assembler on success.
type asmState struct {
	lx      *lexer
	symbols *symbolTable
	banks   [numBanks]*bank
	active  *bank
	title   string
	author  string
	pass    int
	errs    error

	// Reset at the start of each pass
	newForwardRefs int  // symbols created by a reference
	newlyResolved  int  // symbols given a value for the first time
	needsPass      bool // a placeholder was emitted
	header         [headerSize]headerUse
}

// What each byte of the ROM header block was written by. Code and
// header fields may not share a byte.
type headerUse byte

const (
	headerFree headerUse = iota
	headerCode
	headerField
)

var headerUseNames = []string{"", "code", "a header field"}

// Claim the header block bytes in [addr, addr+n) of the ROM bank for
// use. Bytes outside the block are ignored.
func (st *asmState) claimHeader(addr uint32, n int, use headerUse) error {
	for i := 0; i < n; i++ {
		a := addr + uint32(i)
		if a < headerStart || a >= headerEnd {
			continue
		}
		prev := &st.header[a-headerStart]
		if *prev != headerFree && *prev != use {
			return &Error{Kind: AddressRangeError,
				Msg: fmt.Sprintf("$%06X: %s overlaps %s", a, headerUseNames[use], headerUseNames[*prev])}
		}
		*prev = use
	}
	return nil
}

func newAsmState(source string) *asmState {
	st := &asmState{
		lx:      newLexer(source),
		symbols: newSymbolTable(),
	}
	for id := BankROM; id < numBanks; id++ {
		st.banks[id] = newBank(id)
	}
	st.active = st.banks[BankROM]
	return st
}

func (st *asmState) beginPass(pass int) {
	st.pass = pass
	st.lx.reset()
	for _, b := range st.banks {
		b.pgc = InitialBase
	}
	st.active = st.banks[BankROM]
	st.newForwardRefs = 0
	st.newlyResolved = 0
	st.needsPass = false
	st.header = [headerSize]headerUse{}
}

// Make a diagnostic positioned at tk.
func newError(tk *token, kind ErrorKind, format string, args ...any) *Error {
	e := &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
	if tk != nil {
		e.Line, e.Col = tk.line, tk.col
	}
	return e
}

// A diagnostic that depends on the value of a forward referenced
// symbol. Such a check cannot be made on the first pass, so it is
// reported on whichever pass first has the value.
type deferredError struct {
	e *Error
}

func (de deferredError) Error() string {
	return de.e.Error()
}

func (de deferredError) Unwrap() error {
	return de.e
}

func deferIf(forward bool, e *Error) error {
	if forward {
		return deferredError{e}
	}
	return e
}

// Record a diagnostic. Passes after the first only repeat checks that
// were already made, so their diagnostics are dropped unless deferred.
func (st *asmState) report(err error) {
	var e *Error
	switch v := err.(type) {
	case deferredError:
		e = v.e
	case *Error:
		if st.pass > 0 {
			return
		}
		e = v
	default:
		if st.pass > 0 {
			return
		}
		e = &Error{Kind: SyntaxError, Msg: err.Error()}
	}
	st.errs = multierr.Append(st.errs, e)
}

// ------------------
// Emitting
// ------------------

// Write bytes at the active program counter and advance it.
func (st *asmState) emit(data ...byte) error {
	b := st.active
	if uint64(b.pgc)+uint64(len(data)) > AddressTop {
		return &Error{Kind: AddressRangeError,
			Msg: fmt.Sprintf("bank %s: program counter passes $FFFFFF", b.id)}
	}
	if b.id == BankROM {
		if err := st.claimHeader(b.pgc, len(data), headerCode); err != nil {
			return err
		}
	}
	b.writeAt(b.pgc, data...)
	b.mark(b.pgc, len(data))
	b.pgc += uint32(len(data))
	return nil
}

// Overwrite a byte that was already emitted.
func (st *asmState) patch(addr uint32, value byte) {
	st.active.writeAt(addr, value)
}

func (st *asmState) pgc() int32 {
	return int32(st.active.pgc)
}

// Look up the value of a symbol used as an operand. The symbol is
// created if this is its first occurrence. pending is true if it has
// no value yet, in which case the caller emits a placeholder.
func (st *asmState) symbolValue(tk *token) (value int32, forward bool, pending bool) {
	sym, created := st.symbols.defineOrGet(tk.text())
	if created {
		sym.forward = true
		st.newForwardRefs++
	}
	if !sym.Resolved {
		st.needsPass = true
		return 0, true, true
	}
	return sym.Value, sym.forward, false
}

// ------------------
// Results
// ------------------

// Assembler turns Pilot source into bank images. The zero value is
// ready to use. Results of the most recent successful Assemble call
// are available through the accessors.
type Assembler struct {
	banks   [numBanks]*bank
	symbols []Symbol
	title   string
	author  string
	passes  int
	lastErr error
}

func New() *Assembler {
	return &Assembler{}
}

// LastError returns the diagnostics of the last failed assembly, one
// per line, or "" after a success.
func (a *Assembler) LastError() string {
	if a.lastErr == nil {
		return ""
	}
	return errorText(a.lastErr)
}

// ROM returns the ROM bank image. Its last byte is address $FFFFFF.
func (a *Assembler) ROM() []byte {
	return a.Bank(BankROM)
}

func (a *Assembler) Bank(id BankID) []byte {
	if id < 0 || id >= numBanks || a.banks[id] == nil {
		return nil
	}
	return a.banks[id].mem
}

// Base returns the address of the first byte of a bank image.
func (a *Assembler) Base(id BankID) uint32 {
	if id < 0 || id >= numBanks || a.banks[id] == nil {
		return AddressTop
	}
	return a.banks[id].base
}

// Used reports whether anything was emitted into the bank.
func (a *Assembler) Used(id BankID) bool {
	return id >= 0 && id < numBanks && a.banks[id] != nil && a.banks[id].touched
}

// Extent returns the lowest and one past the highest address emitted
// into the bank.
func (a *Assembler) Extent(id BankID) (uint32, uint32) {
	if !a.Used(id) {
		return 0, 0
	}
	return a.banks[id].low, a.banks[id].high
}

func (a *Assembler) Title() string {
	return a.title
}

func (a *Assembler) Author() string {
	return a.author
}

// Symbols returns the symbol table in definition order.
func (a *Assembler) Symbols() []Symbol {
	return a.symbols
}

// Passes returns the number of passes the last assembly took.
func (a *Assembler) Passes() int {
	return a.passes
}
