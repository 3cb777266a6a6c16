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

	"github.com/golang/glog"
)

// We must get a constant token.
func mustGetConstant(st *asmState, directive *token) (*token, int32, error) {
	tk := getToken(st.lx)
	switch tk.kind() {
	case tkConstant:
		return tk, tk.value, nil
	case tkError:
		return tk, 0, tokenError(tk)
	}
	return tk, 0, newError(tk, DirectiveArgumentError, "%s: expected constant, found %s",
		strings.ToLower(directive.text()), tk)
}

// We must get a constant, possibly preceded by a minus sign.
func mustGetSignedConstant(st *asmState, directive *token) (*token, int32, error) {
	if st.lx.peek().kind() != tkMinus {
		return mustGetConstant(st, directive)
	}
	getToken(st.lx)
	tk, val, err := mustGetConstant(st, directive)
	return tk, -val, err
}

// We must get a string no longer than max bytes.
func mustGetString(st *asmState, directive *token, max int) (string, error) {
	tk := getToken(st.lx)
	name := strings.ToLower(directive.text())
	switch tk.kind() {
	case tkString:
	case tkError:
		return "", tokenError(tk)
	default:
		return "", newError(tk, DirectiveArgumentError, "%s: expected string, found %s", name, tk)
	}
	s := tk.stringValue()
	if len(s) > max {
		return "", newError(tk, DirectiveArgumentError, "%s: string is %d bytes, limit is %d",
			name, len(s), max)
	}
	return s, nil
}

// A statement is complete; the next token must begin another one.
// The offending token is left for skipStatement.
func expectStatementEnd(st *asmState, what string) error {
	tk := st.lx.peek()
	if tk.startsStatement() {
		return nil
	}
	if tk.kind() == tkError {
		return tokenError(tk)
	}
	return newError(tk, SyntaxError, "unexpected %s after %s", tk, what)
}

// Error recovery: discard tokens up to the start of the next
// statement.
func skipStatement(st *asmState) {
	for !st.lx.peek().startsStatement() {
		getToken(st.lx)
	}
}

// A label definition. On the first pass the label gets the value of
// the program counter; on later passes the value must come out the
// same or the code before it changed size.
func defineLabel(st *asmState, tk *token) error {
	name := tk.text()
	if _, isReg := registerByName(name); isReg || strings.EqualFold(name, "PGC") {
		return newError(tk, SyntaxError, "register name %s used as a label", name)
	}
	pgc := st.pgc()
	sym, _ := st.symbols.defineOrGet(name)
	if st.pass > 0 {
		if sym.Kind == SymLabel && sym.Value != pgc {
			return deferredError{newError(tk, ConvergenceError,
				"label %s moved from $%06X to $%06X", name, sym.Value, pgc)}
		}
		return nil
	}
	if sym.Resolved {
		if sym.Kind == SymDefine {
			return newError(tk, DuplicateLabelError, "label %s already defined by .define on line %d",
				name, sym.Line)
		}
		return newError(tk, DuplicateLabelError, "duplicate label %s (first defined on line %d)",
			name, sym.Line)
	}
	st.symbols.resolve(sym, pgc)
	sym.Kind = SymLabel
	sym.Line = tk.line
	st.newlyResolved++
	glog.V(2).Infof("pass %d: label %s = $%06X", st.pass, name, pgc)
	return nil
}

// An opcode starts the statement. Parse the operands, settle the
// operation size, then emit the instruction. The mode bytes are
// patched in after each operand's extension bytes are emitted.
func doInstruction(st *asmState, tk *token) error {
	ins, size, ok := lookupInstruction(tk.text())
	if !ok {
		return newError(tk, SyntaxError, "unknown instruction %s", tk.text())
	}

	if ins.operands == 0 {
		if size != SizeNone {
			return newError(tk, OperandSizeMismatch, "%s takes no size", ins.name)
		}
		if err := st.emit(ins.code, 0); err != nil {
			return err
		}
		return expectStatementEnd(st, ins.name)
	}

	a, err := st.parseOperand()
	if err != nil {
		return err
	}
	var b *operand
	if ins.operands == 2 {
		comma := getToken(st.lx)
		if comma.kind() != tkComma {
			return newError(comma, SyntaxError, "%s: expected comma, found %s", ins.name, comma)
		}
		if b, err = st.parseOperand(); err != nil {
			return err
		}
	}

	if size == SizeNone {
		size = inferSize(ins, a, b)
	}
	if !ins.allows(size) {
		return newError(tk, OperandSizeMismatch, "%s does not take size %s", ins.name, size)
	}

	start := st.active.pgc
	if err := st.emit(ins.code, 0); err != nil {
		return err
	}
	mode, err := st.encodeOperand(a, size)
	if err != nil {
		return err
	}
	st.patch(start+1, byte(size)<<sizeShift|mode)

	if b != nil {
		at := st.active.pgc
		if err := st.emit(0); err != nil {
			return err
		}
		if mode, err = st.encodeOperand(b, size); err != nil {
			return err
		}
		st.patch(at, mode)
	}
	return expectStatementEnd(st, ins.name)
}
