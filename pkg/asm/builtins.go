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

type actionFunc func(st *asmState, directive *token) error

// Directives, by upper case name. Directive names are not case
// sensitive.
var builtins = map[string]actionFunc{
	".ORG":        actionOrg,
	".BANK":       actionBank,
	".HXH_TITLE":  actionTitle,
	".HXH_AUTHOR": actionAuthor,
	".DEFINE":     actionDefine,
	".DB":         actionDb,
}

func doDirective(st *asmState, tk *token) error {
	action, ok := builtins[strings.ToUpper(tk.text())]
	if !ok {
		return newError(tk, DirectiveArgumentError, "unknown directive %s", tk.text())
	}
	return action(st, tk)
}

const orgMin = 0x010000
const orgMax = 0xFFFFFF

// action func for .org. Set the program counter of the active bank,
// growing the bank down to cover it.
func actionOrg(st *asmState, directive *token) error {
	arg, val, err := mustGetConstant(st, directive)
	if err != nil {
		return err
	}
	if val < orgMin || val > orgMax {
		return newError(arg, DirectiveArgumentError,
			".org: address $%X outside [$%06X, $%06X]", val, orgMin, orgMax)
	}
	st.active.allocateToCover(uint32(val))
	st.active.pgc = uint32(val)
	return nil
}

// action func for .bank. Select the bank subsequent code goes into.
func actionBank(st *asmState, directive *token) error {
	name := getToken(st.lx)
	if name.kind() != tkIdent {
		return newError(name, BankNameError, ".bank: expected ROM, CS1 or CS2, found %s", name)
	}
	id, ok := bankByName(name.text())
	if !ok {
		return newError(name, BankNameError, ".bank: unknown bank %s", name.text())
	}
	st.active = st.banks[id]
	return nil
}

func actionTitle(st *asmState, directive *token) error {
	s, err := mustGetString(st, directive, TitleMax)
	if err != nil {
		return err
	}
	st.title = s
	return writeHeaderField(st, directive, titleOffset, titleOffset-authorOffset, s)
}

func actionAuthor(st *asmState, directive *token) error {
	s, err := mustGetString(st, directive, AuthorMax)
	if err != nil {
		return err
	}
	st.author = s
	return writeHeaderField(st, directive, authorOffset, AuthorMax+1, s)
}

// Header fields are at fixed offsets below the top of the ROM bank,
// which always holds them. The whole field is claimed, not just the
// bytes of the string.
func writeHeaderField(st *asmState, directive *token, offset uint32, size int, s string) error {
	addr := uint32(AddressTop - offset)
	if err := st.claimHeader(addr, size, headerField); err != nil {
		return newError(directive, AddressRangeError, "%s: %s", directive.text(), err.(*Error).Msg)
	}
	field := make([]byte, size)
	copy(field, s)
	st.banks[BankROM].writeAt(addr, field...)
	return nil
}

// action func for .define. A definition may be repeated with the same
// value, which is what happens on every pass after the first.
func actionDefine(st *asmState, directive *token) error {
	name := getToken(st.lx)
	if name.kind() != tkIdent {
		return newError(name, DirectiveArgumentError, ".define: expected identifier, found %s", name)
	}
	_, val, err := mustGetSignedConstant(st, directive)
	if err != nil {
		return err
	}
	sym, _ := st.symbols.defineOrGet(name.text())
	if sym.Resolved {
		if sym.Kind == SymLabel {
			return newError(name, DirectiveArgumentError, ".define: %s is a label (line %d)", sym.Name, sym.Line)
		}
		if sym.Value != val {
			return newError(name, DirectiveArgumentError,
				".define: %s redefined as %d (was %d)", sym.Name, val, sym.Value)
		}
		return nil
	}
	st.symbols.resolve(sym, val)
	sym.Kind = SymDefine
	sym.Line = name.line
	st.newlyResolved++
	glog.V(2).Infof("pass %d: define %s = $%X", st.pass, sym.Name, val)
	return nil
}

const byteMin = -0x80
const byteMax = 0xFF

// action func for .db. Every item is checked before any byte is
// written.
func actionDb(st *asmState, directive *token) error {
	var data []byte
	for {
		tk := getToken(st.lx)
		op := &operand{tk: tk}
		if tk.kind() == tkString {
			return newError(tk, DirectiveArgumentError, ".db: strings are not allowed")
		}
		if err := st.parseValue(tk, op); err != nil {
			return err
		}
		if !op.pending && (op.value < byteMin || op.value > byteMax) {
			return deferIf(op.forward, newError(tk, DirectiveArgumentError,
				".db: %d does not fit a byte", op.value))
		}
		data = append(data, byte(op.value))
		if st.lx.peek().kind() != tkComma {
			break
		}
		getToken(st.lx)
	}
	return st.emit(data...)
}
