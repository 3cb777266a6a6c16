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

	"github.com/golang/glog"
	"github.com/k0kubun/pp/v3"
	"go.uber.org/multierr"
)

// MaxPasses bounds the number of passes over the source.
const MaxPasses = 8

type passState int

const (
	stateScanning passState = iota
	stateNeedsAnotherPass
	stateDone
	stateFailed
)

var passStateNames = []string{"scanning", "needs another pass", "done", "failed"}

func (ps passState) String() string {
	return passStateNames[ps]
}

var dumper = func() *pp.PrettyPrinter {
	p := pp.New()
	p.SetColoringEnabled(false)
	return p
}()

// Assemble translates source into bank images. On success the results
// replace those of any earlier call. On failure the diagnostics are
// returned, and also kept for LastError, and no bank is available.
func (a *Assembler) Assemble(source string) error {
	st := newAsmState(source)
	state := stateScanning
	pass := 0
	for ; pass < MaxPasses; pass++ {
		st.beginPass(pass)
		glog.V(1).Infof("pass %d: begin", pass)
		scan(st)
		state = st.endPass()
		glog.V(1).Infof("pass %d: %s (%d new references, %d resolved)",
			pass, state, st.newForwardRefs, st.newlyResolved)
		if glog.V(3) {
			glog.Infof("symbols after pass %d:\n%s", pass, dumper.Sprint(st.symbols.list()))
		}
		if state != stateNeedsAnotherPass {
			break
		}
	}
	if state == stateNeedsAnotherPass {
		st.errs = multierr.Append(st.errs, convergenceError(st, "no convergence after %d passes", MaxPasses))
		state = stateFailed
		pass--
	}

	a.passes = pass + 1
	if state == stateFailed {
		a.banks = [numBanks]*bank{}
		a.symbols = nil
		a.title, a.author = "", ""
		a.lastErr = st.errs
		return st.errs
	}
	a.banks = st.banks
	a.symbols = st.symbols.list()
	a.title, a.author = st.title, st.author
	a.lastErr = nil
	return nil
}

// Scan the source once, statement by statement.
func scan(st *asmState) {
	for {
		tk := getToken(st.lx)
		var err error
		switch tk.kind() {
		case tkEnd:
			return
		case tkLabel:
			err = defineLabel(st, tk)
		case tkDirective:
			err = doDirective(st, tk)
			if err == nil {
				err = expectStatementEnd(st, strings.ToLower(tk.text()))
			}
		case tkOpcode:
			err = doInstruction(st, tk)
		case tkError:
			err = tokenError(tk)
		default:
			err = newError(tk, SyntaxError, "expected label, directive or instruction, found %s", tk)
		}
		if err != nil {
			st.report(err)
			skipStatement(st)
		}
	}
}

// Decide what follows a pass.
func (st *asmState) endPass() passState {
	switch {
	case st.errs != nil:
		return stateFailed
	case st.symbols.allResolved() && st.newForwardRefs == 0 && !st.needsPass:
		return stateDone
	case st.newlyResolved == 0 && st.newForwardRefs == 0:
		st.errs = multierr.Append(st.errs, convergenceError(st, "no progress on pass %d", st.pass))
		return stateFailed
	}
	return stateNeedsAnotherPass
}

func convergenceError(st *asmState, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if names := st.symbols.unresolved(); len(names) > 0 {
		msg = fmt.Sprintf("%s: undefined: %s", msg, strings.Join(names, ", "))
	}
	return &Error{Kind: ConvergenceError, Msg: msg}
}
