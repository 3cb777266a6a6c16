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
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// ErrorKind classifies an assembly diagnostic.
type ErrorKind int

const (
	LexError ErrorKind = iota
	ConstantDecodeError
	OperandRangeError
	OperandSizeMismatch
	DirectiveArgumentError
	DuplicateLabelError
	BankNameError
	ConvergenceError
	SyntaxError
	AddressRangeError
)

var kindNames = []string{
	"lex error",
	"constant decode error",
	"operand range error",
	"operand size mismatch",
	"directive argument error",
	"duplicate label",
	"bank name error",
	"convergence error",
	"syntax error",
	"address range error",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return kindNames[k]
}

// Error is one diagnostic. Line and Col are 1-based; zero means the
// diagnostic is not tied to a source position.
type Error struct {
	Kind ErrorKind
	Line int
	Col  int
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("line %d:%d: %s: %s", e.Line, e.Col, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err, or any error combined into it, is an
// *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	for _, e := range multierr.Errors(err) {
		var ae *Error
		if errors.As(e, &ae) && ae.Kind == kind {
			return true
		}
	}
	return false
}

// ConstKind is the reason a numeral failed to decode.
type ConstKind int

const (
	InvalidPrefix ConstKind = iota
	InvalidDigits
)

// ConstantError is returned by the constant decoder.
type ConstantError struct {
	Kind ConstKind
	Text string
}

func (ce *ConstantError) Error() string {
	switch ce.Kind {
	case InvalidPrefix:
		return fmt.Sprintf("\"%s\": invalid numeric prefix", ce.Text)
	default:
		return fmt.Sprintf("\"%s\": invalid digits", ce.Text)
	}
}

// MaxErrorText bounds the text returned by LastError.
const MaxErrorText = 4096

func errorText(err error) string {
	var b strings.Builder
	for i, e := range multierr.Errors(err) {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Error())
	}
	s := b.String()
	if len(s) > MaxErrorText {
		s = s[:MaxErrorText]
	}
	return s
}
