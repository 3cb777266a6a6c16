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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbols1(t *testing.T) {
	st := newSymbolTable()
	_, ok := st.lookup("start")
	assert.False(t, ok)

	sym, created := st.defineOrGet("start")
	assert.True(t, created)
	assert.False(t, sym.Resolved)

	again, created := st.defineOrGet("start")
	assert.False(t, created)
	assert.Same(t, sym, again)

	st.resolve(sym, 0xFF0000)
	found, ok := st.lookup("start")
	assert.True(t, ok)
	assert.True(t, found.Resolved)
	assert.Equal(t, int32(0xFF0000), found.Value)
}

func TestSymbols2(t *testing.T) {
	st := newSymbolTable()
	for _, name := range []string{"c", "a", "b"} {
		st.defineOrGet(name)
	}
	b, _ := st.lookup("b")
	st.resolve(b, 1)

	assert.False(t, st.allResolved())
	assert.Equal(t, []string{"c", "a"}, st.unresolved())

	list := st.list()
	assert.Equal(t, 3, len(list))
	assert.Equal(t, "c", list[0].Name)
	assert.Equal(t, "b", list[2].Name)
	assert.True(t, list[2].Resolved)

	for _, name := range st.unresolved() {
		sym, _ := st.lookup(name)
		st.resolve(sym, 0)
	}
	assert.True(t, st.allResolved())
}

func TestSymbolsCaseSensitive(t *testing.T) {
	st := newSymbolTable()
	st.defineOrGet("Loop")
	_, ok := st.lookup("loop")
	assert.False(t, ok)
}
