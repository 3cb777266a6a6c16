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

// -------
// Symbols
// -------

// SymbolKind records how a symbol was defined.
type SymbolKind int

const (
	SymUnknown SymbolKind = iota // referenced, not yet defined
	SymLabel
	SymDefine
)

func (k SymbolKind) String() string {
	switch k {
	case SymLabel:
		return "label"
	case SymDefine:
		return "define"
	}
	return "unknown"
}

// Symbol is a named value. Once Resolved is set, Value does not change
// for the rest of the assembly.
type Symbol struct {
	Name     string
	Value    int32
	Resolved bool
	Kind     SymbolKind
	Line     int // line of the definition, 0 if undefined

	// Set when the first occurrence was a reference made before the
	// symbol had a value. References to forward symbols are always
	// encoded at full width so that code size does not change from
	// one pass to the next.
	forward bool
}

// ------------
// Symbol table
// ------------

// Symbols are allocated sequentially and found by name through the
// index map, so iteration follows insertion order.
type symbolTable struct {
	indexes map[string]int
	entries []*Symbol
}

func newSymbolTable() *symbolTable {
	return &symbolTable{
		indexes: make(map[string]int),
		entries: make([]*Symbol, 0, 64),
	}
}

func (st *symbolTable) lookup(name string) (*Symbol, bool) {
	if index, ok := st.indexes[name]; ok {
		return st.entries[index], true
	}
	return nil, false
}

// Return the named symbol, creating an unresolved entry if there is
// none. The second result is true if the entry was created.
func (st *symbolTable) defineOrGet(name string) (*Symbol, bool) {
	if sym, ok := st.lookup(name); ok {
		return sym, false
	}
	sym := &Symbol{Name: name}
	st.indexes[name] = len(st.entries)
	st.entries = append(st.entries, sym)
	return sym, true
}

func (st *symbolTable) resolve(sym *Symbol, value int32) {
	sym.Value = value
	sym.Resolved = true
}

func (st *symbolTable) allResolved() bool {
	for _, sym := range st.entries {
		if !sym.Resolved {
			return false
		}
	}
	return true
}

func (st *symbolTable) unresolved() []string {
	var names []string
	for _, sym := range st.entries {
		if !sym.Resolved {
			names = append(names, sym.Name)
		}
	}
	return names
}

func (st *symbolTable) list() []Symbol {
	result := make([]Symbol, len(st.entries))
	for i, sym := range st.entries {
		result[i] = *sym
	}
	return result
}
