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
)

// The banks are mapped at the top of the 24-bit address space. Each
// bank grows downward from AddressTop in units of BankUnit bytes.
const AddressTop = 0x1000000
const BankUnit = 0x10000
const InitialBase = AddressTop - BankUnit // 0xFF0000

// Header fields live in the last 256 bytes of the ROM bank.
const titleOffset = 0x100 // from the top of the ROM bank
const authorOffset = 0x80 // from the top of the ROM bank
const TitleMax = 127
const AuthorMax = 95

// The header block holds both fields; the bytes above it are free.
const headerStart = AddressTop - titleOffset
const headerEnd = AddressTop - authorOffset + AuthorMax + 1
const headerSize = headerEnd - headerStart

// BankID names one of the independently addressed memories.
type BankID int

const (
	BankROM BankID = iota
	BankCS1
	BankCS2
	numBanks
)

var bankNames = []string{"ROM", "CS1", "CS2"}

func (id BankID) String() string {
	if id < 0 || id >= numBanks {
		return fmt.Sprintf("BankID(%d)", int(id))
	}
	return bankNames[id]
}

func bankByName(name string) (BankID, bool) {
	for i, n := range bankNames {
		if strings.EqualFold(n, name) {
			return BankID(i), true
		}
	}
	return 0, false
}

type bank struct {
	id      BankID
	mem     []byte
	base    uint32 // address of mem[0]
	pgc     uint32
	touched bool // something was emitted into this bank
	low     uint32
	high    uint32 // emitted range is [low, high)
}

func newBank(id BankID) *bank {
	return &bank{
		id:   id,
		mem:  reallocate(nil, BankUnit),
		base: InitialBase,
		pgc:  InitialBase,
	}
}

// Grow or shrink a buffer that is anchored at its top end, so old
// contents keep their addresses. A nil buffer allocates; zero size frees.
func reallocate(old []byte, newSize int) []byte {
	if newSize == 0 {
		return nil
	}
	buf := make([]byte, newSize)
	if n := len(old); n > 0 {
		if n > newSize {
			old = old[n-newSize:]
			n = newSize
		}
		copy(buf[newSize-n:], old)
	}
	return buf
}

func (b *bank) units() int {
	return len(b.mem) / BankUnit
}

// Grow the bank downward so that addr is inside it. The bank never
// shrinks.
func (b *bank) allocateToCover(addr uint32) {
	if addr >= b.base {
		return
	}
	units := (AddressTop - (addr &^ (BankUnit - 1))) >> 16
	newSize := int(units) << 16
	glog.V(2).Infof("bank %s: grow from %d to %d units", b.id, b.units(), units)
	b.mem = reallocate(b.mem, newSize)
	b.base = uint32(AddressTop - newSize)
}

// Map an address to a buffer offset. An address outside the buffer is
// an internal error; callers check user supplied addresses first.
func (b *bank) offset(addr uint32) int {
	if addr < b.base || addr >= AddressTop {
		panic(fmt.Sprintf("bank %s: address $%06X outside [$%06X, $%06X)",
			b.id, addr, b.base, AddressTop))
	}
	return int(addr - b.base)
}

func (b *bank) writeAt(addr uint32, data ...byte) {
	if len(data) == 0 {
		return
	}
	start := b.offset(addr)
	b.offset(addr + uint32(len(data)) - 1)
	copy(b.mem[start:], data)
}

func (b *bank) readAt(addr uint32, n int) []byte {
	start := b.offset(addr)
	if n > 0 {
		b.offset(addr + uint32(n) - 1)
	}
	return b.mem[start : start+n]
}

// Record an emission at [addr, addr+n) for the listing.
func (b *bank) mark(addr uint32, n int) {
	end := addr + uint32(n)
	if !b.touched {
		b.low, b.high = addr, end
		b.touched = true
		return
	}
	if addr < b.low {
		b.low = addr
	}
	if end > b.high {
		b.high = end
	}
}
