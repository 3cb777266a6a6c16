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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const BYTES_PER_LINE = 16

// Write the listing of a successful run of the assembler: the symbol
// table sorted by name, then a summary of each bank that was used,
// and optionally a hex dump of what was emitted.
func WriteResults(w io.Writer, a *Assembler, dump bool) error {
	bw := bufio.NewWriter(w)
	writeSymbols(bw, a.Symbols())
	if a.Title() != "" || a.Author() != "" {
		fmt.Fprintf(bw, "\nTitle  %q\nAuthor %q\n", a.Title(), a.Author())
	}
	for id := BankROM; id < numBanks; id++ {
		if !a.Used(id) {
			continue
		}
		low, high := a.Extent(id)
		fmt.Fprintf(bw, "\nBank %s: base $%06X, %d bytes, emitted $%06X-$%06X\n",
			id, a.Base(id), len(a.Bank(id)), low, high-1)
		if dump {
			dumpBytes(bw, a.Bank(id), a.Base(id), low, high)
		}
	}
	return bw.Flush()
}

func writeSymbols(w io.Writer, symbols []Symbol) {
	sorted := make([]Symbol, len(symbols))
	copy(sorted, symbols)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	fmt.Fprintf(w, "%-16s %-8s %-6s %s\n", "SYMBOL", "VALUE", "KIND", "LINE")
	for _, sym := range sorted {
		fmt.Fprintf(w, "%-16s $%06X  %-6s %d\n", sym.Name, uint32(sym.Value)&0xFFFFFF, sym.Kind, sym.Line)
	}
}

// Dump mem, whose first byte is at base, over [low, high). Lines that
// are entirely zero are left out.
func dumpBytes(w io.Writer, mem []byte, base uint32, low uint32, high uint32) {
	fmt.Fprintf(w, "ADDR    DATA\n")
	for addr := low &^ (BYTES_PER_LINE - 1); addr < high; addr += BYTES_PER_LINE {
		line := mem[addr-base:]
		if len(line) > BYTES_PER_LINE {
			line = line[:BYTES_PER_LINE]
		}
		printThisLine := false
		for _, b := range line {
			if b != 0 {
				printThisLine = true
				break
			}
		}
		if !printThisLine {
			continue
		}
		fmt.Fprintf(w, "$%06X ", addr)
		for n, b := range line {
			fmt.Fprintf(w, "%02X", b)
			if n != len(line)-1 {
				fmt.Fprintf(w, " ")
			}
		}
		fmt.Fprintln(w)
	}
}

// Image file name for a bank. The ROM goes to the output path itself;
// the cartridge save banks go next to it with their own extension.
func ImagePath(output string, id BankID) string {
	if id == BankROM {
		return output
	}
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + "." + strings.ToLower(id.String())
}

// Write the image of every bank that has to be written: always the
// ROM, and the others if anything was emitted into them. Returns the
// names of the files written.
func WriteImages(output string, a *Assembler) ([]string, error) {
	var written []string
	for id := BankROM; id < numBanks; id++ {
		if id != BankROM && !a.Used(id) {
			continue
		}
		path := ImagePath(output, id)
		if err := writeImage(path, a.Bank(id)); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeImage(path string, image []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if _, err := bw.Write(image); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
