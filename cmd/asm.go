/*
Copyright © 2022 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/scratchminer/Hexlet-Emulator/pkg/asm"
)

type asmOptions struct {
	output  string
	dump    bool
	symbols bool
}

var asmOpts asmOptions

// asmCmd represents the asm command
var asmCmd = &cobra.Command{
	Use:   "asm sourceFile",
	Short: "The Pilot assembler",
	Long: `Asm assembles one Pilot source file into bank images for the
Hexheld. The ROM image is written to the output file (by default the
source name with the extension .hxh). If anything was assembled into
the cartridge save banks with .BANK CS1 or .BANK CS2, those images are
written next to it with the extensions .cs1 and .cs2.

All diagnostics are reported, one per line, and no image is written
if there are any.
`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("dump") {
			asmOpts.dump = isTerminal(os.Stdout)
		}
		return runAsm(cmd.OutOrStdout(), args[0], asmOpts)
	},
}

func init() {
	rootCmd.AddCommand(asmCmd)
	asmCmd.Flags().StringVarP(&asmOpts.output, "output", "o", "", "ROM image file")
	asmCmd.Flags().BoolVar(&asmOpts.dump, "dump", false, "hex dump what was assembled (default true on a terminal)")
	asmCmd.Flags().BoolVar(&asmOpts.symbols, "symbols", false, "list the symbol table")
}

func runAsm(out io.Writer, source string, opts asmOptions) error {
	text, err := os.ReadFile(source)
	if err != nil {
		return err
	}

	a := asm.New()
	if err := a.Assemble(string(text)); err != nil {
		return fmt.Errorf("%s:\n%s", source, a.LastError())
	}
	glog.V(1).Infof("%s: assembled in %d passes", source, a.Passes())

	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(source, filepath.Ext(source)) + ".hxh"
	}
	written, err := asm.WriteImages(output, a)
	if err != nil {
		return err
	}
	for _, name := range written {
		fmt.Fprintf(out, "wrote %s\n", name)
	}

	if opts.symbols || opts.dump {
		return asm.WriteResults(out, a, opts.dump)
	}
	return nil
}
