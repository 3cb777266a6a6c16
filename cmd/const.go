/*
Copyright © 2022 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/scratchminer/Hexlet-Emulator/pkg/asm"
)

// constCmd represents the const command
var constCmd = &cobra.Command{
	Use:   "const numeral...",
	Short: "Decode numerals the way the assembler does",
	Long: `Const prints the value of each numeral in decimal, hex and binary.
A numeral is $ followed by hex digits, % followed by binary digits, or
decimal digits. Values are 32 bits.
`,

	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConst(cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(constCmd)
}

func runConst(out io.Writer, numerals []string) error {
	var errs error
	for _, text := range numerals {
		v, err := asm.DecodeConstant(text)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		fmt.Fprintf(out, "%-12s %d $%X %%%b\n", text, v, uint32(v), uint32(v))
	}
	return errs
}
