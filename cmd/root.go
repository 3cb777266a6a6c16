/*
Copyright © 2022 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/scratchminer/Hexlet-Emulator/pkg/asm"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hexasm",
	Short: "Assembler and cartridge tools for the Hexheld",
	Long: `Hexasm assembles source for the Pilot CPU of the Hexheld into
bank images, and downloads images to a flash cartridge through a serial
attached programmer.

Logging goes to standard error. Use -v=1 to trace passes, -v=2 for
symbol resolution and bank growth, -v=3 for symbol table dumps and
serial traffic.`,
	SilenceUsage: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// glog reads its flags from the Go flag set, which pflag
		// has already filled in.
		flag.CommandLine.Parse(nil)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer glog.Flush()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	flag.Set("logtostderr", "true")
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Numeric flag values are written the way the assembler writes
// constants, so $FF0000 works on the command line.
func decodeFlag(name string, text string) (int32, error) {
	v, err := asm.DecodeConstant(text)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}
	return v, nil
}
