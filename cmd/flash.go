/*
Copyright © 2022 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scratchminer/Hexlet-Emulator/pkg/asm"
	"github.com/scratchminer/Hexlet-Emulator/pkg/cart"
)

type flashOptions struct {
	port string
	baud int
	base string
	page string
}

var flashOpts flashOptions

// flashCmd represents the flash command
var flashCmd = &cobra.Command{
	Use:   "flash romFile",
	Short: "Download a ROM image to a flash cartridge",
	Long: `Flash opens the serial line to the cartridge programmer and
writes a ROM image to the cartridge page by page. The image is placed so
that its last byte is at $FFFFFF unless --base says otherwise. Opening
the port resets the programmer, which takes a few seconds.`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		base, page, err := flashOpts.addresses(len(image))
		if err != nil {
			return err
		}

		link, err := cart.Open(flashOpts.port, flashOpts.baud)
		if err != nil {
			return err
		}
		defer link.Close()

		out := cmd.OutOrStdout()
		var progress func(done, total int)
		if isTerminal(os.Stdout) {
			progress = func(done, total int) {
				fmt.Fprintf(out, "\r%d/%d bytes", done, total)
			}
		}
		err = link.Download(image, base, page, progress)
		if progress != nil {
			fmt.Fprintln(out)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(flashCmd)
	flashCmd.Flags().StringVar(&flashOpts.port, "port", "", "serial device of the programmer")
	flashCmd.Flags().IntVar(&flashOpts.baud, "baud", cart.DefaultBaud, "baud rate")
	flashCmd.Flags().StringVar(&flashOpts.base, "base", "", "address of the first byte of the image")
	flashCmd.Flags().StringVar(&flashOpts.page, "page", fmt.Sprint(cart.DefaultPageSize), "bytes per page")
	flashCmd.MarkFlagRequired("port")
}

// Decode the numeric flags. Without --base the image ends at the top
// of the address space, where the assembler puts it.
func (opts flashOptions) addresses(size int) (uint32, int, error) {
	page, err := decodeFlag("page", opts.page)
	if err != nil {
		return 0, 0, err
	}
	if opts.base == "" {
		if size > asm.AddressTop {
			return 0, 0, fmt.Errorf("image of %d bytes is too large", size)
		}
		return uint32(asm.AddressTop - size), int(page), nil
	}
	base, err := decodeFlag("base", opts.base)
	if err != nil {
		return 0, 0, err
	}
	return uint32(base), int(page), nil
}
