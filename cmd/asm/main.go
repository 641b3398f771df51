package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/twopass/mips32/pkg/asm"
)

var (
	outPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "asm [sourceFile]",
	Short: "Two-pass MIPS assembler",
	Long: `Asm translates MIPS assembly source into 32-bit machine words,
one per output line as fixed-width binary text. Labels may be used
before they are defined: the first pass records every label's address,
the second pass encodes the instructions against the completed table.

With no source file, asm reads from the standard input. Lines that fail
to assemble are reported on the standard error, tagged with their line
number, and produce no output line; the remaining lines still assemble.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var src io.ReadSeeker
		if len(args) == 1 {
			fp, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer fp.Close()
			src = fp
		} else {
			// stdin is not seekable, and the two passes must observe
			// the same content, so buffer it.
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}
			src = bytes.NewReader(data)
		}
		out := io.Writer(os.Stdout)
		if outPath != "" {
			fp, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer fp.Close()
			out = fp
		}
		var numErrors int
		table, err := asm.Assemble(src, out, func(line int, err error) {
			numErrors++
			log.Printf("%v", err)
		})
		if err != nil {
			return err
		}
		if debug {
			pp.Fprintf(os.Stderr, "labels: %v\n", table.Entries())
		}
		if numErrors > 0 {
			return fmt.Errorf("%d lines failed to assemble", numErrors)
		}
		return nil
	},
}

func main() {
	log.SetFlags(0)
	rootCmd.Flags().StringVarP(&outPath, "output", "o", "", "write bytecode to a file instead of stdout")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "dump the label table after assembling")
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
