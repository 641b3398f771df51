package main

import (
	"errors"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/twopass/mips32/pkg/mips"
	"github.com/twopass/mips32/pkg/vm"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "vm bytecodeFile",
	Short: "Run MIPS bytecode produced by asm",
	Long: `Vm loads a bytecode file produced by the asm command and executes
it, starting at address 0, until the program runs off its last
instruction. With --verbose, every fetched instruction is disassembled
and traced along with the machine state.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fp, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fp.Close()
		machine, err := vm.LoadBytecode(fp)
		if err != nil {
			return err
		}
		for {
			ci, err := machine.Fetch()
			if err != nil {
				if errors.Is(err, vm.ErrHalted) {
					break
				}
				return err
			}
			if verbose {
				log.Printf("vm: %s", machine)
				log.Printf("vm: %s  %s", mips.FormatBinary(ci, 32), mips.Disassemble(ci))
			}
			if err := machine.Execute(ci); err != nil {
				return err
			}
		}
		return nil
	},
}

func main() {
	log.SetFlags(0)
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "trace every executed instruction")
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
