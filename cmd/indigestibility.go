package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MarcTheSpark/playcorder/internal/barlicity"
)

var relativeTo int

func init() {
	indigestibilityCmd.Flags().IntVar(&relativeTo, "relative-to", 0, "if set, rate each number as a division of a beat with this natural division")
	rootCmd.AddCommand(indigestibilityCmd)
}

var indigestibilityCmd = &cobra.Command{
	Use:   "indigestibility N...",
	Short: "Prints the Barlow indigestibility of numbers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		calc := barlicity.NewCalculator()
		for _, arg := range args {
			n, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("not a number: %q", arg)
			}
			var value float64
			if relativeTo > 0 {
				value, err = calc.RawIndigestibility(n, relativeTo)
			} else {
				value, err = calc.Indigestibility(n)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%.4f\t%v\n", n, value, barlicity.PrimeFactors(n))
		}
		return nil
	},
}
