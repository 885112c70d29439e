package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MarcTheSpark/playcorder/internal/barlicity"
	"github.com/MarcTheSpark/playcorder/internal/processor"
)

var schemesFlags overrides

func init() {
	schemesFlags.registerScheme(schemesCmd)
	rootCmd.AddCommand(schemesCmd)
}

var schemesCmd = &cobra.Command{
	Use:   "schemes [TIME_SIGNATURE...]",
	Short: "Prints the beat divisions considered for each measure",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config := processor.Merge(processor.DefaultConfig(), schemesFlags.config(cmd))
		if len(args) > 0 {
			config.Measures = nil
			for _, ts := range args {
				config.Measures = append(config.Measures, processor.MeasureConfig{TimeSignature: ts})
			}
		}
		tl, err := processor.BuildTimeline(&config, barlicity.NewCalculator())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, m := range tl.Measures() {
			fmt.Fprintf(out, "measure %d: %v\n", i+1, m.TimeSignature)
			for j, b := range m.Beats {
				fmt.Fprintf(out, "  beat %d: %v\n", j+1, b)
			}
		}
		return nil
	},
}
