package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MarcTheSpark/playcorder/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "playcorder",
	Short: "Quantizes performed notes into notatable rhythms",
	Long: `playcorder turns a performance, as a MIDI file or a YAML list of notes in seconds,
into measures, beats, tuplets and tied note values.`,
	Version:       version.Version(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
