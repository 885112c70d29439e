package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/MarcTheSpark/playcorder/internal/file"
	"github.com/MarcTheSpark/playcorder/internal/processor"
)

// PassphraseEnv names the environment variable holding the passphrase for encrypted inputs.
const PassphraseEnv = "PLAYCORDER_PASSPHRASE"

var quantizeFlags struct {
	overrides
	configFile  string
	output      string
	smf         string
	passphrase  string
	addChecksum bool
}

func init() {
	f := quantizeCmd.Flags()
	f.StringVarP(&quantizeFlags.configFile, "config", "c", "playcorder.yml", "config file name (YAML); ignored if missing and not given explicitly")
	f.StringVarP(&quantizeFlags.output, "output", "o", "", "output file name for the score (YAML), or - for stdout")
	f.StringVar(&quantizeFlags.smf, "smf", "", "output file name for a MIDI rendering of the score")
	f.StringVar(&quantizeFlags.passphrase, "passphrase", "", "passphrase for .age inputs (default $"+PassphraseEnv+")")
	f.BoolVar(&quantizeFlags.addChecksum, "add-checksum", false, "store the checksum of the input in the config file")
	quantizeFlags.registerQuantize(quantizeCmd)
	rootCmd.AddCommand(quantizeCmd)
}

var quantizeCmd = &cobra.Command{
	Use:   "quantize INPUT",
	Short: "Quantizes a recording",
	Long: `Quantizes a MIDI file (.mid) or YAML recording (.yml), optionally encrypted with age (.age),
and writes the notated score as YAML. Flags override the config file, which overrides the defaults.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuantize(cmd, args[0])
	},
}

// dirFS opens the directory of a file name as a file system.
func dirFS(name string) (fs.FS, string, error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve %v: %w", name, err)
	}
	return os.DirFS(filepath.Dir(abs)), filepath.Base(abs), nil
}

func loadConfig(cmd *cobra.Command) (*processor.Config, error) {
	fsys, name, err := dirFS(quantizeFlags.configFile)
	if err != nil {
		return nil, err
	}
	config, err := file.ReadConfig(fsys, name)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		return &processor.Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return config, nil
}

func runQuantize(cmd *cobra.Command, input string) error {
	fileConfig, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	config := processor.Merge(*fileConfig, quantizeFlags.config(cmd))

	passphrase := quantizeFlags.passphrase
	if passphrase == "" {
		passphrase = os.Getenv(PassphraseEnv)
	}
	fsys, name, err := dirFS(input)
	if err != nil {
		return err
	}
	wantChecksum := config.InputSHA256 == ""
	score, err := file.Process(fsys, &config, name, passphrase, quantizeFlags.addChecksum)
	if err != nil {
		return err
	}

	if quantizeFlags.smf != "" {
		err := file.WriteSMF(quantizeFlags.smf, score, config.TicksPerQuarter)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	switch {
	case quantizeFlags.output == "-":
		err = file.WriteScore(out, score)
	case quantizeFlags.output != "":
		err = file.WriteScoreFile(quantizeFlags.output, score)
	case isTerminal(out):
		printSummary(out, score)
	default:
		err = file.WriteScore(out, score)
	}
	if err != nil {
		return err
	}

	if wantChecksum && config.InputSHA256 != "" {
		fileConfig.InputSHA256 = config.InputSHA256
		err := file.WriteConfig(quantizeFlags.configFile, fileConfig)
		if err != nil {
			return fmt.Errorf("failed to write %v: %w", quantizeFlags.configFile, err)
		}
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printSummary(w io.Writer, score *processor.Score) {
	fmt.Fprintf(w, "run %s: %d measures, %v quarter notes\n", score.RunID, len(score.Measures), score.Length)
	for _, p := range score.Parts {
		fmt.Fprintf(w, "%s:\n", p.Name)
		for i, v := range p.Voices {
			notes, tuplets := 0, 0
			for _, f := range v.Fragments {
				if f.IsRest() {
					continue
				}
				notes++
				if f.Tuplet != nil {
					tuplets++
				}
			}
			fmt.Fprintf(w, "  voice %d: %d notes, %d in tuplets, divisors %v\n", i+1, notes, tuplets, v.Divisors)
		}
	}
	fmt.Fprintln(w, "use -o FILE or redirect stdout for the full score")
}
