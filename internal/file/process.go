package file

import (
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MarcTheSpark/playcorder/internal/processor"
)

// Process reads an input recording and quantizes it. MIDI inputs (.mid, .midi) and YAML recordings
// (.yml, .yaml) are accepted, each optionally age-encrypted. If the config carries an input checksum,
// the decrypted input must match it; with addChecksum, a missing checksum is filled in.
func Process(fsys fs.FS, config *processor.Config, inputFile, passphrase string, addChecksum bool) (*processor.Score, error) {
	data, err := ReadInput(fsys, inputFile, passphrase)
	if err != nil {
		return nil, err
	}

	sum := fmt.Sprintf("%x", sha256.Sum256(data))
	if config.InputSHA256 != "" && config.InputSHA256 != sum {
		return nil, fmt.Errorf("mismatching checksum of %v: got %v, want %v", inputFile, sum, config.InputSHA256)
	}

	var score *processor.Score
	switch inputKind(inputFile) {
	case ".mid", ".midi":
		mid, err := ParseSMF(data)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", inputFile, err)
		}
		score, err = processor.ProcessSMF(mid, config)
		if err != nil {
			return nil, fmt.Errorf("failed to process %v: %w", inputFile, err)
		}
	case ".yml", ".yaml":
		rec, err := ParseRecording(data)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", inputFile, err)
		}
		score, err = processor.Process(rec, config)
		if err != nil {
			return nil, fmt.Errorf("failed to process %v: %w", inputFile, err)
		}
	default:
		return nil, fmt.Errorf("%v: %w", inputFile, ErrFormat)
	}

	if config.InputSHA256 == "" && addChecksum {
		config.InputSHA256 = sum
	}
	return score, nil
}

// WriteScore encodes a score as YAML.
func WriteScore(w io.Writer, score *processor.Score) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2) // Match yq.
	err := enc.Encode(score)
	if err != nil {
		return fmt.Errorf("could not encode score: %w", err)
	}
	return enc.Close()
}

// WriteScoreFile writes a score as YAML to a file.
func WriteScoreFile(name string, score *processor.Score) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("could not create %v: %w", name, err)
	}
	defer func() {
		closeErr := f.Close()
		if closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return WriteScore(f, score)
}

// WriteSMF renders a score as a MIDI file.
func WriteSMF(name string, score *processor.Score, ticksPerQuarter int) error {
	mid, err := processor.ScoreToSMF(score, ticksPerQuarter)
	if err != nil {
		return err
	}
	err = mid.WriteFile(name)
	if err != nil {
		return fmt.Errorf("failed to write %v: %w", name, err)
	}
	return nil
}
