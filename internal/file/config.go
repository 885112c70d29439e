package file

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MarcTheSpark/playcorder/internal/processor"
)

func ReadConfig(fsys fs.FS, configFile string) (*processor.Config, error) {
	f, err := fsys.Open(configFile)
	if err != nil {
		return nil, fmt.Errorf("could not open: %w", err)
	}
	defer f.Close()
	var config processor.Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	err = dec.Decode(&config)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("could not decode %v: %w", configFile, err)
	}
	return &config, nil
}

func WriteConfig(configFile string, config *processor.Config) (err error) {
	f, err := os.Create(configFile)
	if err != nil {
		return fmt.Errorf("could not recreate %v: %w", configFile, err)
	}
	defer func() {
		closeErr := f.Close()
		if closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2) // Match yq.
	return enc.Encode(config)
}
