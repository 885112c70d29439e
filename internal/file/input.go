package file

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"filippo.io/age"
	"gitlab.com/gomidi/midi/v2/smf"
	"gopkg.in/yaml.v3"

	"github.com/MarcTheSpark/playcorder/internal/processor"
)

// AgeSuffix marks inputs encrypted with an age passphrase.
const AgeSuffix = ".age"

// ErrFormat is returned for inputs that are neither MIDI nor YAML recordings.
var ErrFormat = errors.New("unknown input format")

// ErrPassphrase is returned for encrypted inputs when no passphrase was given.
var ErrPassphrase = errors.New("encrypted input needs a passphrase")

// ReadInput returns the contents of an input file, decrypting it if its name ends in AgeSuffix.
func ReadInput(fsys fs.FS, name, passphrase string) ([]byte, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("could not read %v: %w", name, err)
	}
	if !strings.HasSuffix(name, AgeSuffix) {
		return data, nil
	}
	if passphrase == "" {
		return nil, fmt.Errorf("%v: %w", name, ErrPassphrase)
	}
	id, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("could not build scrypt identity: %w", err)
	}
	plaintextReader, err := age.Decrypt(bytes.NewReader(data), id)
	if err != nil {
		return nil, fmt.Errorf("could not start decrypting %v: %w", name, err)
	}
	plaintext, err := io.ReadAll(plaintextReader)
	if err != nil {
		return nil, fmt.Errorf("could not finish decrypting %v: %w", name, err)
	}
	return plaintext, nil
}

// ParseSMF parses a MIDI file. The MIDI reader can panic on malformed input; that is returned as an error.
func ParseSMF(data []byte) (mid *smf.SMF, err error) {
	defer func() {
		if r := recover(); r != nil {
			mid, err = nil, fmt.Errorf("could not parse MIDI: %v", r)
		}
	}()
	mid, err = smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not parse MIDI: %w", err)
	}
	return mid, nil
}

// ParseRecording parses a YAML recording.
func ParseRecording(data []byte) (*processor.Recording, error) {
	var rec processor.Recording
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(&rec)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("could not decode recording: %w", err)
	}
	return &rec, nil
}

// inputKind returns the extension of an input file name, ignoring AgeSuffix.
func inputKind(name string) string {
	return strings.ToLower(path.Ext(strings.TrimSuffix(name, AgeSuffix)))
}
