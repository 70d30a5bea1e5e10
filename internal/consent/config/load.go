package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"consentkit/internal/consent/models"
)

// LoadFile reads a YAML override file. Environment references ($VAR, ${VAR})
// are expanded before parsing. An empty file yields an empty Partial.
func LoadFile(path string) (Partial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Partial{}, fmt.Errorf("read consent config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML overrides. Unknown keys are rejected so that drifted
// spellings (logoImage, consentManagementPlatform, ...) fail loudly instead of
// being silently ignored.
func Parse(data []byte) (Partial, error) {
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)

	var p Partial
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return Partial{}, nil
		}
		return Partial{}, fmt.Errorf("%w: parse consent config: %w", models.ErrConfigurationInvalid, err)
	}
	return p, nil
}

// LoadAndResolve is the startup path: read the override file, if any, and
// resolve it against the built-in defaults.
func LoadAndResolve(path string) (Settings, error) {
	var partial Partial
	if path != "" {
		p, err := LoadFile(path)
		if err != nil {
			return Settings{}, err
		}
		partial = p
	}
	return Resolve(partial, Defaults())
}
