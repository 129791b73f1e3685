package runtime

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.firedancer.io/extmint/pkg/features"
	"go.firedancer.io/extmint/pkg/rent"
	"gopkg.in/yaml.v3"
)

const DefaultPayerLamports = 10_000_000_000

// Config describes a bank and the scenarios to run against it.
//
//	rent:
//	  lamports_per_byte_year: 3480
//	  exemption_threshold: 2.0
//	  burn_percent: 50
//	features:
//	  - StricterAbiAndRuntimeConstraints
//	payer_lamports: 10000000000
//	scenarios:
//	  - name: metadata
//	    flow: metadata
type Config struct {
	Rent          rent.Rent  `yaml:"rent"`
	Features      []string   `yaml:"features"`
	PayerLamports uint64     `yaml:"payer_lamports"`
	Scenarios     []Scenario `yaml:"scenarios"`
}

func DefaultConfig() Config {
	return Config{
		Rent:          rent.Default(),
		PayerLamports: DefaultPayerLamports,
	}
}

// LoadConfig reads a YAML config file. Fields it leaves out keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()
	return ParseConfig(f)
}

func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	err := decoder.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	err := c.Rent.Validate()
	if err != nil {
		return fmt.Errorf("rent: %w", err)
	}
	_, err = c.FeatureSet()
	if err != nil {
		return err
	}
	for idx, sc := range c.Scenarios {
		err = sc.Validate()
		if err != nil {
			return fmt.Errorf("scenario %d: %w", idx, err)
		}
	}
	return nil
}

// FeatureSet resolves the configured gate names.
func (c Config) FeatureSet() (*features.Features, error) {
	f := features.NewFeaturesDefault()
	for _, name := range c.Features {
		gate, err := features.GateByName(name)
		if err != nil {
			return nil, err
		}
		f.EnableFeature(gate, 0)
	}
	return f, nil
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	err := encoder.Encode(c)
	if err != nil {
		return nil, err
	}
	err = encoder.Close()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
