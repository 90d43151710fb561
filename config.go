package fluxzero

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gorgonia/fluxzero/agent"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// DefaultConfig is connect four on a 6×7 board.
func DefaultConfig() Config {
	return Config{
		Name:     "Connect Four",
		Game:     "connect",
		Rows:     6,
		Cols:     7,
		ConnectN: 4,

		Agent: agent.DefaultConfig(),

		SyntheticSamples: 200,
		ArenaGames:       10,
	}
}

// Validate checks every field of the configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// LoadConfig reads a YAML configuration from filename. Fields missing from the
// file keep their DefaultConfig values; unknown fields are an error.
func LoadConfig(filename string) (Config, error) {
	conf := DefaultConfig()
	f, err := os.Open(filename)
	if err != nil {
		return conf, errors.WithStack(err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&conf); err != nil {
		return conf, errors.Wrapf(err, "decode %s", filename)
	}
	return conf, conf.Validate()
}
