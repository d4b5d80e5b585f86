package market

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/nexuslab/nexus-terminal/internal/types"
	"github.com/nexuslab/nexus-terminal/pkg/errors"
)

// Universe is the set of instruments the terminal trades, loaded from YAML.
type Universe struct {
	Instruments []types.Instrument `yaml:"instruments" validate:"required,min=1,dive"`
}

// LoadUniverse reads and validates a universe file.
func LoadUniverse(path string) (Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Universe{}, errors.Wrapf(errors.ErrCodeInvalidUniverse, err, "failed to read universe file %s", path)
	}

	return ParseUniverse(data)
}

// ParseUniverse parses universe YAML and validates it: at least one
// instrument, unique symbols, positive starting prices.
func ParseUniverse(data []byte) (Universe, error) {
	var universe Universe
	if err := yaml.Unmarshal(data, &universe); err != nil {
		return Universe{}, errors.Wrap(errors.ErrCodeInvalidUniverse, "failed to parse universe yaml", err)
	}

	validate := validator.New()
	if err := validate.Struct(&universe); err != nil {
		return Universe{}, errors.Wrap(errors.ErrCodeInvalidUniverse, "invalid universe", err)
	}

	seen := make(map[string]bool, len(universe.Instruments))
	for _, instrument := range universe.Instruments {
		if seen[instrument.Symbol] {
			return Universe{}, errors.Newf(errors.ErrCodeInvalidUniverse, "duplicate symbol %s", instrument.Symbol)
		}

		seen[instrument.Symbol] = true
	}

	return universe, nil
}
