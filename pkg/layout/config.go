package layout

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// areaMultiplier scales the configured area into layout units
	areaMultiplier = 10000

	// speedDivisor damps every displacement
	speedDivisor = 800

	// DefaultCommunityColumn is the attribute modularity detection writes
	DefaultCommunityColumn = "modularity_class"
)

// validate is a singleton validator instance
var validate = validator.New()

// Config holds the layout parameters. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	Area                  float64 `yaml:"area" validate:"gt=0"`
	Gravity               float64 `yaml:"gravity" validate:"gte=0"`
	Speed                 float64 `yaml:"speed" validate:"gt=0"`
	Alpha                 float64 `yaml:"alpha"`
	UseCommunityDetection bool    `yaml:"use_community_detection"`
	Approximate           bool    `yaml:"approximate"`
	CommunityAttraction   bool    `yaml:"community_attraction"`
	CommunityColumnName   string  `yaml:"community_column_name" validate:"required_if=UseCommunityDetection true"`
}

// DefaultConfig returns the standard parameters
func DefaultConfig() Config {
	return Config{
		Area:                10000,
		Gravity:             10,
		Speed:               1,
		Alpha:               0.1,
		CommunityColumnName: DefaultCommunityColumn,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	finite := []struct {
		name  string
		value float64
	}{
		{"Area", c.Area},
		{"Gravity", c.Gravity},
		{"Speed", c.Speed},
		{"Alpha", c.Alpha},
	}
	for _, f := range finite {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%s: must be a finite number", f.name)
		}
	}
	return nil
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
// Empty input yields the defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode layout config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read layout config: %w", err)
	}
	return ParseConfig(data)
}

// usesCommunities reports whether the tick needs a community index
func (c Config) usesCommunities() bool {
	return c.UseCommunityDetection
}

// approximate reports whether the community-approximated pipeline runs
func (c Config) approximate() bool {
	return c.UseCommunityDetection && c.Approximate
}

// pullsToCommunity reports whether nodes are dragged toward their centroid
func (c Config) pullsToCommunity() bool {
	return c.UseCommunityDetection && c.CommunityAttraction
}

// needsCentroids reports whether centroids must be refreshed this tick
func (c Config) needsCentroids() bool {
	return c.approximate() || c.pullsToCommunity()
}

// Mode names the active repulsion/attraction pipeline
func (c Config) Mode() string {
	if c.approximate() {
		return "approximate"
	}
	return "exact"
}

// k is the ideal pairwise distance for n nodes
func (c Config) k(n int) float64 {
	return math.Sqrt(areaMultiplier * c.Area / float64(1+n))
}

// totalArea is the area community radii are derived from
func (c Config) totalArea() float64 {
	return areaMultiplier * c.Area
}

// maxDisplacement is the per-tick clamp on node movement
func (c Config) maxDisplacement() float64 {
	return math.Sqrt(areaMultiplier*c.Area) / 10 * c.speedFactor()
}

func (c Config) speedFactor() float64 {
	return c.Speed / speedDivisor
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		param := e.Param()

		switch e.Tag() {
		case "required", "required_if":
			return fmt.Errorf("%s: field is required", field)
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, param)
		case "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
