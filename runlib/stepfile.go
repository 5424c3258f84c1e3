package runlib

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danbev/in-toto-rs/keys"
	"github.com/danbev/in-toto-rs/models"
)

// StepDef is one step execution described in a YAML file:
//
//	name: build
//	run: [make, all]
//	materials: [src]
//	products: [bin/app]
//	env:
//	  SOURCE_DATE_EPOCH: "0"
//	algorithms: [sha256, sha3-256]
type StepDef struct {
	Name       string            `yaml:"name"`
	Run        []string          `yaml:"run,omitempty"`
	Materials  []string          `yaml:"materials,omitempty"`
	Products   []string          `yaml:"products,omitempty"`
	Env        map[string]string `yaml:"env,omitempty"`
	Algorithms []string          `yaml:"algorithms,omitempty"`
}

// LoadStepDef reads and validates a step file.
func LoadStepDef(path string) (StepDef, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return StepDef{}, err
	}
	return ParseStepDef(b)
}

// ParseStepDef parses and validates step file bytes.
func ParseStepDef(data []byte) (StepDef, error) {
	var d StepDef
	if err := yaml.Unmarshal(data, &d); err != nil {
		return StepDef{}, fmt.Errorf("runlib: invalid step file: %w", err)
	}
	if err := d.Validate(); err != nil {
		return StepDef{}, err
	}
	return d, nil
}

func (d StepDef) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("runlib: step file: name is required")
	}
	for _, alg := range d.Algorithms {
		if _, err := keys.NewHasher(alg); err != nil {
			return fmt.Errorf("runlib: step file: %w", err)
		}
	}
	return nil
}

// Execute runs the step under runDir and returns its link metadata.
func (d StepDef) Execute(ctx context.Context, runDir string) (models.LinkMetadata, error) {
	return InTotoRun(ctx, d.Name, runDir, d.Materials, d.Products, models.CommandFromArgs(d.Run), d.Env, d.Algorithms)
}
