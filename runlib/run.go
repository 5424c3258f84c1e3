package runlib

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"

	"github.com/danbev/in-toto-rs/models"
)

// RunCommand executes the command token list in dir and captures its exit
// status and output streams. The command inherits the process environment.
//
// A non-zero exit status is evidence, not an error: it is returned inside
// the by-products. The error is non-nil only when the command could not be
// run at all.
func RunCommand(ctx context.Context, command models.Command, dir string) (models.ByProducts, error) {
	return runCommand(ctx, command, dir, nil)
}

func runCommand(ctx context.Context, command models.Command, dir string, env map[string]string) (models.ByProducts, error) {
	if len(command) == 0 {
		return models.ByProducts{}, fmt.Errorf("runlib: empty command")
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	if env != nil {
		cmd.Env = envList(env)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var ee *exec.ExitError
		if !errors.As(err, &ee) {
			return models.ByProducts{}, fmt.Errorf("runlib: run %q: %w", command[0], err)
		}
		exitCode = ee.ExitCode()
	}

	return models.NewByProducts().
		WithReturnValue(int64(exitCode)).
		WithStdout(stdout.String()).
		WithStderr(stderr.String()), nil
}

func envList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// InTotoRun records materials, runs the command, records products, and
// assembles the link metadata for one step.
//
// A nil env leaves the environment uncaptured and the command inherits the
// process environment. A non-nil env is both the recorded environment and
// the exact environment of the command.
//
// An empty command skips execution: the link records artifacts only, with
// zero-value by-products.
func InTotoRun(ctx context.Context, name, runDir string, materialPaths, productPaths []string, command models.Command, env map[string]string, algorithms []string) (models.LinkMetadata, error) {
	if name == "" {
		return models.LinkMetadata{}, fmt.Errorf("runlib: step name must not be empty")
	}
	recOpts := RecordOptions{BaseDir: runDir}

	materials, err := RecordArtifacts(materialPaths, algorithms, recOpts)
	if err != nil {
		return models.LinkMetadata{}, fmt.Errorf("runlib: record materials: %w", err)
	}

	byProducts := models.NewByProducts()
	if len(command) > 0 {
		byProducts, err = runCommand(ctx, command, runDir, env)
		if err != nil {
			return models.LinkMetadata{}, err
		}
	}

	products, err := RecordArtifacts(productPaths, algorithms, recOpts)
	if err != nil {
		return models.LinkMetadata{}, fmt.Errorf("runlib: record products: %w", err)
	}

	b := models.NewLinkMetadataBuilder(name).
		Materials(materials).
		Products(products).
		Command(command).
		ByProducts(byProducts)
	if env != nil {
		b.Env(env)
	}
	return b.Build(), nil
}
