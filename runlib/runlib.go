// Package runlib executes supply chain steps and records their evidence:
// artifact digests before and after, the command, and its captured output.
package runlib

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/danbev/in-toto-rs/keys"
	"github.com/danbev/in-toto-rs/models"
)

// RecordOptions controls how artifact paths are resolved and named.
type RecordOptions struct {
	// BaseDir anchors relative input paths and recorded path names.
	// Empty means paths are used as given.
	BaseDir string

	// LStripPrefixes are tried in order against each recorded path; the
	// first matching prefix is removed before the path is stored.
	LStripPrefixes []string
}

// RecordArtifacts hashes the named files into an artifact map.
//
// Directory paths are walked recursively. Recorded names are relative,
// slash-separated and stable across platforms. Symlinked regular files are
// hashed through; broken symlinks and non-regular files inside walked
// directories are skipped. Listing the same artifact twice is fine; two
// different artifacts colliding on one recorded name is an error.
//
// An empty algorithms list defaults to sha256.
func RecordArtifacts(paths []string, algorithms []string, opts RecordOptions) (map[models.VirtualTargetPath]models.TargetDescription, error) {
	if len(algorithms) == 0 {
		algorithms = []string{keys.AlgSHA256}
	}
	for _, alg := range algorithms {
		if _, err := keys.NewHasher(alg); err != nil {
			return nil, err
		}
	}

	out := make(map[models.VirtualTargetPath]models.TargetDescription)
	for _, p := range paths {
		if p == "" {
			return nil, fmt.Errorf("runlib: empty artifact path")
		}
		full := p
		if opts.BaseDir != "" && !filepath.IsAbs(p) {
			full = filepath.Join(opts.BaseDir, p)
		}
		info, err := os.Stat(full)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if !info.Mode().IsRegular() {
				return nil, fmt.Errorf("runlib: %q is not a regular file", p)
			}
			if err := recordOne(out, full, algorithms, opts); err != nil {
				return nil, err
			}
			continue
		}

		err = filepath.WalkDir(full, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 {
				ti, serr := os.Stat(path)
				if serr != nil || !ti.Mode().IsRegular() {
					return nil
				}
			} else if !d.Type().IsRegular() {
				return nil
			}
			return recordOne(out, path, algorithms, opts)
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func recordOne(out map[models.VirtualTargetPath]models.TargetDescription, path string, algorithms []string, opts RecordOptions) error {
	name := path
	if opts.BaseDir != "" {
		rel, err := filepath.Rel(opts.BaseDir, path)
		if err != nil {
			return err
		}
		name = rel
	}
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	for _, prefix := range opts.LStripPrefixes {
		if strings.HasPrefix(name, prefix) {
			name = strings.TrimPrefix(name, prefix)
			break
		}
	}

	vp, err := models.NewVirtualTargetPath(name)
	if err != nil {
		return err
	}

	td, err := hashArtifact(path, algorithms)
	if err != nil {
		return err
	}
	if prev, ok := out[vp]; ok {
		if !prev.Equal(td) {
			return fmt.Errorf("runlib: path collision on %q after prefix strip", name)
		}
		return nil
	}
	out[vp] = td
	return nil
}

func hashArtifact(path string, algorithms []string) (models.TargetDescription, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hashers := make([]hash.Hash, len(algorithms))
	writers := make([]io.Writer, len(algorithms))
	for i, alg := range algorithms {
		h, err := keys.NewHasher(alg)
		if err != nil {
			return nil, err
		}
		hashers[i] = h
		writers[i] = h
	}
	if _, err := io.Copy(io.MultiWriter(writers...), f); err != nil {
		return nil, err
	}

	pairs := make(map[string]string, len(algorithms))
	for i, alg := range algorithms {
		pairs[alg] = hex.EncodeToString(hashers[i].Sum(nil))
	}
	return models.NewTargetDescription(pairs)
}
