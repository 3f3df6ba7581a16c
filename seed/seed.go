// Package seed loads initial datasets for a store.
package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/VitaminC1989/SpecMaster/store"
)

// Demo dataset used when no other source is configured.
//
//go:embed default.yaml
var defaultYAML []byte

// Default returns a fresh copy of the embedded demo dataset.
func Default() (store.Seed, error) {
	return LoadYAML(bytes.NewReader(defaultYAML))
}

// LoadYAML reads a dataset of the form
//
//	styles:
//	  - id: 1
//	    style_no: S1
//	variants:
//	  - id: 101
//	    style_id: 1
//
// Records keep their file order within each resource.
func LoadYAML(r io.Reader) (store.Seed, error) {
	var doc map[string][]map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return store.Seed{}, nil
		}
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	seed := make(store.Seed, len(doc))
	for resource, items := range doc {
		records := make([]store.Record, 0, len(items))
		for i, item := range items {
			rec, err := store.Encode(item)
			if err != nil {
				return nil, fmt.Errorf("seed %s[%d]: %w", resource, i, err)
			}
			if _, ok := rec.ID(); !ok {
				return nil, fmt.Errorf("seed %s[%d]: missing numeric id", resource, i)
			}
			records = append(records, rec)
		}
		seed[resource] = records
	}
	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return seed, nil
}

// LoadFile reads a YAML dataset from path.
func LoadFile(path string) (store.Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// Dump converts a dataset to plain values suitable for JSON or YAML encoding.
func Dump(seed store.Seed) (map[string][]map[string]any, error) {
	out := make(map[string][]map[string]any, len(seed))
	for _, resource := range Resources(seed) {
		records := seed[resource]
		items := make([]map[string]any, 0, len(records))
		for _, r := range records {
			m, err := r.Map()
			if err != nil {
				return nil, err
			}
			items = append(items, m)
		}
		out[resource] = items
	}
	return out, nil
}

// Resources returns the dataset's resource names in sorted order.
func Resources(seed store.Seed) []string {
	names := make([]string, 0, len(seed))
	for name := range seed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
