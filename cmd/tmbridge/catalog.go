package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/poiesic/tmbridge/core"
	"gopkg.in/yaml.v3"
)

// catalogFile is the import format. JSON files parse as well since JSON is
// a subset of YAML.
type catalogFile struct {
	Terminology string         `yaml:"terminology"`
	Entries     []catalogEntry `yaml:"entries"`
}

type catalogEntry struct {
	Code            string `yaml:"code"`
	Term            string `yaml:"term"`
	English         string `yaml:"english"`
	ShortDefinition string `yaml:"short_definition"`
	LongDefinition  string `yaml:"long_definition"`
	Parent          string `yaml:"parent"`
}

// readCatalog parses a catalog file. override, when non-empty, wins over the
// terminology named in the file.
func readCatalog(path, override string) (core.Terminology, []*core.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return "", nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	name := file.Terminology
	if override != "" {
		name = override
	}
	if name == "" {
		return "", nil, errors.New("catalog terminology is not set; use --terminology")
	}
	t, err := core.ParseTerminology(name)
	if err != nil {
		return "", nil, err
	}

	entries := make([]*core.Entry, len(file.Entries))
	for i, e := range file.Entries {
		entries[i] = core.NewEntry(e.Code, e.Term, e.English, e.ShortDefinition, e.LongDefinition, e.Parent)
	}
	return t, entries, nil
}
