package asm

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ssagen/internal/cfg"
)

// namespaceDoc is the on-disk shape of a namespace fixture: just the
// handful of knobs that change between the two compilation targets (§6).
// Functions/Events are left for the test to attach directly to the
// resulting cfg.Namespace, since they vary per fixture far more than the
// three target knobs do.
type namespaceDoc struct {
	Target        string `yaml:"target"`
	AddressLength int    `yaml:"address_length"`
	SlotWidth     int    `yaml:"slot_width"`
}

// LoadNamespace parses a namespace fixture from YAML text (§3's Namespace,
// restricted to its target-selection fields).
func LoadNamespace(yamlSrc string) (*cfg.Namespace, error) {
	var doc namespaceDoc
	if err := yaml.Unmarshal([]byte(yamlSrc), &doc); err != nil {
		return nil, fmt.Errorf("asm: namespace fixture: %w", err)
	}
	target, err := parseTarget(doc.Target)
	if err != nil {
		return nil, err
	}
	return &cfg.Namespace{
		Target:        target,
		AddressLength: doc.AddressLength,
		SlotWidth:     doc.SlotWidth,
	}, nil
}

// LoadNamespaceFile reads and parses a namespace fixture file.
func LoadNamespaceFile(path string) (*cfg.Namespace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("asm: %w", err)
	}
	return LoadNamespace(string(data))
}

func parseTarget(s string) (cfg.Target, error) {
	switch s {
	case "substrate", "":
		return cfg.Substrate, nil
	case "solana":
		return cfg.Solana, nil
	default:
		return 0, fmt.Errorf("asm: unknown target %q", s)
	}
}
