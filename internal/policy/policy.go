// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

// Package policy holds the static table describing which fields of which
// collection are ciphered. The table is loaded once at startup and treated
// as read-only configuration afterwards.
package policy

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/pkosenkov/fieldvault/models"
)

//go:embed default_policies.json
var defaultPolicies []byte

// Table maps collection names to their encryption policies. A collection
// absent from the table is not covered: no policy means do not encrypt.
type Table struct {
	policies map[string]models.CollectionPolicy
}

// Default returns the table compiled into the binary.
func Default() (*Table, error) {
	return Load(defaultPolicies)
}

// LoadFile reads a policy table from a JSON file, for deployments that
// override the embedded defaults.
func LoadFile(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return Load(raw)
}

// Load parses a policy table from raw JSON of the form
// {"collection": {"sensitive_fields": [...], "exempt_fields": [...], "scheme_version": "v1"}}.
func Load(raw []byte) (*Table, error) {
	policies := make(map[string]models.CollectionPolicy)
	if err := json.Unmarshal(raw, &policies); err != nil {
		return nil, fmt.Errorf("parse policy table: %w", err)
	}

	for name, p := range policies {
		if p.SchemeVersion == "" {
			return nil, fmt.Errorf("policy for collection %q has no scheme version", name)
		}
	}

	return &Table{policies: policies}, nil
}

// Lookup returns the policy for the named collection. The second return
// value is false for unknown collections, which callers must treat as
// "do not encrypt".
func (t *Table) Lookup(collection string) (models.CollectionPolicy, bool) {
	p, ok := t.policies[collection]
	return p, ok
}

// Collections lists every covered collection name, sorted for stable output.
func (t *Table) Collections() []string {
	names := make([]string, 0, len(t.policies))
	for name := range t.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
