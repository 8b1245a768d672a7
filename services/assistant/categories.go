// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assistant

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Embedded Default Taxonomy
// =============================================================================

//go:embed categories.yaml
var defaultTaxonomyYAML []byte

// ServiceCategory is one static taxonomy entry.
//
// Description:
//
//	A query is categorized into at most one category; the first category
//	(in YAML order) with a keyword substring match wins. SearchTerms are
//	pre-built external search queries, consulted in order.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type ServiceCategory struct {
	// Name identifies the category (e.g., "immigration").
	Name string `yaml:"name" validate:"required"`

	// Keywords trigger this category on substring match. The first keyword
	// is the category's primary keyword, used to annotate contact names.
	Keywords []string `yaml:"keywords" validate:"min=1,dive,required"`

	// SearchTerms are pre-built external search queries for this category.
	SearchTerms []string `yaml:"search_terms" validate:"min=1,dive,required"`
}

// PrimaryKeyword returns the category's first keyword.
func (c *ServiceCategory) PrimaryKeyword() string {
	return c.Keywords[0]
}

// FallbackEntry pairs coarse match keywords with a static contact.
// An empty Match list marks the generic last-resort entry.
type FallbackEntry struct {
	// Match lists the keywords that select this entry. Empty = always matches.
	Match []string `yaml:"match"`

	// Contact is the static contact returned for this entry.
	Contact DepartmentContact `yaml:"contact" validate:"required"`
}

// Taxonomy is the full read-only reference data set: categories plus the
// static fallback contact table.
//
// Thread Safety: The loaded data is immutable; Reload swaps the whole value
// under a mutex, so concurrent readers always see a consistent snapshot.
type Taxonomy struct {
	mu sync.RWMutex

	data taxonomyData
}

type taxonomyData struct {
	Categories       []ServiceCategory `yaml:"categories" validate:"min=1,dive"`
	FallbackContacts []FallbackEntry   `yaml:"fallback_contacts" validate:"min=1,dive"`
}

// LoadTaxonomy parses and validates the embedded default taxonomy.
//
// Outputs:
//   - *Taxonomy: The loaded taxonomy.
//   - error: Non-nil if the embedded data is malformed (a build defect).
func LoadTaxonomy() (*Taxonomy, error) {
	return loadTaxonomyBytes(defaultTaxonomyYAML)
}

func loadTaxonomyBytes(raw []byte) (*Taxonomy, error) {
	var data taxonomyData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("taxonomy: parsing YAML: %w", err)
	}

	if err := validateTaxonomy(&data); err != nil {
		return nil, err
	}

	return &Taxonomy{data: data}, nil
}

// validateTaxonomy applies the struct validation rules plus the one
// structural rule validator tags can't express: the last fallback entry
// must be the unconditional generic contact.
func validateTaxonomy(data *taxonomyData) error {
	validate := validator.New()
	if err := validate.Struct(data); err != nil {
		return fmt.Errorf("taxonomy: validation failed: %w", err)
	}

	last := data.FallbackContacts[len(data.FallbackContacts)-1]
	if len(last.Match) != 0 {
		return fmt.Errorf("taxonomy: last fallback entry must have an empty match list (generic last resort)")
	}

	for i := range data.FallbackContacts {
		c := &data.FallbackContacts[i].Contact
		if c.Name == "" {
			return fmt.Errorf("taxonomy: fallback contact %d has no name", i)
		}
		if c.ID == "" {
			c.ID = ContactID(c.Name)
		}
	}

	return nil
}

// Categorize maps a free-text query to at most one service category.
//
// Description:
//
//	Lowercases the query and returns the first category (in taxonomy order)
//	whose keyword set has a substring match. Taxonomy order is the
//	documented tie-break: when a query matches keywords from two
//	categories, the one appearing earlier in categories.yaml wins.
//
// Outputs:
//   - *ServiceCategory: The matched category, or nil when no keyword matches.
//     A nil result is not an error; it routes callers to the generic
//     fallback contact.
//
// Thread Safety: This method is safe for concurrent use.
func (t *Taxonomy) Categorize(query string) *ServiceCategory {
	t.mu.RLock()
	defer t.mu.RUnlock()

	lowered := strings.ToLower(query)
	for i := range t.data.Categories {
		cat := &t.data.Categories[i]
		for _, kw := range cat.Keywords {
			if strings.Contains(lowered, kw) {
				// Copy so callers can't mutate shared taxonomy state.
				c := *cat
				return &c
			}
		}
	}
	return nil
}

// FallbackContacts returns the static contacts for a query.
//
// Description:
//
//	Collects every fallback entry whose match keywords appear in the
//	query (taxonomy order). When nothing matches, returns the generic
//	last-resort entry. The result is therefore NEVER empty — callers
//	depend on always receiving at least one contact.
//
// Thread Safety: This method is safe for concurrent use.
func (t *Taxonomy) FallbackContacts(query string) []DepartmentContact {
	t.mu.RLock()
	defer t.mu.RUnlock()

	lowered := strings.ToLower(query)
	var contacts []DepartmentContact

	for _, entry := range t.data.FallbackContacts {
		if len(entry.Match) == 0 {
			continue
		}
		for _, kw := range entry.Match {
			if strings.Contains(lowered, kw) {
				contacts = append(contacts, entry.Contact)
				break
			}
		}
	}

	if len(contacts) == 0 {
		generic := t.data.FallbackContacts[len(t.data.FallbackContacts)-1]
		contacts = append(contacts, generic.Contact)
	}

	return contacts
}

// Reload replaces the taxonomy from a YAML file on disk.
// Invalid files are rejected and the previous taxonomy stays active.
func (t *Taxonomy) Reload(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("taxonomy: reading override file: %w", err)
	}

	var data taxonomyData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("taxonomy: parsing override YAML: %w", err)
	}
	if err := validateTaxonomy(&data); err != nil {
		return err
	}

	t.mu.Lock()
	t.data = data
	t.mu.Unlock()
	return nil
}

// WatchOverride hot-reloads the taxonomy whenever the override file changes.
//
// Description:
//
//	Starts an fsnotify watcher goroutine that reloads on write/create
//	events and keeps the previous taxonomy when the new file fails
//	validation. The watcher stops when the returned closer is called.
//
// Inputs:
//   - path: The override YAML file to watch. Must exist.
//   - logger: Logger for reload diagnostics. Nil uses slog.Default().
//
// Outputs:
//   - func(): Closer that stops the watcher.
//   - error: Non-nil if the watcher cannot be created or the initial load fails.
func (t *Taxonomy) WatchOverride(path string, logger *slog.Logger) (func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := t.Reload(path); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("taxonomy: creating watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("taxonomy: watching %s: %w", path, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := t.Reload(path); err != nil {
					logger.Warn("taxonomy: override reload rejected, keeping previous",
						slog.String("path", path),
						slog.String("error", err.Error()),
					)
					continue
				}
				logger.Info("taxonomy: override reloaded", slog.String("path", path))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("taxonomy: watcher error", slog.String("error", err.Error()))
			}
		}
	}()

	return watcher.Close, nil
}
