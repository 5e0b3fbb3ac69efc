package catalog

import (
	"sort"

	"github.com/beacon-gw/beacon/internal/config"
	"github.com/beacon-gw/beacon/pkg/api"
)

// Descriptor describes one upstream provider. Immutable after load.
type Descriptor struct {
	// Key is the stable identity, e.g. "fast-chat-a".
	Key       string
	Model     string
	Vendor    string
	Priority  int // lower is tried first
	MaxTokens int

	SupportsChat        bool
	SupportsVision      bool
	SupportsAudio       bool
	SupportsTranslation bool

	// Active is the operator kill-switch.
	Active bool

	BaseURL string
	APIKey  string
}

// Supports reports whether the descriptor carries the capability a task needs.
func (d Descriptor) Supports(task api.TaskType) bool {
	switch task {
	case api.TaskChat, api.TaskSummarize:
		return d.SupportsChat
	case api.TaskTranslate:
		return d.SupportsTranslation
	case api.TaskVision:
		return d.SupportsVision
	case api.TaskAudio:
		return d.SupportsAudio
	}
	return false
}

// Catalog is the static provider registry. Read-only after construction.
type Catalog struct {
	byKey   map[string]Descriptor
	ordered []Descriptor
}

// FromConfig builds a catalog out of the configured provider list.
func FromConfig(cfgs []config.ProviderConfig) *Catalog {
	c := &Catalog{byKey: make(map[string]Descriptor, len(cfgs))}
	for _, p := range cfgs {
		d := Descriptor{
			Key:                 p.Key,
			Model:               p.Model,
			Vendor:              p.Vendor,
			Priority:            p.Priority,
			MaxTokens:           p.MaxTokens,
			SupportsChat:        p.Capabilities.Chat,
			SupportsVision:      p.Capabilities.Vision,
			SupportsAudio:       p.Capabilities.Audio,
			SupportsTranslation: p.Capabilities.Translation,
			Active:              p.Active,
			BaseURL:             p.BaseURL,
			APIKey:              p.APIKey,
		}
		c.byKey[d.Key] = d
		c.ordered = append(c.ordered, d)
	}
	sort.SliceStable(c.ordered, func(i, j int) bool {
		return c.ordered[i].Priority < c.ordered[j].Priority
	})
	return c
}

// New builds a catalog from descriptors directly. Used by tests and embedders.
func New(descriptors []Descriptor) *Catalog {
	c := &Catalog{byKey: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		c.byKey[d.Key] = d
		c.ordered = append(c.ordered, d)
	}
	sort.SliceStable(c.ordered, func(i, j int) bool {
		return c.ordered[i].Priority < c.ordered[j].Priority
	})
	return c
}

// ListCandidates returns active providers able to serve the task, sorted by
// priority ascending. An unknown task type yields an empty list; the caller
// treats that as "no providers available", not as an error.
func (c *Catalog) ListCandidates(task api.TaskType) []Descriptor {
	var out []Descriptor
	for _, d := range c.ordered {
		if d.Active && d.Supports(task) {
			out = append(out, d)
		}
	}
	return out
}

// Get looks a descriptor up by key.
func (c *Catalog) Get(key string) (Descriptor, bool) {
	d, ok := c.byKey[key]
	return d, ok
}

// All returns every descriptor in priority order, including inactive ones.
func (c *Catalog) All() []Descriptor {
	out := make([]Descriptor, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// ActiveCount returns the number of active providers.
func (c *Catalog) ActiveCount() int {
	n := 0
	for _, d := range c.ordered {
		if d.Active {
			n++
		}
	}
	return n
}
