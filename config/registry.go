package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/poiesic/meetkb/core"
)

// Registry maps knowledge base ids to their configuration. It is built once
// at startup and read-only afterwards.
type Registry struct {
	defaults core.Buckets
	kbs      map[string]core.KnowledgeBase
}

var _ core.Resolver = (*Registry)(nil)

// NewRegistry validates every knowledge base and the default bucket set used
// for single-document uploads.
func NewRegistry(defaults core.Buckets, kbs map[string]core.KnowledgeBase) (*Registry, error) {
	single := core.KnowledgeBase{Prefix: core.SingleUploadPrefix, Buckets: defaults}
	if err := core.ValidateKnowledgeBase(&single); err != nil {
		return nil, fmt.Errorf("default buckets: %w", err)
	}

	r := &Registry{
		defaults: defaults,
		kbs:      make(map[string]core.KnowledgeBase, len(kbs)),
	}
	for id, kb := range kbs {
		kb.ID = id
		if err := core.ValidateKnowledgeBase(&kb); err != nil {
			return nil, err
		}
		r.kbs[id] = kb
	}
	return r, nil
}

// Resolve returns the knowledge base for id. The empty id resolves to the
// single-upload namespace on the default buckets.
func (r *Registry) Resolve(id string) (*core.KnowledgeBase, error) {
	if id == "" {
		return &core.KnowledgeBase{Prefix: core.SingleUploadPrefix, Buckets: r.defaults}, nil
	}
	kb, ok := r.kbs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", core.ErrValidation, core.ErrUnknownKnowledgeBase, id)
	}
	return &kb, nil
}

// IDs returns the configured knowledge base ids in sorted order.
func (r *Registry) IDs() []string {
	return slices.Sorted(maps.Keys(r.kbs))
}
