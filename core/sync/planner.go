package sync

import (
	"context"
	"fmt"
	"sort"

	"netbox-geo/core/record"
	"netbox-geo/core/synccache"
)

// Planner compares normalized records against the fingerprint cache
// and produces a Plan. It performs no remote calls.
type Planner struct {
	cache synccache.Cache
}

// NewPlanner creates a planner backed by the given cache.
func NewPlanner(cache synccache.Cache) *Planner {
	return &Planner{cache: cache}
}

// PlanOptions control plan construction.
type PlanOptions struct {
	// AllowDelete includes delete operations for orphaned cache
	// entries. When false orphans are left untouched.
	AllowDelete bool

	// Sources scopes the orphan scan. Only cache entries belonging to
	// these sources are candidates for deletion, so a source that was
	// not part of the run can never have its records removed.
	Sources []record.Source
}

// Plan decides one operation per record: create on cache miss, update
// on fingerprint mismatch, nothing when the fingerprint matches. When
// opts.AllowDelete is set, cache entries from opts.Sources that are
// absent from records become deletes.
//
// The resulting order is deterministic: creates sorted by hierarchy
// depth (parents before children, ties broken by key), then updates,
// then deletes, both sorted by key.
func (p *Planner) Plan(ctx context.Context, records []record.Normalized, opts PlanOptions) (*Plan, error) {
	plan := &Plan{}

	var creates, updates []Operation
	seen := make(map[record.Key]struct{}, len(records))

	for i := range records {
		rec := &records[i]
		key := rec.Key()
		seen[key] = struct{}{}

		entry, err := p.cache.Lookup(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("cache lookup for %s: %w", key, err)
		}

		fp := record.ComputeFingerprint(rec)
		switch {
		case entry == nil:
			creates = append(creates, Operation{
				Type:          OpCreate,
				Key:           key,
				Kind:          rec.Kind,
				Record:        rec,
				Justification: JustNew,
			})
		case entry.Fingerprint != fp:
			updates = append(updates, Operation{
				Type:          OpUpdate,
				Key:           key,
				Kind:          rec.Kind,
				Record:        rec,
				RemoteID:      entry.RemoteID,
				Justification: JustChanged,
			})
		default:
			plan.Unchanged++
		}
	}

	assignDepths(creates)
	sort.Slice(creates, func(i, j int) bool {
		if creates[i].Depth != creates[j].Depth {
			return creates[i].Depth < creates[j].Depth
		}
		return lessKey(creates[i].Key, creates[j].Key)
	})
	sort.Slice(updates, func(i, j int) bool {
		return lessKey(updates[i].Key, updates[j].Key)
	})

	plan.Ops = append(plan.Ops, creates...)
	plan.Ops = append(plan.Ops, updates...)

	if opts.AllowDelete {
		deletes, err := p.orphans(ctx, seen, opts.Sources)
		if err != nil {
			return nil, err
		}
		plan.Ops = append(plan.Ops, deletes...)
	}
	return plan, nil
}

// orphans lists cache entries for the given sources that are not in
// the current input. Result is sorted by key.
func (p *Planner) orphans(ctx context.Context, seen map[record.Key]struct{}, sources []record.Source) ([]Operation, error) {
	var deletes []Operation
	for _, source := range sources {
		entries, err := p.cache.List(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("cache list for %s: %w", source, err)
		}
		for _, entry := range entries {
			key := entry.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			deletes = append(deletes, Operation{
				Type:          OpDelete,
				Key:           key,
				Kind:          entry.Kind,
				RemoteID:      entry.RemoteID,
				Justification: JustOrphaned,
			})
		}
	}
	sort.Slice(deletes, func(i, j int) bool {
		return lessKey(deletes[i].Key, deletes[j].Key)
	})
	return deletes, nil
}

// assignDepths computes the hierarchy depth of every create relative
// to the other creates in the same plan. A record whose parent is not
// being created (it already exists remotely, or has no parent) sits at
// depth zero. Cycles are broken at the revisited node so planning
// always terminates; the remote rejects the bad link instead.
func assignDepths(creates []Operation) {
	byKey := make(map[record.Key]*Operation, len(creates))
	for i := range creates {
		byKey[creates[i].Key] = &creates[i]
	}

	depths := make(map[record.Key]int, len(creates))
	var resolve func(key record.Key, visiting map[record.Key]bool) int
	resolve = func(key record.Key, visiting map[record.Key]bool) int {
		if d, ok := depths[key]; ok {
			return d
		}
		if visiting[key] {
			return 0
		}
		visiting[key] = true
		defer delete(visiting, key)

		op := byKey[key]
		d := 0
		if op.Record.ParentExternalID != "" {
			parentKey := record.Key{Source: key.Source, ExternalID: op.Record.ParentExternalID}
			if _, inPlan := byKey[parentKey]; inPlan {
				d = resolve(parentKey, visiting) + 1
			}
		}
		depths[key] = d
		return d
	}

	for i := range creates {
		creates[i].Depth = resolve(creates[i].Key, map[record.Key]bool{})
	}
}

func lessKey(a, b record.Key) bool {
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return a.ExternalID < b.ExternalID
}
