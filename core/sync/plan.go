package sync

import "netbox-geo/core/record"

// OpType is the kind of remote mutation an operation performs.
type OpType string

const (
	OpCreate OpType = "create"
	OpUpdate OpType = "update"
	OpDelete OpType = "delete"
)

// Justification records why an operation is in the plan.
type Justification string

const (
	// JustNew marks a record with no cache entry.
	JustNew Justification = "new"
	// JustChanged marks a record whose fingerprint differs from the
	// cached one.
	JustChanged Justification = "changed"
	// JustOrphaned marks a cache entry absent from the current input.
	JustOrphaned Justification = "orphaned"
)

// Operation is one planned mutation. Delete operations carry only the
// key and remote id; creates and updates carry the full record.
type Operation struct {
	Type OpType
	Key  record.Key

	// Kind routes the operation to its remote endpoint. For deletes it
	// comes from the cache entry since no record is present.
	Kind record.Kind

	Record        *record.Normalized
	RemoteID      int
	Justification Justification

	// Depth is the hierarchy depth among the plan's creates: parents
	// sort before children. Zero for updates and deletes.
	Depth int
}

// Plan is an immutable, deterministic sequence of operations. Creates
// come first ordered by depth (tie-break by key), then updates, then
// deletes.
type Plan struct {
	Ops []Operation

	// Unchanged counts records whose fingerprint matched the cache
	// and produced no operation.
	Unchanged int
}

// Counts returns the number of planned creates, updates and deletes.
func (p *Plan) Counts() (creates, updates, deletes int) {
	for _, op := range p.Ops {
		switch op.Type {
		case OpCreate:
			creates++
		case OpUpdate:
			updates++
		case OpDelete:
			deletes++
		}
	}
	return
}

// IsEmpty reports whether the plan contains no operations.
func (p *Plan) IsEmpty() bool { return len(p.Ops) == 0 }
