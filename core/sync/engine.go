package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"netbox-geo/core/netbox"
	"netbox-geo/core/record"
	"netbox-geo/core/synccache"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RecordSource streams normalized records from one dataset. Each must
// call fn once per record and stop early when fn returns an error.
type RecordSource interface {
	Name() record.Source
	Each(ctx context.Context, fn func(record.Normalized) error) error
}

// Options control a single engine run.
type Options struct {
	// DryRun plans and reports without touching the remote or the
	// cache.
	DryRun bool

	// AllowDelete enables deletion of orphaned remote objects. Off by
	// default: a missing input file must not wipe a NetBox tree.
	AllowDelete bool

	// BatchSize caps how many records go into one bulk call.
	BatchSize int

	// Concurrency caps how many bulk calls are in flight at once.
	Concurrency int
}

func (o *Options) normalize() {
	if o.BatchSize <= 0 {
		o.BatchSize = 50
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
}

// Engine drives a full sync run: collect records from every source,
// plan against the cache, apply the plan through the rate-limited
// client and report the outcome.
type Engine struct {
	api     netbox.API
	cache   synccache.Cache
	planner *Planner
	log     *zap.Logger

	now func() time.Time
}

// NewEngine wires an engine. The cache is shared between the planner
// and the apply phase.
func NewEngine(api netbox.API, cache synccache.Cache, log *zap.Logger) *Engine {
	return &Engine{
		api:     api,
		cache:   cache,
		planner: NewPlanner(cache),
		log:     log,
		now:     time.Now,
	}
}

// Run executes one sync pass over the given sources.
//
// A failing source is reported and skipped; the remaining sources
// still sync, and the failed source is excluded from the orphan scan
// so its records are never mass-deleted. Cancellation stops new
// batches from being dispatched; batches already in flight complete
// and their cache writes land.
func (e *Engine) Run(ctx context.Context, sources []RecordSource, opts Options) (*Report, error) {
	opts.normalize()
	start := e.now()
	builder := newReportBuilder(start)
	builder.report.DryRun = opts.DryRun

	log := e.log.With(zap.String("run_id", builder.report.RunID))
	log.Info("sync run starting",
		zap.Int("sources", len(sources)),
		zap.Bool("dry_run", opts.DryRun),
		zap.Bool("allow_delete", opts.AllowDelete),
	)

	records, okSources, rejected := e.collect(ctx, sources, builder, log)

	plan, err := e.planner.Plan(ctx, records, PlanOptions{
		AllowDelete: opts.AllowDelete,
		Sources:     okSources,
	})
	if err != nil {
		return nil, fmt.Errorf("sync: plan: %w", err)
	}

	creates, updates, deletes := plan.Counts()
	builder.report.PlannedCreates = creates
	builder.report.PlannedUpdates = updates
	builder.report.PlannedDeletes = deletes
	builder.report.Unchanged = plan.Unchanged
	log.Info("plan computed",
		zap.Int("creates", creates),
		zap.Int("updates", updates),
		zap.Int("deletes", deletes),
		zap.Int("unchanged", plan.Unchanged),
	)

	if !opts.DryRun {
		e.apply(ctx, plan, opts, rejected, builder, log)
	}

	report := builder.finish(e.now().Sub(start))
	log.Info("sync run finished",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("deleted", report.Deleted),
		zap.Int("failed", report.Failed()),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// collect drains every source, validating records and rejecting
// duplicate keys. Returns the accepted records, the sources that
// completed without a stream error, and the keys rejected by
// validation so the apply phase can preempt their children.
func (e *Engine) collect(ctx context.Context, sources []RecordSource, builder *reportBuilder, log *zap.Logger) ([]record.Normalized, []record.Source, map[record.Key]struct{}) {
	var records []record.Normalized
	var okSources []record.Source
	seen := make(map[record.Key]struct{})
	rejected := make(map[record.Key]struct{})

	for _, src := range sources {
		// Buffer per source so a stream that dies halfway contributes
		// nothing: half a dataset must not look like mass deletion or
		// a partial tree.
		var buffered []record.Normalized
		err := src.Each(ctx, func(rec record.Normalized) error {
			if verr := record.Validate(&rec); verr != nil {
				rejected[rec.Key()] = struct{}{}
				builder.failed(rec.Key(), "", FailureValidation, verr.Error())
				return nil
			}
			key := rec.Key()
			if _, dup := seen[key]; dup {
				builder.failed(key, "", FailureValidation, "duplicate key in run input")
				return nil
			}
			seen[key] = struct{}{}
			buffered = append(buffered, rec)
			return nil
		})
		if err != nil {
			builder.sourceFailed(src.Name(), err.Error())
			log.Error("source collection failed",
				zap.String("source", string(src.Name())),
				zap.Error(err),
			)
			continue
		}
		records = append(records, buffered...)
		okSources = append(okSources, src.Name())
		log.Info("source collected",
			zap.String("source", string(src.Name())),
			zap.Int("records", len(buffered)),
		)
	}
	return records, okSources, rejected
}

// runState is the apply-phase state shared by batch workers.
type runState struct {
	mu        sync.Mutex
	remoteIDs map[record.Key]int
	failed    map[record.Key]struct{}
}

func (s *runState) created(key record.Key, remoteID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remoteIDs[key] = remoteID
}

func (s *runState) markFailed(key record.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[key] = struct{}{}
}

func (s *runState) remoteID(key record.Key) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.remoteIDs[key]
	return id, ok
}

func (s *runState) hasFailed(key record.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.failed[key]
	return ok
}

// apply executes the plan: creates in depth waves so parents land
// before children, then updates, then deletes. Remote calls run on a
// detached context so cancellation never aborts a call mid-flight;
// dispatch of new batches checks ctx instead.
func (e *Engine) apply(ctx context.Context, plan *Plan, opts Options, rejected map[record.Key]struct{}, builder *reportBuilder, log *zap.Logger) {
	state := &runState{
		remoteIDs: make(map[record.Key]int),
		failed:    make(map[record.Key]struct{}),
	}
	// A record rejected at collect time never entered the plan; its
	// children must not be created as detached top-level objects.
	for key := range rejected {
		state.failed[key] = struct{}{}
	}
	callCtx := context.WithoutCancel(ctx)

	var creates, updates, deletes []Operation
	for _, op := range plan.Ops {
		switch op.Type {
		case OpCreate:
			creates = append(creates, op)
		case OpUpdate:
			updates = append(updates, op)
		case OpDelete:
			deletes = append(deletes, op)
		}
	}

	waves := splitByDepth(creates)
	for i, wave := range waves {
		if e.cancelled(ctx, wave, builder) {
			for _, rest := range waves[i+1:] {
				e.notAttempted(rest, builder)
			}
			e.notAttempted(updates, builder)
			e.notAttempted(deletes, builder)
			return
		}
		e.runWave(ctx, callCtx, wave, opts, state, builder, log)
	}

	if e.cancelled(ctx, updates, builder) {
		e.notAttempted(deletes, builder)
		return
	}
	e.runUpdates(ctx, callCtx, updates, opts, state, builder, log)

	if e.cancelled(ctx, deletes, builder) {
		return
	}
	e.runDeletes(ctx, callCtx, deletes, opts, builder, log)
}

// cancelled reports whether the run context is done, and if so marks
// all given operations as not attempted.
func (e *Engine) cancelled(ctx context.Context, ops []Operation, builder *reportBuilder) bool {
	if ctx.Err() == nil {
		return false
	}
	e.notAttempted(ops, builder)
	return true
}

func (e *Engine) notAttempted(ops []Operation, builder *reportBuilder) {
	for _, op := range ops {
		builder.failed(op.Key, op.Type, FailureNotAttempted, "run cancelled")
	}
}

// splitByDepth groups creates into consecutive depth waves. The input
// is already depth-sorted by the planner.
func splitByDepth(creates []Operation) [][]Operation {
	var waves [][]Operation
	for i := 0; i < len(creates); {
		j := i
		for j < len(creates) && creates[j].Depth == creates[i].Depth {
			j++
		}
		waves = append(waves, creates[i:j])
		i = j
	}
	return waves
}

// chunkByKind groups operations by endpoint kind and slices each group
// into batches of at most size.
func chunkByKind(ops []Operation, size int) [][]Operation {
	byPath := make(map[string][]Operation)
	var order []string
	for _, op := range ops {
		path := netbox.EndpointForKind(op.Kind)
		if _, ok := byPath[path]; !ok {
			order = append(order, path)
		}
		byPath[path] = append(byPath[path], op)
	}

	var chunks [][]Operation
	for _, path := range order {
		group := byPath[path]
		for len(group) > 0 {
			n := size
			if n > len(group) {
				n = len(group)
			}
			chunks = append(chunks, group[:n])
			group = group[n:]
		}
	}
	return chunks
}

// runWave creates one depth level. Children whose parent failed, at
// collect time or in an earlier wave, are preempted without a remote
// call.
func (e *Engine) runWave(ctx, callCtx context.Context, wave []Operation, opts Options, state *runState, builder *reportBuilder, log *zap.Logger) {
	var runnable []Operation
	for _, op := range wave {
		if parentKey, failed := parentFailed(op, state); failed {
			state.markFailed(op.Key)
			builder.failed(op.Key, op.Type, FailurePreempted,
				fmt.Sprintf("parent %s was not created", parentKey))
			continue
		}
		runnable = append(runnable, op)
	}

	g := &errgroup.Group{}
	g.SetLimit(opts.Concurrency)
	for _, chunk := range chunkByKind(runnable, opts.BatchSize) {
		if e.cancelled(ctx, chunk, builder) {
			continue
		}
		chunk := chunk
		g.Go(func() error {
			e.createChunk(callCtx, chunk, state, builder, log)
			return nil
		})
	}
	_ = g.Wait()
}

// parentFailed reports whether op's parent failed this run, either
// rejected at collect time or not created in an earlier wave.
func parentFailed(op Operation, state *runState) (record.Key, bool) {
	if op.Record == nil || op.Record.ParentExternalID == "" {
		return record.Key{}, false
	}
	parentKey := record.Key{Source: op.Key.Source, ExternalID: op.Record.ParentExternalID}
	return parentKey, state.hasFailed(parentKey)
}

// resolveParent finds the remote id for op's parent: first among this
// run's creates, then in the cache for parents that already existed.
// Zero means no parent link is sent.
func (e *Engine) resolveParent(ctx context.Context, op Operation, state *runState, log *zap.Logger) int {
	if op.Record == nil || op.Record.ParentExternalID == "" {
		return 0
	}
	parentKey := record.Key{Source: op.Key.Source, ExternalID: op.Record.ParentExternalID}
	if id, ok := state.remoteID(parentKey); ok {
		return id
	}
	entry, err := e.cache.Lookup(ctx, parentKey)
	if err != nil {
		log.Warn("parent cache lookup failed",
			zap.String("key", op.Key.String()),
			zap.Error(err),
		)
		return 0
	}
	if entry == nil {
		return 0
	}
	return entry.RemoteID
}

// createChunk sends one bulk create and records per-item outcomes.
// Confirmed successes are cached immediately so a crash later in the
// run cannot lose them.
func (e *Engine) createChunk(callCtx context.Context, chunk []Operation, state *runState, builder *reportBuilder, log *zap.Logger) {
	payloads := make([]netbox.Payload, len(chunk))
	for i, op := range chunk {
		payloads[i] = netbox.BuildPayload(op.Record, e.resolveParent(callCtx, op, state, log))
	}

	path := netbox.EndpointForKind(chunk[0].Kind)
	for _, res := range e.api.CreateBulk(callCtx, path, payloads) {
		op := chunk[res.Index]
		if res.Err != nil {
			state.markFailed(op.Key)
			builder.failed(op.Key, op.Type, classifyFailure(res.Err), res.Err.Error())
			continue
		}
		state.created(op.Key, res.RemoteID)
		e.confirm(callCtx, op, res.RemoteID, builder, log)
	}
}

// confirm records a successful create or update: cache first, then the
// report counter.
func (e *Engine) confirm(ctx context.Context, op Operation, remoteID int, builder *reportBuilder, log *zap.Logger) {
	entry := synccache.Entry{
		Source:      op.Key.Source,
		ExternalID:  op.Key.ExternalID,
		Kind:        op.Kind,
		RemoteID:    remoteID,
		Fingerprint: record.ComputeFingerprint(op.Record),
		SyncedAt:    e.now(),
	}
	if err := e.cache.Put(ctx, entry); err != nil {
		// The remote mutation succeeded; a cache write failure costs a
		// redundant update next run, nothing worse.
		log.Warn("cache write failed after confirmed sync",
			zap.String("key", op.Key.String()),
			zap.Error(err),
		)
	}
	builder.applied(op.Type)
}

// runUpdates dispatches update batches. A 404 on update means the
// cache pointed at a deleted remote object; the stale entry is dropped
// and the record is recreated in the same run.
func (e *Engine) runUpdates(ctx, callCtx context.Context, updates []Operation, opts Options, state *runState, builder *reportBuilder, log *zap.Logger) {
	g := &errgroup.Group{}
	g.SetLimit(opts.Concurrency)
	for _, chunk := range chunkByKind(updates, opts.BatchSize) {
		if e.cancelled(ctx, chunk, builder) {
			continue
		}
		chunk := chunk
		g.Go(func() error {
			e.updateChunk(callCtx, chunk, state, builder, log)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) updateChunk(callCtx context.Context, chunk []Operation, state *runState, builder *reportBuilder, log *zap.Logger) {
	payloads := make([]netbox.Payload, len(chunk))
	for i, op := range chunk {
		payload := netbox.BuildPayload(op.Record, e.resolveParent(callCtx, op, state, log))
		payload["id"] = op.RemoteID
		payloads[i] = payload
	}

	path := netbox.EndpointForKind(chunk[0].Kind)
	for _, res := range e.api.UpdateBulk(callCtx, path, payloads) {
		op := chunk[res.Index]
		switch {
		case res.Err == nil:
			e.confirm(callCtx, op, op.RemoteID, builder, log)
		case netbox.IsNotFound(res.Err):
			e.recreate(callCtx, op, state, builder, log)
		default:
			builder.failed(op.Key, op.Type, classifyFailure(res.Err), res.Err.Error())
		}
	}
}

// recreate repairs a stale cache entry: the remote object is gone, so
// drop the entry and create the record fresh.
func (e *Engine) recreate(callCtx context.Context, op Operation, state *runState, builder *reportBuilder, log *zap.Logger) {
	log.Info("remote object gone, recreating",
		zap.String("key", op.Key.String()),
		zap.Int("remote_id", op.RemoteID),
	)
	if err := e.cache.Remove(callCtx, op.Key); err != nil {
		builder.failed(op.Key, op.Type, FailureTransient, fmt.Sprintf("drop stale cache entry: %v", err))
		return
	}

	createOp := op
	createOp.Type = OpCreate
	createOp.RemoteID = 0
	payload := netbox.BuildPayload(op.Record, e.resolveParent(callCtx, op, state, log))

	results := e.api.CreateBulk(callCtx, netbox.EndpointForKind(op.Kind), []netbox.Payload{payload})
	res := results[0]
	if res.Err != nil {
		builder.failed(op.Key, OpCreate, classifyFailure(res.Err), res.Err.Error())
		return
	}
	state.created(op.Key, res.RemoteID)
	e.confirm(callCtx, createOp, res.RemoteID, builder, log)
}

// runDeletes removes orphaned remote objects. A 404 counts as success,
// the desired absence already holds.
func (e *Engine) runDeletes(ctx, callCtx context.Context, deletes []Operation, opts Options, builder *reportBuilder, log *zap.Logger) {
	g := &errgroup.Group{}
	g.SetLimit(opts.Concurrency)
	for _, chunk := range chunkByKind(deletes, opts.BatchSize) {
		if e.cancelled(ctx, chunk, builder) {
			continue
		}
		chunk := chunk
		g.Go(func() error {
			e.deleteChunk(callCtx, chunk, builder, log)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) deleteChunk(callCtx context.Context, chunk []Operation, builder *reportBuilder, log *zap.Logger) {
	ids := make([]int, len(chunk))
	for i, op := range chunk {
		ids[i] = op.RemoteID
	}

	path := netbox.EndpointForKind(chunk[0].Kind)
	for _, res := range e.api.DeleteBulk(callCtx, path, ids) {
		op := chunk[res.Index]
		if res.Err != nil && !netbox.IsNotFound(res.Err) {
			builder.failed(op.Key, op.Type, classifyFailure(res.Err), res.Err.Error())
			continue
		}
		if err := e.cache.Remove(callCtx, op.Key); err != nil {
			log.Warn("cache remove failed after delete",
				zap.String("key", op.Key.String()),
				zap.Error(err),
			)
		}
		builder.applied(op.Type)
	}
}
