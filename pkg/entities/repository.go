package entities

import (
	"context"
	"fmt"
	"sync"

	"github.com/HumanPrinter/enkoni-sub003/pkg/specification"
	"go.uber.org/zap"
)

// Repository is the contract every repository implements.
type Repository[T Entity[T]] interface {
	FindAll(ctx context.Context, spec specification.Specification[T]) ([]T, error)
	FindSingle(ctx context.Context, spec specification.Specification[T], defaultValue T) (T, error)
	FindFirst(ctx context.Context, spec specification.Specification[T], defaultValue T) (T, error)
	Add(ctx context.Context, entity T) (T, error)
	AddRange(ctx context.Context, entities []T) ([]T, error)
	Update(ctx context.Context, entity T) (T, error)
	Delete(ctx context.Context, entity T) error
	DeleteRange(ctx context.Context, entities []T) error
	SaveChanges(ctx context.Context) error
	Reset()
	HasChanges() bool
	Close() error
}

// Source is the persistent side of a StagingRepository.
type Source[T any] interface {
	// Load returns the current content. Callers must not modify the entities.
	Load(ctx context.Context) ([]T, error)
	// Store reads the content without using any cache, passes it to mutate
	// and persists the result, all while holding the source's exclusive lock.
	// Nothing is written when mutate fails.
	Store(ctx context.Context, mutate func(current []T) ([]T, error)) error
	Close() error
}

// StagingRepository buffers additions, updates and deletions until
// SaveChanges merges them into the source. A single reader/writer lock guards
// the staged changes; reads see the source merged with everything staged.
type StagingRepository[T Entity[T]] struct {
	source Source[T]
	logger *zap.Logger

	mu         sync.RWMutex
	additions  []T
	updates    map[int64]T
	deletions  map[int64]struct{}
	lastTempID int64
	closed     bool
}

// NewStagingRepository creates a repository on top of source.
func NewStagingRepository[T Entity[T]](source Source[T], logger *zap.Logger) *StagingRepository[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StagingRepository[T]{
		source:    source,
		logger:    logger,
		updates:   make(map[int64]T),
		deletions: make(map[int64]struct{}),
	}
}

// FindAll returns clones of every entity satisfying spec, in source order
// followed by staged additions unless spec orders them otherwise.
func (r *StagingRepository[T]) FindAll(ctx context.Context, spec specification.Specification[T]) ([]T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrClosed
	}
	current, err := r.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load data source: %w", err)
	}
	return specification.Select(r.merged(current), spec), nil
}

// FindSingle returns the only entity matching spec, defaultValue when none
// matches and ErrMultipleResults when several do.
func (r *StagingRepository[T]) FindSingle(ctx context.Context, spec specification.Specification[T], defaultValue T) (T, error) {
	found, err := r.FindAll(ctx, spec)
	if err != nil {
		return defaultValue, err
	}
	switch len(found) {
	case 0:
		return defaultValue, nil
	case 1:
		return found[0], nil
	default:
		return defaultValue, fmt.Errorf("%w: %d matches", ErrMultipleResults, len(found))
	}
}

// FindFirst returns the first entity matching spec or defaultValue.
func (r *StagingRepository[T]) FindFirst(ctx context.Context, spec specification.Specification[T], defaultValue T) (T, error) {
	found, err := r.FindAll(ctx, spec)
	if err != nil {
		return defaultValue, err
	}
	if len(found) == 0 {
		return defaultValue, nil
	}
	return found[0], nil
}

// Add stages a copy of entity under a temporary negative record id and
// returns that copy.
func (r *StagingRepository[T]) Add(_ context.Context, entity T) (T, error) {
	var zero T
	if isNil(entity) {
		return zero, ErrNilEntity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return zero, ErrClosed
	}
	return r.stageAddition(entity), nil
}

// AddRange stages copies of all entities.
func (r *StagingRepository[T]) AddRange(_ context.Context, entities []T) ([]T, error) {
	for _, e := range entities {
		if isNil(e) {
			return nil, ErrNilEntity
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	out := make([]T, 0, len(entities))
	for _, e := range entities {
		out = append(out, r.stageAddition(e))
	}
	return out, nil
}

func (r *StagingRepository[T]) stageAddition(entity T) T {
	staged := entity.Clone()
	r.lastTempID--
	staged.SetRecordID(r.lastTempID)
	r.additions = append(r.additions, staged)
	r.logger.Debug("staged addition", zap.Int64("temp_id", r.lastTempID))
	return staged.Clone()
}

// Update stages a copy of entity. Staged additions are replaced in place;
// persisted entities must still exist and must not be staged for deletion.
func (r *StagingRepository[T]) Update(ctx context.Context, entity T) (T, error) {
	var zero T
	if isNil(entity) {
		return zero, ErrNilEntity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return zero, ErrClosed
	}
	id := entity.RecordID()
	if id < 0 {
		i := r.additionIndex(id)
		if i < 0 {
			return zero, fmt.Errorf("%w: record %d", ErrEntityNotFound, id)
		}
		r.additions[i] = entity.Clone()
		return entity.Clone(), nil
	}
	if err := r.requirePersisted(ctx, id); err != nil {
		return zero, err
	}
	r.updates[id] = entity.Clone()
	r.logger.Debug("staged update", zap.Int64("record_id", id))
	return entity.Clone(), nil
}

// Delete stages the removal of entity. A staged addition is simply dropped.
func (r *StagingRepository[T]) Delete(ctx context.Context, entity T) error {
	if isNil(entity) {
		return ErrNilEntity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return r.stageDeletion(ctx, entity.RecordID())
}

// DeleteRange stages the removal of all entities. It stops at the first
// entity that cannot be deleted; earlier ones stay staged.
func (r *StagingRepository[T]) DeleteRange(ctx context.Context, entities []T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	for _, e := range entities {
		if isNil(e) {
			return ErrNilEntity
		}
		if err := r.stageDeletion(ctx, e.RecordID()); err != nil {
			return err
		}
	}
	return nil
}

func (r *StagingRepository[T]) stageDeletion(ctx context.Context, id int64) error {
	if id < 0 {
		i := r.additionIndex(id)
		if i < 0 {
			return fmt.Errorf("%w: record %d", ErrEntityNotFound, id)
		}
		r.additions = append(r.additions[:i], r.additions[i+1:]...)
		return nil
	}
	if err := r.requirePersisted(ctx, id); err != nil {
		return err
	}
	delete(r.updates, id)
	r.deletions[id] = struct{}{}
	r.logger.Debug("staged deletion", zap.Int64("record_id", id))
	return nil
}

// requirePersisted fails unless id exists in the source and is not staged
// for deletion. Callers hold the write lock.
func (r *StagingRepository[T]) requirePersisted(ctx context.Context, id int64) error {
	if _, deleted := r.deletions[id]; deleted {
		return fmt.Errorf("%w: record %d is staged for deletion", ErrEntityNotFound, id)
	}
	current, err := r.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load data source: %w", err)
	}
	for _, e := range current {
		if e.RecordID() == id {
			return nil
		}
	}
	return fmt.Errorf("%w: record %d", ErrEntityNotFound, id)
}

func (r *StagingRepository[T]) additionIndex(id int64) int {
	for i, a := range r.additions {
		if a.RecordID() == id {
			return i
		}
	}
	return -1
}

// merged applies the staged changes to current. Callers hold a lock.
func (r *StagingRepository[T]) merged(current []T) []T {
	out := make([]T, 0, len(current)+len(r.additions))
	for _, e := range current {
		id := e.RecordID()
		if _, deleted := r.deletions[id]; deleted {
			continue
		}
		if updated, ok := r.updates[id]; ok {
			out = append(out, updated.Clone())
			continue
		}
		out = append(out, e.Clone())
	}
	for _, a := range r.additions {
		out = append(out, a.Clone())
	}
	return out
}

// SaveChanges writes the staged changes to the source and clears them. On
// failure nothing is written and the staged changes are kept.
func (r *StagingRepository[T]) SaveChanges(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if !r.hasChanges() {
		return nil
	}
	added, updated, deleted := len(r.additions), len(r.updates), len(r.deletions)
	if err := r.source.Store(ctx, r.reconcile); err != nil {
		return fmt.Errorf("save changes: %w", err)
	}
	r.clear()
	r.logger.Info("changes saved",
		zap.Int("added", added),
		zap.Int("updated", updated),
		zap.Int("deleted", deleted))
	return nil
}

// reconcile merges the staged changes into a fresh copy of the source.
// Additions get ids following the highest id present.
func (r *StagingRepository[T]) reconcile(current []T) ([]T, error) {
	pending := make(map[int64]struct{}, len(r.updates)+len(r.deletions))
	for id := range r.updates {
		pending[id] = struct{}{}
	}
	for id := range r.deletions {
		pending[id] = struct{}{}
	}
	var maxID int64
	out := make([]T, 0, len(current)+len(r.additions))
	for _, e := range current {
		id := e.RecordID()
		maxID = max(maxID, id)
		delete(pending, id)
		if _, deleted := r.deletions[id]; deleted {
			continue
		}
		if updated, ok := r.updates[id]; ok {
			out = append(out, updated.Clone())
			continue
		}
		out = append(out, e)
	}
	for id := range pending {
		return nil, fmt.Errorf("%w: record %d no longer exists", ErrConcurrencyConflict, id)
	}
	for _, a := range r.additions {
		maxID++
		c := a.Clone()
		c.SetRecordID(maxID)
		out = append(out, c)
	}
	return out, nil
}

// Reset discards every staged change.
func (r *StagingRepository[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clear()
}

func (r *StagingRepository[T]) clear() {
	r.additions = nil
	r.updates = make(map[int64]T)
	r.deletions = make(map[int64]struct{})
	r.lastTempID = 0
}

// HasChanges reports whether anything is staged.
func (r *StagingRepository[T]) HasChanges() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hasChanges()
}

func (r *StagingRepository[T]) hasChanges() bool {
	return len(r.additions) > 0 || len(r.updates) > 0 || len(r.deletions) > 0
}

// Close releases the source. Staged changes are discarded.
func (r *StagingRepository[T]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.clear()
	return r.source.Close()
}
