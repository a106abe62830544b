package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xxxsen/redline/internal/model"
	appErr "github.com/xxxsen/redline/internal/pkg/errors"
	"github.com/xxxsen/redline/internal/pkg/timeutil"
)

type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	documents map[int64]*model.Document
	revisions map[int64]*model.Revision
	changes   map[int64]*model.Change

	nextDocumentID int64
	nextRevisionID int64
	nextChangeID   int64
}

type MemoryOption func(*MemoryStore)

func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		now:       timeutil.Now,
		documents: make(map[int64]*model.Document),
		revisions: make(map[int64]*model.Revision),
		changes:   make(map[int64]*model.Change),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) CreateDocument(ctx context.Context, input model.DocumentInput) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextDocumentID++
	now := s.now()
	doc := &model.Document{
		ID:              s.nextDocumentID,
		Name:            input.Name,
		Content:         input.Content,
		OriginalContent: cloneString(input.OriginalContent),
		MimeType:        input.MimeType,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.documents[doc.ID] = doc
	return copyDocument(doc), nil
}

func (s *MemoryStore) GetDocument(ctx context.Context, id int64) (*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return copyDocument(doc), nil
}

func (s *MemoryStore) ListDocuments(ctx context.Context) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]model.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, *copyDocument(doc))
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *MemoryStore) UpdateDocument(ctx context.Context, id int64, patch model.DocumentPatch) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	if patch.Name != nil {
		doc.Name = *patch.Name
	}
	if patch.Content != nil {
		doc.Content = *patch.Content
	}
	if patch.OriginalContent != nil {
		doc.OriginalContent = cloneString(patch.OriginalContent)
	}
	if patch.MimeType != nil {
		doc.MimeType = *patch.MimeType
	}
	doc.UpdatedAt = s.now()
	return copyDocument(doc), nil
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return false, nil
	}
	delete(s.documents, id)
	for revID, rev := range s.revisions {
		if rev.DocumentID != id {
			continue
		}
		for changeID, change := range s.changes {
			if change.RevisionID == revID {
				delete(s.changes, changeID)
			}
		}
		delete(s.revisions, revID)
	}
	return true, nil
}

func (s *MemoryStore) CreateRevision(ctx context.Context, input model.RevisionInput) (*model.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[input.DocumentID]; !ok {
		return nil, fmt.Errorf("document %d: %w", input.DocumentID, appErr.ErrNotFound)
	}
	s.nextRevisionID++
	rev := &model.Revision{
		ID:         s.nextRevisionID,
		DocumentID: input.DocumentID,
		Content:    input.Content,
		Changes:    cloneSnapshots(input.Changes),
		IsAccepted: false,
		CreatedAt:  s.now(),
	}
	s.revisions[rev.ID] = rev
	return copyRevision(rev), nil
}

func (s *MemoryStore) GetRevision(ctx context.Context, id int64) (*model.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rev, ok := s.revisions[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return copyRevision(rev), nil
}

func (s *MemoryStore) ListRevisionsForDocument(ctx context.Context, documentID int64) ([]model.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	revs := make([]model.Revision, 0)
	for _, rev := range s.revisions {
		if rev.DocumentID == documentID {
			revs = append(revs, *copyRevision(rev))
		}
	}
	sort.Slice(revs, func(i, j int) bool { return revs[i].ID < revs[j].ID })
	return revs, nil
}

func (s *MemoryStore) UpdateRevision(ctx context.Context, id int64, patch model.RevisionPatch) (*model.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rev, ok := s.revisions[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	if patch.Content != nil {
		rev.Content = *patch.Content
	}
	if patch.Changes != nil {
		rev.Changes = cloneSnapshots(patch.Changes)
	}
	if patch.IsAccepted != nil {
		rev.IsAccepted = *patch.IsAccepted
	}
	return copyRevision(rev), nil
}

func (s *MemoryStore) CreateChange(ctx context.Context, input model.ChangeInput) (*model.Change, error) {
	if !input.Type.Valid() {
		return nil, fmt.Errorf("change type %q: %w", input.Type, appErr.ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.revisions[input.RevisionID]; !ok {
		return nil, fmt.Errorf("revision %d: %w", input.RevisionID, appErr.ErrNotFound)
	}
	s.nextChangeID++
	change := &model.Change{
		ID:              s.nextChangeID,
		RevisionID:      input.RevisionID,
		Type:            input.Type,
		LineNumber:      input.LineNumber,
		Content:         input.Content,
		OriginalContent: cloneString(input.OriginalContent),
		Status:          model.ChangeStatusPending,
		CreatedAt:       s.now(),
	}
	s.changes[change.ID] = change
	return copyChange(change), nil
}

func (s *MemoryStore) GetChange(ctx context.Context, id int64) (*model.Change, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	change, ok := s.changes[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return copyChange(change), nil
}

func (s *MemoryStore) ListChangesForRevision(ctx context.Context, revisionID int64) ([]model.Change, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	changes := make([]model.Change, 0)
	for _, change := range s.changes {
		if change.RevisionID == revisionID {
			changes = append(changes, *copyChange(change))
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].ID < changes[j].ID })
	return changes, nil
}

func (s *MemoryStore) UpdateChange(ctx context.Context, id int64, patch model.ChangePatch) (*model.Change, error) {
	if patch.Type != nil && !patch.Type.Valid() {
		return nil, fmt.Errorf("change type %q: %w", *patch.Type, appErr.ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	change, ok := s.changes[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	if patch.Type != nil {
		change.Type = *patch.Type
	}
	if patch.LineNumber != nil {
		change.LineNumber = *patch.LineNumber
	}
	if patch.Content != nil {
		change.Content = *patch.Content
	}
	if patch.OriginalContent != nil {
		change.OriginalContent = cloneString(patch.OriginalContent)
	}
	return copyChange(change), nil
}

func (s *MemoryStore) UpdateChangeStatus(ctx context.Context, id int64, status model.ChangeStatus) (*model.Change, error) {
	if !status.IsResolution() {
		return nil, fmt.Errorf("change status %q: %w", status, appErr.ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	change, ok := s.changes[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	if change.Status != model.ChangeStatusPending {
		return nil, fmt.Errorf("change %d already %s: %w", id, change.Status, appErr.ErrConflict)
	}
	change.Status = status
	return copyChange(change), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneSnapshots(in []model.ChangeSnapshot) []model.ChangeSnapshot {
	out := make([]model.ChangeSnapshot, 0, len(in))
	for _, snap := range in {
		snap.OriginalContent = cloneString(snap.OriginalContent)
		out = append(out, snap)
	}
	return out
}

func copyDocument(doc *model.Document) *model.Document {
	c := *doc
	c.OriginalContent = cloneString(doc.OriginalContent)
	return &c
}

func copyRevision(rev *model.Revision) *model.Revision {
	c := *rev
	c.Changes = cloneSnapshots(rev.Changes)
	return &c
}

func copyChange(change *model.Change) *model.Change {
	c := *change
	c.OriginalContent = cloneString(change.OriginalContent)
	return &c
}
