package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/redline/internal/ai"
	"github.com/xxxsen/redline/internal/differ"
	"github.com/xxxsen/redline/internal/model"
	appErr "github.com/xxxsen/redline/internal/pkg/errors"
	"github.com/xxxsen/redline/internal/repo"
)

const defaultMimeType = "text/plain"

type DocumentService struct {
	store repo.Store
}

func NewDocumentService(store repo.Store) *DocumentService {
	return &DocumentService{store: store}
}

// RevisionDetail is a revision together with its tracked change records.
type RevisionDetail struct {
	Revision *model.Revision `json:"revision"`
	Changes  []model.Change  `json:"changes"`
}

func validateDocumentInput(in model.DocumentInput) error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.MimeType, validation.Length(0, 127)),
	)
}

func validateDocumentPatch(in model.DocumentPatch) error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&in.MimeType, validation.NilOrNotEmpty, validation.Length(1, 127)),
	)
}

func (s *DocumentService) Create(ctx context.Context, in model.DocumentInput) (*model.Document, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.MimeType = strings.TrimSpace(in.MimeType)
	if err := validateDocumentInput(in); err != nil {
		return nil, err
	}
	if in.MimeType == "" {
		in.MimeType = defaultMimeType
	}
	doc, err := s.store.CreateDocument(ctx, in)
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("document created", zap.Int64("document_id", doc.ID), zap.String("name", doc.Name))
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, id int64) (*model.Document, error) {
	return s.store.GetDocument(ctx, id)
}

func (s *DocumentService) List(ctx context.Context) ([]model.Document, error) {
	return s.store.ListDocuments(ctx)
}

func (s *DocumentService) Update(ctx context.Context, id int64, patch model.DocumentPatch) (*model.Document, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if err := validateDocumentPatch(patch); err != nil {
		return nil, err
	}
	return s.store.UpdateDocument(ctx, id, patch)
}

func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	ok, err := s.store.DeleteDocument(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return appErr.ErrNotFound
	}
	logutil.GetLogger(ctx).Info("document deleted", zap.Int64("document_id", id))
	return nil
}

// SaveRevision records a user edit. Changes are computed against the
// document baseline, which is pinned to the pre-edit content on first save.
func (s *DocumentService) SaveRevision(ctx context.Context, docID int64, content string) (*RevisionDetail, error) {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	baseline := doc.Baseline()
	snapshots := differ.Snapshots(baseline, content)
	detail, err := s.persistRevision(ctx, docID, content, snapshots)
	if err != nil {
		return nil, err
	}
	patch := model.DocumentPatch{Content: &content}
	if doc.OriginalContent == nil {
		patch.OriginalContent = &baseline
	}
	if _, err := s.store.UpdateDocument(ctx, docID, patch); err != nil {
		return nil, err
	}
	return detail, nil
}

// ApplyAIEdit stores an AI edit as a revision. The proposed changes are kept
// when every line number resolves; otherwise changes are recomputed by the
// line differ.
func (s *DocumentService) ApplyAIEdit(ctx context.Context, docID int64, edit *ai.EditResult, keepOriginal bool) (*RevisionDetail, error) {
	if edit == nil {
		return nil, fmt.Errorf("nil edit result: %w", appErr.ErrInvalid)
	}
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	previous := doc.Content
	snapshots, ok := resolveProposedChanges(previous, edit.EditedContent, edit.Changes)
	if !ok {
		logutil.GetLogger(ctx).Warn("ai edit changes do not resolve, recomputing with line differ",
			zap.Int64("document_id", docID),
			zap.Int("proposed", len(edit.Changes)),
		)
		snapshots = differ.Snapshots(previous, edit.EditedContent)
	}
	detail, err := s.persistRevision(ctx, docID, edit.EditedContent, snapshots)
	if err != nil {
		return nil, err
	}
	patch := model.DocumentPatch{Content: &edit.EditedContent}
	if keepOriginal && doc.OriginalContent == nil {
		patch.OriginalContent = &previous
	}
	if _, err := s.store.UpdateDocument(ctx, docID, patch); err != nil {
		return nil, err
	}
	return detail, nil
}

func resolveProposedChanges(previous, edited string, proposed []ai.ProposedChange) ([]model.ChangeSnapshot, bool) {
	if len(proposed) == 0 {
		return nil, previous == edited
	}
	before := len(differ.SplitLines(previous))
	after := len(differ.SplitLines(edited))
	out := make([]model.ChangeSnapshot, 0, len(proposed))
	for _, c := range proposed {
		snap := c.Snapshot()
		limit := after
		if snap.Type == model.ChangeTypeDeletion {
			limit = before
		}
		if !snap.Type.Valid() || snap.LineNumber < 1 || snap.LineNumber > limit {
			return nil, false
		}
		out = append(out, snap)
	}
	return out, true
}

func (s *DocumentService) persistRevision(ctx context.Context, docID int64, content string, snapshots []model.ChangeSnapshot) (*RevisionDetail, error) {
	rev, err := s.store.CreateRevision(ctx, model.RevisionInput{
		DocumentID: docID,
		Content:    content,
		Changes:    snapshots,
	})
	if err != nil {
		return nil, err
	}
	changes := make([]model.Change, 0, len(snapshots))
	for _, snap := range snapshots {
		change, err := s.store.CreateChange(ctx, snap.Input(rev.ID))
		if err != nil {
			return nil, err
		}
		changes = append(changes, *change)
	}
	logutil.GetLogger(ctx).Info("revision saved",
		zap.Int64("document_id", docID),
		zap.Int64("revision_id", rev.ID),
		zap.Int("changes", len(changes)),
	)
	return &RevisionDetail{Revision: rev, Changes: changes}, nil
}

func (s *DocumentService) ListRevisions(ctx context.Context, docID int64) ([]model.Revision, error) {
	if _, err := s.store.GetDocument(ctx, docID); err != nil {
		return nil, err
	}
	return s.store.ListRevisionsForDocument(ctx, docID)
}

func (s *DocumentService) GetRevision(ctx context.Context, id int64) (*RevisionDetail, error) {
	rev, err := s.store.GetRevision(ctx, id)
	if err != nil {
		return nil, err
	}
	changes, err := s.store.ListChangesForRevision(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RevisionDetail{Revision: rev, Changes: changes}, nil
}

func (s *DocumentService) ListChanges(ctx context.Context, revisionID int64) ([]model.Change, error) {
	if _, err := s.store.GetRevision(ctx, revisionID); err != nil {
		return nil, err
	}
	return s.store.ListChangesForRevision(ctx, revisionID)
}

// UpdateChangeStatus resolves a pending change. raw must be accepted or rejected.
func (s *DocumentService) UpdateChangeStatus(ctx context.Context, id int64, raw string) (*model.Change, error) {
	status, err := model.ParseResolution(raw)
	if err != nil {
		return nil, validation.Errors{"status": err}
	}
	change, err := s.store.UpdateChangeStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("change resolved", zap.Int64("change_id", id), zap.String("status", string(status)))
	return change, nil
}

// ResolveRevision applies status to every pending change of the revision and
// marks the revision accepted when status is accepted.
func (s *DocumentService) ResolveRevision(ctx context.Context, revisionID int64, raw string) (*RevisionDetail, error) {
	status, err := model.ParseResolution(raw)
	if err != nil {
		return nil, validation.Errors{"status": err}
	}
	changes, err := s.ListChanges(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	for _, change := range changes {
		if change.Status != model.ChangeStatusPending {
			continue
		}
		if _, err := s.store.UpdateChangeStatus(ctx, change.ID, status); err != nil && !errors.Is(err, appErr.ErrConflict) {
			return nil, err
		}
	}
	accepted := status == model.ChangeStatusAccepted
	if _, err := s.store.UpdateRevision(ctx, revisionID, model.RevisionPatch{IsAccepted: &accepted}); err != nil {
		return nil, err
	}
	return s.GetRevision(ctx, revisionID)
}
