package repo

import (
	"context"

	"github.com/xxxsen/redline/internal/model"
)

// Store is the document/revision/change repository. Lookups on unknown ids
// return appErr.ErrNotFound; ids are always store-generated.
type Store interface {
	CreateDocument(ctx context.Context, input model.DocumentInput) (*model.Document, error)
	GetDocument(ctx context.Context, id int64) (*model.Document, error)
	ListDocuments(ctx context.Context) ([]model.Document, error)
	UpdateDocument(ctx context.Context, id int64, patch model.DocumentPatch) (*model.Document, error)
	// DeleteDocument removes the document with its revisions and their
	// changes. It reports false without error when the id is unknown.
	DeleteDocument(ctx context.Context, id int64) (bool, error)

	CreateRevision(ctx context.Context, input model.RevisionInput) (*model.Revision, error)
	GetRevision(ctx context.Context, id int64) (*model.Revision, error)
	ListRevisionsForDocument(ctx context.Context, documentID int64) ([]model.Revision, error)
	UpdateRevision(ctx context.Context, id int64, patch model.RevisionPatch) (*model.Revision, error)

	CreateChange(ctx context.Context, input model.ChangeInput) (*model.Change, error)
	GetChange(ctx context.Context, id int64) (*model.Change, error)
	ListChangesForRevision(ctx context.Context, revisionID int64) ([]model.Change, error)
	UpdateChange(ctx context.Context, id int64, patch model.ChangePatch) (*model.Change, error)
	// UpdateChangeStatus moves a pending change to accepted or rejected.
	// Other statuses yield ErrInvalid, an already resolved change ErrConflict.
	UpdateChangeStatus(ctx context.Context, id int64, status model.ChangeStatus) (*model.Change, error)

	Close() error
}
