package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/redline/internal/model"
	"github.com/xxxsen/redline/internal/pkg/dbutil"
	appErr "github.com/xxxsen/redline/internal/pkg/errors"
	"github.com/xxxsen/redline/internal/pkg/timeutil"
)

var (
	documentColumns = []string{"id", "name", "content", "original_content", "mime_type", "ctime", "mtime"}
	revisionColumns = []string{"id", "document_id", "content", "changes_json", "is_accepted", "ctime"}
	changeColumns   = []string{"id", "revision_id", "type", "line_number", "content", "original_content", "status", "ctime"}
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type SQLStore struct {
	db       *sqlx.DB
	bindType int
	now      func() time.Time
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{
		db:       db,
		bindType: dbutil.BindTypeFor(db.DriverName()),
		now:      timeutil.Now,
	}
}

func (s *SQLStore) finalize(sqlStr string, args []interface{}) (string, []interface{}) {
	return dbutil.Finalize(s.bindType, sqlStr, args)
}

func (s *SQLStore) insert(ctx context.Context, q queryer, table string, data map[string]interface{}) (int64, error) {
	sqlStr, args, err := builder.BuildInsert(table, []map[string]interface{}{data})
	if err != nil {
		return 0, err
	}
	sqlStr, args = s.finalize(sqlStr+" RETURNING id", args)
	var id int64
	if err := q.QueryRowContext(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SQLStore) update(ctx context.Context, q queryer, table string, where, data map[string]interface{}) (int64, error) {
	sqlStr, args, err := builder.BuildUpdate(table, where, data)
	if err != nil {
		return 0, err
	}
	sqlStr, args = s.finalize(sqlStr, args)
	res, err := q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLStore) exists(ctx context.Context, q queryer, table string, id int64) (bool, error) {
	sqlStr, args, err := builder.BuildSelect(table, map[string]interface{}{"id": id}, []string{"id"})
	if err != nil {
		return false, err
	}
	sqlStr, args = s.finalize(sqlStr, args)
	var found int64
	err = q.QueryRowContext(ctx, sqlStr, args...).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) CreateDocument(ctx context.Context, input model.DocumentInput) (*model.Document, error) {
	now := timeutil.ToMillis(s.now())
	id, err := s.insert(ctx, s.db, "documents", map[string]interface{}{
		"name":             input.Name,
		"content":          input.Content,
		"original_content": toNullString(input.OriginalContent),
		"mime_type":        input.MimeType,
		"ctime":            now,
		"mtime":            now,
	})
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return s.GetDocument(ctx, id)
}

func (s *SQLStore) GetDocument(ctx context.Context, id int64) (*model.Document, error) {
	docs, err := s.selectDocuments(ctx, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &docs[0], nil
}

func (s *SQLStore) ListDocuments(ctx context.Context) ([]model.Document, error) {
	return s.selectDocuments(ctx, map[string]interface{}{"_orderby": "id asc"})
}

func (s *SQLStore) selectDocuments(ctx context.Context, where map[string]interface{}) ([]model.Document, error) {
	sqlStr, args, err := builder.BuildSelect("documents", where, documentColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = s.finalize(sqlStr, args)
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	docs := make([]model.Document, 0)
	for rows.Next() {
		var (
			doc          model.Document
			original     sql.NullString
			ctime, mtime int64
		)
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Content, &original, &doc.MimeType, &ctime, &mtime); err != nil {
			return nil, err
		}
		doc.OriginalContent = fromNullString(original)
		doc.CreatedAt = timeutil.FromMillis(ctime)
		doc.UpdatedAt = timeutil.FromMillis(mtime)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLStore) UpdateDocument(ctx context.Context, id int64, patch model.DocumentPatch) (*model.Document, error) {
	data := map[string]interface{}{
		"mtime": timeutil.ToMillis(s.now()),
	}
	if patch.Name != nil {
		data["name"] = *patch.Name
	}
	if patch.Content != nil {
		data["content"] = *patch.Content
	}
	if patch.OriginalContent != nil {
		data["original_content"] = *patch.OriginalContent
	}
	if patch.MimeType != nil {
		data["mime_type"] = *patch.MimeType
	}
	affected, err := s.update(ctx, s.db, "documents", map[string]interface{}{"id": id}, data)
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	if affected == 0 {
		return nil, appErr.ErrNotFound
	}
	return s.GetDocument(ctx, id)
}

func (s *SQLStore) DeleteDocument(ctx context.Context, id int64) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()
	ok, err := s.exists(ctx, tx, "documents", id)
	if err != nil || !ok {
		return false, err
	}
	steps := []struct {
		table string
		where map[string]interface{}
	}{
		{"changes", map[string]interface{}{
			"_custom_doc": builder.Custom("revision_id IN (SELECT id FROM revisions WHERE document_id = ?)", id),
		}},
		{"revisions", map[string]interface{}{"document_id": id}},
		{"documents", map[string]interface{}{"id": id}},
	}
	for _, step := range steps {
		sqlStr, args, err := builder.BuildDelete(step.table, step.where)
		if err != nil {
			return false, err
		}
		sqlStr, args = s.finalize(sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return false, fmt.Errorf("delete from %s: %w", step.table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) CreateRevision(ctx context.Context, input model.RevisionInput) (*model.Revision, error) {
	changesJSON, err := encodeSnapshots(input.Changes)
	if err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()
	ok, err := s.exists(ctx, tx, "documents", input.DocumentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("document %d: %w", input.DocumentID, appErr.ErrNotFound)
	}
	id, err := s.insert(ctx, tx, "revisions", map[string]interface{}{
		"document_id":  input.DocumentID,
		"content":      input.Content,
		"changes_json": changesJSON,
		"is_accepted":  false,
		"ctime":        timeutil.ToMillis(s.now()),
	})
	if err != nil {
		return nil, fmt.Errorf("insert revision: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetRevision(ctx, id)
}

func (s *SQLStore) GetRevision(ctx context.Context, id int64) (*model.Revision, error) {
	revs, err := s.selectRevisions(ctx, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &revs[0], nil
}

func (s *SQLStore) ListRevisionsForDocument(ctx context.Context, documentID int64) ([]model.Revision, error) {
	return s.selectRevisions(ctx, map[string]interface{}{
		"document_id": documentID,
		"_orderby":    "id asc",
	})
}

func (s *SQLStore) selectRevisions(ctx context.Context, where map[string]interface{}) ([]model.Revision, error) {
	sqlStr, args, err := builder.BuildSelect("revisions", where, revisionColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = s.finalize(sqlStr, args)
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	revs := make([]model.Revision, 0)
	for rows.Next() {
		var (
			rev         model.Revision
			changesJSON string
			ctime       int64
		)
		if err := rows.Scan(&rev.ID, &rev.DocumentID, &rev.Content, &changesJSON, &rev.IsAccepted, &ctime); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(changesJSON), &rev.Changes); err != nil {
			return nil, fmt.Errorf("decode changes of revision %d: %w", rev.ID, err)
		}
		rev.CreatedAt = timeutil.FromMillis(ctime)
		revs = append(revs, rev)
	}
	return revs, rows.Err()
}

func (s *SQLStore) UpdateRevision(ctx context.Context, id int64, patch model.RevisionPatch) (*model.Revision, error) {
	data := map[string]interface{}{}
	if patch.Content != nil {
		data["content"] = *patch.Content
	}
	if patch.Changes != nil {
		changesJSON, err := encodeSnapshots(patch.Changes)
		if err != nil {
			return nil, err
		}
		data["changes_json"] = changesJSON
	}
	if patch.IsAccepted != nil {
		data["is_accepted"] = *patch.IsAccepted
	}
	if len(data) == 0 {
		return s.GetRevision(ctx, id)
	}
	affected, err := s.update(ctx, s.db, "revisions", map[string]interface{}{"id": id}, data)
	if err != nil {
		return nil, fmt.Errorf("update revision: %w", err)
	}
	if affected == 0 {
		return nil, appErr.ErrNotFound
	}
	return s.GetRevision(ctx, id)
}

func (s *SQLStore) CreateChange(ctx context.Context, input model.ChangeInput) (*model.Change, error) {
	if !input.Type.Valid() {
		return nil, fmt.Errorf("change type %q: %w", input.Type, appErr.ErrInvalid)
	}
	ok, err := s.exists(ctx, s.db, "revisions", input.RevisionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("revision %d: %w", input.RevisionID, appErr.ErrNotFound)
	}
	id, err := s.insert(ctx, s.db, "changes", map[string]interface{}{
		"revision_id":      input.RevisionID,
		"type":             string(input.Type),
		"line_number":      input.LineNumber,
		"content":          input.Content,
		"original_content": toNullString(input.OriginalContent),
		"status":           string(model.ChangeStatusPending),
		"ctime":            timeutil.ToMillis(s.now()),
	})
	if err != nil {
		return nil, fmt.Errorf("insert change: %w", err)
	}
	return s.GetChange(ctx, id)
}

func (s *SQLStore) GetChange(ctx context.Context, id int64) (*model.Change, error) {
	changes, err := s.selectChanges(ctx, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &changes[0], nil
}

func (s *SQLStore) ListChangesForRevision(ctx context.Context, revisionID int64) ([]model.Change, error) {
	return s.selectChanges(ctx, map[string]interface{}{
		"revision_id": revisionID,
		"_orderby":    "id asc",
	})
}

func (s *SQLStore) selectChanges(ctx context.Context, where map[string]interface{}) ([]model.Change, error) {
	sqlStr, args, err := builder.BuildSelect("changes", where, changeColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = s.finalize(sqlStr, args)
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	changes := make([]model.Change, 0)
	for rows.Next() {
		var (
			change     model.Change
			changeType string
			status     string
			original   sql.NullString
			ctime      int64
		)
		if err := rows.Scan(&change.ID, &change.RevisionID, &changeType, &change.LineNumber, &change.Content, &original, &status, &ctime); err != nil {
			return nil, err
		}
		change.Type = model.ChangeType(changeType)
		change.Status = model.ChangeStatus(status)
		change.OriginalContent = fromNullString(original)
		change.CreatedAt = timeutil.FromMillis(ctime)
		changes = append(changes, change)
	}
	return changes, rows.Err()
}

func (s *SQLStore) UpdateChange(ctx context.Context, id int64, patch model.ChangePatch) (*model.Change, error) {
	data := map[string]interface{}{}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return nil, fmt.Errorf("change type %q: %w", *patch.Type, appErr.ErrInvalid)
		}
		data["type"] = string(*patch.Type)
	}
	if patch.LineNumber != nil {
		data["line_number"] = *patch.LineNumber
	}
	if patch.Content != nil {
		data["content"] = *patch.Content
	}
	if patch.OriginalContent != nil {
		data["original_content"] = *patch.OriginalContent
	}
	if len(data) == 0 {
		return s.GetChange(ctx, id)
	}
	affected, err := s.update(ctx, s.db, "changes", map[string]interface{}{"id": id}, data)
	if err != nil {
		return nil, fmt.Errorf("update change: %w", err)
	}
	if affected == 0 {
		return nil, appErr.ErrNotFound
	}
	return s.GetChange(ctx, id)
}

func (s *SQLStore) UpdateChangeStatus(ctx context.Context, id int64, status model.ChangeStatus) (*model.Change, error) {
	if !status.IsResolution() {
		return nil, fmt.Errorf("change status %q: %w", status, appErr.ErrInvalid)
	}
	where := map[string]interface{}{
		"id":     id,
		"status": string(model.ChangeStatusPending),
	}
	affected, err := s.update(ctx, s.db, "changes", where, map[string]interface{}{"status": string(status)})
	if err != nil {
		return nil, fmt.Errorf("update change status: %w", err)
	}
	if affected == 0 {
		current, err := s.GetChange(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("change %d already %s: %w", id, current.Status, appErr.ErrConflict)
	}
	return s.GetChange(ctx, id)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func encodeSnapshots(changes []model.ChangeSnapshot) (string, error) {
	if changes == nil {
		changes = []model.ChangeSnapshot{}
	}
	raw, err := json.Marshal(changes)
	if err != nil {
		return "", fmt.Errorf("encode change snapshots: %w", err)
	}
	return string(raw), nil
}

func toNullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func fromNullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
