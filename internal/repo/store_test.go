package repo

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/redline/internal/model"
	appErr "github.com/xxxsen/redline/internal/pkg/errors"
)

func strPtr(s string) *string { return &s }

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, DriverSqlite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, ApplyMigrations(ctx, db))
	store := NewSQLStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func forEachStore(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLiteStore(t)) })
}

func TestDocumentIDsIncrease(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		var last int64
		for i := 0; i < 3; i++ {
			doc, err := store.CreateDocument(ctx, model.DocumentInput{Name: "n", Content: "c", MimeType: "text/plain"})
			require.NoError(t, err)
			require.Greater(t, doc.ID, last)
			last = doc.ID
		}
		require.Equal(t, int64(3), last)

		ok, err := store.DeleteDocument(ctx, last)
		require.NoError(t, err)
		require.True(t, ok)
		doc, err := store.CreateDocument(ctx, model.DocumentInput{Name: "n", Content: "c", MimeType: "text/plain"})
		require.NoError(t, err)
		require.Greater(t, doc.ID, last)
	})
}

func TestDocumentCRUD(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		doc, err := store.CreateDocument(ctx, model.DocumentInput{Name: "draft", Content: "a\nb", MimeType: "text/plain"})
		require.NoError(t, err)
		require.Nil(t, doc.OriginalContent)
		require.False(t, doc.CreatedAt.IsZero())

		got, err := store.GetDocument(ctx, doc.ID)
		require.NoError(t, err)
		require.Equal(t, "draft", got.Name)
		require.Equal(t, "a\nb", got.Content)

		updated, err := store.UpdateDocument(ctx, doc.ID, model.DocumentPatch{
			Content:         strPtr("a\nc"),
			OriginalContent: strPtr("a\nb"),
		})
		require.NoError(t, err)
		require.Equal(t, "draft", updated.Name)
		require.Equal(t, "a\nc", updated.Content)
		require.NotNil(t, updated.OriginalContent)
		require.Equal(t, "a\nb", *updated.OriginalContent)
		require.False(t, updated.UpdatedAt.Before(doc.UpdatedAt))

		docs, err := store.ListDocuments(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 1)

		_, err = store.GetDocument(ctx, 999)
		require.ErrorIs(t, err, appErr.ErrNotFound)
		_, err = store.UpdateDocument(ctx, 999, model.DocumentPatch{Name: strPtr("x")})
		require.ErrorIs(t, err, appErr.ErrNotFound)
	})
}

func TestDeleteUnknownDocument(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ok, err := store.DeleteDocument(context.Background(), 42)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestDeleteDocumentCascades(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		doc, err := store.CreateDocument(ctx, model.DocumentInput{Name: "n", Content: "a", MimeType: "text/plain"})
		require.NoError(t, err)
		rev, err := store.CreateRevision(ctx, model.RevisionInput{DocumentID: doc.ID, Content: "b"})
		require.NoError(t, err)
		change, err := store.CreateChange(ctx, model.ChangeInput{
			RevisionID: rev.ID, Type: model.ChangeTypeModification, LineNumber: 1, Content: "b", OriginalContent: strPtr("a"),
		})
		require.NoError(t, err)

		ok, err := store.DeleteDocument(ctx, doc.ID)
		require.NoError(t, err)
		require.True(t, ok)

		_, err = store.GetRevision(ctx, rev.ID)
		require.ErrorIs(t, err, appErr.ErrNotFound)
		_, err = store.GetChange(ctx, change.ID)
		require.ErrorIs(t, err, appErr.ErrNotFound)
	})
}

func TestRevisionLifecycle(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		_, err := store.CreateRevision(ctx, model.RevisionInput{DocumentID: 7, Content: "x"})
		require.ErrorIs(t, err, appErr.ErrNotFound)

		doc, err := store.CreateDocument(ctx, model.DocumentInput{Name: "n", Content: "a", MimeType: "text/plain"})
		require.NoError(t, err)
		snaps := []model.ChangeSnapshot{
			{Type: model.ChangeTypeModification, LineNumber: 1, Content: "b", OriginalContent: strPtr("a")},
			{Type: model.ChangeTypeAddition, LineNumber: 2, Content: "c"},
		}
		rev, err := store.CreateRevision(ctx, model.RevisionInput{DocumentID: doc.ID, Content: "b\nc", Changes: snaps})
		require.NoError(t, err)
		require.False(t, rev.IsAccepted)
		require.Equal(t, snaps, rev.Changes)

		_, err = store.CreateRevision(ctx, model.RevisionInput{DocumentID: doc.ID, Content: "d"})
		require.NoError(t, err)
		revs, err := store.ListRevisionsForDocument(ctx, doc.ID)
		require.NoError(t, err)
		require.Len(t, revs, 2)
		require.Equal(t, rev.ID, revs[0].ID)
		require.NotNil(t, revs[1].Changes)

		accepted := true
		updated, err := store.UpdateRevision(ctx, rev.ID, model.RevisionPatch{IsAccepted: &accepted})
		require.NoError(t, err)
		require.True(t, updated.IsAccepted)
		require.Equal(t, "b\nc", updated.Content)

		_, err = store.UpdateRevision(ctx, 999, model.RevisionPatch{IsAccepted: &accepted})
		require.ErrorIs(t, err, appErr.ErrNotFound)
	})
}

func TestChangeStatusTransitions(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		doc, err := store.CreateDocument(ctx, model.DocumentInput{Name: "n", Content: "a", MimeType: "text/plain"})
		require.NoError(t, err)
		rev, err := store.CreateRevision(ctx, model.RevisionInput{DocumentID: doc.ID, Content: "a\nb"})
		require.NoError(t, err)
		change, err := store.CreateChange(ctx, model.ChangeInput{RevisionID: rev.ID, Type: model.ChangeTypeAddition, LineNumber: 2, Content: "b"})
		require.NoError(t, err)
		require.Equal(t, model.ChangeStatusPending, change.Status)
		require.Nil(t, change.OriginalContent)

		_, err = store.UpdateChangeStatus(ctx, change.ID, model.ChangeStatusPending)
		require.ErrorIs(t, err, appErr.ErrInvalid)
		_, err = store.UpdateChangeStatus(ctx, change.ID, model.ChangeStatus("maybe"))
		require.ErrorIs(t, err, appErr.ErrInvalid)

		resolved, err := store.UpdateChangeStatus(ctx, change.ID, model.ChangeStatusAccepted)
		require.NoError(t, err)
		require.Equal(t, model.ChangeStatusAccepted, resolved.Status)

		_, err = store.UpdateChangeStatus(ctx, change.ID, model.ChangeStatusRejected)
		require.ErrorIs(t, err, appErr.ErrConflict)
		_, err = store.UpdateChangeStatus(ctx, 999, model.ChangeStatusRejected)
		require.ErrorIs(t, err, appErr.ErrNotFound)

		got, err := store.GetChange(ctx, change.ID)
		require.NoError(t, err)
		require.Equal(t, model.ChangeStatusAccepted, got.Status)
	})
}

func TestChangeListAndUpdate(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		doc, err := store.CreateDocument(ctx, model.DocumentInput{Name: "n", Content: "a", MimeType: "text/plain"})
		require.NoError(t, err)
		rev, err := store.CreateRevision(ctx, model.RevisionInput{DocumentID: doc.ID, Content: "x"})
		require.NoError(t, err)

		_, err = store.CreateChange(ctx, model.ChangeInput{RevisionID: rev.ID, Type: "rename", LineNumber: 1})
		require.ErrorIs(t, err, appErr.ErrInvalid)
		_, err = store.CreateChange(ctx, model.ChangeInput{RevisionID: 999, Type: model.ChangeTypeDeletion, LineNumber: 1})
		require.ErrorIs(t, err, appErr.ErrNotFound)

		first, err := store.CreateChange(ctx, model.ChangeInput{RevisionID: rev.ID, Type: model.ChangeTypeDeletion, LineNumber: 1, Content: "a", OriginalContent: strPtr("a")})
		require.NoError(t, err)
		_, err = store.CreateChange(ctx, model.ChangeInput{RevisionID: rev.ID, Type: model.ChangeTypeAddition, LineNumber: 1, Content: "x"})
		require.NoError(t, err)

		changes, err := store.ListChangesForRevision(ctx, rev.ID)
		require.NoError(t, err)
		require.Len(t, changes, 2)
		require.Equal(t, first.ID, changes[0].ID)

		line := 3
		updated, err := store.UpdateChange(ctx, first.ID, model.ChangePatch{LineNumber: &line})
		require.NoError(t, err)
		require.Equal(t, 3, updated.LineNumber)
		require.Equal(t, model.ChangeTypeDeletion, updated.Type)

		empty, err := store.ListChangesForRevision(ctx, 999)
		require.NoError(t, err)
		require.Empty(t, empty)
	})
}

func TestMemoryStoreFirstResolutionWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	doc, err := store.CreateDocument(ctx, model.DocumentInput{Name: "n", Content: "a", MimeType: "text/plain"})
	require.NoError(t, err)
	rev, err := store.CreateRevision(ctx, model.RevisionInput{DocumentID: doc.ID, Content: "b"})
	require.NoError(t, err)
	change, err := store.CreateChange(ctx, model.ChangeInput{RevisionID: rev.ID, Type: model.ChangeTypeAddition, LineNumber: 1, Content: "b"})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 16; i++ {
		status := model.ChangeStatusAccepted
		if i%2 == 1 {
			status = model.ChangeStatusRejected
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.UpdateChangeStatus(ctx, change.ID, status)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			if appErr.IsConflict(err) {
				conflicts++
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, successes)
	require.Equal(t, 15, conflicts)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	doc, err := store.CreateDocument(ctx, model.DocumentInput{Name: "n", Content: "a", MimeType: "text/plain"})
	require.NoError(t, err)
	doc.Name = "mutated"
	got, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, "n", got.Name)
}
