package repo

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/xxxsen/redline/internal/model"
)

// Snapshot is the serialized state of a MemoryStore.
type Snapshot struct {
	Documents      []model.Document `json:"documents"`
	Revisions      []model.Revision `json:"revisions"`
	Changes        []model.Change   `json:"changes"`
	NextDocumentID int64            `json:"nextDocumentId"`
	NextRevisionID int64            `json:"nextRevisionId"`
	NextChangeID   int64            `json:"nextChangeId"`
}

func (s *MemoryStore) Export() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := &Snapshot{
		Documents:      make([]model.Document, 0, len(s.documents)),
		Revisions:      make([]model.Revision, 0, len(s.revisions)),
		Changes:        make([]model.Change, 0, len(s.changes)),
		NextDocumentID: s.nextDocumentID,
		NextRevisionID: s.nextRevisionID,
		NextChangeID:   s.nextChangeID,
	}
	for _, doc := range s.documents {
		snap.Documents = append(snap.Documents, *copyDocument(doc))
	}
	for _, rev := range s.revisions {
		snap.Revisions = append(snap.Revisions, *copyRevision(rev))
	}
	for _, change := range s.changes {
		snap.Changes = append(snap.Changes, *copyChange(change))
	}
	sort.Slice(snap.Documents, func(i, j int) bool { return snap.Documents[i].ID < snap.Documents[j].ID })
	sort.Slice(snap.Revisions, func(i, j int) bool { return snap.Revisions[i].ID < snap.Revisions[j].ID })
	sort.Slice(snap.Changes, func(i, j int) bool { return snap.Changes[i].ID < snap.Changes[j].ID })
	return snap
}

// Restore replaces the store contents. Id counters never move backwards
// past an id present in the snapshot.
func (s *MemoryStore) Restore(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	documents := make(map[int64]*model.Document, len(snap.Documents))
	revisions := make(map[int64]*model.Revision, len(snap.Revisions))
	changes := make(map[int64]*model.Change, len(snap.Changes))
	nextDoc, nextRev, nextChange := snap.NextDocumentID, snap.NextRevisionID, snap.NextChangeID
	for i := range snap.Documents {
		doc := copyDocument(&snap.Documents[i])
		documents[doc.ID] = doc
		nextDoc = max(nextDoc, doc.ID)
	}
	for i := range snap.Revisions {
		rev := copyRevision(&snap.Revisions[i])
		if _, ok := documents[rev.DocumentID]; !ok {
			return fmt.Errorf("revision %d references missing document %d", rev.ID, rev.DocumentID)
		}
		revisions[rev.ID] = rev
		nextRev = max(nextRev, rev.ID)
	}
	for i := range snap.Changes {
		change := copyChange(&snap.Changes[i])
		if _, ok := revisions[change.RevisionID]; !ok {
			return fmt.Errorf("change %d references missing revision %d", change.ID, change.RevisionID)
		}
		changes[change.ID] = change
		nextChange = max(nextChange, change.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = documents
	s.revisions = revisions
	s.changes = changes
	s.nextDocumentID = nextDoc
	s.nextRevisionID = nextRev
	s.nextChangeID = nextChange
	return nil
}

func (s *MemoryStore) WriteSnapshot(w io.Writer) error {
	return json.NewEncoder(w).Encode(s.Export())
}

func (s *MemoryStore) ReadSnapshot(r io.Reader) error {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return s.Restore(&snap)
}
