package model

import (
	"fmt"
	"strings"
	"time"
)

type ChangeType string

const (
	ChangeTypeAddition     ChangeType = "addition"
	ChangeTypeDeletion     ChangeType = "deletion"
	ChangeTypeModification ChangeType = "modification"
)

func (t ChangeType) Valid() bool {
	switch t {
	case ChangeTypeAddition, ChangeTypeDeletion, ChangeTypeModification:
		return true
	}
	return false
}

type ChangeStatus string

const (
	ChangeStatusPending  ChangeStatus = "pending"
	ChangeStatusAccepted ChangeStatus = "accepted"
	ChangeStatusRejected ChangeStatus = "rejected"
)

// IsResolution reports whether the status is a terminal review decision.
func (s ChangeStatus) IsResolution() bool {
	return s == ChangeStatusAccepted || s == ChangeStatusRejected
}

// ParseResolution accepts only the terminal statuses a reviewer may set.
func ParseResolution(raw string) (ChangeStatus, error) {
	status := ChangeStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.IsResolution() {
		return "", fmt.Errorf("status must be accepted or rejected, got %q", raw)
	}
	return status, nil
}

// ChangeSnapshot is a proposed change as captured on its revision.
type ChangeSnapshot struct {
	Type            ChangeType `json:"type"`
	LineNumber      int        `json:"lineNumber"`
	Content         string     `json:"content"`
	OriginalContent *string    `json:"originalContent,omitempty"`
}

type Change struct {
	ID              int64        `json:"id"`
	RevisionID      int64        `json:"revisionId"`
	Type            ChangeType   `json:"type"`
	LineNumber      int          `json:"lineNumber"`
	Content         string       `json:"content"`
	OriginalContent *string      `json:"originalContent,omitempty"`
	Status          ChangeStatus `json:"status"`
	CreatedAt       time.Time    `json:"createdAt"`
}

func (c Change) Snapshot() ChangeSnapshot {
	return ChangeSnapshot{
		Type:            c.Type,
		LineNumber:      c.LineNumber,
		Content:         c.Content,
		OriginalContent: c.OriginalContent,
	}
}

type ChangeInput struct {
	RevisionID      int64
	Type            ChangeType
	LineNumber      int
	Content         string
	OriginalContent *string
}

func (s ChangeSnapshot) Input(revisionID int64) ChangeInput {
	return ChangeInput{
		RevisionID:      revisionID,
		Type:            s.Type,
		LineNumber:      s.LineNumber,
		Content:         s.Content,
		OriginalContent: s.OriginalContent,
	}
}

type ChangePatch struct {
	Type            *ChangeType
	LineNumber      *int
	Content         *string
	OriginalContent *string
}
