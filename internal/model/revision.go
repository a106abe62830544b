package model

import "time"

type Revision struct {
	ID         int64            `json:"id"`
	DocumentID int64            `json:"documentId"`
	Content    string           `json:"content"`
	Changes    []ChangeSnapshot `json:"changes"`
	IsAccepted bool             `json:"isAccepted"`
	CreatedAt  time.Time        `json:"createdAt"`
}

type RevisionInput struct {
	DocumentID int64
	Content    string
	Changes    []ChangeSnapshot
}

type RevisionPatch struct {
	Content    *string
	Changes    []ChangeSnapshot
	IsAccepted *bool
}
