package model

import "time"

type Document struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Content         string    `json:"content"`
	OriginalContent *string   `json:"originalContent"`
	MimeType        string    `json:"mimeType"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Baseline returns the text that user edits are diffed against.
func (d *Document) Baseline() string {
	if d.OriginalContent != nil {
		return *d.OriginalContent
	}
	return d.Content
}

type DocumentInput struct {
	Name            string  `json:"name"`
	Content         string  `json:"content"`
	OriginalContent *string `json:"originalContent"`
	MimeType        string  `json:"mimeType"`
}

// DocumentPatch carries the fields to merge; nil fields are left untouched.
type DocumentPatch struct {
	Name            *string `json:"name"`
	Content         *string `json:"content"`
	OriginalContent *string `json:"originalContent"`
	MimeType        *string `json:"mimeType"`
}
