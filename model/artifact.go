package model

import (
	"time"
)

// Artifact is a stored document attached to a policy. Bytes live in the blob
// backend; Location points at them.
type Artifact struct {
	ID          int64     `json:"id"`
	PolicyNo    int64     `json:"policyNumber"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Location    string    `json:"path"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Allowed artifact media
const (
	ContentTypePDF   = "application/pdf"
	ContentTypeImage = "image/"
)
