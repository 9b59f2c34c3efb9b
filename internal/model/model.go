// Package model holds the records the forms backend persists.
//
// Submissions are schema-less: whatever the form posted is kept as a
// Document. Only the fields the server owns (timestamps, file references)
// are typed.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Server-owned keys. A client sending these has them replaced.
const (
	KeySubmittedAt = "submittedAt"
	KeyFiles       = "files"
)

// Document is a free-form submission body.
type Document map[string]any

// String returns the trimmed string value of key. Lists yield their first
// element and numbers their literal text; anything else returns "".
func (d Document) String(key string) string {
	switch v := d[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case []string:
		if len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	case json.Number:
		return v.String()
	case float64, int, int64, bool:
		return fmt.Sprint(v)
	}
	return ""
}

// FirstOf returns the first non-empty String among keys.
func (d Document) FirstOf(keys ...string) string {
	for _, k := range keys {
		if s := d.String(k); s != "" {
			return s
		}
	}
	return ""
}

// withoutReserved returns a shallow copy of d minus server-owned keys.
func (d Document) withoutReserved() Document {
	out := make(Document, len(d))
	for k, v := range d {
		if k == KeySubmittedAt || k == KeyFiles {
			continue
		}
		out[k] = v
	}
	return out
}

// FileRef points at an uploaded file in upload storage.
type FileRef struct {
	OriginalName string `json:"originalName"`
	StoredName   string `json:"storedName"`
	StoragePath  string `json:"storagePath"`
}

// ContactSubmission is a contact form post.
type ContactSubmission struct {
	ID          uuid.UUID
	Fields      Document
	SubmittedAt time.Time
}

// NewContactSubmission stamps fields with submittedAt.
func NewContactSubmission(fields Document, submittedAt time.Time) *ContactSubmission {
	return &ContactSubmission{
		Fields:      fields.withoutReserved(),
		SubmittedAt: submittedAt.UTC(),
	}
}

// Email is the submitter's address, if any.
func (c *ContactSubmission) Email() string {
	return c.Fields.String("email")
}

// MarshalJSON renders the flattened document.
func (c *ContactSubmission) MarshalJSON() ([]byte, error) {
	doc := c.Fields.withoutReserved()
	doc[KeySubmittedAt] = c.SubmittedAt
	return json.Marshal(doc)
}

// JobApplication is an application form post with its uploaded files.
type JobApplication struct {
	ID          uuid.UUID
	Fields      Document
	Files       map[string][]FileRef
	SubmittedAt time.Time
}

// NewJobApplication stamps fields with submittedAt and attaches files.
func NewJobApplication(fields Document, files map[string][]FileRef, submittedAt time.Time) *JobApplication {
	if files == nil {
		files = map[string][]FileRef{}
	}
	return &JobApplication{
		Fields:      fields.withoutReserved(),
		Files:       files,
		SubmittedAt: submittedAt.UTC(),
	}
}

// Email is the applicant's address, if any.
func (a *JobApplication) Email() string {
	return a.Fields.String("email")
}

// MarshalJSON renders the flattened document.
func (a *JobApplication) MarshalJSON() ([]byte, error) {
	doc := a.Fields.withoutReserved()
	doc[KeySubmittedAt] = a.SubmittedAt
	doc[KeyFiles] = a.Files
	return json.Marshal(doc)
}

// NewsletterSubscription is one subscribed address.
type NewsletterSubscription struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribedAt"`
}
