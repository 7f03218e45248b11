package filestore

import "time"

// ObjectInfo describes a single object stored in a bucket.
type ObjectInfo struct {
	Bucket string `json:"bucket"`

	// Key is the full object path within the bucket (e.g. "reports/run.json").
	Key string `json:"key"`

	// Size is the byte size of the object. -1 if unknown.
	Size int64 `json:"size"`

	ContentType string `json:"content_type,omitempty"`

	// ETag is the object's entity tag, as returned by the backend.
	ETag string `json:"etag,omitempty"`

	LastModified time.Time `json:"last_modified,omitempty"`
}

// PutOptions carries the headers stored with an uploaded object.
type PutOptions struct {
	ContentType     string
	ContentEncoding string

	// Metadata is stored as user metadata (x-amz-meta-*).
	Metadata map[string]string
}
