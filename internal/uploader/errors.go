package uploader

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when no principal can be resolved for the
// request. Nothing has been written when this is returned.
var ErrUnauthenticated = errors.New("not authenticated")

// StorageWriteError wraps a failed object-store write.
type StorageWriteError struct {
	Key string
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("storage write failed for %s: %v", e.Key, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// SignURLError wraps a failed signed URL mint.
type SignURLError struct {
	Key string
	Err error
}

func (e *SignURLError) Error() string {
	return fmt.Sprintf("signed url failed for %s: %v", e.Key, e.Err)
}

func (e *SignURLError) Unwrap() error { return e.Err }

// MetadataInsertError wraps a failed metadata row insert. The blob named by
// Key is already stored when this is returned.
type MetadataInsertError struct {
	Key string
	Err error
}

func (e *MetadataInsertError) Error() string {
	return fmt.Sprintf("metadata insert failed for %s: %v", e.Key, e.Err)
}

func (e *MetadataInsertError) Unwrap() error { return e.Err }
