// Package media copies externally-hosted product images into owned object
// storage so synced catalog rows never depend on a third-party host.
package media

import "fmt"

// FetchError indicates the external image could not be retrieved. The
// product row is marked failed; the sync run itself continues.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch image from %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch image from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// UnsupportedMediaError indicates the fetched payload is not an accepted
// image format
type UnsupportedMediaError struct {
	URL         string
	ContentType string
}

func (e *UnsupportedMediaError) Error() string {
	return fmt.Sprintf("unsupported media type %q for image %s", e.ContentType, e.URL)
}

// StorageError indicates the image was fetched but could not be written to
// owned storage
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to store image at %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
