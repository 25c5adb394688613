package headlines

import "fmt"

// StorageError reports a failed read or write against blob storage. It
// aborts the stage that hit it.
type StorageError struct {
	Op  string // "get" or "put"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
