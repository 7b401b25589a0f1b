package activities

import "fmt"

// PersistError marks a failure to write the local activity cache file. The
// in-memory dataset is still valid when this is returned.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist activity cache [%s]: %s", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// RemoteSyncError marks a failure to push the cache to the remote mirror.
// Local state is already saved when this is returned.
type RemoteSyncError struct {
	Err error
}

func (e *RemoteSyncError) Error() string {
	return fmt.Sprintf("sync activity cache to remote mirror: %s", e.Err)
}

func (e *RemoteSyncError) Unwrap() error {
	return e.Err
}
