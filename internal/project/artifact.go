package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Artifact is a file that only lives as long as one guarded scope
type Artifact struct {
	Path string
	// OnRemove, if set, is called right before the file is deleted.
	OnRemove func(path string)
}

// DeferDeletion runs action and then deletes the artifact, whether action
// succeeded, failed or panicked. The action's result is returned unchanged;
// a failed deletion is joined into the returned error. A file that is
// already gone counts as deleted.
func DeferDeletion[T any](a Artifact, action func() (T, error)) (result T, err error) {
	defer func() {
		if rmErr := a.remove(); rmErr != nil {
			err = errors.Join(err, rmErr)
		}
	}()
	return action()
}

func (a Artifact) remove() error {
	if a.OnRemove != nil {
		a.OnRemove(a.Path)
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing temporary artifact %s: %w", a.Path, err)
	}
	return nil
}
