package compiler

import (
	"fmt"
	"os"
	"sync"
)

// Artifact is a produced document still on disk in its call directory.
type Artifact struct {
	Path   string
	Token  string
	Engine string
	Size   int64

	once    sync.Once
	release func() error
}

// ReadAll returns the artifact bytes.
func (a *Artifact) ReadAll() ([]byte, error) {
	b, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, newError(KindIO, "read artifact", err)
	}
	return b, nil
}

// Release removes the call directory. It is safe to call more than once.
func (a *Artifact) Release() error {
	var err error
	a.once.Do(func() {
		if a.release != nil {
			err = a.release()
		}
	})
	if err != nil {
		return fmt.Errorf("release %s: %w", a.Token, err)
	}
	return nil
}
