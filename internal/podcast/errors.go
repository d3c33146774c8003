package podcast

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when there is no speech to build an episode from.
// An intro or ad on its own is not a podcast.
var ErrEmptyInput = errors.New("no speech segments to assemble")

// ExportError wraps a failure to write the final file
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("failed to export %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
