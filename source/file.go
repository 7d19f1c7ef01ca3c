package source

import (
	"context"
	"os"

	"github.com/kilianp07/kgc/core/schedule"
)

// FileLoader reads the schedule document from disk.
type FileLoader struct {
	path string
}

// NewFileLoader returns a loader for the JSON document at path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Load reads and normalizes the file. The context is only checked up front.
func (l *FileLoader) Load(ctx context.Context) ([]schedule.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, loadFailure(err)
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, loadFailure(err)
	}
	records, err := schedule.Decode(data)
	if err != nil {
		return nil, loadFailure(err)
	}
	return records, nil
}
