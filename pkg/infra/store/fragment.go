package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/bellwether/pkg/domain/interfaces"
	"github.com/m-mizutani/bellwether/pkg/domain/model"
)

// fragmentDir is the conventional changeset directory name
const fragmentDir = ".changeset"

type fragmentStore struct {
	baseDir string
}

// NewFragmentStore creates a store writing fragments under
// <baseDir>/.changeset/
func NewFragmentStore(baseDir string) interfaces.FragmentStore {
	if baseDir == "" {
		baseDir = "."
	}
	return &fragmentStore{baseDir: baseDir}
}

// Write persists one changeset fragment and returns its path. Fragment
// write failures are fatal to the invocation.
func (s *fragmentStore) Write(ctx context.Context, cs *model.Changeset) (string, error) {
	dir := filepath.Join(s.baseDir, fragmentDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", goerr.Wrap(err, "failed to create changeset directory", goerr.V("dir", dir))
	}

	path := filepath.Join(dir, cs.ID+".md")
	if err := os.WriteFile(path, []byte(cs.Render()), 0644); err != nil {
		return "", goerr.Wrap(err, "failed to write changeset fragment", goerr.V("path", path))
	}

	return path, nil
}
