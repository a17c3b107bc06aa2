package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/bellwether/pkg/domain/model"
	"github.com/m-mizutani/bellwether/pkg/domain/types"
	"github.com/m-mizutani/bellwether/pkg/infra/store"
)

func TestFragmentStore_Write(t *testing.T) {
	ctx := context.Background()

	t.Run("writes fragment under .changeset", func(t *testing.T) {
		baseDir := t.TempDir()
		s := store.NewFragmentStore(baseDir)

		cs := &model.Changeset{
			ID:          "renovate-a1b2c3d4",
			ReleaseUnit: "webapp",
			BumpType:    types.BumpPatch,
			Summary:     "📦 Update npm dependency `lodash` from `4.17.20` to `4.17.21`",
		}

		path, err := s.Write(ctx, cs)
		gt.NoError(t, err)
		gt.Equal(t, path, filepath.Join(baseDir, ".changeset", "renovate-a1b2c3d4.md"))

		data, err := os.ReadFile(path)
		gt.NoError(t, err)
		gt.Equal(t, string(data), "---\n\"webapp\": patch\n---\n\n📦 Update npm dependency `lodash` from `4.17.20` to `4.17.21`\n")
	})

	t.Run("creates directory on demand", func(t *testing.T) {
		baseDir := filepath.Join(t.TempDir(), "repo")
		gt.NoError(t, os.MkdirAll(baseDir, 0755))
		s := store.NewFragmentStore(baseDir)

		_, err := s.Write(ctx, &model.Changeset{
			ID: "renovate-x", ReleaseUnit: "app", BumpType: types.BumpMinor, Summary: "s",
		})
		gt.NoError(t, err)

		info, err := os.Stat(filepath.Join(baseDir, ".changeset"))
		gt.NoError(t, err)
		gt.True(t, info.IsDir())
	})
}
