package interfaces

import (
	"context"

	"github.com/m-mizutani/bellwether/pkg/domain/model"
)

// FragmentStore persists changeset fragments
type FragmentStore interface {
	// Write persists one changeset and returns its file path
	Write(ctx context.Context, cs *model.Changeset) (string, error)
}
