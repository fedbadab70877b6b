package projection

import (
	"context"

	"github.com/charleschow/topnum/internal/core/journal"
)

// Journal persists evaluated projections. Satisfied by *journal.Store.
type Journal interface {
	Record(ctx context.Context, e journal.Entry) error
}

var _ Journal = (*journal.Store)(nil)
