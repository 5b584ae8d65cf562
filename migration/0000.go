package migration

import (
	"context"

	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/pkg/xcontext"
)

// migrate0000 creates the schema at the latest version.
func migrate0000(ctx context.Context) error {
	return entity.MigrateTable(xcontext.DB(ctx))
}
