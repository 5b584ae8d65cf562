package migration

import (
	"context"

	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/pkg/xcontext"
)

// migrate0001 backfills the vk_id column on databases created before VK
// account linking existed.
func migrate0001(ctx context.Context) error {
	db := xcontext.DB(ctx)
	if db.Migrator().HasColumn(&entity.User{}, "vk_id") {
		return nil
	}

	return db.Migrator().AddColumn(&entity.User{}, "vk_id")
}
