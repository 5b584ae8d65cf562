package migration

import (
	"context"

	"github.com/taskex-lab/backend/internal/entity"
	"github.com/taskex-lab/backend/pkg/xcontext"
)

type migrator struct {
	Version string
	Run     func(ctx context.Context) error
}

// Versions run in order; each applies once and is recorded afterwards.
var migrators = []migrator{
	{"0000", migrate0000},
	{"0001", migrate0001},
}

func Migrate(ctx context.Context) error {
	db := xcontext.DB(ctx)
	if err := db.AutoMigrate(&entity.Migration{}); err != nil {
		return err
	}

	for _, m := range migrators {
		var count int64
		err := db.Model(&entity.Migration{}).
			Where("version=?", m.Version).
			Count(&count).Error
		if err != nil {
			return err
		}

		if count > 0 {
			continue
		}

		if err := m.Run(ctx); err != nil {
			return err
		}

		if err := db.Create(&entity.Migration{Version: m.Version}).Error; err != nil {
			return err
		}

		xcontext.Logger(ctx).Infof("Applied migration %s", m.Version)
	}

	return nil
}
