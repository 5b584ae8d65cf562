package middleware

import (
	"context"
	"errors"

	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/router"
	"github.com/taskex-lab/backend/pkg/xcontext"
)

func Logger() router.CloserFunc {
	return func(ctx context.Context, err error) {
		req := xcontext.HTTPRequest(ctx)
		if req == nil {
			return
		}

		info := req.Method + " | " + req.URL.Path
		if err != nil {
			var errx errorx.Error
			if errors.As(err, &errx) {
				xcontext.Logger(ctx).Warnf("%s | %d", info, errx.Code)
			} else {
				xcontext.Logger(ctx).Errorf("%s | %v", info, err)
			}

			return
		}

		xcontext.Logger(ctx).Infof(info)
	}
}
