package middleware

import (
	"context"
	"strings"

	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/xcontext"
)

// Authenticate resolves the bearer token into a request user id.
func Authenticate(ctx context.Context) (context.Context, error) {
	req := xcontext.HTTPRequest(ctx)
	if req == nil {
		return nil, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
	}

	authorization := req.Header.Get("Authorization")
	token, found := strings.CutPrefix(authorization, "Bearer ")
	if !found || token == "" {
		return nil, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
	}

	info, err := xcontext.TokenEngine(ctx).Verify(token)
	if err != nil {
		return nil, errorx.New(errorx.Unauthenticated, "Invalid access token")
	}

	return xcontext.WithRequestUserID(ctx, info.ID), nil
}
