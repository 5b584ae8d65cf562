package middleware

import (
	"context"
	"crypto/subtle"

	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/xcontext"
)

// VerifyWebhook authenticates platform event pushes with the shared gateway
// secret.
func VerifyWebhook(ctx context.Context) (context.Context, error) {
	secret := xcontext.Configs(ctx).ApiServer.WebhookSecret
	if secret == "" {
		return nil, errorx.New(errorx.Unavailable, "Webhooks are not configured")
	}

	req := xcontext.HTTPRequest(ctx)
	if req == nil {
		return nil, errorx.New(errorx.Unauthenticated, "Invalid webhook signature")
	}

	given := req.Header.Get("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
		return nil, errorx.New(errorx.Unauthenticated, "Invalid webhook signature")
	}

	return ctx, nil
}
