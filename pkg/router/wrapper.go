package router

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/taskex-lab/backend/pkg/errorx"
	"github.com/taskex-lab/backend/pkg/xcontext"
)

// mergedContext takes deadline and cancellation from the request while
// resolving values against the process-wide base context as a fallback.
type mergedContext struct {
	context.Context
	base context.Context
}

func (c mergedContext) Value(key any) any {
	if value := c.Context.Value(key); value != nil {
		return value
	}

	return c.base.Value(key)
}

func wrapHandler[Request, Response any](
	r *Router, method string, handler HandlerFunc[Request, Response],
) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		ctx := context.Context(mergedContext{
			Context: gctx.Request.Context(),
			base:    r.baseCtx,
		})
		ctx = xcontext.WithHTTPRequest(ctx, gctx.Request)

		req := new(Request)
		var bindErr error
		switch method {
		case "GET":
			bindErr = gctx.ShouldBindQuery(req)
		default:
			if gctx.Request.ContentLength > 0 {
				bindErr = gctx.ShouldBindJSON(req)
			}
		}

		if bindErr != nil {
			writeError(gctx, errorx.New(errorx.BadRequest, "Cannot bind the request"))
			return
		}

		var err error
		for _, before := range r.befores {
			next, berr := before(ctx)
			if berr != nil {
				err = berr
				break
			}

			ctx = next
		}

		var resp *Response
		if err == nil {
			resp, err = handler(ctx, req)
		}

		for _, after := range r.afters {
			after(ctx, err)
		}

		if err != nil {
			writeError(gctx, err)
			return
		}

		writeData(gctx, resp)
	}
}
