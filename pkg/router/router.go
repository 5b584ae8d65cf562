package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before the handler. It can enrich the context; a
// returned error short-circuits the request.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc runs after the handler with the final request context and the
// handler outcome.
type CloserFunc func(ctx context.Context, err error)

type Router struct {
	Inner gin.IRouter

	baseCtx context.Context
	befores []MiddlewareFunc
	afters  []CloserFunc
}

// New creates a router rooted at the given context. The context carries the
// process-wide objects (configs, logger, db, token engine) every request
// starts from.
func New(ctx context.Context) *Router {
	gin.SetMode(gin.ReleaseMode)
	return &Router{
		Inner:   gin.New(),
		baseCtx: ctx,
	}
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.Inner.GET(pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.Inner.POST(pattern, wrapHandler(r, http.MethodPost, handler))
}

func (r *Router) Before(middleware MiddlewareFunc) {
	r.befores = append(r.befores, middleware)
}

func (r *Router) After(closer CloserFunc) {
	r.afters = append(r.afters, closer)
}

// Branch creates a sub-router sharing the parent pattern and middlewares.
func (r *Router) Branch(pattern string) *Router {
	return &Router{
		Inner:   r.Inner.Group(pattern),
		baseCtx: r.baseCtx,
		befores: append([]MiddlewareFunc{}, r.befores...),
		afters:  append([]CloserFunc{}, r.afters...),
	}
}

func (r *Router) Handler() http.Handler {
	return r.Inner.(*gin.Engine)
}
