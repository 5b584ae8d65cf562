package vk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskex-lab/backend/pkg/api"
)

type stubClient struct {
	response *api.Response
}

func (c *stubClient) Header(name, value string) api.Client { return c }
func (c *stubClient) Query(query api.Parameter) api.Client { return c }
func (c *stubClient) Body(body api.Body) api.Client        { return c }

func (c *stubClient) POST(ctx context.Context) (*api.Response, error) { return c.response, nil }
func (c *stubClient) GET(ctx context.Context) (*api.Response, error)  { return c.response, nil }

type stubGenerator struct {
	client api.Client
}

func (g *stubGenerator) New(path string, args ...any) api.Client { return g.client }

func newStubEndpoint(body api.JSON) *Endpoint {
	return &Endpoint{
		apiGenerator: &stubGenerator{client: &stubClient{response: &api.Response{Body: body}}},
	}
}

func Test_Endpoint_IsGroupMember_Member(t *testing.T) {
	endpoint := newStubEndpoint(api.JSON{
		"response": map[string]any{"member": float64(1)},
	})

	membership, err := endpoint.IsGroupMember(context.Background(), "1", "777")
	require.NoError(t, err)
	require.True(t, membership.Member)
	require.False(t, membership.Request)
}

func Test_Endpoint_IsGroupMember_PendingRequest(t *testing.T) {
	endpoint := newStubEndpoint(api.JSON{
		"response": map[string]any{"member": float64(0), "request": float64(1)},
	})

	membership, err := endpoint.IsGroupMember(context.Background(), "1", "777")
	require.NoError(t, err)
	require.False(t, membership.Member)
	require.True(t, membership.Request)
}

func Test_Endpoint_IsGroupMember_ApiError(t *testing.T) {
	endpoint := newStubEndpoint(api.JSON{
		"error": map[string]any{"error_code": float64(15), "error_msg": "Access denied"},
	})

	_, err := endpoint.IsGroupMember(context.Background(), "1", "777")
	require.ErrorContains(t, err, "Access denied")
}
