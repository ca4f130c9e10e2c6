package core

import (
	"context"

	"pkt.systems/tabdeck/schema"
)

// Service is the transport-agnostic API of the tab registry. It is the sole
// owner of tab identity, order, titles, and activity; replicas observe it
// through snapshot pushes and never mutate it directly.
type Service interface {
	CreateTab(ctx context.Context, req schema.CreateTabRequest) (schema.CreateTabResponse, error)
	CloseTab(ctx context.Context, req schema.CloseTabRequest) (schema.CloseTabResponse, error)
	ActivateTab(ctx context.Context, req schema.ActivateTabRequest) (schema.ActivateTabResponse, error)
	ReorderTab(ctx context.Context, req schema.ReorderTabRequest) (schema.ReorderTabResponse, error)
	SetTitle(ctx context.Context, req schema.SetTitleRequest) (schema.SetTitleResponse, error)
	SetLoading(ctx context.Context, req schema.SetLoadingRequest) (schema.SetLoadingResponse, error)
	ListTabs(ctx context.Context, req schema.ListTabsRequest) (schema.ListTabsResponse, error)
}
