package gridapi

import (
	"context"
	"net/url"
	"strconv"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

// ListOptions is the pagination block shared by every collection filter.
// Zero values let the server apply its own defaults.
type ListOptions struct {
	Page    int
	PerPage int
}

func (o ListOptions) apply(q url.Values) {
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(o.PerPage))
	}
}

// listEnvelope is the server's collection response shape after key
// normalization.
type listEnvelope[T any] struct {
	Data []T            `json:"data"`
	Meta types.ListMeta `json:"meta"`
}

func list[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, types.ListMeta, error) {
	var env listEnvelope[T]
	if err := c.get(ctx, path, query, &env); err != nil {
		return nil, types.ListMeta{}, err
	}
	return env.Data, env.Meta, nil
}
