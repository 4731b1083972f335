package upstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/GrandGaleTechnologies/docops-console/internal/models"
)

// ListSyncs fetches a page of sync jobs across all projects.
func (c *Client) ListSyncs(ctx context.Context, token string, params models.SyncListParams) (*models.Paginated[models.Sync], error) {
	var page *models.Paginated[models.Sync]
	err := c.get(ctx, withQuery("/syncs", params.Values()), token, func(raw []byte) error {
		p, err := decodePaginated[models.Sync](raw)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// GetSync fetches a single sync job by id.
func (c *Client) GetSync(ctx context.Context, token string, id int64) (*models.Sync, error) {
	var sync models.Sync
	err := c.get(ctx, fmt.Sprintf("/syncs/%d", id), token, func(raw []byte) error {
		return decodeMsg(raw, &sync)
	})
	if err != nil {
		return nil, err
	}
	return &sync, nil
}

// TriggerSync asks the platform to run the sync job again.
func (c *Client) TriggerSync(ctx context.Context, token string, id int64) (*models.Sync, error) {
	raw, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/syncs/%d/trigger", id), token, nil)
	if err != nil {
		return nil, err
	}
	var sync models.Sync
	if err := decodeMsg(raw, &sync); err != nil {
		return nil, err
	}
	return &sync, nil
}

// DeleteSync removes a sync job record.
func (c *Client) DeleteSync(ctx context.Context, token string, id int64) error {
	raw, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/syncs/%d", id), token, nil)
	if err != nil {
		return err
	}
	return decodeMsg(raw, nil)
}
