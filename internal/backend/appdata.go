package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/models"
	"github.com/fieldline/paydesk/internal/tabular"
)

// AppDataPayload is the backend's denormalized state snapshot: the
// authenticated user plus a set of named columnar tables (transactions,
// projects, template, redirect, users, limits, campaigns, ...). Keys the
// backend sends that are neither the user nor a table land in Extra.
type AppDataPayload struct {
	User   *models.User
	Tables map[string]tabular.Table
	Extra  map[string]json.RawMessage
}

// UnmarshalJSON splits the flat snapshot object into user, tables, and
// everything else. A value only counts as a table when it carries headers;
// shape problems inside a table surface later, loudly, at decode time.
func (p *AppDataPayload) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode app data object: %w", err)
	}

	p.Tables = make(map[string]tabular.Table)
	p.Extra = make(map[string]json.RawMessage)

	for key, value := range raw {
		if key == "user" {
			if string(value) == "null" {
				continue
			}
			var u models.User
			if err := json.Unmarshal(value, &u); err != nil {
				return fmt.Errorf("decode user: %w", err)
			}
			p.User = &u
			continue
		}

		var t tabular.Table
		if err := json.Unmarshal(value, &t); err == nil && t.Headers != nil {
			p.Tables[key] = t
			continue
		}
		p.Extra[key] = value
	}

	return nil
}

// UpdateAppData fetches a fresh full state snapshot from the backend.
// This is the refresh behind both the reconciliation sweep and the
// settlement poll.
func (c *Client) UpdateAppData(ctx context.Context) (*AppDataPayload, error) {
	envelope, err := c.CallFunction(ctx, "updateAppData", nil)
	if err != nil {
		return nil, err
	}
	return parseAppData(envelope)
}

func parseAppData(envelope *Response) (*AppDataPayload, error) {
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("%w: app data missing from response", config.ErrMalformedPayload)
	}

	var payload AppDataPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrMalformedPayload, err)
	}
	return &payload, nil
}
