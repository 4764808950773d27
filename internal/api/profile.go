package api

import (
	"context"
	"net/http"

	"github.com/akvekariya/aichatbot-reactnative/internal/types"
	"github.com/akvekariya/aichatbot-reactnative/internal/validate"
)

// ProfileInput is the user-editable profile payload.
type ProfileInput struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
}

func (in ProfileInput) validate() error {
	if err := validate.Name(in.Name); err != nil {
		return err
	}
	if err := validate.Age(in.Age); err != nil {
		return err
	}
	return validate.AdditionalInfo(in.AdditionalInfo)
}

// CreateProfile creates the profile for the current account.
func (c *Client) CreateProfile(ctx context.Context, in ProfileInput) (types.Profile, error) {
	if err := in.validate(); err != nil {
		return types.Profile{}, err
	}
	var out types.ProfileResponse
	err := c.call(ctx, http.MethodPost, "/api/profile", "profile.create", in, &out, nil)
	if err != nil {
		return types.Profile{}, err
	}
	return out.Data, nil
}

// GetProfile fetches the current account's profile.
func (c *Client) GetProfile(ctx context.Context) (types.Profile, error) {
	var out types.ProfileResponse
	err := c.call(ctx, http.MethodGet, "/api/profile", "profile.get", nil, &out, nil)
	if err != nil {
		return types.Profile{}, err
	}
	return out.Data, nil
}

// UpdateProfile replaces the current account's profile.
func (c *Client) UpdateProfile(ctx context.Context, in ProfileInput) (types.Profile, error) {
	if err := in.validate(); err != nil {
		return types.Profile{}, err
	}
	var out types.ProfileResponse
	err := c.call(ctx, http.MethodPut, "/api/profile", "profile.update", in, &out, nil)
	if err != nil {
		return types.Profile{}, err
	}
	return out.Data, nil
}

// DeleteProfile removes the current account's profile.
func (c *Client) DeleteProfile(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, "/api/profile", "profile.delete", nil, nil, nil)
}
