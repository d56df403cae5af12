// SPDX-License-Identifier: Apache-2.0

package adapter

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/kodumbeats/etebase-go/models"
)

// HTTPClientConfig configures the REST adapter.
type HTTPClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

type httpServerAdapter struct {
	client *resty.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPServerAdapter constructs the REST implementation of
// [ServerAdapter].
func NewHTTPServerAdapter(cfg HTTPClientConfig) ServerAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	return &httpServerAdapter{client: cli}
}

func (h *httpServerAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

func (h *httpServerAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// request builds a request with the common headers: JSON content type,
// a per-request trace id, and the session token when one is stored.
func (h *httpServerAdapter) request(ctx context.Context) *resty.Request {
	req := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Request-Id", uuid.NewString())
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Token "+token)
	}
	return req
}

func (h *httpServerAdapter) Signup(ctx context.Context, user models.User) (models.LoginResponse, error) {
	var out models.LoginResponse
	resp, err := h.request(ctx).
		SetBody(user).
		SetResult(&out).
		Post("/api/v1/authentication/signup/")
	if err != nil {
		return models.LoginResponse{}, fmt.Errorf("signup request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.LoginResponse{}, err
	}

	h.SetToken(out.Token)
	return out, nil
}

func (h *httpServerAdapter) LoginChallenge(ctx context.Context, username string) (models.LoginChallenge, error) {
	var out models.LoginChallenge
	resp, err := h.request(ctx).
		SetBody(map[string]string{"username": username}).
		SetResult(&out).
		Post("/api/v1/authentication/login_challenge/")
	if err != nil {
		return models.LoginChallenge{}, fmt.Errorf("login challenge request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.LoginChallenge{}, err
	}
	return out, nil
}

func (h *httpServerAdapter) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	var out models.LoginResponse
	resp, err := h.request(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/api/v1/authentication/login/")
	if err != nil {
		return models.LoginResponse{}, fmt.Errorf("login request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.LoginResponse{}, err
	}

	h.SetToken(out.Token)
	return out, nil
}

func (h *httpServerAdapter) Logout(ctx context.Context) error {
	resp, err := h.request(ctx).Post("/api/v1/authentication/logout/")
	if err != nil {
		return fmt.Errorf("logout request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return err
	}
	h.SetToken("")
	return nil
}

func (h *httpServerAdapter) ChangePassword(ctx context.Context, req models.PasswordChangeRequest) error {
	resp, err := h.request(ctx).
		SetBody(req).
		Post("/api/v1/authentication/change_password/")
	if err != nil {
		return fmt.Errorf("change password request: %w", err)
	}
	return mapHTTPError(resp)
}

func (h *httpServerAdapter) UserProfile(ctx context.Context, username string) (models.UserProfile, error) {
	var out models.UserProfile
	resp, err := h.request(ctx).
		SetResult(&out).
		Get("/api/v1/user/" + username + "/")
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("user profile request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.UserProfile{}, err
	}
	return out, nil
}

func (h *httpServerAdapter) CollectionCreate(ctx context.Context, col models.EncryptedCollection) error {
	resp, err := h.request(ctx).
		SetBody(col).
		Post("/api/v1/collection/")
	if err != nil {
		return fmt.Errorf("collection create request: %w", err)
	}
	return mapHTTPError(resp)
}

func (h *httpServerAdapter) CollectionGet(ctx context.Context, uid string) (models.EncryptedCollection, error) {
	var out models.EncryptedCollection
	resp, err := h.request(ctx).
		SetResult(&out).
		Get("/api/v1/collection/" + uid + "/")
	if err != nil {
		return models.EncryptedCollection{}, fmt.Errorf("collection get request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.EncryptedCollection{}, err
	}
	return out, nil
}

func (h *httpServerAdapter) CollectionList(ctx context.Context, stoken string) (models.CollectionList, error) {
	req := h.request(ctx)
	if stoken != "" {
		req.SetQueryParam("stoken", stoken)
	}
	var out models.CollectionList
	resp, err := req.SetResult(&out).Get("/api/v1/collection/")
	if err != nil {
		return models.CollectionList{}, fmt.Errorf("collection list request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.CollectionList{}, err
	}
	return out, nil
}

func (h *httpServerAdapter) ItemBatch(ctx context.Context, colUID string, items []models.EncryptedItem) error {
	resp, err := h.request(ctx).
		SetBody(map[string]any{"items": items}).
		Post("/api/v1/collection/" + colUID + "/item/batch/")
	if err != nil {
		return fmt.Errorf("item batch request: %w", err)
	}
	return mapHTTPError(resp)
}

func (h *httpServerAdapter) ItemList(ctx context.Context, colUID, stoken string) (models.ItemList, error) {
	req := h.request(ctx)
	if stoken != "" {
		req.SetQueryParam("stoken", stoken)
	}
	var out models.ItemList
	resp, err := req.SetResult(&out).Get("/api/v1/collection/" + colUID + "/item/")
	if err != nil {
		return models.ItemList{}, fmt.Errorf("item list request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.ItemList{}, err
	}
	return out, nil
}

func (h *httpServerAdapter) InvitationSend(ctx context.Context, inv models.Invitation) error {
	resp, err := h.request(ctx).
		SetBody(inv).
		Post("/api/v1/invitation/outgoing/")
	if err != nil {
		return fmt.Errorf("invitation send request: %w", err)
	}
	return mapHTTPError(resp)
}

func (h *httpServerAdapter) InvitationListIncoming(ctx context.Context) (models.InvitationList, error) {
	var out models.InvitationList
	resp, err := h.request(ctx).
		SetResult(&out).
		Get("/api/v1/invitation/incoming/")
	if err != nil {
		return models.InvitationList{}, fmt.Errorf("invitation list request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.InvitationList{}, err
	}
	return out, nil
}

func (h *httpServerAdapter) InvitationDone(ctx context.Context, uid string) error {
	resp, err := h.request(ctx).Delete("/api/v1/invitation/incoming/" + uid + "/")
	if err != nil {
		return fmt.Errorf("invitation done request: %w", err)
	}
	return mapHTTPError(resp)
}
