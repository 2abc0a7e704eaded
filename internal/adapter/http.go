// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

// Package adapter implements the HTTP client for the document sync backend.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/pkosenkov/fieldvault/internal/config"
	"github.com/pkosenkov/fieldvault/internal/logger"
	"github.com/pkosenkov/fieldvault/models"
)

type httpSyncAdapter struct {
	client *resty.Client
	token  string

	logger *logger.Logger
}

// NewHTTPSyncAdapter constructs an HTTP/REST implementation of [SyncAdapter].
// It normalises and validates the base URL from cfg.BaseURL and configures
// the underlying client with the resolved base URL and request timeout.
//
// Returns an error if cfg.BaseURL is empty or cannot be parsed as a valid
// URL.
func NewHTTPSyncAdapter(cfg config.Remote, log *logger.Logger) (SyncAdapter, error) {
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote base url: %w", err)
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout)

	return &httpSyncAdapter{client: client, logger: log}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [SyncAdapter]. It stores token (whitespace-trimmed)
// for use in the Authorization header of all subsequent requests.
func (h *httpSyncAdapter) SetToken(token string) {
	h.token = strings.TrimSpace(token)
}

// Token implements [SyncAdapter].
func (h *httpSyncAdapter) Token() string {
	return h.token
}

// Push implements [SyncAdapter]. It sets the payload length and POSTs the
// encoded documents to POST /api/docs/. Returns [ErrConflict] (wrapped) on
// HTTP 409.
func (h *httpSyncAdapter) Push(ctx context.Context, docs []models.Document) error {
	req := models.PushRequest{
		Documents: docs,
		Length:    len(docs),
	}

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/docs/")
	if err != nil {
		return fmt.Errorf("push request: %w", err)
	}

	return mapHTTPError(resp)
}

// Pull implements [SyncAdapter]. It GETs /api/docs/{collection} and decodes
// the response into the document slice. Returns an error if the request,
// response mapping, or JSON decoding fails.
func (h *httpSyncAdapter) Pull(ctx context.Context, collection string) ([]models.Document, error) {
	resp, err := h.authedRequest(ctx).
		Get("/api/docs/" + url.PathEscape(collection))
	if err != nil {
		return nil, fmt.Errorf("pull request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var pr models.PullResponse
	if err = json.Unmarshal(resp.Body(), &pr); err != nil {
		return nil, fmt.Errorf("decode pull response: %w", err)
	}

	return pr.Documents, nil
}

func (h *httpSyncAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}
