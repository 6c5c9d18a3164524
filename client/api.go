package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/mesmerism/api/internal/domain"
)

// Backend is the authoritative read/write surface the sync layer calls. The
// server owns every invariant; this side only mirrors results.
type Backend interface {
	GetSelfOverview(ctx context.Context) (domain.UserOverview, error)
	GetBalance(ctx context.Context) (int, error)
	CurrentWeek(ctx context.Context) (domain.CompetitionWeek, error)
	WeekLeaderboard(ctx context.Context, weekID uint) ([]domain.WeekStanding, error)
	Profiles(ctx context.Context, userIDs []uint) ([]domain.Profile, error)
	ListMessages(ctx context.Context, before *time.Time, limit int) ([]domain.ChatMessage, error)
	PurchaseVotes(ctx context.Context, creatorUserID, weekID uint, votes int) (domain.VoteOrder, int, error)
	CreateTopup(ctx context.Context, amount int) (domain.CoinTopup, string, error)
}

// APIError is a non-2xx response decoded into the server's error envelope.
// Code carries the machine-readable reason when the server set one.
type APIError struct {
	StatusCode int
	Code       string
	Msg        string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Msg)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Msg)
}

// HTTPBackend talks to the REST API. It is the only Backend implementation
// outside of tests.
type HTTPBackend struct {
	baseURL string
	client  *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPBackend(baseURL, token string) *HTTPBackend {
	return &HTTPBackend{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken swaps the bearer token after a refresh. Safe to call while
// requests are in flight.
func (b *HTTPBackend) SetToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = token
}

func (b *HTTPBackend) bearerToken() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.token
}

func (b *HTTPBackend) GetSelfOverview(ctx context.Context) (domain.UserOverview, error) {
	var overview domain.UserOverview
	err := b.do(ctx, http.MethodGet, "/users/me", nil, &overview)
	return overview, err
}

func (b *HTTPBackend) GetBalance(ctx context.Context) (int, error) {
	var out struct {
		Balance int `json:"balance"`
	}
	err := b.do(ctx, http.MethodGet, "/users/me/balance", nil, &out)
	return out.Balance, err
}

func (b *HTTPBackend) CurrentWeek(ctx context.Context) (domain.CompetitionWeek, error) {
	var week domain.CompetitionWeek
	err := b.do(ctx, http.MethodGet, "/weeks/current", nil, &week)
	return week, err
}

func (b *HTTPBackend) WeekLeaderboard(ctx context.Context, weekID uint) ([]domain.WeekStanding, error) {
	var standings []domain.WeekStanding
	path := fmt.Sprintf("/weeks/%d/leaderboard", weekID)
	err := b.do(ctx, http.MethodGet, path, nil, &standings)
	return standings, err
}

func (b *HTTPBackend) Profiles(ctx context.Context, userIDs []uint) ([]domain.Profile, error) {
	// Fetched one by one; the ids involved are the handful of creators on a
	// leaderboard.
	profiles := make([]domain.Profile, 0, len(userIDs))
	for _, id := range userIDs {
		var profile domain.Profile
		if err := b.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/profile", id), nil, &profile); err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (b *HTTPBackend) ListMessages(ctx context.Context, before *time.Time, limit int) ([]domain.ChatMessage, error) {
	q := url.Values{}
	if before != nil {
		q.Set("before", before.Format(time.RFC3339Nano))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/chat/messages"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var messages []domain.ChatMessage
	err := b.do(ctx, http.MethodGet, path, nil, &messages)
	return messages, err
}

func (b *HTTPBackend) PurchaseVotes(ctx context.Context, creatorUserID, weekID uint, votes int) (domain.VoteOrder, int, error) {
	body := map[string]any{
		"creator_user_id": creatorUserID,
		"week_id":         weekID,
		"votes":           votes,
	}

	var out struct {
		Order      domain.VoteOrder `json:"order"`
		NewBalance int              `json:"new_balance"`
	}
	err := b.do(ctx, http.MethodPost, "/votes/purchase", body, &out)
	return out.Order, out.NewBalance, err
}

func (b *HTTPBackend) CreateTopup(ctx context.Context, amount int) (domain.CoinTopup, string, error) {
	body := map[string]any{"amount": amount}

	var out struct {
		Topup        domain.CoinTopup `json:"topup"`
		ClientSecret string           `json:"client_secret"`
	}
	err := b.do(ctx, http.MethodPost, "/payments/topups", body, &out)
	return out.Topup, out.ClientSecret, err
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body -> %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request -> %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.bearerToken())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s -> %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Code  string `json:"code"`
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
			apiErr.Code = envelope.Code
			apiErr.Msg = envelope.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response -> %w", method, path, err)
	}

	return nil
}
