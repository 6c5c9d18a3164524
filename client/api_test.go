package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPBackend_ProfilesHydratesDisplayFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/3/profile", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"user_id":3,"username":"creator","avatar_url":"https://cdn.example/a.png","color":"#abc","bubble_text":"vote!"}`)
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, "tok")

	profiles, err := b.Profiles(context.Background(), []uint{3})
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	assert.Equal(t, uint(3), profiles[0].UserID)
	assert.Equal(t, "creator", profiles[0].Username)
	assert.Equal(t, "https://cdn.example/a.png", profiles[0].AvatarURL)
	assert.Equal(t, "#abc", profiles[0].Color)
	assert.Equal(t, "vote!", profiles[0].BubbleText)
}

func TestHTTPBackend_SetTokenWhileRequestsInFlight(t *testing.T) {
	var (
		mu       sync.Mutex
		lastAuth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		lastAuth = r.Header.Get("Authorization")
		mu.Unlock()

		fmt.Fprint(w, `{"balance": 5}`)
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, "tok-0")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			b.SetToken(fmt.Sprintf("tok-%d", i))
		}(i)
		go func() {
			defer wg.Done()
			_, err := b.GetBalance(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	b.SetToken("tok-final")
	_, err := b.GetBalance(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Bearer tok-final", lastAuth)
}

func TestHTTPBackend_DecodesErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"code":"INSUFFICIENT_FUNDS","error":"insufficient funds"}`)
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, "tok")

	_, err := b.GetBalance(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
	assert.Equal(t, "INSUFFICIENT_FUNDS", apiErr.Code)
}
