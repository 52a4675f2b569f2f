package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDoNormalizesResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name":"ПШ 2025","leader":"5","end_app_date":"2025-09-01"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	body, err := c.Get(context.Background(), "/api/users/events/")
	require.NoError(t, err)

	events := body.([]any)
	event := events[0].(map[string]any)
	require.Equal(t, "ПШ 2025", event["title"])
	require.Equal(t, float64(5), event["organizer"])
	require.Equal(t, "2025-09-01", event["applyDeadline"])
}

func TestDoSendsCSRFTokenOnMutations(t *testing.T) {
	var gotToken string
	var gotGetToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			gotGetToken = r.Header.Get("X-CSRFToken")
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok123", Path: "/"})
		case http.MethodPost:
			gotToken = r.Header.Get("X-CSRFToken")
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	// The GET plants the cookie; the jar carries it into the POST header
	_, err := c.Get(context.Background(), "/api/users/events/")
	require.NoError(t, err)
	require.Empty(t, gotGetToken)

	_, err = c.Post(context.Background(), "/api/users/events/", map[string]string{"name": "x"})
	require.NoError(t, err)
	require.Equal(t, "tok123", gotToken)
}

func TestDoRefreshesOnceAndRetries(t *testing.T) {
	var refreshes int32
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/users/refresh/" {
			atomic.AddInt32(&refreshes, 1)
			w.Write([]byte(`{}`))
			return
		}
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	body, err := c.Do(context.Background(), http.MethodGet, "/api/users/user-info/", nil)
	require.NoError(t, err)
	require.Equal(t, float64(1), body.(map[string]any)["id"])
	require.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
	require.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestDoReturnsOriginal401WhenRefreshFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Get(context.Background(), "/api/users/user-info/")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Contains(t, apiErr.Error(), "token expired")
}

func TestRefreshCollapsesConcurrentCallers(t *testing.T) {
	var refreshes int32
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&refreshes, 1) == 1 {
			close(started)
		}
		<-release
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	var wg sync.WaitGroup
	results := make([]bool, 4)
	run := func(i int) {
		defer wg.Done()
		results[i] = c.Refresh(context.Background())
	}

	// First caller opens the flight and blocks in the handler; the rest
	// join while it is in progress.
	wg.Add(1)
	go run(0)
	<-started
	for i := 1; i < 4; i++ {
		wg.Add(1)
		go run(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
	for _, ok := range results {
		require.True(t, ok)
	}
}

func TestDoParsesPlainTextErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Get(context.Background(), "/api/users/events/")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.Status)
	require.Equal(t, "upstream down", apiErr.Body)
}
