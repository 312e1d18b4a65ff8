package beacon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-event-beacon/pkg/adapters/kvstore"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, error) { return "", errors.New("storage disabled") }
func (failingStore) Set(context.Context, string, string) error { return errors.New("storage disabled") }

// captureServer records every request and answers with body/status.
type captureServer struct {
	*httptest.Server
	hits atomic.Int32

	mu          sync.Mutex
	lastForm    url.Values
	contentType string
}

func (cs *captureServer) last() (url.Values, string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.lastForm, cs.contentType
}

func newCaptureServer(t *testing.T, status int, body string) *captureServer {
	t.Helper()
	cs := &captureServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(raw))
		cs.mu.Lock()
		cs.lastForm, cs.contentType = form, r.Header.Get("Content-Type")
		cs.mu.Unlock()
		cs.hits.Add(1)
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func newTestBeacon(store *kvstore.MemoryStore) *Beacon {
	return New(store, Options{
		Page:      "/landing",
		UserAgent: "test-agent",
		Status:    NewStatus(0, nil),
	})
}

func TestUserIDIsStable(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	b := newTestBeacon(store)

	first := b.UserID(ctx)
	second := b.UserID(ctx)

	assert.True(t, strings.HasPrefix(first, UserIDPrefix), first)
	assert.Equal(t, first, second)

	stored, _ := store.Get(ctx, KeyUserID)
	assert.Equal(t, first, stored)

	// A new beacon over the same storage sees the same id.
	assert.Equal(t, first, newTestBeacon(store).UserID(ctx))
}

func TestUserIDWithoutStorageStillWorks(t *testing.T) {
	b := New(failingStore{}, Options{Status: NewStatus(0, nil)})

	id := b.UserID(context.Background())
	assert.True(t, strings.HasPrefix(id, UserIDPrefix))
}

func TestSaveEndpoint(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	b := newTestBeacon(store)

	assert.Empty(t, b.LoadEndpoint(ctx))

	_, err := b.SaveEndpoint(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyEndpoint)
	text, kind := b.Status().Current()
	assert.Equal(t, StatusError, kind)
	assert.NotEmpty(t, text)

	warning, err := b.SaveEndpoint(ctx, "  https://script.google.com/macros/s/abc/exec  ")
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Equal(t, "https://script.google.com/macros/s/abc/exec", b.LoadEndpoint(ctx))
	_, kind = b.Status().Current()
	assert.Equal(t, StatusSuccess, kind)

	warning, err = b.SaveEndpoint(ctx, "http://localhost:8080/exec")
	require.NoError(t, err)
	assert.NotEmpty(t, warning)
	assert.Equal(t, "http://localhost:8080/exec", b.LoadEndpoint(ctx))
}

func TestSendWithoutEndpointSendsNothing(t *testing.T) {
	srv := newCaptureServer(t, http.StatusOK, `{"ok":true}`)
	b := newTestBeacon(kvstore.NewMemoryStore())

	err := b.Click(context.Background(), "A")

	assert.ErrorIs(t, err, ErrMissingConfig)
	assert.Zero(t, srv.hits.Load())
	_, kind := b.Status().Current()
	assert.Equal(t, StatusError, kind)
}

func TestSendWithWrongSuffixSendsNothing(t *testing.T) {
	srv := newCaptureServer(t, http.StatusOK, `{"ok":true}`)
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), KeyEndpoint, srv.URL+"/dev"))
	b := newTestBeacon(store)

	err := b.Click(context.Background(), "A")

	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Zero(t, srv.hits.Load())
}

func TestSendBuildsFormBody(t *testing.T) {
	srv := newCaptureServer(t, http.StatusOK, `{"ok":true}`)
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), KeyEndpoint, srv.URL+"/exec"))
	b := newTestBeacon(store)

	before := time.Now().UnixMilli()
	require.NoError(t, b.Send(context.Background(), Event{Kind: "cta_click", Variant: "A"}))

	assert.EqualValues(t, 1, srv.hits.Load())
	form, contentType := srv.last()
	assert.Equal(t, "application/x-www-form-urlencoded", contentType)

	assert.Equal(t, "cta_click", form.Get("event"))
	assert.Equal(t, "A", form.Get("variant"))
	assert.NotEmpty(t, form.Get("userId"))

	ts, err := strconv.ParseInt(form.Get("ts"), 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ts, before)

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(form.Get("meta")), &meta))
	assert.Equal(t, "/landing", meta["page"])
	assert.Equal(t, "test-agent", meta["ua"])

	text, kind := b.Status().Current()
	assert.Equal(t, StatusSuccess, kind)
	assert.Contains(t, text, "cta_click")
}

func TestSendOmitsEmptyVariant(t *testing.T) {
	srv := newCaptureServer(t, http.StatusOK, `{"ok":true}`)
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), KeyEndpoint, srv.URL+"/exec"))
	b := newTestBeacon(store)

	require.NoError(t, b.Heartbeat(context.Background()))

	form, _ := srv.last()
	_, present := form["variant"]
	assert.False(t, present)
	assert.Equal(t, EventHeartbeat, form.Get("event"))
}

func TestMetaCallerFieldsWin(t *testing.T) {
	b := newTestBeacon(kvstore.NewMemoryStore())

	raw, err := b.MetaJSON(map[string]any{"page": "/override", "button": "hero"})
	require.NoError(t, err)

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &meta))
	assert.Equal(t, "/override", meta["page"])
	assert.Equal(t, "test-agent", meta["ua"])
	assert.Equal(t, "hero", meta["button"])
}

func TestSendFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "http status",
			status: http.StatusInternalServerError,
			body:   "boom",
			check: func(t *testing.T, err error) {
				var herr *HTTPStatusError
				require.ErrorAs(t, err, &herr)
				assert.Equal(t, http.StatusInternalServerError, herr.StatusCode)
			},
		},
		{
			name:   "application failure",
			status: http.StatusOK,
			body:   `{"ok":false,"error":"missing fields"}`,
			check: func(t *testing.T, err error) {
				var rerr *RemoteError
				require.ErrorAs(t, err, &rerr)
				assert.Equal(t, "missing fields", rerr.Message)
			},
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   "<html>",
			check: func(t *testing.T, err error) {
				var rerr *RemoteError
				require.ErrorAs(t, err, &rerr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newCaptureServer(t, tt.status, tt.body)
			store := kvstore.NewMemoryStore()
			require.NoError(t, store.Set(context.Background(), KeyEndpoint, srv.URL+"/exec"))
			b := newTestBeacon(store)

			err := b.Click(context.Background(), "B")
			tt.check(t, err)
			assert.EqualValues(t, 1, srv.hits.Load(), "exactly one attempt")

			_, kind := b.Status().Current()
			assert.Equal(t, StatusError, kind)
		})
	}
}

func TestSendNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/exec"
	srv.Close()

	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), KeyEndpoint, endpoint))
	b := newTestBeacon(store)

	err := b.Heartbeat(context.Background())

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	text, kind := b.Status().Current()
	assert.Equal(t, StatusError, kind)
	assert.Contains(t, text, "network error")
}

func TestSendUnencodableMeta(t *testing.T) {
	srv := newCaptureServer(t, http.StatusOK, `{"ok":true}`)
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), KeyEndpoint, srv.URL+"/exec"))
	b := newTestBeacon(store)

	err := b.Send(context.Background(), Event{Kind: "x", Meta: map[string]any{"ch": make(chan int)}})
	assert.Error(t, err)
	assert.Zero(t, srv.hits.Load())
}
