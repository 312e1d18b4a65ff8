// Package beacon records discrete user events and relays them to an
// ingest endpoint with a single preflight-free POST.
package beacon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wadjakorntonsri/go-event-beacon/pkg/ports"
)

const (
	KeyEndpoint = "gas_url"
	KeyUserID   = "uid"

	// RequiredSuffix is enforced on the endpoint before anything is sent.
	RequiredSuffix = "/exec"

	DefaultExpectedHost = "script.google.com"

	EventClick     = "cta_click"
	EventHeartbeat = "heartbeat"
)

// Event is what a caller asks the beacon to send.
type Event struct {
	Kind    string
	Variant string
	Meta    map[string]any
}

type Options struct {
	HTTPClient   *http.Client
	Page         string // current path, reported as meta.page
	UserAgent    string // reported as meta.ua
	ExpectedHost string
	Status       *Status
	Now          func() time.Time
}

type Beacon struct {
	store        ports.KeyValueStorage
	client       *http.Client
	page         string
	userAgent    string
	expectedHost string
	status       *Status
	now          func() time.Time
}

func New(store ports.KeyValueStorage, opts Options) *Beacon {
	b := &Beacon{
		store:        store,
		client:       opts.HTTPClient,
		page:         opts.Page,
		userAgent:    opts.UserAgent,
		expectedHost: opts.ExpectedHost,
		status:       opts.Status,
		now:          opts.Now,
	}
	if b.client == nil {
		b.client = &http.Client{Timeout: 10 * time.Second}
	}
	if b.page == "" {
		b.page = "/"
	}
	if b.userAgent == "" {
		b.userAgent = "go-event-beacon/1.0"
	}
	if b.expectedHost == "" {
		b.expectedHost = DefaultExpectedHost
	}
	if b.status == nil {
		b.status = NewStatus(SuccessClearDelay, nil)
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

func (b *Beacon) Status() *Status { return b.status }

// LoadEndpoint returns the saved endpoint, or "" if none was saved.
func (b *Beacon) LoadEndpoint(ctx context.Context) string {
	v, _ := b.store.Get(ctx, KeyEndpoint)
	return v
}

// SaveEndpoint stores the trimmed URL. A URL that does not look like an
// https URL on the expected host is saved anyway and a warning returned.
func (b *Beacon) SaveEndpoint(ctx context.Context, raw string) (warning string, err error) {
	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		b.status.Error("Please enter an endpoint URL.")
		return "", ErrEmptyEndpoint
	}

	if !b.plausibleEndpoint(endpoint) {
		warning = fmt.Sprintf("URL does not look like https://%s/...; saved anyway.", b.expectedHost)
	}

	if err := b.store.Set(ctx, KeyEndpoint, endpoint); err != nil {
		b.status.Error("Could not save endpoint: " + err.Error())
		return warning, fmt.Errorf("save endpoint: %w", err)
	}

	msg := "Endpoint saved."
	if warning != "" {
		msg += " " + warning
	}
	b.status.Success(msg)
	return warning, nil
}

func (b *Beacon) plausibleEndpoint(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	return host == b.expectedHost || strings.HasSuffix(host, "."+b.expectedHost)
}

// Click sends a call-to-action click for the given variant.
func (b *Beacon) Click(ctx context.Context, variant string) error {
	return b.Send(ctx, Event{Kind: EventClick, Variant: variant})
}

func (b *Beacon) Heartbeat(ctx context.Context) error {
	return b.Send(ctx, Event{Kind: EventHeartbeat})
}

type ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Send makes at most one POST. Every outcome is also shown on Status.
func (b *Beacon) Send(ctx context.Context, ev Event) error {
	endpoint := b.LoadEndpoint(ctx)
	if endpoint == "" {
		b.status.Error("Set the endpoint URL first.")
		return ErrMissingConfig
	}
	if !strings.HasSuffix(endpoint, RequiredSuffix) {
		b.status.Error("Endpoint URL must end with " + RequiredSuffix + ".")
		return ErrInvalidConfig
	}

	form, err := b.buildForm(ctx, ev)
	if err != nil {
		b.status.Error("Error: " + err.Error())
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		b.status.Error("Error: " + err.Error())
		return err
	}
	// A safelisted content type keeps this a simple cross-origin request.
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.client.Do(req)
	if err != nil {
		terr := &TransportError{Err: err}
		b.status.Error("Error: " + terr.Error())
		return terr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		herr := &HTTPStatusError{StatusCode: resp.StatusCode}
		b.status.Error("Error: " + herr.Error())
		return herr
	}

	var a ack
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&a); err != nil {
		rerr := &RemoteError{Message: "unreadable response: " + err.Error()}
		b.status.Error("Error: " + rerr.Error())
		return rerr
	}
	if !a.OK {
		rerr := &RemoteError{Message: a.Error}
		b.status.Error("Error: " + rerr.Error())
		return rerr
	}

	b.status.Success("Sent: " + ev.Kind)
	return nil
}

func (b *Beacon) buildForm(ctx context.Context, ev Event) (url.Values, error) {
	meta, err := b.MetaJSON(ev.Meta)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("event", ev.Kind)
	if ev.Variant != "" {
		form.Set("variant", ev.Variant)
	}
	form.Set("userId", b.UserID(ctx))
	form.Set("ts", strconv.FormatInt(b.now().UnixMilli(), 10))
	form.Set("meta", meta)
	return form, nil
}

// MetaJSON merges page context with extra; keys in extra win.
func (b *Beacon) MetaJSON(extra map[string]any) (string, error) {
	meta := map[string]any{
		"page": b.page,
		"ua":   b.userAgent,
	}
	for k, v := range extra {
		meta[k] = v
	}
	buf, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode meta: %w", err)
	}
	return string(buf), nil
}
