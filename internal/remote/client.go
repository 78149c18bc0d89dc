// Package remote talks to the spreadsheet web app that stores the
// timesheet: one GET for the whole snapshot, one POST per saved value.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/Tiliavir/fichajes/internal/model"
)

var (
	// ErrNetwork wraps every failure to reach the store or read its reply.
	ErrNetwork = errors.New("remote store unreachable")
	// ErrNoEndpoint is returned when no endpoint is configured.
	ErrNoEndpoint = errors.New("no remote endpoint configured")
)

// DefaultTimeout bounds each request when Options.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// SessionHeader carries the client session id on every request.
const SessionHeader = "X-Session-ID"

// Options configures a Client.
type Options struct {
	Endpoint string
	// Token, when set, is sent as a bearer token.
	Token     string
	Timeout   time.Duration
	SessionID string
	// HTTPClient overrides the base transport, mostly for tests.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a remote store client.
type Client struct {
	endpoint   *url.URL
	httpClient *http.Client
	sessionID  string
	log        *slog.Logger
	now        func() time.Time
}

// New validates opts and builds a Client.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, ErrNoEndpoint
	}
	u, err := url.Parse(opts.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid remote endpoint %q", opts.Endpoint)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if opts.Token != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
	} else {
		c := *hc
		hc = &c
	}
	hc.Timeout = opts.Timeout
	if hc.Timeout <= 0 {
		hc.Timeout = DefaultTimeout
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{endpoint: u, httpClient: hc, sessionID: opts.SessionID, log: log, now: time.Now}, nil
}

// Endpoint returns the configured endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

type snapshotResponse struct {
	Entries   json.RawMessage `json:"entries"`
	Employees json.RawMessage `json:"employees"`
}

// Fetch downloads the full snapshot. A missing or empty entries field yields
// an empty map; a missing employees field yields a nil roster. Entries that
// cannot be decoded are skipped.
func (c *Client) Fetch(ctx context.Context) (model.Snapshot, error) {
	u := *c.endpoint
	q := u.Query()
	q.Set("t", strconv.FormatInt(c.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	body, err := c.do(req)
	if err != nil {
		return model.Snapshot{}, err
	}

	var resp snapshotResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: decoding snapshot: %v", ErrNetwork, err)
	}
	snap := model.Snapshot{Entries: c.decodeEntries(resp.Entries)}
	if len(resp.Employees) > 0 && string(resp.Employees) != "null" {
		var emps []model.Employee
		if err := json.Unmarshal(resp.Employees, &emps); err != nil {
			c.log.Warn("ignoring malformed employee list", "error", err)
		} else {
			snap.Employees = emps
		}
	}
	return snap, nil
}

// decodeEntries accepts an object keyed by entry key. Anything else, such as
// the empty array the store returns for a blank sheet, is an empty map.
func (c *Client) decodeEntries(raw json.RawMessage) map[model.Key]model.DayEntry {
	out := make(map[model.Key]model.DayEntry)
	var items map[model.Key]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return out
	}
	for k, v := range items {
		var e model.DayEntry
		if err := json.Unmarshal(v, &e); err != nil {
			c.log.Warn("skipping malformed entry", "key", k, "error", err)
			continue
		}
		out[k] = e
	}
	return out
}

type saveEntryRequest struct {
	Action string         `json:"action"`
	Key    model.Key      `json:"key"`
	Date   string         `json:"date"`
	EmpID  int            `json:"empId"`
	Val    model.DayEntry `json:"val"`
}

type saveEmployeeRequest struct {
	Action string `json:"action"`
	ID     int    `json:"id"`
	Name   string `json:"name"`
}

// SaveEntry sends the full value of one entry.
func (c *Client) SaveEntry(ctx context.Context, key model.Key, date string, empID int, val model.DayEntry) error {
	return c.post(ctx, saveEntryRequest{Action: "save_entry", Key: key, Date: date, EmpID: empID, Val: val})
}

// SaveEmployee sends an employee's name.
func (c *Client) SaveEmployee(ctx context.Context, id int, name string) error {
	return c.post(ctx, saveEmployeeRequest{Action: "save_employee", ID: id, Name: name})
}

func (c *Client) post(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	// The script host rejects preflighted requests, so the JSON body goes as
	// plain text.
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")
	_, err = c.do(req)
	return err
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.sessionID != "" {
		req.Header.Set(SessionHeader, c.sessionID)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %s returned %d: %s", ErrNetwork, req.Method, c.endpoint.Host, resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
