// Package client is the Go consumer of the pharmacy map HTTP API.
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
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/query/filter"
	apperrors "github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/pkg/errors"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/pkg/retry"
)

// Session is the identity issued by the auth service
type Session struct {
	Token    string
	Role     string
	FullName string
}

// AdminQuery selects a page of the admin listing
type AdminQuery struct {
	Page     int
	PerPage  int
	Search   string
	Province string
	District string
	HasImage bool
}

// Values encodes the query as URL parameters
func (q AdminQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("perPage", strconv.Itoa(q.PerPage))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if q.Province != "" {
		v.Set("province", q.Province)
	}
	if q.District != "" {
		v.Set("district", q.District)
	}
	if q.HasImage {
		v.Set("hasImage", "true")
	}
	return v
}

// Client calls the pharmacy map API. It is immutable; session changes return a copy.
type Client struct {
	baseURL    string
	authURL    string
	httpClient *http.Client
	retry      retry.Config
	session    *Session
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAuthURL points Login at a separate auth service
func WithAuthURL(authURL string) Option {
	return func(c *Client) { c.authURL = strings.TrimRight(authURL, "/") }
}

// WithRetry overrides the retry policy for reads
func WithRetry(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	trimmed := strings.TrimRight(baseURL, "/")
	c := &Client{
		baseURL: trimmed,
		authURL: trimmed,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		retry: retry.Config{
			MaxAttempts:     3,
			InitialDelay:    200 * time.Millisecond,
			MaxDelay:        2 * time.Second,
			BackoffFactor:   2.0,
			MaxTotalTimeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a session
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return Session{}, err
	}

	var resp struct {
		Token    string `json:"token"`
		Role     string `json:"role"`
		FullName string `json:"fullname"`
	}
	if err := c.do(ctx, http.MethodPost, c.authURL+"/api/auth/login", body, &resp); err != nil {
		return Session{}, err
	}
	if resp.Token == "" {
		return Session{}, apperrors.NewUnauthorizedError("login response carried no token")
	}
	return Session{Token: resp.Token, Role: resp.Role, FullName: resp.FullName}, nil
}

// WithSession returns a copy of the client that authenticates as s
func (c *Client) WithSession(s Session) *Client {
	cp := *c
	cp.session = &s
	return &cp
}

// Logout returns a copy of the client without a session
func (c *Client) Logout() *Client {
	cp := *c
	cp.session = nil
	return &cp
}

// Session returns the current session, if any
func (c *Client) Session() (Session, bool) {
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// FeatureCollection fetches the filtered pharmacy layer
func (c *Client) FeatureCollection(ctx context.Context, criteria filter.Criteria) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	if err := c.get(ctx, "/api/pharmacies.geojson", criteria.Values(), fc); err != nil {
		return nil, err
	}
	return fc, nil
}

// Heat fetches weighted heatmap samples
func (c *Client) Heat(ctx context.Context, criteria filter.Criteria) ([]entities.HeatPoint, error) {
	points := []entities.HeatPoint{}
	if err := c.get(ctx, "/api/heat", criteria.Values(), &points); err != nil {
		return nil, err
	}
	return points, nil
}

// ProvinceStats fetches the per-province rollup
func (c *Client) ProvinceStats(ctx context.Context) ([]entities.StatsRow, error) {
	rows := []entities.StatsRow{}
	if err := c.get(ctx, "/api/stats/province", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// DistrictStats fetches the per-district rollup within province
func (c *Client) DistrictStats(ctx context.Context, province string) ([]entities.StatsRow, error) {
	rows := []entities.StatsRow{}
	if err := c.get(ctx, "/api/stats/district", url.Values{"province": {province}}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Provinces fetches the distinct province names
func (c *Client) Provinces(ctx context.Context) ([]string, error) {
	provinces := []string{}
	if err := c.get(ctx, "/api/provinces", nil, &provinces); err != nil {
		return nil, err
	}
	return provinces, nil
}

// AdminList fetches one page of the admin listing. It needs a session.
func (c *Client) AdminList(ctx context.Context, q AdminQuery) (*entities.PharmacyPage, error) {
	if c.session == nil {
		return nil, apperrors.NewUnauthorizedError("admin listing requires a session")
	}
	page := &entities.PharmacyPage{}
	if err := c.get(ctx, "/api/admin/pharmacies", q.Values(), page); err != nil {
		return nil, err
	}
	return page, nil
}

// get retries transport failures and 5xx responses; 4xx answers are final
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	return retry.DoWithLog(ctx, c.retry, "pharmacy api", func() error {
		err := c.do(ctx, http.MethodGet, endpoint, nil, out)
		if err == nil || ctx.Err() != nil {
			return err
		}
		if appErr, ok := apperrors.As(err); ok && appErr.Type != apperrors.ErrorTypeExternal {
			return retry.Permanent(err)
		}
		return err
	}, func(attempt int, err error, next time.Duration) {
		log.Debug().Err(err).Int("attempt", attempt).Dur("next", next).Str("path", path).Msg("Retrying API request")
	})
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil && c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// statusError maps an error response onto the shared error taxonomy
func statusError(resp *http.Response) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)

	msg := payload.Message
	if msg == "" {
		msg = fmt.Sprintf("api returned status %d", resp.StatusCode)
	}

	var appErr *apperrors.AppError
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		appErr = apperrors.NewUnauthorizedError(msg)
	case resp.StatusCode == http.StatusNotFound:
		appErr = apperrors.NewNotFoundError(msg)
	case resp.StatusCode < 500:
		appErr = apperrors.NewValidationError("", msg)
	default:
		appErr = apperrors.NewExternalError(msg, nil)
	}
	appErr.Code = payload.Error
	return appErr
}
