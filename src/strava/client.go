package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/hexymap/hexy/src/config"
)

type GrantType int

const (
	GrantAuth GrantType = iota
	GrantRefresh
)

func (g GrantType) String() string {
	if g == GrantRefresh {
		return "refresh_token"
	}
	return "authorization_code"
}

const scope = "read,activity:read"

type Athlete struct {
	ID int64 `json:"id"`
}

// Token is the oauth/token response. Athlete is only set on the
// authorization_code grant.
type Token struct {
	Athlete      *Athlete `json:"athlete,omitempty"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresAt    int64    `json:"expires_at"`
}

type Map struct {
	Polyline        string `json:"polyline"`
	SummaryPolyline string `json:"summary_polyline"`
}

type ActivityResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Distance     float64   `json:"distance"`
	MovingTime   int64     `json:"moving_time"`
	ElapsedTime  int64     `json:"elapsed_time"`
	StartDate    time.Time `json:"start_date"`
	KudosCount   int       `json:"kudos_count"`
	AverageSpeed float64   `json:"average_speed"`
	Type         string    `json:"type"`
	SportType    string    `json:"sport_type"`
	Map          Map       `json:"map"`
}

// APIError is any failed exchange with Strava. Status is zero when the
// request never got a response.
type APIError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("strava %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("strava %s: status %d: %s", e.Op, e.Status, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }

type Client struct {
	baseURL  string
	oauth    *oauth2.Config
	perPage  int
	maxPages int
	http     *http.Client
}

func NewClient(cfg config.StravaConfig) *Client {
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 200
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		baseURL: base,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{scope},
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/oauth/authorize",
				TokenURL:  base + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		perPage:  perPage,
		maxPages: maxPages,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

// OAuthURL is where /auth sends the browser. state comes back untouched on
// the callback.
func (c *Client) OAuthURL(state string) (string, error) {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "force")), nil
}

// GetToken exchanges an authorization code, or a refresh token when grant is
// GrantRefresh, for a fresh access token.
func (c *Client) GetToken(ctx context.Context, code string, grant GrantType) (*Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	var (
		tok *oauth2.Token
		err error
	)
	if grant == GrantRefresh {
		tok, err = c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: code}).Token()
	} else {
		tok, err = c.oauth.Exchange(ctx, code)
	}
	if err != nil {
		return nil, tokenError(err)
	}
	return fromOAuth(tok), nil
}

func tokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return &APIError{Op: "get_token", Status: re.Response.StatusCode, Body: strings.TrimSpace(string(re.Body))}
	}
	return &APIError{Op: "get_token", Err: err}
}

// fromOAuth reads the Strava specific fields out of the raw token response.
// JSON numbers arrive as float64.
func fromOAuth(tok *oauth2.Token) *Token {
	t := &Token{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}
	if at, ok := tok.Extra("expires_at").(float64); ok {
		t.ExpiresAt = int64(at)
	} else if !tok.Expiry.IsZero() {
		t.ExpiresAt = tok.Expiry.Unix()
	}
	if athlete, ok := tok.Extra("athlete").(map[string]interface{}); ok {
		if id, ok := athlete["id"].(float64); ok {
			t.Athlete = &Athlete{ID: int64(id)}
		}
	}
	return t
}

// GetActivities walks the athlete's activity pages until a short page or the
// configured page limit.
func (c *Client) GetActivities(ctx context.Context, accessToken string) ([]ActivityResponse, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	hc.Timeout = c.http.Timeout

	activities := []ActivityResponse{}
	for page := 1; page <= c.maxPages; page++ {
		batch, err := c.activitiesPage(ctx, hc, page)
		if err != nil {
			return nil, err
		}
		activities = append(activities, batch...)
		if len(batch) < c.perPage {
			break
		}
	}
	return activities, nil
}

func (c *Client) activitiesPage(ctx context.Context, hc *http.Client, page int) ([]ActivityResponse, error) {
	raw, err := url.JoinPath(c.baseURL, "api", "v3", "athlete", "activities")
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	batch := []ActivityResponse{}
	if err := do(hc, req, "get_activities", &batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func do(hc *http.Client, req *http.Request, op string, dest interface{}) error {
	req.Header.Set("Accept", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return &APIError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &APIError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
