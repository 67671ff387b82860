// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

// Package github fetches the contribution calendar for the site owner from
// the GitHub GraphQL API. The client is resilience-wrapped: a circuit breaker
// sheds calls while the API is unhealthy and a client-side throttle keeps the
// request rate polite.
package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/chrisrodz/chrisrodz.io-sub000/internal/logging"
)

// defaultEndpoint is the GitHub GraphQL API endpoint.
const defaultEndpoint = "https://api.github.com/graphql"

// requestTimeout bounds every outbound call.
const requestTimeout = 15 * time.Second

// ErrNotConfigured is returned when no API token is configured; callers are
// expected to degrade to an empty calendar rather than fail the request.
var ErrNotConfigured = errors.New("github: token not configured")

// ContributionDay is one day of the contribution calendar. Dates are UTC
// calendar dates exactly as GitHub reports them.
type ContributionDay struct {
	Date  string `json:"date"`
	Count int    `json:"contributionCount"`
}

// Config holds client settings.
type Config struct {
	// Token is the GitHub API token. Empty disables the client.
	Token string

	// Username is the account whose calendar is fetched.
	Username string

	// Endpoint overrides the GraphQL endpoint. Intended for tests.
	Endpoint string
}

// Client fetches contribution calendars.
type Client struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]ContributionDay]
	throttle   *rate.Limiter
}

// NewClient creates a contribution-calendar client.
func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	breaker := gobreaker.NewCircuitBreaker[[]ContributionDay](gobreaker.Settings{
		Name:     "github-graphql",
		Interval: time.Minute,
		Timeout:  2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")
		},
	})

	return &Client{
		cfg:      cfg,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		breaker: breaker,
		// GitHub allows 5000 GraphQL points/hour; one request per second
		// with a small burst is far inside that and keeps us a good citizen.
		throttle: rate.NewLimiter(rate.Limit(1), 3),
	}
}

// Configured reports whether the client has a token to authenticate with.
func (c *Client) Configured() bool {
	return c.cfg.Token != ""
}

// contributionQuery selects the contribution calendar for a user and range.
const contributionQuery = `
query($login: String!, $from: DateTime!, $to: DateTime!) {
  user(login: $login) {
    contributionsCollection(from: $from, to: $to) {
      contributionCalendar {
        weeks {
          contributionDays {
            date
            contributionCount
          }
        }
      }
    }
  }
}`

// graphqlRequest is the wire shape of a GraphQL POST body.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// calendarResponse mirrors the nesting of the GraphQL response.
type calendarResponse struct {
	Data struct {
		User struct {
			ContributionsCollection struct {
				ContributionCalendar struct {
					Weeks []struct {
						ContributionDays []ContributionDay `json:"contributionDays"`
					} `json:"weeks"`
				} `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// ContributionCalendar fetches the per-day contribution counts for [from, to].
// Cancellation of ctx propagates to the underlying HTTP call.
func (c *Client) ContributionCalendar(ctx context.Context, from, to time.Time) ([]ContributionDay, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	if err := c.throttle.Wait(ctx); err != nil {
		return nil, fmt.Errorf("github: throttle: %w", err)
	}

	return c.breaker.Execute(func() ([]ContributionDay, error) {
		return c.fetch(ctx, from, to)
	})
}

func (c *Client) fetch(ctx context.Context, from, to time.Time) ([]ContributionDay, error) {
	body, err := json.Marshal(graphqlRequest{
		Query: contributionQuery,
		Variables: map[string]any{
			"login": c.cfg.Username,
			"from":  from.UTC().Format(time.RFC3339),
			"to":    to.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("github: marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("github: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the log, then discard.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logging.Warn().
			Int("status", resp.StatusCode).
			Str("body", string(snippet)).
			Msg("GitHub API returned non-OK status")
		return nil, fmt.Errorf("github: unexpected status %d", resp.StatusCode)
	}

	var parsed calendarResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("github: decode response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("github: graphql error: %s", parsed.Errors[0].Message)
	}

	var days []ContributionDay
	for _, week := range parsed.Data.User.ContributionsCollection.ContributionCalendar.Weeks {
		days = append(days, week.ContributionDays...)
	}
	return days, nil
}
