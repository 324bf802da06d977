// Package github talks to the GitHub GraphQL API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/jimezsa/ghsearch/internal/models"
)

const (
	DefaultEndpoint  = "https://api.github.com/graphql"
	DefaultUserAgent = "ghsearch"
)

const searchUsersQuery = `query($query: String!, $first: Int!) {
  search(query: $query, type: USER, first: $first) {
    nodes {
      ... on User {
        login
        name
        bio
        location
        followers {
          totalCount
        }
      }
    }
  }
}`

// Doer sends a single request. *network.Client implements it.
type Doer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

type Client struct {
	token     string
	endpoint  string
	userAgent string
	doer      Doer
	payloads  PayloadLogger
}

type Option func(*Client)

func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if strings.TrimSpace(endpoint) != "" {
			c.endpoint = endpoint
		}
	}
}

// WithUserAgent sets the User-Agent sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if strings.TrimSpace(userAgent) != "" {
			c.userAgent = userAgent
		}
	}
}

func WithLogger(logger PayloadLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.payloads = logger
		}
	}
}

func NewClient(token string, doer Doer, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	if doer == nil {
		return nil, fmt.Errorf("github: http client is required")
	}

	client := &Client{
		token:     token,
		endpoint:  DefaultEndpoint,
		userAgent: DefaultUserAgent,
		doer:      doer,
		payloads:  NopLogger(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type graphQLRequest struct {
	Query     string          `json:"query"`
	Variables searchVariables `json:"variables"`
}

type searchVariables struct {
	Query string `json:"query"`
	First int    `json:"first"`
}

// SearchUsers runs one search and returns the matched users in API order.
// first is sent as-is; the API rejects values outside [1,100].
func (c *Client) SearchUsers(ctx context.Context, query string, first int) ([]models.User, error) {
	payload, err := json.Marshal(graphQLRequest{
		Query:     searchUsersQuery,
		Variables: searchVariables{Query: query, First: first},
	})
	if err != nil {
		return nil, err
	}

	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != fhttp.StatusOK {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	c.payloads.LogPayload(body)
	return decodeSearchResponse(body)
}
