package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rickgao/lotto-engine/internal/auth"
	"github.com/rickgao/lotto-engine/internal/server/response"
)

// adminClient sends signed requests to a running lottod.
type adminClient struct {
	baseURL string
	creds   *auth.Credentials
	http    *http.Client
}

func newAdminClient(baseURL, keyID, secret string) (*adminClient, error) {
	creds, err := auth.NewCredentials(keyID, secret)
	if err != nil {
		return nil, fmt.Errorf("admin credentials: %w", err)
	}
	return &adminClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		http:    &http.Client{Timeout: 35 * time.Minute},
	}, nil
}

// do signs and sends a request and decodes the data envelope into out.
func (c *adminClient) do(method, path, query string, out any) error {
	target := c.baseURL + path
	if query != "" {
		target += "?" + query
	}
	req, err := http.NewRequest(method, target, nil)
	if err != nil {
		return err
	}
	c.creds.Apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var e response.ErrorResponse
		if json.Unmarshal(body, &e) == nil && e.Message != "" {
			return fmt.Errorf("%s %s: %d %s (%s)", method, path, resp.StatusCode, e.Message, e.Reason)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	env := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return json.Unmarshal(env.Data, out)
}
