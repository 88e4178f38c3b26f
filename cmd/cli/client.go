package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iho/ledgerd/internal/infrastructure/retry"
)

// apiError is a non-2xx answer from the ledger API.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

func isConflictStatus(err error) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}

type apiClient struct {
	baseURL string
	http    *http.Client
	retrier *retry.Retrier
}

func newAPIClient(baseURL string, timeout time.Duration, retries int) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		retrier: retry.NewConflictRetrier(retries,
			retry.WithClassifier(isConflictStatus),
			retry.WithIntervals(50*time.Millisecond, time.Second, 10*time.Second),
		),
	}
}

// call sends one request, retrying 409 answers, and decodes a 2xx body into out.
func (c *apiClient) call(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	return c.retrier.Retry(ctx, func() error {
		return c.do(ctx, method, path, payload, out)
	})
}

func (c *apiClient) do(ctx context.Context, method, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		message := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			message = errResp.Error
			if errResp.Message != "" {
				message += ": " + errResp.Message
			}
		}
		return &apiError{Status: resp.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
