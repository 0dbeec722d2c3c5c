package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	id "induct/pkg/domain"
	dErrors "induct/pkg/domain-errors"
	"induct/pkg/platform/circuit"
)

const defaultTimeout = 10 * time.Second

// HTTPClient calls the directory's REST API with circuit breaker
// protection. When the circuit is open, calls fail fast instead of piling
// onto a struggling upstream.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// HTTPOption configures the HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) {
		if c != nil {
			h.client = c
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(h *HTTPClient) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithBreaker overrides the default circuit breaker.
func WithBreaker(b *circuit.Breaker) HTTPOption {
	return func(h *HTTPClient) {
		if b != nil {
			h.breaker = b
		}
	}
}

// NewHTTP creates a directory client for the given base URL. The token is
// sent as a bearer credential on every request.
func NewHTTP(baseURL, token string, opts ...HTTPOption) *HTTPClient {
	h := &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: defaultTimeout},
		breaker: circuit.New("directory"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type createAccountRequest struct {
	PersonnelID string `json:"personnel_id"`
	DisplayName string `json:"display_name"`
}

type createAccountResponse struct {
	AccountID string `json:"account_id"`
}

// CreateOrLinkAccount creates the directory account for the personnel
// record, or links and returns the existing one.
func (h *HTTPClient) CreateOrLinkAccount(ctx context.Context, personnelID id.PersonnelID, displayName string) (id.AccountID, error) {
	body, err := h.post(ctx, "/v1/accounts", createAccountRequest{
		PersonnelID: personnelID.String(),
		DisplayName: displayName,
	})
	if err != nil {
		return id.AccountID{}, err
	}

	var resp createAccountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return id.AccountID{}, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "directory returned a malformed account")
	}
	accountID, err := id.ParseAccountID(resp.AccountID)
	if err != nil {
		return id.AccountID{}, dErrors.New(dErrors.CodeUpstreamUnavailable, "directory returned a malformed account id")
	}
	return accountID, nil
}

type assignGroupRequest struct {
	GroupID string `json:"group_id"`
}

// AssignGroup adds the account to the security group.
func (h *HTTPClient) AssignGroup(ctx context.Context, accountID id.AccountID, groupID id.GroupID) error {
	path := fmt.Sprintf("/v1/accounts/%s/groups", accountID)
	_, err := h.post(ctx, path, assignGroupRequest{GroupID: groupID.String()})
	return err
}

func (h *HTTPClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	if h.breaker.IsOpen() {
		// No fallback exists for provisioning, so an open circuit still
		// attempts the call (half-open behavior); the state is surfaced so
		// operators know the directory is degraded.
		h.logger.WarnContext(ctx, "directory circuit open", "path", path)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode directory request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build directory request")
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.recordFailure(ctx, path)
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "identity directory unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		h.recordFailure(ctx, path)
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "read directory response")
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		h.breaker.RecordSuccess()
		return body, nil
	case resp.StatusCode >= 500:
		h.recordFailure(ctx, path)
		return nil, dErrors.New(dErrors.CodeUpstreamUnavailable,
			fmt.Sprintf("identity directory error (status %d)", resp.StatusCode))
	default:
		// 4xx means the request itself was bad; the upstream is healthy.
		h.breaker.RecordSuccess()
		return nil, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("directory rejected the request (status %d)", resp.StatusCode))
	}
}

func (h *HTTPClient) recordFailure(ctx context.Context, path string) {
	if _, change := h.breaker.RecordFailure(); change.Opened {
		h.logger.WarnContext(ctx, "directory circuit opened",
			"path", path,
			"circuit", h.breaker.Name(),
		)
	}
}

var _ Client = (*HTTPClient)(nil)
