// Package exchange provides the HTTP client for the exchange's account API.
// It is the only place that knows the wire protocol; the rest of the system
// sees accounts through the AccountQueryService interface defined by its
// consumers.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	apperrors "github.com/account-tracker/internal/errors"
	"github.com/account-tracker/internal/logging"
)

// codeAccountNotFound is the exchange's error code for an unknown or
// inaccessible account index.
const codeAccountNotFound = 21100

// PositionState is one open position as reported by the exchange. All
// monetary fields are optional on the wire; nil means the field was absent.
type PositionState struct {
	Market          string
	UnrealizedPnl   *decimal.Decimal
	RealizedPnl     *decimal.Decimal
	AllocatedMargin *decimal.Decimal
}

// AccountState is the raw account view returned by the exchange. Optional
// fields stay optional here; normalization to zero happens once, at the
// aggregator boundary.
type AccountState struct {
	AccountID  string
	Collateral *decimal.Decimal
	Positions  []PositionState
}

// Cache is an advisory read-through cache for account responses. A nil Cache
// disables caching; cache failures are never surfaced to callers.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ClientConfig configures the exchange client.
type ClientConfig struct {
	BaseURL           string
	AuthToken         string
	RequestsPerSecond float64
	Timeout           time.Duration
	Cache             Cache
	CacheTTL          time.Duration
}

// Client queries the exchange's account API over HTTP with a global outbound
// rate limiter.
type Client struct {
	baseURL   string
	authToken string
	client    *http.Client
	limiter   *rate.Limiter
	cache     Cache
	cacheTTL  time.Duration
}

// NewClient creates a new exchange API client.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("client configuration is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("exchange base URL is required")
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 3.0
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		authToken: cfg.AuthToken,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		cache:     cfg.Cache,
		cacheTTL:  cfg.CacheTTL,
	}, nil
}

// accountPayload mirrors the exchange's account envelope.
type accountPayload struct {
	Index      json.Number                `json:"index"`
	Collateral *decimal.Decimal           `json:"collateral"`
	Positions  map[string]positionPayload `json:"positions"`
}

type positionPayload struct {
	UnrealizedPnl   *decimal.Decimal `json:"unrealized_pnl"`
	RealizedPnl     *decimal.Decimal `json:"realized_pnl"`
	AllocatedMargin *decimal.Decimal `json:"allocated_margin"`
}

type accountResponse struct {
	Code     int              `json:"code"`
	Message  string           `json:"message"`
	Accounts []accountPayload `json:"accounts"`
}

type accountsByOwnerResponse struct {
	Code        int           `json:"code"`
	Message     string        `json:"message"`
	SubAccounts []json.Number `json:"sub_accounts"`
}

// GetAccount fetches the current state of one account. Failures are
// distinguishable: NotFoundError / AccessDeniedError for account-level
// rejections, TransportError for everything else.
func (c *Client) GetAccount(ctx context.Context, accountID string) (*AccountState, error) {
	logger := logging.FromContext(ctx)
	cacheKey := "account:" + accountID

	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
			var state AccountState
			if err := json.Unmarshal([]byte(cached), &state); err == nil {
				logger.Debug().Str("account_id", accountID).Msg("account served from cache")
				return &state, nil
			}
		}
	}

	query := url.Values{}
	query.Set("by", "index")
	query.Set("value", accountID)

	body, err := c.get(ctx, "/api/v1/account", query, accountID)
	if err != nil {
		return nil, err
	}

	var resp accountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.NewTransportError(accountID, fmt.Errorf("malformed response: %w", err))
	}
	if resp.Code == codeAccountNotFound {
		return nil, apperrors.NewNotFoundError(accountID)
	}

	// The envelope carries a list; match on index.
	for _, acc := range resp.Accounts {
		if acc.Index.String() != accountID {
			continue
		}
		state := &AccountState{
			AccountID:  accountID,
			Collateral: acc.Collateral,
		}
		for market, pos := range acc.Positions {
			state.Positions = append(state.Positions, PositionState{
				Market:          market,
				UnrealizedPnl:   pos.UnrealizedPnl,
				RealizedPnl:     pos.RealizedPnl,
				AllocatedMargin: pos.AllocatedMargin,
			})
		}

		if c.cache != nil {
			if encoded, err := json.Marshal(state); err == nil {
				if err := c.cache.Set(ctx, cacheKey, string(encoded), c.cacheTTL); err != nil {
					logger.Debug().Err(err).Str("account_id", accountID).Msg("account cache write failed")
				}
			}
		}

		return state, nil
	}

	return nil, apperrors.NewNotFoundError(accountID)
}

// AccountsByOwner discovers the account indices (main plus sub-accounts)
// linked to an L1 owner address.
func (c *Client) AccountsByOwner(ctx context.Context, ownerAddress string) ([]string, error) {
	query := url.Values{}
	query.Set("l1_address", ownerAddress)

	body, err := c.get(ctx, "/api/v1/accountsByL1Address", query, ownerAddress)
	if err != nil {
		return nil, err
	}

	var resp accountsByOwnerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.NewTransportError(ownerAddress, fmt.Errorf("malformed response: %w", err))
	}
	if resp.Code == codeAccountNotFound {
		return nil, apperrors.NewNotFoundError(ownerAddress)
	}

	ids := make([]string, 0, len(resp.SubAccounts))
	for _, index := range resp.SubAccounts {
		ids = append(ids, index.String())
	}
	return ids, nil
}

// get performs one rate-limited GET and maps HTTP-level failures onto the
// error taxonomy. subject identifies the account (or owner) for diagnostics.
func (c *Client) get(ctx context.Context, path string, query url.Values, subject string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewTransportError(subject, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, apperrors.NewTransportError(subject, err)
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", c.authToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportError(subject, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewTransportError(subject, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperrors.NewAccessDeniedError(subject, fmt.Sprintf("HTTP %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		// The exchange reports unknown accounts with an error envelope on a
		// non-200 status.
		var envelope struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Code == codeAccountNotFound {
			return nil, apperrors.NewNotFoundError(subject)
		}
		return nil, apperrors.NewTransportError(subject, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200)))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
