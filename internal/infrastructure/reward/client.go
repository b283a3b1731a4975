// Package reward talks to the external reward ledger. Credits are
// fire-and-forget from the ingest pipeline's point of view; a ledger outage
// never fails or rolls back an upload.
package reward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"clip-server/internal/config"
)

var (
	entropyOnce sync.Once
	entropy     *ulid.MonotonicEntropy
)

func newEntropy() *ulid.MonotonicEntropy {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = ulid.Monotonic(rand.New(source), 0)
	})
	return entropy
}

// Client posts credit requests to the reward ledger.
type Client struct {
	url        string
	httpClient *http.Client
	log        zerolog.Logger
	disabled   bool
}

func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	logger := log.With().Str("component", "reward-client").Logger()

	url := strings.TrimSpace(cfg.RewardLedgerURL)
	if url == "" {
		logger.Warn().Msg("REWARD_LEDGER_URL is not set; upload credits will be skipped")
		return &Client{log: logger, disabled: true}
	}

	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: cfg.RewardTimeout},
		log:        logger,
	}
}

type creditRequest struct {
	OwnerID        string `json:"owner_id"`
	Amount         int64  `json:"amount"`
	Reason         string `json:"reason"`
	VideoID        string `json:"video_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

// Credit posts one credit to the ledger. Each call carries a ULID
// idempotency key so a retried delivery cannot double-credit.
func (c *Client) Credit(ctx context.Context, ownerID string, amount int64, reason, videoID string) error {
	if c.disabled {
		c.log.Debug().Str("owner_id", ownerID).Msg("reward ledger disabled, skipping credit")
		return nil
	}

	key := "crd_" + strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy()).String())
	payload, err := json.Marshal(creditRequest{
		OwnerID:        ownerID,
		Amount:         amount,
		Reason:         reason,
		VideoID:        videoID,
		IdempotencyKey: key,
	})
	if err != nil {
		return fmt.Errorf("marshal credit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build credit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post credit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("credit rejected: %s", resp.Status)
	}

	c.log.Debug().
		Str("owner_id", ownerID).
		Str("video_id", videoID).
		Int64("amount", amount).
		Msg("credited upload reward")
	return nil
}
