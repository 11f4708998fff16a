package automation

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/arvena/talentd/internal/config"
	"golang.org/x/time/rate"
)

// WebhookClient delivers workflow and rule payloads to external HTTP
// endpoints. Deliveries are rate limited per destination host with a token
// bucket so one noisy rule cannot starve the rest.
type WebhookClient struct {
	httpClient    *http.Client
	logger        *slog.Logger
	signingSecret []byte

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
	limit rate.Limit
	burst int
}

// NewWebhookClient builds a client from the automation config
func NewWebhookClient(cfg config.AutomationConfig, logger *slog.Logger) *WebhookClient {
	perSecond := float64(cfg.RatePerMinute) / 60.0
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return &WebhookClient{
		httpClient:    &http.Client{Timeout: cfg.WebhookTimeout},
		logger:        logger,
		signingSecret: []byte(cfg.SigningSecret),
		hosts:         make(map[string]*rate.Limiter),
		limit:         rate.Limit(perSecond),
		burst:         burst,
	}
}

func (c *WebhookClient) limiterFor(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.hosts[host]
	if !ok {
		l = rate.NewLimiter(c.limit, c.burst)
		c.hosts[host] = l
	}
	return l
}

// Deliver POSTs the payload as JSON to the endpoint, blocking on the host's
// rate limiter first. Non-2xx responses are errors.
func (c *WebhookClient) Deliver(ctx context.Context, endpoint string, payload interface{}) error {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid webhook URL %q: %w", endpoint, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported webhook scheme %q", parsed.Scheme)
	}

	if err := c.limiterFor(parsed.Host).Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "talentd-webhook/1.0")
	if len(c.signingSecret) > 0 {
		mac := hmac.New(sha256.New, c.signingSecret)
		mac.Write(body)
		req.Header.Set("X-Talentd-Signature", hex.EncodeToString(mac.Sum(nil)))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook POST %s: %w", parsed.Host, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	c.logger.Debug("webhook delivered",
		"host", parsed.Host,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook %s returned status %d", parsed.Host, resp.StatusCode)
	}
	return nil
}
