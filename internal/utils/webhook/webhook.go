package webhook

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
)

const heartbeatTimeout = 10 * time.Second

// Client pings heartbeat URLs of the uptime monitor.
type Client struct {
	http   *resty.Client
	logger *logger.Logger
}

func New(logger *logger.Logger) *Client {
	return &Client{
		http:   resty.New().SetTimeout(heartbeatTimeout),
		logger: logger,
	}
}

// Heartbeat sends a GET to url. An empty url is a no-op. Failures are logged only.
func (c *Client) Heartbeat(ctx context.Context, url string) bool {
	if url == "" {
		return false
	}

	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		c.logger.Error("[Heartbeat][Get]", map[string]string{
			"url":   url,
			"error": err.Error(),
		})
		return false
	}

	if resp.IsError() {
		c.logger.Error("[Heartbeat][Status]", map[string]string{
			"url":         url,
			"status_code": resp.Status(),
		})
		return false
	}

	c.logger.Debug("[Heartbeat][Done]", map[string]string{"url": url})
	return true
}
