package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const telegramAPI = "https://api.telegram.org"

// TelegramConfig configures the Telegram channel
type TelegramConfig struct {
	BotToken      string
	ChatID        string
	APIBase       string
	QueueSize     int
	RatePerSecond float64
	DedupWindow   time.Duration
}

// Telegram delivers messages through the Bot API from a background worker.
// Identical messages within DedupWindow are sent once.
type Telegram struct {
	cfg     TelegramConfig
	client  *http.Client
	queue   chan string
	limiter *rate.Limiter
	recent  *lru.Cache
	logger  *zap.Logger
	wg      sync.WaitGroup
	now     func() time.Time
}

// NewTelegram creates the channel; call Start to begin delivery
func NewTelegram(cfg TelegramConfig, logger *zap.Logger) (*Telegram, error) {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram bot token and chat id are required")
	}
	if cfg.APIBase == "" {
		cfg.APIBase = telegramAPI
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}

	recent, err := lru.New(512)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	return &Telegram{
		cfg:     cfg,
		client:  &http.Client{Timeout: 5 * time.Second},
		queue:   make(chan string, cfg.QueueSize),
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		recent:  recent,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Start runs the delivery worker until ctx is done
func (t *Telegram) Start(ctx context.Context) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case text := <-t.queue:
				if err := t.limiter.Wait(ctx); err != nil {
					return
				}
				if err := t.deliver(ctx, text); err != nil {
					t.logger.Warn("Failed to send telegram message", zap.Error(err))
				}
			}
		}
	}()
}

// Wait blocks until the worker has exited
func (t *Telegram) Wait() {
	t.wg.Wait()
}

// Send queues text for delivery; it drops the message when the queue is full
func (t *Telegram) Send(text string) {
	if t.isDuplicate(text) {
		return
	}

	select {
	case t.queue <- text:
	default:
		t.logger.Warn("Telegram queue full, dropping message", zap.String("text", text))
	}
}

func (t *Telegram) isDuplicate(text string) bool {
	if t.cfg.DedupWindow <= 0 {
		return false
	}

	key := xxhash.Sum64String(text)
	now := t.now()
	if v, ok := t.recent.Get(key); ok {
		if now.Sub(v.(time.Time)) < t.cfg.DedupWindow {
			return true
		}
	}
	t.recent.Add(key, now)
	return false
}

func (t *Telegram) deliver(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"chat_id": t.cfg.ChatID,
		"text":    text,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.cfg.APIBase, t.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram api failed with status: %d", resp.StatusCode)
	}
	return nil
}
