// Package telegram wires the Telegram transport to the feature handlers:
// long-poll loop, worker pool, rate-limited sends, the command router and
// per-mode message handling.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/telebox/telebox/internal/access"
	"github.com/telebox/telebox/internal/archiver"
	"github.com/telebox/telebox/internal/config"
	"github.com/telebox/telebox/internal/geo"
	"github.com/telebox/telebox/internal/geotag"
	"github.com/telebox/telebox/internal/kml"
	"github.com/telebox/telebox/internal/logger"
	"github.com/telebox/telebox/internal/metrics"
	"github.com/telebox/telebox/internal/ocrspace"
	"github.com/telebox/telebox/internal/session"
	"github.com/telebox/telebox/internal/userdir"
)

const collaboratorTimeout = 60 * time.Second

type Bot struct {
	api      *tgbotapi.BotAPI
	config   *config.Config
	access   *access.Lists
	resolver *userdir.Resolver
	sessions *session.Store

	archiver *archiver.Archiver
	geo      *geo.Client
	ocr      *ocrspace.Client
	composer *geotag.Composer
	router   *router

	// Rate limiting
	globalLimiter  *rate.Limiter
	userLimiters   map[int64]*rate.Limiter
	userLimitersMu sync.RWMutex

	dedup      *dedupCache
	workerPool *WorkerPool
}

func NewBot(cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	resolver := userdir.NewResolver(cfg.BaseDataPath)

	composer, err := geotag.NewComposer(cfg.MapboxAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize geotag composer: %w", err)
	}

	b := &Bot{
		api:      api,
		config:   cfg,
		access:   access.NewLists(cfg),
		resolver: resolver,
		sessions: session.NewStore(&kmlPersister{resolver: resolver, files: kml.NewStore()}),

		archiver: archiver.New(),
		geo:      geo.NewClient(cfg.OrsAPIKey),
		ocr:      ocrspace.NewClient(cfg.OcrAPIKey),
		composer: composer,

		globalLimiter: rate.NewLimiter(rate.Limit(30), 30), // Telegram's global ceiling
		userLimiters:  make(map[int64]*rate.Limiter),

		dedup: newDedupCache(),
	}
	b.router = newRouter(b.access)
	return b, nil
}

func (b *Bot) Start() error {
	logger.Info("Bot authorized and starting", map[string]interface{}{
		"username": b.api.Self.UserName,
	})

	b.workerPool = NewWorkerPool(b, DefaultWorkerPoolConfig())
	if err := b.workerPool.Start(); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	go metrics.Serve(b.config.MetricsAddr)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message"}

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		metrics.UpdatesReceived.Inc()

		if update.Message == nil {
			logger.Debug("Update has no message, skipping", nil)
			continue
		}

		if err := b.workerPool.SubmitMessage(update.Message); err != nil {
			logger.Error("Failed to submit message to worker pool", map[string]interface{}{
				"error":   err.Error(),
				"chat_id": update.Message.Chat.ID,
			})
		}
	}

	return nil
}

// Stop gracefully shuts down the bot and its worker pool
func (b *Bot) Stop() error {
	logger.InfoMsg("Stopping bot...")

	b.dedup.Stop()
	if b.workerPool != nil {
		logger.Info("Worker pool stats at shutdown", b.workerPool.GetStats())
		if err := b.workerPool.Stop(); err != nil {
			logger.Error("Error stopping worker pool", map[string]interface{}{
				"error": err.Error(),
			})
			return err
		}
	}

	logger.InfoMsg("Bot stopped successfully")
	return nil
}

// handleMessage is the per-message entry point run by pool workers.
func (b *Bot) handleMessage(message *tgbotapi.Message) error {
	if message.From == nil {
		return nil
	}
	userID := message.From.ID
	chatID := message.Chat.ID

	if b.dedup.MarkSeen(chatID, message.MessageID) {
		logger.Debug("Duplicate message dropped", map[string]interface{}{
			"chat_id":    chatID,
			"message_id": message.MessageID,
		})
		return nil
	}

	if !b.access.IsRegistered(userID) {
		metrics.RejectedUpdates.WithLabelValues("unregistered").Inc()
		b.sendResponse(chatID, msgNotRegistered)
		return nil
	}

	switch {
	case message.Location != nil:
		return b.handleLocationMessage(message)
	case len(message.Photo) > 0:
		return b.handlePhotoMessage(message)
	case message.Document != nil:
		return b.handleDocumentMessage(message)
	case message.Text != "":
		return b.routeText(message)
	}
	return nil
}

// getUserRateLimiter returns the per-chat limiter, creating it on demand
func (b *Bot) getUserRateLimiter(chatID int64) *rate.Limiter {
	b.userLimitersMu.RLock()
	limiter, exists := b.userLimiters[chatID]
	b.userLimitersMu.RUnlock()

	if !exists {
		b.userLimitersMu.Lock()
		if limiter, exists = b.userLimiters[chatID]; !exists {
			limiter = rate.NewLimiter(rate.Limit(1), 3)
			b.userLimiters[chatID] = limiter
		}
		b.userLimitersMu.Unlock()
	}

	return limiter
}

// rateLimitedSend sends a message with rate limiting
func (b *Bot) rateLimitedSend(chatID int64, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := b.globalLimiter.Wait(context.Background()); err != nil {
		return tgbotapi.Message{}, fmt.Errorf("global rate limiter error: %w", err)
	}
	if err := b.getUserRateLimiter(chatID).Wait(context.Background()); err != nil {
		return tgbotapi.Message{}, fmt.Errorf("user rate limiter error: %w", err)
	}
	return b.api.Send(msg)
}

func (b *Bot) sendResponse(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.rateLimitedSend(chatID, msg); err != nil {
		logger.Error("Failed to send message", map[string]interface{}{
			"error":   err.Error(),
			"chat_id": chatID,
		})
	}
}

func (b *Bot) sendDocument(chatID int64, path string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	if _, err := b.rateLimitedSend(chatID, doc); err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}
	return nil
}

func (b *Bot) sendPhotoFile(chatID int64, path string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))
	if _, err := b.rateLimitedSend(chatID, photo); err != nil {
		return fmt.Errorf("failed to send photo: %w", err)
	}
	return nil
}

func (b *Bot) sendLocation(chatID int64, lat, lon float64) {
	loc := tgbotapi.NewLocation(chatID, lat, lon)
	if _, err := b.rateLimitedSend(chatID, loc); err != nil {
		logger.Error("Failed to send location", map[string]interface{}{
			"error":   err.Error(),
			"chat_id": chatID,
		})
	}
}

// downloadFile fetches a Telegram file by ID into destPath.
func (b *Bot) downloadFile(ctx context.Context, fileID, destPath string) error {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return fmt.Errorf("failed to resolve file URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("file download returned status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// largestPhoto picks the highest-resolution size Telegram offers.
func largestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return best
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), collaboratorTimeout)
}
