package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/telebox/telebox/internal/logger"
)

// WorkerPool manages concurrent processing of incoming messages
type WorkerPool struct {
	bot                *Bot
	messageQueue       chan *tgbotapi.Message
	messageWorkerCount int

	// Concurrency control
	maxConcurrentOps int
	opSemaphore      chan struct{}

	// Lifecycle management
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.RWMutex
}

// WorkerPoolConfig holds configuration for the worker pool
type WorkerPoolConfig struct {
	MessageWorkers   int // Number of workers processing messages
	MessageQueueSize int // Size of message queue buffer
	MaxConcurrentOps int // Maximum concurrent operations (shell/HTTP calls)
}

// DefaultWorkerPoolConfig returns a sensible default configuration
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		MessageWorkers:   8,
		MessageQueueSize: 100,
		MaxConcurrentOps: 4,
	}
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(bot *Bot, config WorkerPoolConfig) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		bot:                bot,
		messageQueue:       make(chan *tgbotapi.Message, config.MessageQueueSize),
		messageWorkerCount: config.MessageWorkers,
		maxConcurrentOps:   config.MaxConcurrentOps,
		opSemaphore:        make(chan struct{}, config.MaxConcurrentOps),
		ctx:                ctx,
		cancel:             cancel,
	}
}

// Start initializes and starts all worker goroutines
func (wp *WorkerPool) Start() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.started {
		return fmt.Errorf("worker pool already started")
	}

	logger.Info("Starting worker pool", map[string]interface{}{
		"message_workers":    wp.messageWorkerCount,
		"max_concurrent_ops": wp.maxConcurrentOps,
		"message_queue_size": cap(wp.messageQueue),
	})

	for i := 0; i < wp.messageWorkerCount; i++ {
		wp.wg.Add(1)
		go wp.messageWorker(i)
	}

	wp.started = true
	logger.InfoMsg("Worker pool started successfully")
	return nil
}

// Stop gracefully shuts down the worker pool
func (wp *WorkerPool) Stop() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.started {
		return fmt.Errorf("worker pool not started")
	}

	logger.InfoMsg("Stopping worker pool...")

	close(wp.messageQueue)
	wp.cancel()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.InfoMsg("Worker pool stopped gracefully")
	case <-time.After(30 * time.Second):
		logger.Warn("Worker pool shutdown timed out", nil)
		return fmt.Errorf("worker pool shutdown timed out")
	}

	wp.started = false
	return nil
}

// SubmitMessage adds a message to the processing queue
func (wp *WorkerPool) SubmitMessage(message *tgbotapi.Message) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if !wp.started {
		return fmt.Errorf("worker pool not started")
	}

	select {
	case wp.messageQueue <- message:
		logger.Debug("Message queued for processing", map[string]interface{}{
			"chat_id":    message.Chat.ID,
			"queue_size": len(wp.messageQueue),
		})
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	default:
		// Queue is full
		logger.Warn("Message queue full, dropping message", map[string]interface{}{
			"chat_id": message.Chat.ID,
		})
		return fmt.Errorf("message queue full")
	}
}

// messageWorker processes messages from the message queue
func (wp *WorkerPool) messageWorker(workerID int) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Message worker panic recovered", map[string]interface{}{
				"worker_id": workerID,
				"panic":     r,
			})
		}
		wp.wg.Done()
	}()

	for {
		select {
		case message, ok := <-wp.messageQueue:
			if !ok {
				logger.Debug("Message worker stopping", map[string]interface{}{
					"worker_id": workerID,
				})
				return
			}
			wp.processMessage(message, workerID)

		case <-wp.ctx.Done():
			logger.Debug("Message worker cancelled", map[string]interface{}{
				"worker_id": workerID,
			})
			return
		}
	}
}

// processMessage handles one message under the concurrency limit
func (wp *WorkerPool) processMessage(message *tgbotapi.Message, workerID int) {
	select {
	case wp.opSemaphore <- struct{}{}:
		defer func() { <-wp.opSemaphore }()
	case <-wp.ctx.Done():
		return
	}

	startTime := time.Now()

	if err := wp.bot.handleMessage(message); err != nil {
		logger.Error("Error processing message", map[string]interface{}{
			"worker_id": workerID,
			"error":     err.Error(),
			"chat_id":   message.Chat.ID,
		})
		wp.bot.sendResponse(message.Chat.ID, msgTryAgain)
	}

	logger.Debug("Message processed", map[string]interface{}{
		"worker_id": workerID,
		"chat_id":   message.Chat.ID,
		"duration":  time.Since(startTime).String(),
	})
}

// GetStats returns current worker pool statistics
func (wp *WorkerPool) GetStats() map[string]interface{} {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	return map[string]interface{}{
		"started":                wp.started,
		"message_queue_size":     len(wp.messageQueue),
		"message_queue_capacity": cap(wp.messageQueue),
		"active_operations":      len(wp.opSemaphore),
		"max_concurrent_ops":     wp.maxConcurrentOps,
		"message_workers":        wp.messageWorkerCount,
	}
}
