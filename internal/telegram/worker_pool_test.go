package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPoolStats(t *testing.T) {
	wp := NewWorkerPool(nil, WorkerPoolConfig{
		MessageWorkers:   3,
		MessageQueueSize: 10,
		MaxConcurrentOps: 2,
	})

	stats := wp.GetStats()
	assert.Equal(t, false, stats["started"])
	assert.Equal(t, 0, stats["message_queue_size"])
	assert.Equal(t, 10, stats["message_queue_capacity"])
	assert.Equal(t, 0, stats["active_operations"])
	assert.Equal(t, 2, stats["max_concurrent_ops"])
	assert.Equal(t, 3, stats["message_workers"])
}

func TestWorkerPoolSubmitBeforeStart(t *testing.T) {
	wp := NewWorkerPool(nil, DefaultWorkerPoolConfig())
	assert.Error(t, wp.SubmitMessage(nil))
}
