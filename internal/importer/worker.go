package importer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"echocore/pkg/interfaces"
	"echocore/pkg/types"
)

// JobRunner executes one import job to completion. The production runner is
// the Pipeline; tests substitute fakes.
type JobRunner interface {
	Run(ctx context.Context, name string) error
}

// Worker serializes import jobs: strictly FIFO, at most one running at a
// time. Every queue mutation broadcasts the full state snapshot to the
// admin channel so late-joining observers converge on the next update.
type Worker struct {
	broadcaster interfaces.Broadcaster
	runner      JobRunner
	logger      *zap.Logger

	mu         sync.Mutex
	queue      []string
	processing bool
	current    string
}

// NewWorker creates an idle worker.
func NewWorker(broadcaster interfaces.Broadcaster, runner JobRunner, logger *zap.Logger) *Worker {
	return &Worker{
		broadcaster: broadcaster,
		runner:      runner,
		logger:      logger.Named("importer"),
	}
}

// Enqueue appends trimmed, non-empty names to the pending queue in input
// order and starts the processing loop if it is not already running.
// Returns the number of names accepted, immediately after the queue
// mutation and state broadcast; callers never wait on job completion.
func (w *Worker) Enqueue(names []string) int {
	accepted := make([]string, 0, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			accepted = append(accepted, trimmed)
		}
	}
	if len(accepted) == 0 {
		return 0
	}

	w.mu.Lock()
	w.queue = append(w.queue, accepted...)
	start := !w.processing
	if start {
		w.processing = true
	}
	snapshot := w.snapshotLocked()
	w.mu.Unlock()

	w.logger.Info("jobs enqueued", zap.Strings("names", accepted))
	w.sendLog(fmt.Sprintf("Queued %d job(s): %s", len(accepted), strings.Join(accepted, ", ")), types.LogInfo)
	w.broadcastStatus(snapshot)

	if start {
		go w.processQueue()
	}
	return len(accepted)
}

// processQueue drains the pending queue one job at a time. The processing
// flag is flipped under the same lock as the queue mutation in Enqueue, so
// a second loop can never start while one is running. A failed job is
// logged and treated as done; the loop moves on.
func (w *Worker) processQueue() {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			w.processing = false
			w.current = ""
			snapshot := w.snapshotLocked()
			w.mu.Unlock()
			w.broadcastStatus(snapshot)
			w.sendLog("Queue drained, importer idle", types.LogInfo)
			return
		}
		name := w.queue[0]
		w.queue = w.queue[1:]
		w.current = name
		snapshot := w.snapshotLocked()
		w.mu.Unlock()

		w.broadcastStatus(snapshot)
		w.logger.Info("job started", zap.String("name", name))

		started := time.Now()
		if err := w.runner.Run(context.Background(), name); err != nil {
			w.logger.Warn("job failed", zap.String("name", name), zap.Error(err))
			w.sendLog(fmt.Sprintf("Import failed for %q: %v", name, err), types.LogError)
		} else {
			w.logger.Info("job finished",
				zap.String("name", name),
				zap.Duration("took", time.Since(started)))
			w.sendLog(fmt.Sprintf("Import finished for %q", name), types.LogSuccess)
		}

		w.mu.Lock()
		w.current = ""
		snapshot = w.snapshotLocked()
		w.mu.Unlock()
		w.broadcastStatus(snapshot)
	}
}

// Status returns the current queue snapshot for pull-based catch-up. The
// snapshot always equals the payload of the most recent state broadcast.
func (w *Worker) Status() types.QueueStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Clear truncates the pending queue. A job already running is not
// interrupted; after it finishes the loop observes the empty queue and goes
// idle.
func (w *Worker) Clear() {
	w.mu.Lock()
	cleared := len(w.queue)
	w.queue = nil
	snapshot := w.snapshotLocked()
	w.mu.Unlock()

	w.logger.Info("queue cleared", zap.Int("dropped", cleared))
	w.sendLog(fmt.Sprintf("Queue cleared, %d pending job(s) dropped", cleared), types.LogWarn)
	w.broadcastStatus(snapshot)
}

// Log emits a structured progress line to the admin channel. The pipeline
// uses this as its only output surface.
func (w *Worker) Log(message, logType string) {
	w.sendLog(message, logType)
}

func (w *Worker) sendLog(message, logType string) {
	w.broadcaster.BroadcastToRoom(types.AdminChannel, types.EventImportLog, types.LogEvent{
		Message: fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message),
		Type:    logType,
	})
}

func (w *Worker) broadcastStatus(snapshot types.QueueStatus) {
	w.broadcaster.BroadcastToRoom(types.AdminChannel, types.EventImportQueueUpdate, snapshot)
}

// snapshotLocked copies queue state; callers must hold w.mu.
func (w *Worker) snapshotLocked() types.QueueStatus {
	queue := make([]string, len(w.queue))
	copy(queue, w.queue)

	var current *string
	if w.current != "" {
		name := w.current
		current = &name
	}
	return types.QueueStatus{
		Queue:         queue,
		IsProcessing:  w.processing,
		CurrentArtist: current,
	}
}
