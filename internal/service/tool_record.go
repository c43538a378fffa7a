package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/paper-scout/scout/internal/logger"
	"github.com/paper-scout/scout/internal/model"
)

const recordBufferSize = 1000

// ToolRecordInterface persists tool call records
type ToolRecordInterface interface {
	// Start opens the record file and starts the writer
	Start() error
	// Stop drains pending records and closes the file
	Stop()
	// LogAsync queues one record
	LogAsync(record *model.ToolCallLog)
}

// ToolRecordService appends tool call records to a JSON lines file from a
// background writer. When the queue is full records are written inline.
type ToolRecordService struct {
	filePath string
	file     *os.File

	logChan  chan *model.ToolCallLog
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	stopOnce sync.Once
	closing  bool
	stopped  bool
	dropped  atomic.Int64
}

// NewToolRecordService creates a record service writing to filePath
func NewToolRecordService(filePath string) *ToolRecordService {
	return &ToolRecordService{
		filePath: filePath,
		logChan:  make(chan *model.ToolCallLog, recordBufferSize),
		stopChan: make(chan struct{}),
	}
}

// Start opens the record file and starts the writer goroutine
func (rs *ToolRecordService) Start() error {
	if err := os.MkdirAll(filepath.Dir(rs.filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create record directory: %w", err)
	}
	file, err := os.OpenFile(rs.filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open record file: %w", err)
	}
	rs.file = file

	rs.wg.Add(1)
	go rs.logWriter()

	logger.Info("tool record service started", zap.String("path", rs.filePath))
	return nil
}

// Stop drains pending records and closes the file. It is safe to call more than once.
func (rs *ToolRecordService) Stop() {
	rs.stopOnce.Do(func() {
		rs.mu.Lock()
		rs.closing = true
		rs.mu.Unlock()

		close(rs.stopChan)
		rs.wg.Wait()

		rs.mu.Lock()
		defer rs.mu.Unlock()
		rs.stopped = true
		if rs.file != nil {
			if err := rs.file.Close(); err != nil {
				logger.Error("failed to close record file", zap.Error(err))
			}
		}
	})
}

// LogAsync queues record for writing
func (rs *ToolRecordService) LogAsync(record *model.ToolCallLog) {
	// Enqueue under mu so nothing lands in the queue after the writer's final drain.
	rs.mu.Lock()
	if !rs.closing {
		select {
		case rs.logChan <- record:
			rs.mu.Unlock()
			return
		default:
		}
	}
	rs.mu.Unlock()

	// Closing or channel full: write inline
	rs.logSync(record)
}

// Dropped reports how many records could not be written because the service had stopped
func (rs *ToolRecordService) Dropped() int64 {
	return rs.dropped.Load()
}

func (rs *ToolRecordService) logWriter() {
	defer rs.wg.Done()

	for {
		select {
		case record := <-rs.logChan:
			rs.logSync(record)
		case <-rs.stopChan:
			for len(rs.logChan) > 0 {
				rs.logSync(<-rs.logChan)
			}
			return
		}
	}
}

// logSync writes one record as a single line
func (rs *ToolRecordService) logSync(record *model.ToolCallLog) {
	if record == nil {
		return
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.stopped || rs.file == nil {
		rs.dropped.Add(1)
		logger.Warn("tool record service stopped, record dropped", zap.String("tool_name", record.ToolName))
		return
	}

	line, err := record.ToCompressedJSON()
	if err != nil {
		logger.Error("Failed to marshal tool record", zap.Error(err))
		return
	}
	if _, err := rs.file.Write(append([]byte(line), '\n')); err != nil {
		logger.Error("Failed to write tool record", zap.String("path", rs.filePath), zap.Error(err))
	}
}
