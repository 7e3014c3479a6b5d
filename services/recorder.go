package services

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"warehouse-fleet/models"
)

// Recorder - 플릿 이벤트 버퍼 (비동기 일괄 저장)
//
// Entries are buffered in memory and written in batches when the buffer
// reaches flushSize or every flushInterval. With a nil db entries are
// dropped and queries return ErrStoreDisabled.
type Recorder struct {
	db     *gorm.DB
	logger *zap.Logger

	mu        sync.Mutex
	logs      []models.FleetLog
	flushSize int
	flushTime time.Duration

	startOnce sync.Once
	started   bool
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
	pending   sync.WaitGroup
}

// NewRecorder - 레코더 생성. Start로 자동 플러시 시작
func NewRecorder(db *gorm.DB, flushSize int, flushInterval time.Duration, logger *zap.Logger) *Recorder {
	if flushSize < 1 {
		flushSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		db:        db,
		logger:    logger.Named("recorder"),
		logs:      make([]models.FleetLog, 0, flushSize*2),
		flushSize: flushSize,
		flushTime: flushInterval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Enabled reports whether entries reach a database.
func (r *Recorder) Enabled() bool {
	return r != nil && r.db != nil
}

// Start - 자동 플러시 고루틴 시작 (중복 호출 무시)
func (r *Recorder) Start() {
	r.startOnce.Do(func() {
		r.mu.Lock()
		r.started = true
		r.mu.Unlock()

		go r.autoFlush()
		r.logger.Info("✅ recorder started",
			zap.Int("flush_size", r.flushSize),
			zap.Duration("flush_interval", r.flushTime))
	})
}

// autoFlush - 주기적 로그 저장
func (r *Recorder) autoFlush() {
	defer close(r.done)

	ticker := time.NewTicker(r.flushTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Flush()
		case <-r.stop:
			return
		}
	}
}

// Close stops the flush loop, if any, and writes what is left in the buffer.
func (r *Recorder) Close() {
	r.stopOnce.Do(func() {
		close(r.stop)
		r.mu.Lock()
		started := r.started
		r.mu.Unlock()
		if started {
			<-r.done
		}
		r.pending.Wait()
		r.Flush()
		r.logger.Info("🛑 recorder stopped")
	})
}

// Add - 로그 버퍼에 추가
func (r *Recorder) Add(entry models.FleetLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	r.mu.Lock()
	r.logs = append(r.logs, entry)
	size := len(r.logs)
	r.mu.Unlock()

	// 버퍼 크기가 차면 즉시 플러시
	if size >= r.flushSize {
		r.pending.Add(1)
		go func() {
			defer r.pending.Done()
			r.Flush()
		}()
	}
}

// Flush - 버퍼의 모든 로그를 DB에 저장
func (r *Recorder) Flush() {
	r.mu.Lock()
	if len(r.logs) == 0 {
		r.mu.Unlock()
		return
	}
	batch := make([]models.FleetLog, len(r.logs))
	copy(batch, r.logs)
	r.logs = r.logs[:0]
	r.mu.Unlock()

	if r.db == nil {
		return
	}
	if err := r.db.CreateInBatches(batch, 100).Error; err != nil {
		r.logger.Error("❌ failed to store logs", zap.Int("count", len(batch)), zap.Error(err))
		return
	}
	r.logger.Debug("💾 logs stored", zap.Int("count", len(batch)))
}

// Buffered returns the number of entries waiting for a flush.
func (r *Recorder) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.logs)
}

// RecordTask - 작업 상태 변화 기록
func (r *Recorder) RecordTask(task models.Task, clock float64) {
	r.Add(models.FleetLog{
		SimTime:   clock,
		EventType: models.EventForStatus(task.Status),
		AgentID:   task.AgentID,
		Row:       task.Pickup.Row,
		Col:       task.Pickup.Col,
		TaskID:    string(task.ID),
		SKU:       task.SKU,
		Status:    string(task.Status),
		Detail:    task.FailureReason,
	})
}

// RecordSnapshots - 로봇 스냅샷 기록
func (r *Recorder) RecordSnapshots(clock float64, robots []models.AgentSnapshot) {
	now := time.Now()
	for _, s := range robots {
		r.Add(models.FleetLog{
			CreatedAt: now,
			SimTime:   clock,
			EventType: models.EventRobotSnapshot,
			AgentID:   s.AgentID,
			State:     string(s.State),
			Row:       s.Position.Row,
			Col:       s.Position.Col,
			LocRow:    s.Location.Row,
			LocCol:    s.Location.Col,
			Carrying:  s.Carrying,
			Queue:     s.QueueLength,
			TaskID:    string(s.CurrentTaskID),
		})
	}
}

// RecordRequestFailure - 거절된 요청 기록
func (r *Recorder) RecordRequestFailure(sku string, clock float64, err error) {
	r.Add(models.FleetLog{
		SimTime:   clock,
		EventType: models.EventRequestFailure,
		SKU:       sku,
		Detail:    err.Error(),
	})
}

// Recent - 최근 로그 조회
func (r *Recorder) Recent(limit int) ([]models.FleetLog, error) {
	if !r.Enabled() {
		return nil, models.ErrStoreDisabled
	}
	var logs []models.FleetLog
	err := r.db.Order("id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// ByTask returns every entry of one task in insertion order.
func (r *Recorder) ByTask(taskID models.TaskID) ([]models.FleetLog, error) {
	if !r.Enabled() {
		return nil, models.ErrStoreDisabled
	}
	var logs []models.FleetLog
	err := r.db.Where("task_id = ?", string(taskID)).Order("id ASC").Find(&logs).Error
	return logs, err
}

// ByEventType - 이벤트 타입별 로그 조회
func (r *Recorder) ByEventType(eventType string, limit int) ([]models.FleetLog, error) {
	if !r.Enabled() {
		return nil, models.ErrStoreDisabled
	}
	var logs []models.FleetLog
	err := r.db.Where("event_type = ?", eventType).
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// Stats - 로그 통계
func (r *Recorder) Stats(since time.Time) (models.LogStats, error) {
	stats := models.LogStats{Since: since, EventCounts: map[string]int64{}}
	if !r.Enabled() {
		return stats, models.ErrStoreDisabled
	}

	if err := r.db.Model(&models.FleetLog{}).
		Where("created_at >= ?", since).
		Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	// 이벤트 타입별 카운트
	var eventCounts []struct {
		EventType string
		Count     int64
	}
	if err := r.db.Model(&models.FleetLog{}).
		Select("event_type, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("event_type").
		Scan(&eventCounts).Error; err != nil {
		return stats, err
	}
	for _, ec := range eventCounts {
		stats.EventCounts[ec.EventType] = ec.Count
	}
	return stats, nil
}
