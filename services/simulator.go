package services

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"warehouse-fleet/models"
)

// Broadcaster delivers a message to every connected web client.
type Broadcaster func(models.WebSocketMessage)

// Simulator - 실시간 플릿 시뮬레이터
//
// Each tick calls FleetCoordinator.Step with a fixed delta and broadcasts
// the robot snapshots. Stopping only stops stepping; robots keep their
// in-flight state.
type Simulator struct {
	fleet     *FleetCoordinator
	broadcast Broadcaster
	logger    *zap.Logger

	interval time.Duration
	delta    float64

	recorder      *Recorder
	snapshotEvery uint64

	// control serializes Start, Stop and StepManual.
	control  sync.Mutex
	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	done     chan struct{}
}

// NewSimulator - 시뮬레이터 생성
func NewSimulator(fleet *FleetCoordinator, interval time.Duration, delta float64, broadcast Broadcaster, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if broadcast == nil {
		broadcast = func(models.WebSocketMessage) {}
	}
	s := &Simulator{
		fleet:     fleet,
		broadcast: broadcast,
		logger:    logger.Named("simulator"),
		interval:  interval,
		delta:     delta,
	}
	fleet.Subscribe(s.onTask)
	return s
}

// SetRecorder - 이벤트 레코더 연결. snapshotEvery 틱마다 로봇 스냅샷 기록 (0 = 끔)
func (s *Simulator) SetRecorder(rec *Recorder, snapshotEvery int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = rec
	if snapshotEvery > 0 {
		s.snapshotEvery = uint64(snapshotEvery)
	}
	s.logger.Info("💾 recorder attached", zap.Int("snapshot_every", snapshotEvery))
}

// Start - 시뮬레이션 시작
func (s *Simulator) Start() {
	s.control.Lock()
	defer s.control.Unlock()

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	s.logger.Info("🚀 simulator started",
		zap.Duration("interval", s.interval),
		zap.Float64("delta", s.delta))
	go s.run(stop, done)
}

// Stop - 시뮬레이션 중지. 루프 종료까지 대기
func (s *Simulator) Stop() {
	s.control.Lock()
	defer s.control.Unlock()

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	close(stop)
	<-done
	s.logger.Info("🛑 simulator stopped", zap.Float64("clock", s.fleet.Clock()))
}

// Running reports whether the ticker loop is active.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Interval returns the wall-clock tick period.
func (s *Simulator) Interval() time.Duration { return s.interval }

// Delta returns the simulated time advanced per tick.
func (s *Simulator) Delta() float64 { return s.delta }

// run - 시뮬레이션 메인 루프
func (s *Simulator) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := s.Advance(s.delta); err != nil {
				s.logger.Error("step failed", zap.Error(err))
			}
		}
	}
}

// Advance steps the fleet once and broadcasts the resulting snapshot. It
// is also used for manual stepping while the ticker is stopped.
func (s *Simulator) Advance(dt float64) error {
	if err := s.fleet.Step(dt); err != nil {
		return err
	}

	robots := s.fleet.Statuses()
	tick := s.fleet.Tick()
	clock := s.fleet.Clock()

	s.broadcast(models.WebSocketMessage{
		Type: models.MessageTypeFleetStatus,
		Data: models.FleetStatusData{
			Clock:  clock,
			Tick:   tick,
			Robots: robots,
		},
		Timestamp: time.Now().UnixMilli(),
	})

	s.mu.Lock()
	rec, every := s.recorder, s.snapshotEvery
	s.mu.Unlock()
	if rec != nil && every > 0 && tick%every == 0 {
		rec.RecordSnapshots(clock, robots)
	}
	return nil
}

// StepManual advances the fleet ticks times by dt while the ticker loop is
// stopped. It fails with ErrSimulationRunning instead of racing the loop.
func (s *Simulator) StepManual(dt float64, ticks int) error {
	s.control.Lock()
	defer s.control.Unlock()

	if s.Running() {
		return models.ErrSimulationRunning
	}
	for i := 0; i < ticks; i++ {
		if err := s.Advance(dt); err != nil {
			return err
		}
	}
	return nil
}

// onTask - 작업 상태 변화 브로드캐스트 및 기록
func (s *Simulator) onTask(task models.Task, clock float64) {
	s.broadcast(models.WebSocketMessage{
		Type:      models.MessageTypeTaskUpdate,
		Data:      task,
		Timestamp: time.Now().UnixMilli(),
	})

	s.mu.Lock()
	rec := s.recorder
	s.mu.Unlock()
	if rec != nil {
		rec.RecordTask(task, clock)
	}
}
