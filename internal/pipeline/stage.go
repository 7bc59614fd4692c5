package pipeline

import (
	"time"
)

// Stage names, in execution order
const (
	StageLoad      = "load"
	StageClean     = "clean"
	StageAggregate = "aggregate"
	StageScore     = "score"
	StageReport    = "report"
)

// StageNames lists every stage in the order the runner executes them
var StageNames = []string{StageLoad, StageClean, StageAggregate, StageScore, StageReport}

// StageStatus represents the current status of a stage
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusActive    StageStatus = "active"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
	StageStatusSkipped   StageStatus = "skipped"
)

// StageState represents the runtime state of a stage
type StageState struct {
	Name      string                 `json:"name"`
	Status    StageStatus            `json:"status"`
	StartTime *time.Time             `json:"start_time,omitempty"`
	EndTime   *time.Time             `json:"end_time,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Error     error                  `json:"-"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewStageState creates a pending stage
func NewStageState(name string) *StageState {
	return &StageState{
		Name:     name,
		Status:   StageStatusPending,
		Metadata: make(map[string]interface{}),
	}
}

// Start marks the stage as active and sets the start time
func (s *StageState) Start() {
	now := time.Now()
	s.StartTime = &now
	s.Status = StageStatusActive
}

// Complete marks the stage as completed and sets the end time
func (s *StageState) Complete() {
	now := time.Now()
	s.EndTime = &now
	s.Status = StageStatusCompleted
}

// Fail marks the stage as failed with the given error
func (s *StageState) Fail(err error) {
	now := time.Now()
	s.EndTime = &now
	s.Status = StageStatusFailed
	s.Error = err
	if err != nil {
		s.Message = err.Error()
	}
}

// Skip marks the stage as skipped with the given reason
func (s *StageState) Skip(reason string) {
	now := time.Now()
	s.StartTime = &now
	s.EndTime = &now
	s.Status = StageStatusSkipped
	s.Message = reason
}

// Duration returns how long the stage ran, or has been running
func (s *StageState) Duration() time.Duration {
	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}
