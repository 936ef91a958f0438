package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status enumerates job lifecycle states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Stage identifies one unit of progress inside the pipeline DAG.
type Stage string

const (
	StageAnalysis Stage = "analysis"
	StagePackages Stage = "packages"
	StageAds      Stage = "ads"
	StageTexts    Stage = "texts"
)

// Stages lists every stage in DAG order; callers iterate it to build a fresh progress map.
var Stages = []Stage{StageAnalysis, StagePackages, StageAds, StageTexts}

// StageStatus enumerates the lifecycle of a single stage.
type StageStatus string

const (
	StageStatusPending    StageStatus = "pending"
	StageStatusProcessing StageStatus = "processing"
	StageStatusDone       StageStatus = "done"
	StageStatusFailed     StageStatus = "failed"
	StageStatusSkipped    StageStatus = "skipped"
)

// Progress is the per-stage status projection of a job.
type Progress map[Stage]StageStatus

// Clone returns a deep copy so callers cannot mutate a stored job through it.
func (p Progress) Clone() Progress {
	out := make(Progress, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Job is an in-flight or terminal unit of orchestration work.
type Job struct {
	ID          string
	Status      Status
	Progress    Progress
	Options     Options
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	Error       string
	Result      *Result
}

// Clone returns a deep-enough copy for safe hand-off to callers outside the store.
func (j Job) Clone() Job {
	out := j
	out.Progress = j.Progress.Clone()
	out.Options = j.Options.Clone()
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	if j.Result != nil {
		r := j.Result.Clone()
		out.Result = &r
	}
	return out
}

// NewJob materializes a job in StatusPending with an initial progress map.
func NewJob(opts Options) *Job {
	now := time.Now().UTC()
	progress := make(Progress, len(Stages))
	for _, stage := range Stages {
		if opts.StageSkipped(stage) {
			progress[stage] = StageStatusSkipped
		} else {
			progress[stage] = StageStatusPending
		}
	}
	return &Job{
		ID:        uuid.New().String(),
		Status:    StatusPending,
		Progress:  progress,
		Options:   opts,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
