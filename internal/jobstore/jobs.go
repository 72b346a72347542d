package jobstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/segmentio/ksuid"
)

// JobStatus is the lifecycle state of a decode job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is one decode_jobs row: a request to fetch and decode every
// article named by an NZB file into OutDir.
type Job struct {
	ID        string
	NZBPath   string
	OutDir    string
	Status    JobStatus
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// jobDBO maps a decode_jobs row, following the teacher's DBO-struct
// pattern for nullable columns.
type jobDBO struct {
	ID        string
	NZBPath   string
	OutDir    string
	Status    string
	Error     sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (j *jobDBO) toJob() *Job {
	job := &Job{
		ID:        j.ID,
		NZBPath:   j.NZBPath,
		OutDir:    j.OutDir,
		Status:    JobStatus(j.Status),
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	if j.Error.Valid {
		job.Error = j.Error.String
	}
	return job
}

// CreateJob inserts a new pending job, generating a ksuid identifier
// (sortable by creation time, matching the teacher's own use of ksuid
// for indexer release IDs).
func (s *Store) CreateJob(ctx context.Context, nzbPath, outDir string) (*Job, error) {
	id := ksuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decode_jobs (id, nzb_path, out_dir, status) VALUES (?, ?, ?, ?)`,
		id, nzbPath, outDir, string(JobPending),
	)
	if err != nil {
		return nil, fmt.Errorf("jobstore: create job: %w", err)
	}
	return s.GetJob(ctx, id)
}

// UpdateJobStatus transitions a job's status, optionally recording an
// error message (pass "" to clear it).
func (s *Store) UpdateJobStatus(ctx context.Context, id string, status JobStatus, errMsg string) error {
	var errVal sql.NullString
	if errMsg != "" {
		errVal = sql.NullString{String: errMsg, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE decode_jobs SET status = ?, error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(status), errVal, id,
	)
	if err != nil {
		return fmt.Errorf("jobstore: update job %s: %w", id, err)
	}
	return nil
}

// GetJob fetches a single job by ID, returning (nil, nil) if it does
// not exist.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	var j jobDBO
	err := s.db.QueryRowContext(ctx,
		`SELECT id, nzb_path, out_dir, status, error, created_at, updated_at FROM decode_jobs WHERE id = ?`, id,
	).Scan(&j.ID, &j.NZBPath, &j.OutDir, &j.Status, &j.Error, &j.CreatedAt, &j.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jobstore: get job %s: %w", id, err)
	}
	return j.toJob(), nil
}

// ListJobs returns every job, most recently created first. created_at
// has one-second resolution, so jobs created within the same second
// come back in no defined order relative to each other.
func (s *Store) ListJobs(ctx context.Context) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, nzb_path, out_dir, status, error, created_at, updated_at FROM decode_jobs ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("jobstore: list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		var j jobDBO
		if err := rows.Scan(&j.ID, &j.NZBPath, &j.OutDir, &j.Status, &j.Error, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("jobstore: scan job row: %w", err)
		}
		jobs = append(jobs, j.toJob())
	}
	return jobs, rows.Err()
}
