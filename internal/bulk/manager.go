// Package bulk drives the asynchronous bulk-extraction job lifecycle:
// submit, poll to a terminal state, stream the result file.
package bulk

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dbsmedya/shopsync/internal/gql"
	"github.com/dbsmedya/shopsync/internal/logger"
	"github.com/dbsmedya/shopsync/internal/query"
)

// Job status values reported by the server.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Fatal bulk conditions.
var (
	// ErrJobMismatch means the credential's current bulk operation was not
	// created by this process.
	ErrJobMismatch = errors.New("current bulk operation belongs to another process")
	// ErrPollTimeout means the job did not reach a terminal state in time.
	ErrPollTimeout = errors.New("bulk job poll timeout")
)

// scanBufferSize bounds a single result line. Bulk lines are one record
// each and can carry large denormalized objects.
const scanBufferSize = 16 * 1024 * 1024

// Manager runs bulk jobs against one credential. One job at a time; the
// server enforces the same limit per credential.
type Manager struct {
	client   *gql.Client
	log      *logger.Logger
	interval time.Duration
	timeout  time.Duration

	sleep func(time.Duration)
	now   func() time.Time
}

// NewManager creates a Manager polling at the given interval with the
// given overall timeout.
func NewManager(client *gql.Client, log *logger.Logger, interval, timeout time.Duration) *Manager {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Manager{
		client:   client,
		log:      log,
		interval: interval,
		timeout:  timeout,
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// jobStatus is the decoded currentBulkOperation block.
type jobStatus struct {
	ID          string
	Status      string
	ErrorCode   string
	ObjectCount string
	URL         string
}

// Run submits the bulk document, waits for completion and streams the
// newline-delimited result to sink one line at a time. An empty result
// (nothing extractable, or a FAILED job with an access/transient code)
// returns nil without calling sink. All other failures are fatal.
func (m *Manager) Run(ctx context.Context, entity, document string, sink func(line []byte) error) error {
	log := m.log.WithEntity(entity)

	resp, err := m.client.Execute(ctx, document, nil)
	if err != nil {
		return fmt.Errorf("bulk submit failed: %w", err)
	}

	id := resp.Get("data.bulkOperationRunQuery.bulkOperation.id").String()
	if id == "" {
		userErr := resp.Get("data.bulkOperationRunQuery.userErrors.0.message").String()
		if userErr == "" && resp.HasErrors() {
			userErr = resp.Errors[0].Message
		}
		return fmt.Errorf("bulk submit returned no job id: %s", userErr)
	}

	log.Infow("Submitted bulk job", "job_id", id)

	url, err := m.poll(ctx, log, id)
	if err != nil {
		return err
	}
	if url == "" {
		log.Infow("Bulk job produced no data", "job_id", id)
		return nil
	}

	return m.stream(ctx, url, sink)
}

// poll repeats the status query at a fixed interval until a result URL
// appears, the job reaches a terminal state, or the timeout elapses. An
// empty URL with a nil error is an empty result.
func (m *Manager) poll(ctx context.Context, log *logger.Logger, jobID string) (string, error) {
	deadline := m.now().Add(m.timeout)

	for m.now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		resp, err := m.client.Execute(ctx, query.BulkStatusDocument, nil)
		if err != nil {
			return "", fmt.Errorf("bulk status poll failed: %w", err)
		}

		status := decodeStatus(resp)
		log.Debugw("Polled bulk job",
			"job_id", status.ID,
			"status", status.Status,
			"object_count", status.ObjectCount,
		)

		if status.ID != jobID {
			return "", fmt.Errorf("%w: submitted %s, current %s", ErrJobMismatch, jobID, status.ID)
		}

		if status.URL != "" {
			return status.URL, nil
		}

		switch status.Status {
		case StatusCompleted:
			if status.ObjectCount == "0" {
				return "", nil
			}
			return "", fmt.Errorf("bulk job %s completed with %s objects but no result url", jobID, status.ObjectCount)
		case StatusFailed:
			if status.ErrorCode == gql.CodeAccessDenied || status.ErrorCode == gql.CodeInternalServerError {
				log.Warnw("Bulk job failed with recoverable code, skipping entity",
					"job_id", jobID,
					"error_code", status.ErrorCode,
				)
				return "", nil
			}
			return "", fmt.Errorf("bulk job %s failed: %s", jobID, status.ErrorCode)
		}

		m.sleep(m.interval)
	}

	return "", fmt.Errorf("%w after %s", ErrPollTimeout, m.timeout)
}

func decodeStatus(resp *gql.Response) jobStatus {
	op := "data.currentBulkOperation."
	return jobStatus{
		ID:          resp.Get(op + "id").String(),
		Status:      resp.Get(op + "status").String(),
		ErrorCode:   resp.Get(op + "errorCode").String(),
		ObjectCount: resp.Get(op + "objectCount").String(),
		URL:         resp.Get(op + "url").String(),
	}
}

// stream downloads the result file and feeds it to sink line by line, so
// large result sets are never buffered in full.
func (m *Manager) stream(ctx context.Context, url string, sink func(line []byte) error) error {
	body, err := m.client.Download(ctx, url)
	if err != nil {
		return fmt.Errorf("bulk result download failed: %w", err)
	}
	defer func() { _ = body.Close() }()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), scanBufferSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := sink(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("bulk result stream failed: %w", err)
	}
	return nil
}
