package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"routescan-exporter/internal/core/domain"
)

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type pollOutcome int

const (
	outcomePending pollOutcome = iota
	outcomeSucceeded
	outcomeFailed
	outcomeTransient
)

func (o pollOutcome) String() string {
	switch o {
	case outcomeSucceeded:
		return "succeeded"
	case outcomeFailed:
		return "failed"
	case outcomeTransient:
		return "transient"
	default:
		return "pending"
	}
}

var errMissingDownloadURL = errors.New("status succeeded without a download url")

// classifyPoll maps one status query onto the poll state machine. Transport
// errors, non-2xx responses and undecodable bodies are all transient.
func classifyPoll(job domain.ExportJob, err error) (pollOutcome, error) {
	if err != nil {
		return outcomeTransient, err
	}

	switch job.Status {
	case domain.StatusSucceeded:
		if job.URL == "" {
			return outcomeTransient, errMissingDownloadURL
		}
		return outcomeSucceeded, nil
	case domain.StatusFailed:
		return outcomeFailed, nil
	default:
		return outcomePending, nil
	}
}

// PollResult is what a finished Poll call observed
type PollResult struct {
	URL      string
	Attempts int
}

// Poller queries an export job at a fixed interval until it reaches a terminal
// state or the attempt budget runs out.
type Poller struct {
	api         StatusChecker
	maxAttempts int
	interval    time.Duration
	sleep       Sleeper
}

func NewPoller(api StatusChecker, maxAttempts int, interval time.Duration) *Poller {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Poller{
		api:         api,
		maxAttempts: maxAttempts,
		interval:    interval,
		sleep:       SleepContext,
	}
}

// SetSleeper replaces the delay function used between attempts
func (p *Poller) SetSleeper(sleep Sleeper) {
	p.sleep = sleep
}

// Poll returns the download URL once the job has succeeded
func (p *Poller) Poll(ctx context.Context, exportID string) (PollResult, error) {
	logrus.Infof("Polling export %s for completion (max attempts: %d, interval: %s)", exportID, p.maxAttempts, p.interval)

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		job, err := p.api.GetExportStatus(ctx, exportID)
		outcome, cause := classifyPoll(job, err)

		switch outcome {
		case outcomeSucceeded:
			logrus.Infof("Attempt %d: Status = %s", attempt, job.Status)
			logrus.Infof("Export %s completed successfully", exportID)
			return PollResult{URL: job.URL, Attempts: attempt}, nil

		case outcomeFailed:
			logrus.Infof("Attempt %d: Status = %s", attempt, job.Status)
			return PollResult{Attempts: attempt}, fmt.Errorf("%w: export %s reported status %q", domain.ErrExportFailed, exportID, job.Status)

		case outcomeTransient:
			logrus.Warnf("Error on attempt %d/%d: %v", attempt, p.maxAttempts, cause)
			if attempt == p.maxAttempts {
				return PollResult{Attempts: attempt}, fmt.Errorf("%w: attempt %d/%d: %w", domain.ErrPollTimeout, attempt, p.maxAttempts, cause)
			}

		case outcomePending:
			if job.Status.IsKnown() {
				logrus.Infof("Attempt %d: Status = %s, waiting %s", attempt, job.Status, p.interval)
			} else {
				logrus.Warnf("Attempt %d: Unknown status %q, waiting %s", attempt, job.Status, p.interval)
			}
		}

		if attempt < p.maxAttempts {
			if err := p.sleep(ctx, p.interval); err != nil {
				return PollResult{Attempts: attempt}, fmt.Errorf("%w: %w", domain.ErrPollTimeout, err)
			}
		}
	}

	return PollResult{Attempts: p.maxAttempts}, fmt.Errorf("%w within %d attempts", domain.ErrPollTimeout, p.maxAttempts)
}
