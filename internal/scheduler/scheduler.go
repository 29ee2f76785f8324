// Package scheduler provides cron-based scheduling for the voice agent's
// background sweeps: conversation memory eviction and audio file cleanup.
package scheduler

import (
	"github.com/robfig/cron/v3"
)

// Default schedules for the background sweeps.
const (
	// HourlySweep runs at the top of every hour.
	HourlySweep = "0 * * * *"
	// AudioCleanupSweep runs every five minutes to drop published audio
	// files Twilio has already fetched.
	AudioCleanupSweep = "*/5 * * * *"
)

// Scheduler provides cron-based job scheduling.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates and starts a cron scheduler.
func NewScheduler() *Scheduler {
	// Use standard 5-field cron parser (min, hour, dom, month, dow) and enable recovery
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	c.Start()
	return &Scheduler{cron: c}
}

// AddJob schedules a task using the provided cron expression.
// It returns an error if the expression is invalid.
func (s *Scheduler) AddJob(expr string, task func()) error {
	_, err := s.cron.AddFunc(expr, task)
	return err
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
