package pipeline

import (
	"errors"
	"fmt"
	"time"

	"mochapipe/internal/services"
)

// Status is the final state of an instance in a run.
type Status string

const (
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// InstanceResult records how one instance fared.
type InstanceResult struct {
	Name            string           `json:"name" yaml:"name"`
	ProductName     string           `json:"product_name" yaml:"product_name"`
	Status          Status           `json:"status" yaml:"status"`
	Plugin          string           `json:"plugin,omitempty" yaml:"plugin,omitempty"`
	Outcome         services.Outcome `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Error           string           `json:"error,omitempty" yaml:"error,omitempty"`
	Description     string           `json:"description,omitempty" yaml:"description,omitempty"`
	Version         int              `json:"version,omitempty" yaml:"version,omitempty"`
	Representations int              `json:"representations" yaml:"representations"`

	err error
}

// Err returns the error that failed the instance.
func (r InstanceResult) Err() error {
	return r.err
}

// Report summarizes a publish run.
type Report struct {
	// RunID correlates the report with the run's log lines.
	RunID    string           `json:"run_id" yaml:"run_id"`
	Started  time.Time        `json:"started" yaml:"started"`
	Finished time.Time        `json:"finished" yaml:"finished"`
	Results  []InstanceResult `json:"results" yaml:"results"`
}

// Failed counts failed instances.
func (r *Report) Failed() int {
	return r.count(StatusFailed)
}

// Published counts published instances.
func (r *Report) Published() int {
	return r.count(StatusPublished)
}

func (r *Report) count(status Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Err joins the instance failures, nil when everything published.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Status == StatusFailed && res.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Name, res.err))
		}
	}
	return errors.Join(errs...)
}
