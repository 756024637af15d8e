// Package history keeps a local log of builds in SQLite.
package history

import (
	"time"

	"github.com/ziadkadry99/pagebuild/internal/assets"
	"github.com/ziadkadry99/pagebuild/internal/build"
)

// Trigger says what started a build.
type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerWatch  Trigger = "watch"
)

// Status is the outcome of a build.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Unresolved is a placeholder a build left verbatim.
type Unresolved struct {
	Kind  string `json:"kind"`
	Token string `json:"token"`
}

// Entry is one recorded build.
type Entry struct {
	ID              string        `json:"id"`
	StartedAt       time.Time     `json:"started_at"`
	Trigger         Trigger       `json:"trigger"`
	Mode            assets.Mode   `json:"mode"`
	Status          Status        `json:"status"`
	Error           string        `json:"error,omitempty"`
	OutputPath      string        `json:"output_path,omitempty"`
	DataFiles       int           `json:"data_files"`
	Components      int           `json:"components"`
	Styles          int           `json:"styles"`
	Scripts         int           `json:"scripts"`
	CopiedFiles     int           `json:"copied_files"`
	DefaultTemplate bool          `json:"default_template"`
	Duration        time.Duration `json:"duration"`
	// UnresolvedCount is always set; Unresolved is only loaded by Get.
	UnresolvedCount int          `json:"unresolved_count"`
	Unresolved      []Unresolved `json:"unresolved,omitempty"`
}

// FromResult describes a successful build.
func FromResult(res *build.Result, mode assets.Mode, trigger Trigger) Entry {
	e := Entry{
		ID:              res.BuildID,
		StartedAt:       time.Now().Add(-res.Duration),
		Trigger:         trigger,
		Mode:            mode,
		Status:          StatusOK,
		OutputPath:      res.OutputPath,
		DataFiles:       res.DataFiles,
		Components:      res.Components,
		Styles:          res.Styles,
		Scripts:         res.Scripts,
		CopiedFiles:     res.CopiedFiles,
		DefaultTemplate: res.DefaultTemplate,
		Duration:        res.Duration,
	}
	for _, tok := range res.Unresolved {
		e.Unresolved = append(e.Unresolved, Unresolved{Kind: tok.Kind.String(), Token: tok.Text})
	}
	e.UnresolvedCount = len(e.Unresolved)
	return e
}

// Failed describes a build that returned err after running for d.
func Failed(err error, mode assets.Mode, trigger Trigger, d time.Duration) Entry {
	return Entry{
		StartedAt: time.Now().Add(-d),
		Trigger:   trigger,
		Mode:      mode,
		Status:    StatusFailed,
		Error:     err.Error(),
		Duration:  d,
	}
}
