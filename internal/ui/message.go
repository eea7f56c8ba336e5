package ui

import (
	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/tasks"
)

// progressUpdateMsg carries one update from the batch runner.
type progressUpdateMsg tasks.ProgressUpdate

// runCompleteMsg is sent once the progress channel closes.
type runCompleteMsg struct {
	result *models.BatchResult
	err    error
}
