package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskDirectoryRefresh warms the contractor directory cache for a
// trade/location pair shortly after an estimate is created, so the
// follow-up contractor search hits a fresh cache entry.
const TaskDirectoryRefresh = "contractors.directory.refresh"

// TaskAnalysisExpire removes a photo analysis and its stored photos once
// the retention window has passed without an estimate claiming it.
const TaskAnalysisExpire = "analysis.photos.expire"

type DirectoryRefreshPayload struct {
	Trade    string `json:"trade"`
	Location string `json:"location"`
}

type AnalysisExpirePayload struct {
	AnalysisID string `json:"analysisId"`
}

func NewDirectoryRefreshTask(payload DirectoryRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDirectoryRefresh, data), nil
}

func ParseDirectoryRefreshPayload(task *asynq.Task) (DirectoryRefreshPayload, error) {
	var payload DirectoryRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DirectoryRefreshPayload{}, err
	}
	return payload, nil
}

func NewAnalysisExpireTask(payload AnalysisExpirePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalysisExpire, data), nil
}

func ParseAnalysisExpirePayload(task *asynq.Task) (AnalysisExpirePayload, error) {
	var payload AnalysisExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AnalysisExpirePayload{}, err
	}
	return payload, nil
}
