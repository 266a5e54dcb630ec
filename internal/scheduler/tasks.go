package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskQualificationStep advances one lead's qualification conversation:
// fold in the reply (if any), then send the next question or hand off.
const TaskQualificationStep = "leads.qualification.step"

// TaskHandoffPush retries the CRM push for a qualified, un-synced lead.
const TaskHandoffPush = "leads.handoff.push"

type QualificationStepPayload struct {
	LeadID string `json:"leadId"`
	Reply  string `json:"reply,omitempty"`
}

type HandoffPushPayload struct {
	LeadID string `json:"leadId"`
}

func NewQualificationStepTask(payload QualificationStepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQualificationStep, data), nil
}

func ParseQualificationStepPayload(task *asynq.Task) (QualificationStepPayload, error) {
	var payload QualificationStepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return QualificationStepPayload{}, err
	}
	return payload, nil
}

func NewHandoffPushTask(payload HandoffPushPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskHandoffPush, data), nil
}

func ParseHandoffPushPayload(task *asynq.Task) (HandoffPushPayload, error) {
	var payload HandoffPushPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return HandoffPushPayload{}, err
	}
	return payload, nil
}
