package domain

import (
	"errors"
)

// Errors
var (
	ErrOperationNotFound = errors.New("operation not found")
	ErrNoActiveOperation = errors.New("session has no active operation")
	ErrCannotValidate    = errors.New("operation cannot be validated in its current state")
	ErrMalformedOutcome  = errors.New("resolver returned none of success, warning or error")
)

// OperationState is the lifecycle state of a picking operation
type OperationState string

const (
	OperationStateDraft     OperationState = "draft"
	OperationStateWaiting   OperationState = "waiting"
	OperationStateConfirmed OperationState = "confirmed"
	OperationStateAssigned  OperationState = "assigned"
	OperationStateDone      OperationState = "done"
	OperationStateCancelled OperationState = "cancel"
)

// IsValid reports whether s is one of the known operation states
func (s OperationState) IsValid() bool {
	switch s {
	case OperationStateDraft, OperationStateWaiting, OperationStateConfirmed,
		OperationStateAssigned, OperationStateDone, OperationStateCancelled:
		return true
	}
	return false
}

// IsValidatable reports whether an operation in this state may be finalized.
// Finished and cancelled operations never are; neither are drafts.
func (s OperationState) IsValidatable() bool {
	switch s {
	case OperationStateAssigned, OperationStateConfirmed, OperationStateWaiting:
		return true
	}
	return false
}

// OperationContext identifies the picking operation a session works on.
// It is immutable once loaded and only replaced by a reload.
type OperationContext struct {
	ID            string         `bson:"operationId" json:"id"`
	Name          string         `bson:"name" json:"name"`
	State         OperationState `bson:"state" json:"state"`
	PartnerName   string         `bson:"partnerName,omitempty" json:"partnerName,omitempty"`
	OperationType string         `bson:"operationType,omitempty" json:"operationType,omitempty"`
	WorkflowID    string         `bson:"workflowId,omitempty" json:"workflowId,omitempty"`
}

// PickingWorkflowID returns the id of the picking workflow that owns this operation
func (o OperationContext) PickingWorkflowID() string {
	if o.WorkflowID != "" {
		return o.WorkflowID
	}
	return "picking-" + o.ID
}
