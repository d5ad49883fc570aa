package schema

import (
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// ValidationError is a request validation failure with a stable code that
// clients can match on, independently of the human-readable message.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	CodeEmptyRequestBody      = "EMPTY_REQUEST_BODY"
	CodeMissingProperty       = "MISSING_PROPERTY"
	CodeInvalidTypeFormat     = "INVALID_TYPE_FORMAT"
	CodeInvalidQueueId        = "INVALID_QUEUE_ID"
	CodeMissingQueueId        = "MISSING_QUEUE_ID"
	CodeQueueNotExist         = "QUEUE_NOT_EXIST"
	CodeTaskNotAnObject       = "TASK_NOT_AN_OBJECT"
	CodeEmptyTasks            = "EMPTY_TASKS"
	CodeEmptyParams           = "EMPTY_PARAMS"
	CodeParamsNotAnObject     = "PARAMS_NOT_AN_OBJECT"
	CodePriorityNotAnInteger  = "PRIORITY_NOT_AN_INTEGER"
	CodeInvalidPriority       = "INVALID_PRIORITY"
	CodeInvalidCallbackFormat = "INVALID_CALLBACK_FORMAT"
	CodeInvalidExpiryTime     = "INVALID_EXPIRY_TIME"
	CodeInvalidInterval       = "INVALID_INTERVAL"
	CodeTaskFinalized         = "TASK_FINALIZED"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (e *ValidationError) Error() string {
	return e.Code + ": " + e.Message
}

// Errf returns a validation error with the given code and formatted message.
func Errf(code, format string, args ...any) *ValidationError {
	return &ValidationError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
