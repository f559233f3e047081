// Package errors provides standardized error handling for the RFQ workers and API.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Generation errors surfaced to callers.
const (
	ErrCodeNoCredential ErrorCode = "NO_CREDENTIAL"
	ErrCodeServiceError ErrorCode = "SERVICE_ERROR"
)

// Internal generation errors. MALFORMED_RESPONSE never leaves the orchestrator.
const (
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeGenerationTimeout ErrorCode = "GENERATION_TIMEOUT"
)

// Supporting infrastructure errors.
const (
	ErrCodeInvalidInput           ErrorCode = "INVALID_INPUT"
	ErrCodeArchiveFailed          ErrorCode = "ARCHIVE_FAILED"
	ErrCodeDocumentNotFound       ErrorCode = "DOCUMENT_NOT_FOUND"
	ErrCodeIndexFailed            ErrorCode = "INDEX_FAILED"
	ErrCodeCacheFailed            ErrorCode = "CACHE_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewNoCredentialError reports that no access key is configured. The user has to act.
func NewNoCredentialError() *StandardError {
	return &StandardError{
		Code:      ErrCodeNoCredential,
		Message:   "No API key configured for the generation service",
		Details:   "configure an API key and retry",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewServiceError wraps a transport, empty-response or validation failure of a generation call.
func NewServiceError(stage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeServiceError,
		Message:   fmt.Sprintf("Generation service failed during %s", stage),
		Details:   errDetails(err),
		Retryable: true,
		Metadata:  map[string]interface{}{"stage": stage},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewGenerationTimeoutError reports an expired per-call deadline. It surfaces as SERVICE_ERROR.
func NewGenerationTimeoutError(stage string, err error) *StandardError {
	e := NewServiceError(stage, err)
	e.Message = fmt.Sprintf("Generation service timed out during %s", stage)
	e.Metadata["reason"] = string(ErrCodeGenerationTimeout)
	return e
}

// NewMalformedResponseError reports a response that failed schema or invariant checks.
func NewMalformedResponseError(shape, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedResponse,
		Message:   fmt.Sprintf("Malformed %s response", shape),
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable input validation error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewArchiveFailedError creates a retryable archive write error.
func NewArchiveFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeArchiveFailed,
		Message:   "Document archive operation failed",
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewDocumentNotFoundError creates a non-retryable lookup error.
func NewDocumentNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDocumentNotFound,
		Message:   "Document not found in archive",
		Details:   fmt.Sprintf("documentId: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexFailedError creates a retryable search index error.
func NewIndexFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexFailed,
		Message:   "Document index operation failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, errDetails(err)),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewCacheFailedError creates a cache error. Callers log it and carry on.
func NewCacheFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheFailed,
		Message:   "Document cache operation failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, errDetails(err)),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, errDetails(err)),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Classification
// ==========================

// CodeOf returns the code of the first StandardError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsNoCredential reports whether err is a NO_CREDENTIAL error.
func IsNoCredential(err error) bool {
	return CodeOf(err) == ErrCodeNoCredential
}

// IsServiceError reports whether err is a SERVICE_ERROR.
func IsServiceError(err error) bool {
	return CodeOf(err) == ErrCodeServiceError
}

// AsServiceError converts any non-credential error from a generation stage into SERVICE_ERROR.
// NO_CREDENTIAL and existing SERVICE_ERRORs pass through unchanged.
func AsServiceError(stage string, err error) error {
	if err == nil {
		return nil
	}
	switch CodeOf(err) {
	case ErrCodeNoCredential, ErrCodeServiceError:
		return err
	}
	return NewServiceError(stage, err)
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeNoCredential:           "NO_CREDENTIAL",
	ErrCodeServiceError:           "SERVICE_ERROR",
	ErrCodeMalformedResponse:      "SERVICE_ERROR",
	ErrCodeInvalidInput:           "INVALID_INPUT",
	ErrCodeArchiveFailed:          "ARCHIVE_FAILED",
	ErrCodeDocumentNotFound:       "DOCUMENT_NOT_FOUND",
	ErrCodeIndexFailed:            "INDEX_FAILED",
	ErrCodeCacheFailed:            "CACHE_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeArchiveFailed,
		ErrCodeIndexFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeServiceError, ErrCodeMalformedResponse:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if stage, ok := stdErr.Metadata["stage"]; ok {
		vars["stage"] = stage
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 6. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CREDENTIAL"):
		return "AUTH"
	case strings.Contains(codeStr, "SERVICE") || strings.Contains(codeStr, "RESPONSE") || strings.Contains(codeStr, "GENERATION"):
		return "GENERATION"
	case strings.Contains(codeStr, "ARCHIVE") || strings.Contains(codeStr, "DOCUMENT"):
		return "DATABASE"
	case strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
