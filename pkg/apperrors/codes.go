package apperrors

// ErrorCode identifies an application error class independent of transport.
type ErrorCode string

const (
	// System errors
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError ErrorCode = "DATABASE_ERROR"

	// Generic business errors
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeAlreadyExists    ErrorCode = "ALREADY_EXISTS"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeInvalidOperation ErrorCode = "INVALID_OPERATION"

	// Auth
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeInvalidToken ErrorCode = "INVALID_TOKEN"
	CodeTokenExpired ErrorCode = "TOKEN_EXPIRED"

	// Real-time messaging
	CodeConnectionError ErrorCode = "CONNECTION_ERROR"
	CodeSendFailed      ErrorCode = "SEND_FAILED"
	CodeNotParticipant  ErrorCode = "NOT_PARTICIPANT"
)
