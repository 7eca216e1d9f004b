package services

import "net/http"

// ServiceError 는 핸들러가 그대로 응답으로 옮기는 오류다. Message 는 {"error": ...} 로 나간다.
type ServiceError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *ServiceError) Error() string {
	if e == nil {
		return "request_failed"
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

func badRequest(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadRequest, Message: msg}
}

func internal(msg string, cause error) *ServiceError {
	return &ServiceError{StatusCode: http.StatusInternalServerError, Message: msg, Cause: cause}
}
