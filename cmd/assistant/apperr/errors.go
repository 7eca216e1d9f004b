// Package apperr 는 어시스턴트 클라이언트 계층의 오류 분류를 정의한다.
// 모든 실패는 Kind 로 분류되고, 사용자에게 보일 문구는 Describe 로 얻는다.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation 은 네트워크 호출 전에 클라이언트가 잡아낸 입력 오류다.
	KindValidation
	// KindAuthUnavailable 은 자격 증명을 얻거나 갱신하지 못한 경우다.
	KindAuthUnavailable
	// KindUnreachable 은 전송 계층 실패 또는 타임아웃이다.
	KindUnreachable
	// KindRejected 는 백엔드가 4xx 로 거절한 경우다.
	KindRejected
	// KindServerFault 는 백엔드 5xx 또는 해석할 수 없는 응답이다.
	KindServerFault
	// KindNoContent 는 호출은 성공했지만 보여줄 내용이 없는 경우다.
	KindNoContent
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthUnavailable:
		return "auth_unavailable"
	case KindUnreachable:
		return "unreachable"
	case KindRejected:
		return "rejected"
	case KindServerFault:
		return "server_fault"
	case KindNoContent:
		return "no_content"
	default:
		return "unknown"
	}
}

// Error 는 분류된 오류다. Op 는 실패한 동작 이름(send_turn, list_conversations 등)이다.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	switch {
	case e.Op != "" && e.StatusCode != 0:
		return fmt.Sprintf("%s: %s (status=%d): %s", e.Op, e.Kind, e.StatusCode, msg)
	case e.Op != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 는 같은 Kind 의 sentinel 과 일치시킨다. errors.Is(err, apperr.ErrRejected) 형태로 쓴다.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Cause == nil && t.Kind == e.Kind
}

var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrAuthUnavailable = &Error{Kind: KindAuthUnavailable}
	ErrUnreachable     = &Error{Kind: KindUnreachable}
	ErrRejected        = &Error{Kind: KindRejected}
	ErrServerFault     = &Error{Kind: KindServerFault}
	ErrNoContent       = &Error{Kind: KindNoContent}
)

func Validation(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

func AuthUnavailable(op string, cause error) *Error {
	return &Error{Kind: KindAuthUnavailable, Op: op, Cause: cause}
}

func Unreachable(op string, cause error) *Error {
	return &Error{Kind: KindUnreachable, Op: op, Cause: cause}
}

func NoContent(op, message string) *Error {
	return &Error{Kind: KindNoContent, Op: op, Message: message}
}

// FromStatus 는 HTTP 상태 코드와 서버 메시지로 Rejected/ServerFault 를 만든다.
// message 가 비어 있으면 일반 문구로 대체한다.
func FromStatus(op string, statusCode int, message string) *Error {
	kind := KindServerFault
	if statusCode >= 400 && statusCode < 500 {
		kind = KindRejected
	}
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", statusCode)
	}
	return &Error{Kind: kind, Op: op, StatusCode: statusCode, Message: message}
}

// KindOf 는 err 체인에서 첫 *Error 의 Kind 를 돌려준다.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Describe 는 화면에 보여줄 설명을 만든다.
// Rejected 는 서버 메시지를 그대로, ServerFault 는 일반 문구와 상태 코드를 보여준다.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Kind {
	case KindValidation, KindRejected, KindNoContent:
		if e.Message != "" {
			return e.Message
		}
	case KindAuthUnavailable:
		return "You are not signed in or your session could not be refreshed. Please sign in again."
	case KindUnreachable:
		return "The assistant service could not be reached. Please check your connection and try again."
	case KindServerFault:
		status := e.StatusCode
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return fmt.Sprintf("The assistant service encountered an error (status %d). Please try again.", status)
	}
	return e.Error()
}
