package participation

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeRoundNotFound      Code = "ROUND_NOT_FOUND"
	CodeRoundClosed        Code = "ROUND_CLOSED"
	CodeBidNotFound        Code = "BID_NOT_FOUND"
	CodeAttendanceNotFound Code = "ATTENDANCE_NOT_FOUND"
	CodeSessionNotFound    Code = "SESSION_NOT_FOUND"
	CodeNotLecturer        Code = "NOT_LECTURER"
	CodeInternal           Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func errInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func errInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func errRoundNotFound(roundID uint64) *APIError {
	return &APIError{Code: CodeRoundNotFound, Message: fmt.Sprintf("participation round %d not found", roundID)}
}

func errRoundClosed(roundID uint64) *APIError {
	return &APIError{Code: CodeRoundClosed, Message: fmt.Sprintf("participation round %d is already closed", roundID)}
}

func errAttendanceNotFound(studentID, sessionID uint64) *APIError {
	return &APIError{
		Code:    CodeAttendanceNotFound,
		Message: fmt.Sprintf("student %d has no attendance record for course schedule %d", studentID, sessionID),
	}
}

func errSessionNotFound(sessionID uint64) *APIError {
	return &APIError{Code: CodeSessionNotFound, Message: fmt.Sprintf("course schedule %d not found", sessionID)}
}

func errNotLecturer(userID uint64) *APIError {
	return &APIError{Code: CodeNotLecturer, Message: fmt.Sprintf("user %d does not have the lecturer role", userID)}
}

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument, CodeNotLecturer:
			return 400
		case CodeRoundNotFound, CodeBidNotFound, CodeAttendanceNotFound, CodeSessionNotFound:
			return 404
		case CodeRoundClosed:
			return 409
		default:
			return 500
		}
	}
	return 500
}
