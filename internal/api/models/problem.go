// Package models defines the JSON bodies served by the status endpoint.
package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 error body, served as application/problem+json.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// RequestID correlates the response with the request log.
	RequestID string `json:"requestId,omitempty"`
}

// Problem types.
const (
	ProblemTypeNotFound        = "urn:homepanel:problem:not-found"
	ProblemTypeTooManyRequests = "urn:homepanel:problem:too-many-requests"
	ProblemTypeInternal        = "urn:homepanel:problem:internal-error"
)

// NewProblem creates a Problem.
func NewProblem(problemType, title string, status int, requestID string) *Problem {
	return &Problem{
		Type:      problemType,
		Title:     title,
		Status:    status,
		RequestID: requestID,
	}
}

// WithDetail sets the detail message.
func (p *Problem) WithDetail(detail string) *Problem {
	p.Detail = detail
	return p
}

// WithInstance sets the request path the problem occurred on.
func (p *Problem) WithInstance(instance string) *Problem {
	p.Instance = instance
	return p
}

// Write writes the Problem as JSON with its status code.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.RequestID != "" {
		w.Header().Set("X-Request-Id", p.RequestID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewNotFound creates a 404 problem.
func NewNotFound(requestID, detail string) *Problem {
	return NewProblem(ProblemTypeNotFound, "Not found", http.StatusNotFound, requestID).WithDetail(detail)
}

// NewTooManyRequests creates a 429 problem.
func NewTooManyRequests(requestID, detail string) *Problem {
	return NewProblem(ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests, requestID).WithDetail(detail)
}

// NewInternalError creates a 500 problem.
func NewInternalError(requestID, detail string) *Problem {
	return NewProblem(ProblemTypeInternal, "Internal server error", http.StatusInternalServerError, requestID).WithDetail(detail)
}
