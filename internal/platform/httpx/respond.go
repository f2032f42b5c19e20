// Package httpx provides HTTP response utilities following RFC7807 problem
// details for errors and the ApiResponse envelope the front end expects for
// successful payloads.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope mirrors the ApiResponse shape consumed by the admin front end.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK wraps data in the success envelope with a 200 status.
func OK(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created wraps data in the success envelope with a 201 status.
func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
