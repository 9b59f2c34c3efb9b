package handler

import "github.com/yourconsultingltd/ycl-backend/internal/service"

// SubmissionResponse is returned by the contact and apply endpoints.
// Database is "saved" or "not_connected"; Email is "queued",
// "not_configured" or "no_recipient".
type SubmissionResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Database string `json:"database"`
	Email    string `json:"email"`
}

func newSubmissionResponse(message string, res *service.SubmissionResult) *SubmissionResponse {
	return &SubmissionResponse{
		Success:  true,
		Message:  message,
		Database: res.Database,
		Email:    res.Email,
	}
}
