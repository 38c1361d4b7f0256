package client

import "github.com/imageforge/imageforge/internal/imagemeta"

type UploadResponse struct {
	Success  bool            `json:"success"`
	ID       string          `json:"id"`
	URL      string          `json:"url"`
	Metadata *imagemeta.Info `json:"metadata,omitempty"`
}

type ProcessFileResult struct {
	ID       string          `json:"id"`
	Success  bool            `json:"success"`
	URL      string          `json:"url,omitempty"`
	Metadata *imagemeta.Info `json:"metadata,omitempty"`
	Ratio    string          `json:"ratio,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type ProcessResponse struct {
	Success bool                `json:"success"`
	Files   []ProcessFileResult `json:"files"`
}

type StatusResponse struct {
	Success  bool   `json:"success"`
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Success    bool     `json:"success"`
	Error      string   `json:"error"`
	Code       string   `json:"code,omitempty"`
	Violations []string `json:"violations,omitempty"`
}
