package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

const (
	uploadPath    = "/api/media/upload"
	defaultFolder = "general"

	uploadErrorMessage = "failed to upload the file"
)

// UploadRequest is a file to store through the media endpoint
type UploadRequest struct {
	Filename string
	Content  io.Reader
	// Folder groups uploads server side (avatars, videos, ...)
	Folder string
}

// UploadResponse points at the stored file
type UploadResponse struct {
	URL string `json:"url"`
}

// Upload sends a multipart file. It skips JSON encoding but otherwise follows
// the same rules as Do: bearer attached when available, *APIError on failure.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*UploadResponse, error) {
	folder := req.Folder
	if folder == "" {
		folder = defaultFolder
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", req.Filename)
	if err != nil {
		return nil, &APIError{Message: uploadErrorMessage, Err: fmt.Errorf("failed to create form file: %w", err)}
	}
	if _, err := io.Copy(part, req.Content); err != nil {
		return nil, &APIError{Message: uploadErrorMessage, Err: fmt.Errorf("failed to read file: %w", err)}
	}
	if err := writer.WriteField("folder", folder); err != nil {
		return nil, &APIError{Message: uploadErrorMessage, Err: fmt.Errorf("failed to write folder field: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return nil, &APIError{Message: uploadErrorMessage, Err: fmt.Errorf("failed to finish form: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, &buf)
	if err != nil {
		return nil, &APIError{Message: uploadErrorMessage, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	if c.credentials != nil {
		if token, ok := c.credentials.Credential(); ok {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.send(httpReq, uploadPath)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp.Body, uploadErrorMessage),
		}
		if apiErr.AuthDenied() {
			c.policy.OnAuthDenied(ctx, Request{Method: http.MethodPost, Path: uploadPath, RequiresAuth: true}, apiErr)
		}
		return nil, apiErr
	}

	var uploadResp UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: "unexpected response from server", Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return &uploadResp, nil
}
