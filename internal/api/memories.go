package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/vishal1807gupta/go-splitwise/internal/models"
)

type memoriesResponse struct {
	Memories []models.Memory `json:"memories"`
	Memory   *models.Memory  `json:"memory"`
}

// Memories lists the photos attached to a group.
func (c *Client) Memories(ctx context.Context, groupID int64) ([]models.Memory, error) {
	cl := call{endpoint: "memories", method: http.MethodGet, path: fmt.Sprintf("/api/memories/%d", groupID)}
	var resp memoriesResponse
	if err := c.do(ctx, cl, &resp); err != nil {
		return nil, err
	}
	return resp.Memories, nil
}

// UploadMemory sends one image as multipart form data (fields "image" and "groupId").
func (c *Client) UploadMemory(ctx context.Context, groupID int64, filename, contentType string, data []byte) (*models.Memory, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write image part: %w", err)
	}
	if err := w.WriteField("groupId", strconv.FormatInt(groupID, 10)); err != nil {
		return nil, fmt.Errorf("failed to write groupId field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	cl := call{
		endpoint:    "memories_upload",
		method:      http.MethodPost,
		path:        "/api/memories/upload",
		body:        &buf,
		contentType: w.FormDataContentType(),
	}
	var raw json.RawMessage
	if err := c.do(ctx, cl, &raw); err != nil {
		return nil, err
	}

	// The backend wraps the created memory as {"memory": {...}}; accept a bare object too.
	var resp memoriesResponse
	if err := json.Unmarshal(raw, &resp); err == nil && resp.Memory != nil {
		return resp.Memory, nil
	}
	var memory models.Memory
	if err := json.Unmarshal(raw, &memory); err != nil {
		return nil, fmt.Errorf("failed to decode memories_upload response: %w", err)
	}
	return &memory, nil
}

// DeleteMemory removes a photo by id.
func (c *Client) DeleteMemory(ctx context.Context, memoryID int64) error {
	cl := call{endpoint: "memories_delete", method: http.MethodDelete, path: fmt.Sprintf("/api/memories/%d", memoryID)}
	return c.do(ctx, cl, nil)
}
