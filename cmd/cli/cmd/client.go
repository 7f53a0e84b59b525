package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"hiretrack/pkg/api"
)

// Client handles API calls to the hiretrack controller.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a new client with the given base URL and token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (c *Client) do(method, path string, body io.Reader, contentType string, out any) error {
	httpReq, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	if contentType != "" {
		httpReq.Header.Add("Content-Type", contentType)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(respBody))}
		var e api.ErrorResponse
		if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
			apiErr.Code, apiErr.Message = e.Code, e.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) doJSON(method, path string, in, out any) error {
	if in == nil {
		return c.do(method, path, nil, "", out)
	}
	bodyBytes, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(method, path, bytes.NewReader(bodyBytes), "application/json", out)
}

// UploadResume sends POST /resumes with the file at path.
func (c *Client) UploadResume(path string) (*api.ResumeResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="resume"; filename=%q`, filepath.Base(path)))
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		hdr.Set("Content-Type", ct)
	}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var result api.ResumeResponse
	if err := c.do(http.MethodPost, "/resumes", &body, mw.FormDataContentType(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Apply sends POST /applications.
func (c *Client) Apply(jobID, resumeID string) (*api.Application, error) {
	var result api.Application
	err := c.doJSON(http.MethodPost, "/applications", api.SubmitApplicationRequest{JobID: jobID, ResumeID: resumeID}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListFilter narrows GET /applications.
type ListFilter struct {
	Status string
	JobID  string
	Limit  int
	Offset int
}

// ListMine sends GET /applications/my-applications.
func (c *Client) ListMine() (*api.ListApplicationsResponse, error) {
	var result api.ListApplicationsResponse
	if err := c.doJSON(http.MethodGet, "/applications/my-applications", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListAll sends GET /applications with the given filter (hr/admin).
func (c *Client) ListAll(f ListFilter) (*api.ListApplicationsResponse, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.JobID != "" {
		q.Set("job_id", f.JobID)
	}
	if f.Limit > 0 {
		q.Set("limit", fmt.Sprint(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", fmt.Sprint(f.Offset))
	}
	path := "/applications"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result api.ListApplicationsResponse
	if err := c.doJSON(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetApplication sends GET /applications/{id}.
func (c *Client) GetApplication(id string) (*api.Application, error) {
	var result api.Application
	if err := c.doJSON(http.MethodGet, "/applications/"+url.PathEscape(id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History sends GET /pipeline/{id}.
func (c *Client) History(id string) (*api.HistoryResponse, error) {
	var result api.HistoryResponse
	if err := c.doJSON(http.MethodGet, "/pipeline/"+url.PathEscape(id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Move sends POST /pipeline/{id}/update.
func (c *Client) Move(id, status, note string) (*api.TransitionResponse, error) {
	var result api.TransitionResponse
	err := c.doJSON(http.MethodPost, "/pipeline/"+url.PathEscape(id)+"/update", api.TransitionRequest{Status: status, Note: note}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Withdraw sends DELETE /applications/{id}.
func (c *Client) Withdraw(id, note string) (*api.TransitionResponse, error) {
	var result api.TransitionResponse
	if err := c.doJSON(http.MethodDelete, "/applications/"+url.PathEscape(id), api.WithdrawRequest{Note: note}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Stats sends GET /pipeline/stats.
func (c *Client) Stats() (*api.StatusDistribution, error) {
	var result api.StatusDistribution
	if err := c.doJSON(http.MethodGet, "/pipeline/stats", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Analytics sends GET /admin/analytics. Empty from/to use the server default window.
func (c *Client) Analytics(from, to string) (*api.AnalyticsResponse, error) {
	path := "/admin/analytics"
	if from != "" || to != "" {
		q := url.Values{}
		q.Set("from", from)
		q.Set("to", to)
		path += "?" + q.Encode()
	}

	var result api.AnalyticsResponse
	if err := c.doJSON(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Search sends GET /admin/search. An empty kind searches jobs and applications.
func (c *Client) Search(query, kind string, limit, offset int) (*api.SearchResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	if kind != "" {
		q.Set("type", kind)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if offset > 0 {
		q.Set("offset", fmt.Sprint(offset))
	}

	var result api.SearchResponse
	if err := c.doJSON(http.MethodGet, "/admin/search?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
