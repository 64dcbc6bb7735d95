package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// Client talks to the verification backend over HTTP
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient creates a client for the backend at baseURL. A nil http.Client
// selects a default with a 60s timeout; media analysis is slow
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      hc,
	}
}

// Verify runs the quick claim check via POST /verify
func (c *Client) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	if req.Claim == "" && req.URL == "" {
		return nil, fmt.Errorf("verify: either claim or url must be provided")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("verify: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("verify: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var out VerifyResponse
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UniversalCheck runs the deep check via POST /universal-check. The request
// always goes out as multipart form data, matching what the backend's form
// parser expects
func (c *Client) UniversalCheck(ctx context.Context, req UniversalCheckRequest) (*UniversalReport, error) {
	hasFile := len(req.File.Data) > 0
	if !hasFile && req.Claim == "" && req.URL == "" {
		return nil, fmt.Errorf("universal-check: either claim, url, or a file must be provided")
	}
	if hasFile {
		ct := req.File.ContentType
		if !strings.HasPrefix(ct, "image/") && !strings.HasPrefix(ct, "video/") {
			// The backend 400s on these; reject before the upload
			return nil, fmt.Errorf("universal-check: unsupported media type %q", ct)
		}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if req.Claim != "" {
		if err := mw.WriteField("claim", req.Claim); err != nil {
			return nil, fmt.Errorf("universal-check: write form: %w", err)
		}
	}
	if req.URL != "" {
		if err := mw.WriteField("url", req.URL); err != nil {
			return nil, fmt.Errorf("universal-check: write form: %w", err)
		}
	}
	if req.Deep {
		if err := mw.WriteField("deep", "true"); err != nil {
			return nil, fmt.Errorf("universal-check: write form: %w", err)
		}
	}
	if hasFile {
		// CreateFormFile hardcodes application/octet-stream; the backend
		// routes on the part's content type, so build the header by hand
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, req.File.Name))
		h.Set("Content-Type", req.File.ContentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("universal-check: create file part: %w", err)
		}
		if _, err := part.Write(req.File.Data); err != nil {
			return nil, fmt.Errorf("universal-check: write file part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("universal-check: finish form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/universal-check", &buf)
	if err != nil {
		return nil, fmt.Errorf("universal-check: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var out UniversalReport
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping probes the backend's GET info endpoint
func (c *Client) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/universal-check", nil)
	if err != nil {
		return fmt.Errorf("ping: build request: %w", err)
	}
	return c.do(httpReq, &struct{}{})
}

// do executes the request and decodes the JSON response or the backend's
// {"detail": ...} error envelope
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("verify backend request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("verify backend read: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var detail struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &detail) == nil {
			apiErr.Detail = detail.Detail
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("verify backend decode: %w", err)
	}
	return nil
}
