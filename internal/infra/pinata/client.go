// Package pinata uploads artifacts to a Pinata-compatible pinning
// service over its REST API.
package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"medsupply/internal/domain"
)

type Client struct {
	baseURL    string
	jwt        string
	apiKey     string
	secretKey  string
	gateway    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient swaps the transport, used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New builds a client. A JWT takes precedence over the api key pair
// when both are configured.
func New(baseURL, jwt, apiKey, secretKey, gateway string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		jwt:        jwt,
		apiKey:     apiKey,
		secretKey:  secretKey,
		gateway:    strings.TrimRight(gateway, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) authorize(req *http.Request) error {
	if c.jwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.jwt)
		return nil
	}
	if c.apiKey != "" && c.secretKey != "" {
		req.Header.Set("pinata_api_key", c.apiKey)
		req.Header.Set("pinata_secret_api_key", c.secretKey)
		return nil
	}
	return errors.New("pinata credentials missing")
}

// TestConnectivity verifies the credentials before any upload runs.
func (c *Client) TestConnectivity(ctx context.Context) error {
	if c == nil || c.baseURL == "" {
		return errors.New("pinata base url missing")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/testAuthentication", nil)
	if err != nil {
		return err
	}
	if err := c.authorize(req); err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pinata auth check failed: status %d", resp.StatusCode)
	}
	return nil
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// PutFile pins raw bytes under the given name via pinFileToIPFS.
func (c *Client) PutFile(ctx context.Context, name string, data []byte, contentType string) (domain.Artifact, error) {
	if name == "" || len(data) == 0 {
		return domain.Artifact{}, errors.New("pinata file name and data required")
	}
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return domain.Artifact{}, err
	}
	if _, err := part.Write(data); err != nil {
		return domain.Artifact{}, err
	}
	meta, err := json.Marshal(map[string]any{"name": name})
	if err != nil {
		return domain.Artifact{}, err
	}
	if err := writer.WriteField("pinataMetadata", string(meta)); err != nil {
		return domain.Artifact{}, err
	}
	if err := writer.Close(); err != nil {
		return domain.Artifact{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pinning/pinFileToIPFS", &buf)
	if err != nil {
		return domain.Artifact{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := c.authorize(req); err != nil {
		return domain.Artifact{}, err
	}
	return c.doPin(req)
}

// PutJSON pins a JSON document under the given name via
// pinJSONToIPFS.
func (c *Client) PutJSON(ctx context.Context, name string, payload any) (domain.Artifact, error) {
	if name == "" {
		return domain.Artifact{}, errors.New("pinata pin name required")
	}
	body, err := json.Marshal(map[string]any{
		"pinataMetadata": map[string]any{"name": name},
		"pinataContent":  payload,
	})
	if err != nil {
		return domain.Artifact{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
	if err != nil {
		return domain.Artifact{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(req); err != nil {
		return domain.Artifact{}, err
	}
	return c.doPin(req)
}

// Resolve maps a content identifier to a gateway URL.
func (c *Client) Resolve(cid string) string {
	if cid == "" {
		return ""
	}
	return c.gateway + "/ipfs/" + cid
}

func (c *Client) doPin(req *http.Request) (domain.Artifact, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Artifact{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Artifact{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Artifact{}, fmt.Errorf("pinata pin failed: status %d", resp.StatusCode)
	}
	var out pinResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return domain.Artifact{}, err
	}
	if out.IpfsHash == "" {
		return domain.Artifact{}, errors.New("pinata response missing IpfsHash")
	}
	return domain.Artifact{
		CID:    out.IpfsHash,
		URI:    c.Resolve(out.IpfsHash),
		Digest: out.IpfsHash,
	}, nil
}
