package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func fakeClient(t *testing.T, jwt, apiKey, secret string, rt roundTripFunc) *Client {
	t.Helper()
	return New(
		"https://api.pinata.test",
		jwt,
		apiKey,
		secret,
		"https://gateway.pinata.test",
		WithHTTPClient(&http.Client{Transport: rt}),
	)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestConnectivityUsesJWT(t *testing.T) {
	var seen *http.Request
	client := fakeClient(t, "jwt-token", "", "", func(r *http.Request) (*http.Response, error) {
		seen = r
		return jsonResponse(http.StatusOK, `{"message":"Congratulations!"}`), nil
	})

	if err := client.TestConnectivity(context.Background()); err != nil {
		t.Fatalf("connectivity: %v", err)
	}
	if seen.URL.Path != "/data/testAuthentication" {
		t.Errorf("path = %s", seen.URL.Path)
	}
	if got := seen.Header.Get("Authorization"); got != "Bearer jwt-token" {
		t.Errorf("authorization = %q", got)
	}
}

func TestConnectivityFallsBackToKeyPair(t *testing.T) {
	var seen *http.Request
	client := fakeClient(t, "", "api-key", "api-secret", func(r *http.Request) (*http.Response, error) {
		seen = r
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	if err := client.TestConnectivity(context.Background()); err != nil {
		t.Fatalf("connectivity: %v", err)
	}
	if seen.Header.Get("Authorization") != "" {
		t.Error("bearer header set without a jwt")
	}
	if seen.Header.Get("pinata_api_key") != "api-key" || seen.Header.Get("pinata_secret_api_key") != "api-secret" {
		t.Errorf("key headers = %q / %q", seen.Header.Get("pinata_api_key"), seen.Header.Get("pinata_secret_api_key"))
	}
}

func TestConnectivityWithoutCredentials(t *testing.T) {
	client := fakeClient(t, "", "", "", func(r *http.Request) (*http.Response, error) {
		t.Fatal("request should not be sent")
		return nil, nil
	})
	if err := client.TestConnectivity(context.Background()); err == nil {
		t.Fatal("expected credential error")
	}
}

func TestPutJSON(t *testing.T) {
	var seen *http.Request
	var body []byte
	client := fakeClient(t, "jwt-token", "", "", func(r *http.Request) (*http.Response, error) {
		seen = r
		body, _ = io.ReadAll(r.Body)
		return jsonResponse(http.StatusOK, `{"IpfsHash":"QmMeta","PinSize":42,"Timestamp":"2025-06-01T00:00:00Z"}`), nil
	})

	artifact, err := client.PutJSON(context.Background(), "Medicine 1 Metadata", map[string]string{"name": "Amoxicillin"})
	if err != nil {
		t.Fatalf("put json: %v", err)
	}
	if seen.URL.Path != "/pinning/pinJSONToIPFS" {
		t.Errorf("path = %s", seen.URL.Path)
	}
	var decoded struct {
		Metadata map[string]any `json:"pinataMetadata"`
		Content  map[string]any `json:"pinataContent"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if decoded.Metadata["name"] != "Medicine 1 Metadata" {
		t.Errorf("pin name = %v", decoded.Metadata["name"])
	}
	if decoded.Content["name"] != "Amoxicillin" {
		t.Errorf("content = %v", decoded.Content)
	}
	if artifact.CID != "QmMeta" {
		t.Errorf("cid = %s", artifact.CID)
	}
	if artifact.URI != "https://gateway.pinata.test/ipfs/QmMeta" {
		t.Errorf("uri = %s", artifact.URI)
	}
}

func TestPutFileMultipart(t *testing.T) {
	var seen *http.Request
	var body []byte
	client := fakeClient(t, "jwt-token", "", "", func(r *http.Request) (*http.Response, error) {
		seen = r
		body, _ = io.ReadAll(r.Body)
		return jsonResponse(http.StatusOK, `{"IpfsHash":"QmFile"}`), nil
	})

	artifact, err := client.PutFile(context.Background(), "medicine_qr_1.png", []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("put file: %v", err)
	}
	if seen.URL.Path != "/pinning/pinFileToIPFS" {
		t.Errorf("path = %s", seen.URL.Path)
	}

	mediaType, params, err := mime.ParseMediaType(seen.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("content type = %s (%v)", mediaType, err)
	}
	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	form, err := reader.ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	files := form.File["file"]
	if len(files) != 1 || files[0].Filename != "medicine_qr_1.png" {
		t.Fatalf("form files = %+v", files)
	}
	if len(form.Value["pinataMetadata"]) != 1 {
		t.Fatal("pinataMetadata field missing")
	}
	if artifact.CID != "QmFile" {
		t.Errorf("cid = %s", artifact.CID)
	}
}

func TestPinFailureStatus(t *testing.T) {
	client := fakeClient(t, "jwt-token", "", "", func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"error":"bad token"}`), nil
	})
	if _, err := client.PutJSON(context.Background(), "x", map[string]string{}); err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestResolve(t *testing.T) {
	client := New("https://api.pinata.test", "jwt", "", "", "https://gateway.pinata.test/")
	if got := client.Resolve("QmX"); got != "https://gateway.pinata.test/ipfs/QmX" {
		t.Errorf("resolve = %s", got)
	}
	if got := client.Resolve(""); got != "" {
		t.Errorf("resolve empty = %q", got)
	}
}
