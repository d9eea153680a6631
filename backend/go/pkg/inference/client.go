package inference

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

	httpclient "github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/http"
)

// ErrNoPrediction is returned when the model answers without a label.
var ErrNoPrediction = errors.New("inference: model returned no prediction")

// CureInfo is the treatment advice attached to a prediction.
// The model sometimes answers with free text instead of an object; that text lands in Text.
type CureInfo struct {
	Symptoms   string `json:"symptoms,omitempty"`
	Cure       string `json:"cure,omitempty"`
	Prevention string `json:"prevention,omitempty"`
	Text       string `json:"text,omitempty"`
}

// UnmarshalJSON accepts either an object or a string.
func (c *CureInfo) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		// A stringified object is decoded as an object.
		if strings.HasPrefix(strings.TrimSpace(s), "{") {
			var inner CureInfo
			if err := json.Unmarshal([]byte(s), &inner); err == nil {
				*c = inner
				return nil
			}
		}
		*c = CureInfo{Text: s}
		return nil
	}
	type plain CureInfo
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = CureInfo(p)
	return nil
}

// Prediction is the response of POST /predict.
type Prediction struct {
	Label string   `json:"prediction"`
	Cure  CureInfo `json:"cure_info"`
}

// Doer is satisfied by *pkg/http.Client and *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the external plant disease model.
type Client struct {
	baseURL string
	http    Doer
}

// NewClient creates a Client. A nil doer uses a breaker-less pkg/http client.
func NewClient(baseURL string, doer Doer) *Client {
	if doer == nil {
		doer = httpclient.NewClient(nil, nil)
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: doer}
}

// Predict uploads the image as the multipart field "image".
func (c *Client) Predict(ctx context.Context, filename string, image io.Reader) (*Prediction, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("inference: build form: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("inference: read image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("inference: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out Prediction
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if out.Label == "" {
		return nil, ErrNoPrediction
	}
	return &out, nil
}

// Chat sends a free-form question to the assistant endpoint.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	raw, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Response string `json:"response"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("inference: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("inference: %s returned %d: %s", req.URL.Path, resp.StatusCode, e.Error)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("inference: decode response: %w", err)
	}
	return nil
}
