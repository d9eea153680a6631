package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// record mirrors the JSON shape returned by the prediction service.
type record struct {
	ID              string  `json:"id"`
	ImageURL        string  `json:"imageUrl"`
	DiseaseDetected string  `json:"diseaseDetected"`
	ConfidenceScore float64 `json:"confidenceScore"`
	PlantType       string  `json:"plantType"`
	Location        *struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// profile mirrors the JSON shape returned by the user service.
type profile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	ProfilePic string `json:"profilePic"`
}

type saveRequest struct {
	ImagePath  string
	Disease    string
	Confidence float64
	PlantType  string
	Lat, Lng   string
}

type apiClient struct {
	predictions string
	users       string
	token       string
	http        *http.Client
}

func newAPIClient(predictions, users, token string) *apiClient {
	return &apiClient{
		predictions: strings.TrimRight(predictions, "/"),
		users:       strings.TrimRight(users, "/"),
		token:       token,
		http:        &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *apiClient) login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.postJSON(ctx, c.users+"/api/v1/auth/login", map[string]string{"email": email, "password": password}, http.StatusOK, &out)
	return out.Token, err
}

func (c *apiClient) register(ctx context.Context, email, password, username string) (string, error) {
	var out struct {
		UserID string `json:"user_id"`
	}
	body := map[string]string{"email": email, "password": password, "username": username}
	err := c.postJSON(ctx, c.users+"/api/v1/auth/register", body, http.StatusCreated, &out)
	return out.UserID, err
}

func (c *apiClient) profile(ctx context.Context) (*profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.users+"/api/v1/auth/profile", nil)
	if err != nil {
		return nil, err
	}
	var out profile
	if err := c.do(req, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) save(ctx context.Context, in saveRequest) (*record, error) {
	f, err := os.Open(in.ImagePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("image", filepath.Base(in.ImagePath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	fields := map[string]string{
		"diseaseDetected": in.Disease,
		"confidenceScore": strconv.FormatFloat(in.Confidence, 'f', -1, 64),
		"plantType":       in.PlantType,
		"lat":             in.Lat,
		"lng":             in.Lng,
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictions+"/api/v1/predictions", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out record
	if err := c.do(req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) history(ctx context.Context) ([]record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.predictions+"/api/v1/predictions", nil)
	if err != nil {
		return nil, err
	}
	var out []record
	if err := c.do(req, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *apiClient) postJSON(ctx context.Context, url string, payload interface{}, want int, out interface{}) error {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error creating JSON payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, want, out)
}

func (c *apiClient) do(req *http.Request, want int, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s %s failed with status %d: %s", req.Method, req.URL.Path, resp.StatusCode, e.Error)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}
