package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CourierClient is a thin HTTP client over the Courier API.
type CourierClient struct {
	BaseURL string
	Token   string
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Plan  string `json:"plan"`
		Role  string `json:"role"`
	} `json:"user"`
}

type sendResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

type errorResponse struct {
	Success         bool   `json:"success"`
	Error           string `json:"error"`
	APIAccessStatus string `json:"apiAccessStatus,omitempty"`
}

func (c *CourierClient) makeRequest(method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	return client.Do(req)
}

func decodeError(resp *http.Response) error {
	var e errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	if e.APIAccessStatus != "" {
		return fmt.Errorf("%s (apiAccessStatus: %s)", e.Error, e.APIAccessStatus)
	}
	return fmt.Errorf("%s", e.Error)
}

func (c *CourierClient) Login(email, password, partner, apiKey string) error {
	body := map[string]string{"username": email, "password": password}
	if apiKey != "" {
		body["apiKey"] = apiKey
	} else {
		body["partner"] = partner
	}

	resp, err := c.makeRequest(http.MethodPost, "/v1/auth/login", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s, plan %s)\n", lr.User.Email, lr.User.Role, lr.User.Plan)
	fmt.Printf("Token: %s\n", lr.Token)
	return nil
}

func (c *CourierClient) SendEmail(businessGroup, to, subject, body string) error {
	resp, err := c.makeRequest(http.MethodPost, "/v1/messaging/send-email", map[string]string{
		"businessGroup": businessGroup,
		"to":            to,
		"subject":       subject,
		"body":          body,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	var sr sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return err
	}
	fmt.Printf("%s (provider: %v, messageId: %v)\n", sr.Message, sr.Data["provider"], sr.Data["messageId"])
	return nil
}

func (c *CourierClient) SendSMS(businessGroup, to, body string) error {
	resp, err := c.makeRequest(http.MethodPost, "/v1/messaging/send-sms", map[string]string{
		"businessGroup": businessGroup,
		"to":            to,
		"body":          body,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	var sr sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return err
	}
	fmt.Printf("%s (messageId: %v, segments: %v)\n", sr.Message, sr.Data["messageId"], sr.Data["segments"])
	return nil
}

func (c *CourierClient) Health() error {
	resp, err := c.makeRequest(http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var h map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return err
	}
	fmt.Printf("status: %v, db: %v, version: %v\n", h["status"], h["db"], h["version"])
	return nil
}
