package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Remote forwards notifications to another deployment's notify endpoints
type Remote struct {
	baseURL string
	secret  string
	client  *retryablehttp.Client
}

// RelaySecretHeader carries the shared secret between deployments
const RelaySecretHeader = "X-Relay-Secret"

// NewRemote creates a Remote for baseURL. secret may be empty; client may
// be nil.
func NewRemote(baseURL, secret string, client *http.Client) *Remote {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.Logger = nil
	if client != nil {
		rc.HTTPClient = client
	} else {
		rc.HTTPClient.Timeout = 15 * time.Second
	}
	return &Remote{baseURL: strings.TrimRight(baseURL, "/"), secret: secret, client: rc}
}

type remoteReply struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Error     string `json:"error"`
	Details   string `json:"details"`
}

func (r *Remote) SendConfirmation(ctx context.Context, email, name string) (*Receipt, error) {
	return r.post(ctx, "/api/v1/notify/confirmation", map[string]string{"email": email, "name": name})
}

func (r *Remote) SendAcceptance(ctx context.Context, email, name string) (*Receipt, error) {
	return r.post(ctx, "/api/v1/notify/status", map[string]string{"email": email, "name": name, "status": "ACCEPTED"})
}

func (r *Remote) SendRejection(ctx context.Context, email, name, reason string) (*Receipt, error) {
	body := map[string]string{"email": email, "name": name, "status": "REJECTED"}
	if reason != "" {
		body["reason"] = reason
	}
	return r.post(ctx, "/api/v1/notify/status", body)
}

func (r *Remote) post(ctx context.Context, path string, body map[string]string) (*Receipt, error) {
	if body["email"] == "" || body["name"] == "" {
		return nil, ErrNoRecipient
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.secret != "" {
		req.Header.Set(RelaySecretHeader, r.secret)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	var reply remoteReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("%w: status %d, undecodable reply", ErrSendFailed, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest || !reply.Success {
		return nil, fmt.Errorf("%w: status %d: %s", ErrSendFailed, resp.StatusCode, reply.Error)
	}
	return &Receipt{MessageID: reply.MessageID}, nil
}
