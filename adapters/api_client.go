package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mqtt-console/application"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const APIDefaultTimeout = 10 * time.Second

type APIClientParams struct {
	BaseURL string
	Timeout time.Duration

	HTTPClient *http.Client

	Log zerolog.Logger
}

func (p *APIClientParams) EnsureDefaults() {
	if p.Timeout == 0 {
		p.Timeout = APIDefaultTimeout
	}

	if p.HTTPClient == nil {
		p.HTTPClient = &http.Client{Timeout: p.Timeout}
	}
}

// APIClient talks to the console backend over its JSON API.
type APIClient struct {
	baseURL string
	client  *http.Client

	log zerolog.Logger
}

func NewAPIClient(params APIClientParams) (*APIClient, error) {
	u, err := url.Parse(params.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", params.BaseURL)
	}
	params.EnsureDefaults()

	return &APIClient{
		baseURL: strings.TrimRight(params.BaseURL, "/"),
		client:  params.HTTPClient,
		log:     params.Log,
	}, nil
}

func (a *APIClient) Connect(ctx context.Context, broker string) error {
	_, err := a.do(ctx, http.MethodPost, APIPathConnect, ConnectRequest{Broker: broker})
	return err
}

func (a *APIClient) Publish(ctx context.Context, topic, message string) error {
	_, err := a.do(ctx, http.MethodPost, APIPathPublish, PublishRequest{Topic: topic, Message: message})
	return err
}

func (a *APIClient) Subscribe(ctx context.Context, topic string) ([]string, error) {
	resp, err := a.do(ctx, http.MethodPost, APIPathSubscribe, SubscribeRequest{Topic: topic})
	if err != nil {
		return nil, err
	}
	return topicsOrEmpty(resp.Topics), nil
}

func (a *APIClient) Subscriptions(ctx context.Context) ([]string, error) {
	resp, err := a.do(ctx, http.MethodGet, APIPathSubscriptions, nil)
	if err != nil {
		return nil, err
	}
	return topicsOrEmpty(resp.Topics), nil
}

func (a *APIClient) Logs(ctx context.Context) (application.MessageLog, error) {
	resp, err := a.do(ctx, http.MethodGet, APIPathLogs, nil)
	if err != nil {
		return application.MessageLog{}, err
	}
	if resp.Logs == nil {
		return application.MessageLog{}, nil
	}
	return *resp.Logs, nil
}

// do sends one request. Non-2xx statuses and ok:false payloads become
// *application.ServerError, everything else that goes wrong becomes
// *application.NetworkError.
func (a *APIClient) do(ctx context.Context, method, path string, body any) (APIResponse, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return APIResponse{}, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return APIResponse{}, &application.NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	a.log.Debug().Str("method", method).Str("path", path).Msg("api request")

	res, err := a.client.Do(req)
	if err != nil {
		return APIResponse{}, &application.NetworkError{Err: err}
	}
	defer res.Body.Close()

	var resp APIResponse
	decodeErr := json.NewDecoder(res.Body).Decode(&resp)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return APIResponse{}, &application.ServerError{StatusCode: res.StatusCode, Message: resp.Error}
	}
	if decodeErr != nil {
		return APIResponse{}, &application.NetworkError{Err: fmt.Errorf("decode %s response: %w", path, decodeErr)}
	}
	if !resp.OK {
		return APIResponse{}, &application.ServerError{StatusCode: res.StatusCode, Message: resp.Error}
	}
	return resp, nil
}

func topicsOrEmpty(topics []string) []string {
	if topics == nil {
		return []string{}
	}
	return topics
}

var _ application.BrokerAPI = &APIClient{}
