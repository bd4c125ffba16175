package gigachat

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ElKaStar/CalendarAgent/internal/nlu"
)

const (
	oauthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	chatURL  = "https://gigachat.devices.sberbank.ru/api/v1/chat/completions"
)

// Client ходит в GigaChat API. Токен кешируется и обновляется за 5 минут
// до истечения, чтобы не упереться в просроченный токен посреди запроса.
type Client struct {
	clientID     string
	clientSecret string // уже base64("client_id:secret"), подставляется в Basic как есть
	scope        string
	model        string

	httpc *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewClient(clientID, clientSecret, scope, model string, insecureTLS bool) *Client {
	if scope == "" {
		scope = "GIGACHAT_API_PERS"
	}
	if model == "" {
		model = "GigaChat"
	}
	transport := http.DefaultTransport
	if insecureTLS {
		// сертификаты НУЦ Минцифры не всегда есть в системном хранилище
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        scope,
		model:        model,
		httpc:        &http.Client{Timeout: 30 * time.Second, Transport: transport},
	}
}

func (c *Client) Model() string { return c.model }

// AccessToken возвращает действующий токен, при необходимости обновляя его.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expiry.Add(-5*time.Minute)) {
		return c.token, nil
	}

	form := url.Values{"scope": {c.scope}}
	req, err := http.NewRequestWithContext(ctx, "POST", oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", c.clientID)
	req.Header.Set("Authorization", "Basic "+c.clientSecret)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", &nlu.UpstreamError{Service: "gigachat oauth", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", &nlu.UpstreamError{Service: "gigachat oauth", Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"` // unix millis
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gigachat oauth: %w", err)
	}
	c.token = out.AccessToken
	c.expiry = time.UnixMilli(out.ExpiresAt)
	return c.token, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat отправляет system+user и возвращает текст первого ответа.
// Температура 0.1: разбор должен быть детерминированным.
func (c *Client) Chat(ctx context.Context, system, user string, maxTokens int, timeout time.Duration) (string, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.1,
		MaxTokens:   maxTokens,
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", chatURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", &nlu.UpstreamError{Service: "gigachat", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", &nlu.UpstreamError{Service: "gigachat", Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("gigachat: %w", err)
	}
	if len(raw.Choices) == 0 {
		return "", nlu.ErrEmptyResponse
	}
	return strings.TrimSpace(raw.Choices[0].Message.Content), nil
}
