package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/ElKaStar/CalendarAgent/internal/nlu"
	"github.com/ElKaStar/CalendarAgent/internal/nlu/prompt"
	"github.com/ElKaStar/CalendarAgent/internal/util"
)

// Engine реализует nlu.Service поверх Gemini. Запасной движок: тот же
// JSON-контракт и те же промпты, что у GigaChat, но другой транспорт.
type Engine struct {
	APIKey   string
	Model    string
	timezone string
	location *time.Location
}

func New(apiKey, model, tz string) (*Engine, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Engine{
		APIKey:   strings.TrimSpace(apiKey),
		Model:    strings.TrimSpace(model),
		timezone: tz,
		location: loc,
	}, nil
}

func (e *Engine) Name() string { return "gemini" }

// generate выполняет один запрос system+user со строгим JSON-выводом.
// Ретраи закрывают транзиентные 5xx.
func (e *Engine) generate(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	cfg := genai.GenerationConfig{Temperature: ptrFloat32(0.1)}
	if jsonMode {
		cfg.ResponseMIMEType = "application/json"
	}
	m.GenerationConfig = cfg
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, err := m.GenerateContent(ctx, genai.Text(user))
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt) * 300 * time.Millisecond)
			continue
		}
		txt := firstText(resp)
		if strings.TrimSpace(txt) == "" {
			return "", nlu.ErrEmptyResponse
		}
		return strings.TrimSpace(txt), nil
	}
	return "", &nlu.UpstreamError{Service: "gemini", Err: lastErr}
}

func (e *Engine) Classify(ctx context.Context, text string) (nlu.Intent, error) {
	content, err := e.generate(ctx, prompt.Classify, text, true)
	if err != nil {
		return nlu.IntentCalendar, err
	}

	var out struct {
		Category string `json:"category"`
	}
	if json.Unmarshal([]byte(util.StripCodeFences(content)), &out) == nil {
		switch strings.ToLower(out.Category) {
		case "food":
			return nlu.IntentFood, nil
		case "calendar":
			return nlu.IntentCalendar, nil
		}
	}
	if strings.Contains(strings.ToLower(content), "food") {
		return nlu.IntentFood, nil
	}
	return nlu.IntentCalendar, nil
}

func (e *Engine) ExtractEvent(ctx context.Context, text string, now time.Time) (nlu.ParsedEvent, error) {
	now = now.In(e.location)
	content, err := e.generate(ctx, prompt.Event(now, e.timezone), text, true)
	if err != nil {
		return nlu.ParsedEvent{}, err
	}
	log.Printf("gemini ответ на событие: %s", content)
	return nlu.DecodeEventContent(content, text, e.location)
}

func (e *Engine) ExtractFoodLog(ctx context.Context, text string, now time.Time) (nlu.ParsedFoodLog, error) {
	now = now.In(e.location)
	content, err := e.generate(ctx, prompt.Food(now, e.timezone), text, true)
	if err != nil {
		return nlu.ParsedFoodLog{}, err
	}
	log.Printf("gemini ответ на еду: %s", content)
	return nlu.DecodeFoodContent(content, text, now)
}

func (e *Engine) NormalizeSpeech(ctx context.Context, text string) string {
	content, err := e.generate(ctx, prompt.Normalize, text, false)
	if err != nil {
		log.Printf("gemini нормализация не удалась: %v", err)
		return text
	}
	return strings.TrimSpace(util.StripCodeFences(content))
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
