package gigachat

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/ElKaStar/CalendarAgent/internal/nlu"
	"github.com/ElKaStar/CalendarAgent/internal/nlu/prompt"
	"github.com/ElKaStar/CalendarAgent/internal/util"
)

// Engine реализует nlu.Service поверх GigaChat.
type Engine struct {
	client   *Client
	timezone string
	location *time.Location
}

func New(client *Client, tz string) (*Engine, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	return &Engine{client: client, timezone: tz, location: loc}, nil
}

func (e *Engine) Name() string { return "gigachat" }

// Classify относит текст к еде или календарю. Любая ошибка и любой мусор
// в ответе сводятся к календарю: это безопасный дефолт для бота-планировщика.
func (e *Engine) Classify(ctx context.Context, text string) (nlu.Intent, error) {
	content, err := e.client.Chat(ctx, prompt.Classify, text, 50, 15*time.Second)
	if err != nil {
		return nlu.IntentCalendar, err
	}

	cleaned := util.StripCodeFences(content)
	var out struct {
		Category string `json:"category"`
	}
	if json.Unmarshal([]byte(cleaned), &out) == nil {
		switch strings.ToLower(out.Category) {
		case "food":
			return nlu.IntentFood, nil
		case "calendar":
			return nlu.IntentCalendar, nil
		}
	}
	// JSON не разобрался, ищем категорию в сыром тексте
	lower := strings.ToLower(content)
	if strings.Contains(lower, "food") {
		return nlu.IntentFood, nil
	}
	return nlu.IntentCalendar, nil
}

func (e *Engine) ExtractEvent(ctx context.Context, text string, now time.Time) (nlu.ParsedEvent, error) {
	now = now.In(e.location)
	content, err := e.client.Chat(ctx, prompt.Event(now, e.timezone), text, 500, 30*time.Second)
	if err != nil {
		return nlu.ParsedEvent{}, err
	}
	log.Printf("gigachat ответ на событие: %s", content)
	return nlu.DecodeEventContent(content, text, e.location)
}

func (e *Engine) ExtractFoodLog(ctx context.Context, text string, now time.Time) (nlu.ParsedFoodLog, error) {
	now = now.In(e.location)
	content, err := e.client.Chat(ctx, prompt.Food(now, e.timezone), text, 1000, 30*time.Second)
	if err != nil {
		return nlu.ParsedFoodLog{}, err
	}
	log.Printf("gigachat ответ на еду: %s", content)
	return nlu.DecodeFoodContent(content, text, now)
}

// NormalizeSpeech чинит текст после распознавания речи. Ошибки не
// фатальны: возвращаем исходный текст и продолжаем разбор.
func (e *Engine) NormalizeSpeech(ctx context.Context, text string) string {
	content, err := e.client.Chat(ctx, prompt.Normalize, text, 300, 30*time.Second)
	if err != nil || strings.TrimSpace(content) == "" {
		if err != nil {
			log.Printf("gigachat нормализация не удалась: %v", err)
		}
		return text
	}
	normalized := strings.TrimSpace(util.StripCodeFences(content))
	log.Printf("текст нормализован: %q -> %q", text, normalized)
	return normalized
}
