package config

import (
	"log"
	"os"
	"strings"
)

type Config struct {
	TelegramBotToken string
	WebhookURL       string
	Port             string

	GigaChatClientID     string
	GigaChatClientSecret string
	GigaChatScope        string
	GigaChatModel        string
	GigaChatInsecureTLS  bool

	GeminiAPIKey string
	GeminiModel  string

	GoogleCredentialsFile string
	GoogleCalendarID      string

	Timezone      string
	FoodCodeWords []string
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func Load() *Config {
	return &Config{
		TelegramBotToken: mustEnv("TELEGRAM_BOT_TOKEN"),
		WebhookURL:       os.Getenv("WEBHOOK_URL"),
		Port:             getEnv("PORT", "8000"),

		GigaChatClientID:     mustEnv("GIGACHAT_CLIENT_ID"),
		GigaChatClientSecret: mustEnv("GIGACHAT_CLIENT_SECRET"),
		GigaChatScope:        getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
		GigaChatModel:        getEnv("GIGACHAT_MODEL", "GigaChat"),
		GigaChatInsecureTLS:  getEnv("GIGACHAT_INSECURE_TLS", "1") == "1",

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		GoogleCredentialsFile: mustEnv("GOOGLE_CREDENTIALS_FILE"),
		GoogleCalendarID:      mustEnv("GOOGLE_CALENDAR_ID"),

		Timezone:      getEnv("TIMEZONE", "Europe/Moscow"),
		FoodCodeWords: splitList(getEnv("FOOD_CODE_WORDS", "меню,еда")),
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
