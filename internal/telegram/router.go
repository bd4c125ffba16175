package telegram

import (
	"context"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ElKaStar/CalendarAgent/internal/calendar"
	"github.com/ElKaStar/CalendarAgent/internal/nlu"
	"github.com/ElKaStar/CalendarAgent/internal/store"
)

// Router принимает апдейты Telegram и раскладывает их по обработчикам:
// команды отдельно, свободный текст уходит в конвейер разбора.
type Router struct {
	Bot        *tgbotapi.BotAPI
	EngManager *nlu.Manager
	Pipeline   *nlu.Pipeline
	Calendar   *calendar.Client
	Events     *store.EventRepo
	Food       *store.FoodRepo

	Timezone string
	Location *time.Location

	// Engines для переключения через /engine
	Engines Engines
}

// Engines — доступные семантические движки.
type Engines struct {
	GigaChat nlu.Service
	Gemini   nlu.Service
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	if msg.IsCommand() {
		r.handleCommand(ctx, msg)
		return
	}
	if msg.Text != "" {
		r.handleText(ctx, msg)
	}
}

// pipelineFor собирает конвейер с движком, выбранным для этого чата.
func (r *Router) pipelineFor(chatID int64) *nlu.Pipeline {
	p := *r.Pipeline
	p.Service = r.EngManager.Get(chatID)
	return &p
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		log.Printf("отправка сообщения в чат %d: %v", chatID, err)
	}
}

func (r *Router) sendDocument(chatID int64, name string, data []byte) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	if _, err := r.Bot.Send(doc); err != nil {
		log.Printf("отправка файла в чат %d: %v", chatID, err)
	}
}
