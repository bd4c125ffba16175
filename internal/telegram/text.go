package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ElKaStar/CalendarAgent/internal/nlu"
	"github.com/ElKaStar/CalendarAgent/internal/store"
)

// handleText прогоняет свободный текст через конвейер и сохраняет результат:
// календарное событие уходит в Google Calendar и в БД, запись о еде — в БД.
func (r *Router) handleText(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	p := r.pipelineFor(chatID)
	now := time.Now().In(r.Location)

	out, err := p.Process(ctx, msg.Text, now)
	if err != nil {
		r.send(chatID, userMessage(err))
		return
	}

	switch out.Intent {
	case nlu.IntentFood:
		r.saveFoodLog(ctx, chatID, out.Food)
	case nlu.IntentCalendar:
		r.createEvent(ctx, chatID, out.Event)
	}
}

func (r *Router) createEvent(ctx context.Context, chatID int64, ev *nlu.ParsedEvent) {
	eventID, err := r.Calendar.CreateEvent(ctx, *ev)
	if err != nil {
		log.Printf("создание события для чата %d: %v", chatID, err)
		r.send(chatID, "❌ Не удалось создать событие. Попробуйте ещё раз.")
		return
	}

	row := store.EventRow{
		CalendarEventID: eventID,
		ChatID:          chatID,
		Title:           ev.Title,
		StartAt:         ev.Start,
		DurationMinutes: ev.DurationMinutes,
		Description:     ev.Description,
		Location:        ev.Location,
		RawText:         ev.RawText,
	}
	if err := r.Events.Save(ctx, row); err != nil {
		// событие в календаре уже есть, локальная копия не критична
		log.Printf("сохранение события %s в БД: %v", eventID, err)
	}

	r.send(chatID, formatEventCreated(ev))
	log.Printf("создано событие %s для чата %d", eventID, chatID)
}

func (r *Router) saveFoodLog(ctx context.Context, chatID int64, fl *nlu.ParsedFoodLog) {
	if len(fl.Items) == 0 {
		r.send(chatID, "❌ Не удалось распознать продукты в сообщении.\n"+
			"Попробуйте указать продукты более явно, например:\n"+
			"«меню творог 200 грамм» или «меню овсянка и яблоко»")
		return
	}

	id, err := r.Food.Save(ctx, store.FoodRow{
		UserID:    chatID,
		EventDate: fl.EventDate,
		MealType:  fl.MealType,
		Items:     fl.Items,
		RawText:   fl.RawText,
		ParseMode: fl.ParseMode,
		TZ:        r.Timezone,
	})
	if err != nil {
		log.Printf("сохранение записи о еде для чата %d: %v", chatID, err)
		r.send(chatID, "❌ Не удалось обработать запрос о еде. Попробуйте ещё раз.")
		return
	}

	r.send(chatID, formatFoodSaved(fl))
	log.Printf("сохранена запись о еде id=%d, чат %d, дата %s, продуктов %d",
		id, chatID, fl.EventDate, len(fl.Items))
}

// userMessage переводит ошибку конвейера в понятный пользователю текст.
// Сообщения темпоральной валидации и отсутствующих полей показываются как
// есть, остальное сводится к общим формулировкам.
func userMessage(err error) string {
	var rejection *nlu.TemporalRejectionError
	if errors.As(err, &rejection) {
		return rejection.Message
	}
	var missing *nlu.MissingFieldError
	if errors.As(err, &missing) {
		return "❌ " + missing.Hint
	}
	if errors.Is(err, nlu.ErrEmptyInput) {
		return "❌ Получен пустой текст.\nНапишите, что записать: встречу или еду."
	}
	if errors.Is(err, nlu.ErrEmptyResponse) {
		return "❌ Не удалось разобрать запрос. Попробуйте переформулировать конкретнее,\nнапример: «Завтра в 15:00 встреча с Катей, час»."
	}
	var malformed *nlu.MalformedResponseError
	if errors.As(err, &malformed) {
		return "❌ Не удалось разобрать ответ сервиса. Попробуйте ещё раз."
	}
	var upstream *nlu.UpstreamError
	if errors.As(err, &upstream) {
		log.Printf("ошибка внешнего сервиса: %v", err)
		return "❌ Сервис распознавания временно недоступен. Попробуйте позже."
	}
	log.Printf("необработанная ошибка конвейера: %v", err)
	return "❌ Не удалось обработать запрос. Попробуйте ещё раз."
}

func formatEventCreated(ev *nlu.ParsedEvent) string {
	minutes := 60
	if ev.DurationHours != nil {
		minutes = int(*ev.DurationHours * 60)
	} else if ev.DurationMinutes != nil {
		minutes = *ev.DurationMinutes
	}
	end := ev.Start.Add(time.Duration(minutes) * time.Minute)

	var b strings.Builder
	b.WriteString("✅ Создала событие:\n\n")
	fmt.Fprintf(&b, "📌 %s\n", ev.Title)
	fmt.Fprintf(&b, "🕐 %s - %s\n", ev.Start.Format("02.01.2006 15:04"), end.Format("15:04"))
	if ev.Description != "" {
		fmt.Fprintf(&b, "📝 %s\n", ev.Description)
	}
	if ev.Location != nil && *ev.Location != "" {
		fmt.Fprintf(&b, "📍 %s\n", *ev.Location)
	}
	if ev.ConfidenceDuration == nlu.ConfidenceLow {
		b.WriteString("\n⚠️ Внимание: длительность определена с низкой уверенностью из-за искажений в распознанном тексте.\n")
		b.WriteString("Если длительность неверна, отредактируйте событие в Google Календаре.\n")
	}
	b.WriteString("\n🔔 Напоминания: за 24 часа и за 3 часа до начала (через Google Календарь).")
	return b.String()
}

var mealNames = map[nlu.MealType]string{
	nlu.MealBreakfast: "Завтрак",
	nlu.MealLunch:     "Обед",
	nlu.MealDinner:    "Ужин",
	nlu.MealSnack:     "Перекус",
	nlu.MealUnknown:   "Не указано",
}

func formatFoodSaved(fl *nlu.ParsedFoodLog) string {
	var b strings.Builder
	b.WriteString("✅ Записала в дневник питания:\n\n")
	fmt.Fprintf(&b, "📅 Дата: %s\n", fl.EventDate)
	fmt.Fprintf(&b, "🍽 Приём пищи: %s\n", mealNames[fl.MealType])
	fmt.Fprintf(&b, "📝 Продукты: %s\n", formatItems(fl.Items))
	if fl.Confidence == nlu.ConfidenceLow {
		b.WriteString("\n⚠️ Низкая уверенность в распознавании. Проверьте запись.")
	}
	return b.String()
}

func formatItems(items []nlu.FoodItem) string {
	if len(items) == 0 {
		return "не указано"
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		switch {
		case it.Grams != nil:
			parts = append(parts, fmt.Sprintf("%s (%dг)", it.Name, *it.Grams))
		case it.Milliliters != nil:
			parts = append(parts, fmt.Sprintf("%s (%dмл)", it.Name, *it.Milliliters))
		case it.QtyText != nil:
			parts = append(parts, fmt.Sprintf("%s (%s)", it.Name, *it.QtyText))
		default:
			parts = append(parts, it.Name)
		}
	}
	return strings.Join(parts, ", ")
}
