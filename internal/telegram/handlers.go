package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ElKaStar/CalendarAgent/internal/export"
	"github.com/ElKaStar/CalendarAgent/internal/store"
)

const helpText = `Я понимаю свободный текст: встречи уходят в Google Календарь, еда — в дневник питания.

Примеры:
• «Завтра в 15:00 встреча с Катей, час»
• «меню творог 200 грамм»

Команды:
/list - ближайшие события
/cancel [название] - отменить событие (без названия - последнее созданное)
/food_today - дневник за сегодня
/food_day YYYY-MM-DD - дневник за дату
/food_last [N] - последние записи
/food_delete - удалить последнюю запись
/food_export YYYY-MM-DD [YYYY-MM-DD] - выгрузка XLSX
/engine gigachat|gemini - сменить движок разбора`

func (r *Router) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		r.send(chatID, "Привет! Напишите встречу или еду свободным текстом.\n\n"+helpText)
	case "help":
		r.send(chatID, helpText)
	case "list", "events":
		r.listEvents(ctx, chatID)
	case "cancel":
		r.cancelEvent(ctx, chatID, args)
	case "food_today":
		r.foodDay(ctx, chatID, time.Now().In(r.Location).Format("2006-01-02"))
	case "food_day":
		if _, err := time.Parse("2006-01-02", args); err != nil {
			r.send(chatID, "❌ Укажите дату: /food_day 2026-08-30")
			return
		}
		r.foodDay(ctx, chatID, args)
	case "food_last":
		n := 5
		if args != "" {
			if v, err := strconv.Atoi(args); err == nil && v > 0 && v <= 50 {
				n = v
			}
		}
		r.foodLast(ctx, chatID, n)
	case "food_delete":
		r.foodDeleteLast(ctx, chatID)
	case "food_export":
		r.foodExport(ctx, chatID, args)
	case "engine":
		r.handleEngineCommand(chatID, args)
	default:
		r.send(chatID, "Неизвестная команда. /help")
	}
}

func (r *Router) listEvents(ctx context.Context, chatID int64) {
	events, err := r.Calendar.Upcoming(ctx, time.Now().In(r.Location), 5)
	if err != nil {
		// календарь недоступен, показываем локальную копию
		log.Printf("список событий для чата %d: %v, читаем из БД", chatID, err)
		r.listEventsFromDB(ctx, chatID)
		return
	}
	if len(events) == 0 {
		r.send(chatID, "📅 Ближайших событий не найдено")
		return
	}

	var b strings.Builder
	b.WriteString("📅 Ближайшие события:\n\n")
	for _, ev := range events {
		start := ev.Start.DateTime
		if start == "" {
			start = ev.Start.Date
		}
		when := start
		if t, err := time.Parse(time.RFC3339, start); err == nil {
			when = t.In(r.Location).Format("02.01.2006 15:04")
		}
		fmt.Fprintf(&b, "• %s\n  🕐 %s\n\n", ev.Summary, when)
	}
	r.send(chatID, b.String())
}

func (r *Router) listEventsFromDB(ctx context.Context, chatID int64) {
	rows, err := r.Events.Upcoming(ctx, chatID, time.Now().In(r.Location), 5)
	if err != nil {
		log.Printf("список событий из БД, чат %d: %v", chatID, err)
		r.send(chatID, "❌ Не удалось получить список событий")
		return
	}
	if len(rows) == 0 {
		r.send(chatID, "📅 Ближайших событий не найдено")
		return
	}

	var b strings.Builder
	b.WriteString("📅 Ближайшие события (локальная копия):\n\n")
	for _, ev := range rows {
		fmt.Fprintf(&b, "• %s\n  🕐 %s\n\n", ev.Title, ev.StartAt.In(r.Location).Format("02.01.2006 15:04"))
	}
	r.send(chatID, b.String())
}

func (r *Router) cancelEvent(ctx context.Context, chatID int64, query string) {
	// без аргумента отменяем последнее созданное событие
	if query == "" {
		last, err := r.Events.LastForChat(ctx, chatID)
		if errors.Is(err, store.ErrNotFound) {
			r.send(chatID, "❌ Отменять нечего. Укажите название:\n/cancel Встреча с Катей")
			return
		}
		if err != nil {
			log.Printf("последнее событие чата %d: %v", chatID, err)
			r.send(chatID, "❌ Не удалось отменить событие")
			return
		}
		query = last.Title
	}

	ev, err := r.Calendar.FindByTitle(ctx, query, time.Now().In(r.Location))
	if err != nil {
		log.Printf("поиск события для отмены, чат %d: %v", chatID, err)
		r.send(chatID, "❌ Не удалось отменить событие")
		return
	}
	if ev == nil {
		r.send(chatID, fmt.Sprintf("❌ Событие «%s» не найдено", query))
		return
	}

	if err := r.Calendar.DeleteEvent(ctx, ev.Id); err != nil {
		log.Printf("отмена события %s, чат %d: %v", ev.Id, chatID, err)
		r.send(chatID, "❌ Не удалось отменить событие")
		return
	}
	if err := r.Events.Delete(ctx, ev.Id); err != nil {
		log.Printf("удаление события %s из БД: %v", ev.Id, err)
	}
	r.send(chatID, fmt.Sprintf("✅ Событие «%s» отменено", ev.Summary))
}

func (r *Router) foodDay(ctx context.Context, chatID int64, date string) {
	logs, err := r.Food.ByDate(ctx, chatID, date)
	if err != nil {
		log.Printf("дневник за %s, чат %d: %v", date, chatID, err)
		r.send(chatID, "❌ Не удалось получить дневник питания")
		return
	}
	if len(logs) == 0 {
		r.send(chatID, fmt.Sprintf("🍽 За %s записей нет", date))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🍽 Дневник питания за %s:\n\n", date)
	for _, l := range logs {
		fmt.Fprintf(&b, "• [%d] %s, %s: %s\n",
			l.ID, l.CreatedAt.In(r.Location).Format("15:04"), mealNames[l.MealType], formatItems(l.Items))
	}
	if s, err := r.Food.Summary(ctx, chatID, date); err == nil && s.TotalLogs > 0 {
		fmt.Fprintf(&b, "\nИтого: записей %d, продуктов %d", s.TotalLogs, len(s.AllItems))
	}
	r.send(chatID, b.String())
}

func (r *Router) foodLast(ctx context.Context, chatID int64, n int) {
	logs, err := r.Food.Last(ctx, chatID, n)
	if err != nil {
		log.Printf("последние записи, чат %d: %v", chatID, err)
		r.send(chatID, "❌ Не удалось получить записи")
		return
	}
	if len(logs) == 0 {
		r.send(chatID, "🍽 Записей пока нет")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🍽 Последние %d записей:\n\n", len(logs))
	for _, l := range logs {
		fmt.Fprintf(&b, "• [%d] %s, %s: %s\n",
			l.ID, l.EventDate, mealNames[l.MealType], formatItems(l.Items))
	}
	r.send(chatID, b.String())
}

func (r *Router) foodDeleteLast(ctx context.Context, chatID int64) {
	row, err := r.Food.DeleteLast(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		r.send(chatID, "🍽 Удалять нечего, записей нет")
		return
	}
	if err != nil {
		log.Printf("удаление последней записи, чат %d: %v", chatID, err)
		r.send(chatID, "❌ Не удалось удалить запись")
		return
	}
	r.send(chatID, fmt.Sprintf("✅ Удалена запись за %s: %s", row.EventDate, formatItems(row.Items)))
}

// foodExport выгружает дневник за дату или диапазон дат в XLSX.
func (r *Router) foodExport(ctx context.Context, chatID int64, args string) {
	fields := strings.Fields(args)
	now := time.Now().In(r.Location).Format("2006-01-02")

	from, to := now, now
	switch len(fields) {
	case 0:
	case 1:
		from, to = fields[0], fields[0]
	default:
		from, to = fields[0], fields[1]
	}
	if _, err := time.Parse("2006-01-02", from); err != nil {
		r.send(chatID, "❌ Формат: /food_export 2026-08-01 [2026-08-31]")
		return
	}
	if _, err := time.Parse("2006-01-02", to); err != nil {
		r.send(chatID, "❌ Формат: /food_export 2026-08-01 [2026-08-31]")
		return
	}

	logs, err := r.Food.InRange(ctx, chatID, from, to)
	if err != nil {
		log.Printf("выгрузка %s..%s, чат %d: %v", from, to, chatID, err)
		r.send(chatID, "❌ Не удалось сделать выгрузку")
		return
	}
	if len(logs) == 0 {
		r.send(chatID, "🍽 За этот период записей нет")
		return
	}

	data, err := export.FoodLogsXLSX(logs)
	if err != nil {
		log.Printf("сборка XLSX, чат %d: %v", chatID, err)
		r.send(chatID, "❌ Не удалось сделать выгрузку")
		return
	}
	r.sendDocument(chatID, export.FileName(from, to), data)
}

func (r *Router) handleEngineCommand(chatID int64, args string) {
	name := strings.ToLower(strings.TrimSpace(args))
	if name == "" {
		r.send(chatID, "Текущий движок: "+r.EngManager.Get(chatID).Name()+
			"\nИспользование: /engine gigachat | gemini")
		return
	}
	switch name {
	case "gigachat":
		r.EngManager.Set(chatID, r.Engines.GigaChat)
		r.send(chatID, "✅ Движок: gigachat")
	case "gemini":
		if r.Engines.Gemini == nil {
			r.send(chatID, "❌ Gemini не настроен.")
			return
		}
		r.EngManager.Set(chatID, r.Engines.Gemini)
		r.send(chatID, "✅ Движок: gemini")
	default:
		r.send(chatID, "Неизвестный движок. Доступны: gigachat | gemini")
	}
}
