package store

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"
)

type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

// EventRow — событие, как оно лежит в базе.
type EventRow struct {
	ID              int64
	CalendarEventID string
	ChatID          int64
	Title           string
	StartAt         time.Time
	DurationMinutes *int
	Description     string
	Location        *string
	RawText         string
	CreatedAt       time.Time
}

// Save пишет событие, если его ещё нет: повторная доставка апдейта и
// дубль по содержимому (тот же чат, заголовок и время) пропускаются.
func (r *EventRepo) Save(ctx context.Context, ev EventRow) error {
	const qByCalendarID = `select id from events where calendar_event_id = $1 limit 1`
	var existing int64
	err := r.DB.QueryRowContext(ctx, qByCalendarID, ev.CalendarEventID).Scan(&existing)
	if err == nil {
		log.Printf("событие %s уже есть в БД (id=%d), пропускаем", ev.CalendarEventID, existing)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	const qByContent = `
select id, calendar_event_id from events
where chat_id = $1 and title = $2 and start_at = $3
limit 1`
	var dupID int64
	var dupCalendarID string
	err = r.DB.QueryRowContext(ctx, qByContent, ev.ChatID, ev.Title, ev.StartAt).Scan(&dupID, &dupCalendarID)
	if err == nil {
		log.Printf("дубль события по содержимому (id=%d, calendar=%s), пропускаем", dupID, dupCalendarID)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	const qInsert = `
insert into events (calendar_event_id, chat_id, title, start_at, duration_minutes, description, location, raw_text)
values ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.DB.ExecContext(ctx, qInsert,
		ev.CalendarEventID, ev.ChatID, ev.Title, ev.StartAt,
		ev.DurationMinutes, ev.Description, ev.Location, ev.RawText)
	return err
}

// Delete удаляет событие по идентификатору календаря.
func (r *EventRepo) Delete(ctx context.Context, calendarEventID string) error {
	const q = `delete from events where calendar_event_id = $1`
	_, err := r.DB.ExecContext(ctx, q, calendarEventID)
	return err
}

// Upcoming возвращает ближайшие события чата, начиная с from.
func (r *EventRepo) Upcoming(ctx context.Context, chatID int64, from time.Time, limit int) ([]EventRow, error) {
	const q = `
select id, calendar_event_id, chat_id, title, start_at,
       duration_minutes, description, location, raw_text, created_at
from events
where chat_id = $1 and start_at >= $2
order by start_at
limit $3`
	rows, err := r.DB.QueryContext(ctx, q, chatID, from, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var ev EventRow
		if err := rows.Scan(&ev.ID, &ev.CalendarEventID, &ev.ChatID, &ev.Title, &ev.StartAt,
			&ev.DurationMinutes, &ev.Description, &ev.Location, &ev.RawText, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// LastForChat достаёт последнее созданное событие чата, ErrNotFound если
// записей нет.
func (r *EventRepo) LastForChat(ctx context.Context, chatID int64) (*EventRow, error) {
	const q = `
select id, calendar_event_id, chat_id, title, start_at,
       duration_minutes, description, location, raw_text, created_at
from events
where chat_id = $1
order by created_at desc, id desc
limit 1`
	var ev EventRow
	err := r.DB.QueryRowContext(ctx, q, chatID).Scan(
		&ev.ID, &ev.CalendarEventID, &ev.ChatID, &ev.Title, &ev.StartAt,
		&ev.DurationMinutes, &ev.Description, &ev.Location, &ev.RawText, &ev.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}
