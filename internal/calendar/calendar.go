// Package calendar — тонкая обёртка над Google Calendar API: создание,
// поиск и удаление событий в одном календаре сервисного аккаунта.
package calendar

import (
	"context"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/ElKaStar/CalendarAgent/internal/nlu"
)

// DefaultDurationMinutes используется, когда длительность не распознана.
const DefaultDurationMinutes = 60

type Client struct {
	svc        *gcal.Service
	calendarID string
	timezone   string
}

// New создаёт клиента по файлу сервисного аккаунта.
func New(ctx context.Context, credentialsFile, calendarID, tz string) (*Client, error) {
	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarScope))
	if err != nil {
		return nil, fmt.Errorf("google calendar: %w", err)
	}
	return &Client{svc: svc, calendarID: calendarID, timezone: tz}, nil
}

// CreateEvent создаёт событие и возвращает его идентификатор.
// Напоминания: за 24 часа и за 3 часа, почтой и попапом.
func (c *Client) CreateEvent(ctx context.Context, ev nlu.ParsedEvent) (string, error) {
	minutes := DefaultDurationMinutes
	if ev.DurationHours != nil {
		minutes = int(*ev.DurationHours * 60)
	} else if ev.DurationMinutes != nil {
		minutes = *ev.DurationMinutes
	}
	end := ev.Start.Add(time.Duration(minutes) * time.Minute)

	body := &gcal.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 1440},
				{Method: "popup", Minutes: 1440},
				{Method: "email", Minutes: 180},
				{Method: "popup", Minutes: 180},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
	if ev.Location != nil {
		body.Location = *ev.Location
	}

	created, err := c.svc.Events.Insert(c.calendarID, body).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("создание события в календаре: %w", err)
	}
	return created.Id, nil
}

// Upcoming возвращает ближайшие события, начиная с from.
func (c *Client) Upcoming(ctx context.Context, from time.Time, max int64) ([]*gcal.Event, error) {
	res, err := c.svc.Events.List(c.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		MaxResults(max).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("список событий календаря: %w", err)
	}
	return res.Items, nil
}

// FindByTitle ищет первое будущее событие по тексту запроса.
func (c *Client) FindByTitle(ctx context.Context, query string, from time.Time) (*gcal.Event, error) {
	res, err := c.svc.Events.List(c.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		Q(query).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("поиск события календаря: %w", err)
	}
	if len(res.Items) == 0 {
		return nil, nil
	}
	return res.Items[0], nil
}

// DeleteEvent удаляет событие по идентификатору.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if err := c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("удаление события календаря: %w", err)
	}
	return nil
}
