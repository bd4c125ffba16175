package store

import (
	"context"
	"database/sql"
)

var ErrNotFound = sql.ErrNoRows

// EnsureSchema создаёт таблицы и индексы, если их ещё нет. Миграции тут
// сознательно примитивные: схема маленькая и меняется редко.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const ddl = `
create table if not exists events (
    id                 bigserial primary key,
    calendar_event_id  text not null,
    chat_id            bigint not null,
    title              text not null,
    start_at           timestamptz not null,
    duration_minutes   int,
    description        text not null default '',
    location           text,
    raw_text           text not null default '',
    created_at         timestamptz not null default now()
);
create index if not exists idx_events_calendar_event on events(calendar_event_id);
create index if not exists idx_events_chat_start on events(chat_id, start_at);

create table if not exists food_logs (
    id          bigserial primary key,
    user_id     bigint not null,
    created_at  timestamptz not null default now(),
    event_date  date not null,
    meal_type   text not null,
    items_json  jsonb not null,
    raw_text    text not null default '',
    source      text not null default 'telegram',
    parse_mode  text not null default 'rules',
    tz          text not null
);
create index if not exists idx_food_user_date on food_logs(user_id, event_date);
create index if not exists idx_food_user_created on food_logs(user_id, created_at, id);
`
	_, err := db.ExecContext(ctx, ddl)
	return err
}
