package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ElKaStar/CalendarAgent/internal/nlu"
)

type FoodRepo struct{ DB *sql.DB }

func NewFoodRepo(db *sql.DB) *FoodRepo { return &FoodRepo{DB: db} }

// FoodRow — запись дневника питания.
type FoodRow struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
	EventDate string // YYYY-MM-DD
	MealType  nlu.MealType
	Items     []nlu.FoodItem
	RawText   string
	Source    string
	ParseMode string
	TZ        string
}

// FoodSummary — сводка за день.
type FoodSummary struct {
	Date      string
	TotalLogs int
	Meals     map[nlu.MealType]int
	AllItems  []string
}

const foodColumns = `id, user_id, created_at, to_char(event_date, 'YYYY-MM-DD'), meal_type, items_json, raw_text, source, parse_mode, tz`

// Save пишет запись дневника, продукты сериализуются в jsonb.
func (r *FoodRepo) Save(ctx context.Context, row FoodRow) (int64, error) {
	items, err := json.Marshal(row.Items)
	if err != nil {
		return 0, err
	}
	if row.Source == "" {
		row.Source = "telegram"
	}
	if row.ParseMode == "" {
		row.ParseMode = "rules"
	}

	const q = `
insert into food_logs (user_id, event_date, meal_type, items_json, raw_text, source, parse_mode, tz)
values ($1, $2, $3, $4, $5, $6, $7, $8)
returning id`
	var id int64
	err = r.DB.QueryRowContext(ctx, q,
		row.UserID, row.EventDate, string(row.MealType), items,
		row.RawText, row.Source, row.ParseMode, row.TZ).Scan(&id)
	return id, err
}

// ByDate возвращает записи пользователя за дату в порядке создания.
func (r *FoodRepo) ByDate(ctx context.Context, userID int64, eventDate string) ([]FoodRow, error) {
	const q = `
select ` + foodColumns + `
from food_logs
where user_id = $1 and event_date = $2
order by created_at, id`
	rows, err := r.DB.QueryContext(ctx, q, userID, eventDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFoodRows(rows)
}

// Last возвращает n последних записей пользователя, свежие первыми.
func (r *FoodRepo) Last(ctx context.Context, userID int64, n int) ([]FoodRow, error) {
	const q = `
select ` + foodColumns + `
from food_logs
where user_id = $1
order by created_at desc, id desc
limit $2`
	rows, err := r.DB.QueryContext(ctx, q, userID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFoodRows(rows)
}

// InRange возвращает записи за полуинтервал дат [from, to] включительно.
func (r *FoodRepo) InRange(ctx context.Context, userID int64, from, to string) ([]FoodRow, error) {
	const q = `
select ` + foodColumns + `
from food_logs
where user_id = $1 and event_date between $2 and $3
order by event_date, created_at, id`
	rows, err := r.DB.QueryContext(ctx, q, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFoodRows(rows)
}

// Delete удаляет запись пользователя. Возвращает ErrNotFound, если запись
// не его или не существует.
func (r *FoodRepo) Delete(ctx context.Context, userID, id int64) error {
	const q = `delete from food_logs where id = $1 and user_id = $2`
	res, err := r.DB.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteLast удаляет последнюю запись пользователя и возвращает её.
func (r *FoodRepo) DeleteLast(ctx context.Context, userID int64) (*FoodRow, error) {
	last, err := r.Last(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(last) == 0 {
		return nil, ErrNotFound
	}
	if err := r.Delete(ctx, userID, last[0].ID); err != nil {
		return nil, err
	}
	return &last[0], nil
}

// Summary собирает сводку за день: число записей по приёмам пищи и
// уникальные продукты.
func (r *FoodRepo) Summary(ctx context.Context, userID int64, eventDate string) (FoodSummary, error) {
	logs, err := r.ByDate(ctx, userID, eventDate)
	if err != nil {
		return FoodSummary{}, err
	}

	s := FoodSummary{
		Date:  eventDate,
		Meals: map[nlu.MealType]int{},
	}
	seen := map[string]bool{}
	for _, l := range logs {
		s.TotalLogs++
		s.Meals[l.MealType]++
		for _, it := range l.Items {
			if it.Name != "" && !seen[it.Name] {
				seen[it.Name] = true
				s.AllItems = append(s.AllItems, it.Name)
			}
		}
	}
	return s, nil
}

func scanFoodRows(rows *sql.Rows) ([]FoodRow, error) {
	var out []FoodRow
	for rows.Next() {
		var (
			row      FoodRow
			mealType string
			items    []byte
		)
		if err := rows.Scan(&row.ID, &row.UserID, &row.CreatedAt, &row.EventDate, &mealType,
			&items, &row.RawText, &row.Source, &row.ParseMode, &row.TZ); err != nil {
			return nil, err
		}
		row.MealType = nlu.MealType(mealType)
		if err := json.Unmarshal(items, &row.Items); err != nil {
			// битый JSON не валит выборку, запись остаётся без продуктов
			row.Items = nil
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
