package nlu

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput — пустой или состоящий из пробелов текст.
	ErrEmptyInput = errors.New("пустой текст сообщения")

	// ErrEmptyResponse — модель вернула пустой ответ (пустую строку или "{}").
	// Чаще всего это значит, что текст попал не в тот домен: сигнал для
	// повторной классификации, а не жёсткая ошибка.
	ErrEmptyResponse = errors.New("модель вернула пустой ответ")
)

// MalformedResponseError — ответ модели не удалось разобрать как JSON даже
// после попыток починки.
type MalformedResponseError struct {
	Payload string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("некорректный JSON в ответе модели: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// MissingFieldError — в ответе модели нет обязательного поля.
// Hint показывается пользователю как есть.
type MissingFieldError struct {
	Field string
	Hint  string
}

func (e *MissingFieldError) Error() string { return e.Hint }

// TemporalRejectionError — валидатор отклонил дату/время.
// Message показывается пользователю как есть.
type TemporalRejectionError struct {
	Message string
}

func (e *TemporalRejectionError) Error() string { return e.Message }

// UpstreamError — внешний сервис недоступен или вернул не-200.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s: статус %d: %s", e.Service, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
