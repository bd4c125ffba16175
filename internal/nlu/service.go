package nlu

import (
	"context"
	"sync"
	"time"
)

// Service — внешний семантический сервис: классификация и извлечение под
// строгим JSON-контрактом. Движки взаимозаменяемы, чтобы rule-based и
// LLM-разбор можно было подменять и сравнивать, не трогая маршрутизатор.
type Service interface {
	Name() string
	// Classify возвращает строго food или calendar; любой мусор в ответе
	// движок обязан свести к calendar.
	Classify(ctx context.Context, text string) (Intent, error)
	ExtractEvent(ctx context.Context, text string, now time.Time) (ParsedEvent, error)
	ExtractFoodLog(ctx context.Context, text string, now time.Time) (ParsedFoodLog, error)
	// NormalizeSpeech чинит орфографию и ошибки распознавания, не меняя
	// смысл; при любой ошибке возвращает исходный текст.
	NormalizeSpeech(ctx context.Context, text string) string
}

// Manager хранит выбранный движок по чату.
type Manager struct {
	def Service
	m   sync.Map // chatID -> Service
}

func NewManager(def Service) *Manager {
	return &Manager{def: def}
}

func (m *Manager) Get(chatID int64) Service {
	if v, ok := m.m.Load(chatID); ok {
		return v.(Service)
	}
	return m.def
}

func (m *Manager) Set(chatID int64, s Service) {
	m.m.Store(chatID, s)
}
