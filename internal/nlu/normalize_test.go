package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"пробелы схлопываются", "завтра   в  15:00   встреча", "завтра в 15:00 встреча"},
		{"ограждения срезаются", "```json\nменю творог\n```", "меню творог"},
		{"миню чинится в начале", "миню творог 200 грамм", "меню творог 200 грамм"},
		{"мену чинится в начале", "мену овсянка", "меню овсянка"},
		{"миню внутри не трогаем", "запиши миню на завтра", "запиши миню на завтра"},
		{"минюст не трогаем", "минюст прислал письмо", "минюст прислал письмо"},
		{"пустой текст", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestFixLeadingMisrecognition_BreakfastAsTomorrow(t *testing.T) {
	assert.Equal(t, "завтра врачу на 11 часов",
		FixLeadingMisrecognition("завтраку врачу на 11 часов"))
	assert.Equal(t, "завтра к врачу на 11",
		FixLeadingMisrecognition("завтрак к врачу на 11"))
	// перед продуктом "завтрак" остаётся приёмом пищи
	assert.Equal(t, "завтрак омлет и кофе",
		FixLeadingMisrecognition("завтрак омлет и кофе"))
}
