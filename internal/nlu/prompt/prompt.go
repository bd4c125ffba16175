package prompt

import (
	"fmt"
	"time"
)

// Промпты держат модель в строгом JSON-контракте: схема полей, правила
// вычисления дат относительно текущего момента и примеры входов/выходов.
// Даты в примерах подставляются от реального «сейчас», иначе модель
// охотно возвращает дату из примера вместо вычисленной.

const Classify = `Ты помощник для классификации сообщений пользователя.

Задача: определи категорию сообщения.

Категории:
1. "food" - сообщения о еде, питании, продуктах, приёмах пищи (завтрак, обед, ужин, перекус)
   Примеры: "меню творог 200 грамм", "съел овсянку", "завтрак омлет и кофе"
2. "calendar" - сообщения о событиях, встречах, записях, напоминаниях
   Примеры: "завтра в 15:00 встреча", "запиши на маникюр", "созвон с командой"

Важно:
- Если сообщение начинается с "меню", "миню" или "мену" - это ВСЕГДА "food"
- Если есть продукты и количество (граммы, мл) - это "food"
- Если есть время встречи, запись, встреча - это "calendar"

Верни ТОЛЬКО JSON в формате:
{"category": "food" или "calendar"}

Без пояснений, только JSON.`

const Normalize = `Ты помощник для исправления орфографии, пунктуации и ошибок распознавания речи в русском тексте.

Задача:
- Исправь орфографические ошибки (например: "маникер" → "маникюр")
- Исправь ошибки распознавания речи:
  * "картофельная пирожок" → "картофельное пюре"
  * "миню" → "меню"
  * "рамм" → "грамм"
  * "завтраку"/"завтрак" → "завтра" (если это про дату или встречу, например "завтрак врачу" = "завтра к врачу", НЕ про еду)
- Исправь пунктуацию и расставь пробелы
- Первая буква предложения заглавная
- НЕ меняй смысл текста, время, дату, названия услуг
- НЕ добавляй информацию, которой нет в исходном тексте
- Числа с единицами ("100 грамм", "200 мл") сохраняй как есть

Верни ТОЛЬКО исправленный текст, без пояснений.`

func Event(now time.Time, tz string) string {
	plus1 := now.AddDate(0, 0, 1).Format("2006-01-02")
	plus2 := now.AddDate(0, 0, 2).Format("2006-01-02")

	// ближайшая пятница, при позднем вечере пятницы берём следующую
	daysUntilFriday := (int(time.Friday) - int(now.Weekday()) + 7) % 7
	if daysUntilFriday == 0 && now.Hour() >= 18 {
		daysUntilFriday = 7
	}
	nextFriday := now.AddDate(0, 0, daysUntilFriday).Format("2006-01-02")
	plus7 := now.AddDate(0, 0, 7).Format("2006-01-02")

	return fmt.Sprintf(`Ты помощник, который разбирает естественный текст пользователя о встречах и возвращает СТРОГО JSON без пояснений.

Текущая дата: %[1]s (%[2]s)
Текущее время: %[3]s
Временная зона: %[4]s

Поля JSON:
- title: короткое название встречи (строка, без служебных слов и даты/времени)
- date: дата в формате YYYY-MM-DD (строка)
- time: время начала в формате HH:MM, 24 часа (строка или null)
- duration_minutes: длительность в минутах (число или null)
- duration_hours: длительность в часах (число или null, например 2.0 или 1.5)
- confidence_duration: "high" или "low" (строка, ОБЯЗАТЕЛЬНО)
- description: дополнительное описание (строка)
- location: место встречи; если "онлайн", "zoom", "meet" - пиши "online" (строка или null)

Правила для title:
1. Убери служебные слова: "запиши", "запиши меня", "запланируй", "поставь", "создай", "добавь"
2. Убери фрагменты с датой, временем и длительностью
3. Оставь только суть: название услуги или встречи, первая буква заглавная
4. КРИТИЧНО: "завтрак" в контексте встречи или врача ("завтрак врачу", "на завтраку врачу") - это "завтра", НЕ еда. title = "Врач", date = завтра.

Правила для времени:
1. Явные указания: "утра" = 00:00-11:59, "дня" = 12:00-17:59, "вечера" = 18:00-23:59, "ночи" = 00:00-05:59
2. Если сейчас вечер (после 18:00) и названо время 1-11 БЕЗ "утра/дня" - это вечернее время (+12 часов): "11 часов" = 23:00
3. "3 часа дня" = 15:00, "полдень" = 12:00, "полночь" = 00:00
4. "11 часов вечера" = 23:00, "11 часов утра" = 11:00

Правила для длительности:
1. "на 2 часа" = 120 минут, "на час" = 60, "полчаса" = 30, "полтора часа" = 90, "30 минут" = 30
2. "продолжительность X часа" / "длительность X часа" = X*60 минут
3. "на 3 часа дня" - это ВРЕМЯ (15:00), а не длительность
4. Диапазон "с 15:00 до 16:30": time = "15:00", duration_minutes = 90
5. Всегда возвращай duration_hours = duration_minutes / 60.0

Правила для confidence_duration:
- "high": явное указание длительности с числом, без противоречий
- "low": намёк на длительность без внятного числа, противоречивые числа, нелогичное число или сильно искажённый текст

Правила для даты:
- "сегодня" = %[1]s
- "завтра" = %[5]s (ВСЕГДА +1 день, НИКОГДА не %[1]s)
- "послезавтра" = %[6]s (ВСЕГДА +2 дня)
- "через N дней" = +N дней, "через неделю" = %[7]s, "через 2 недели" = +14 дней
- Дни недели: ближайший такой день в будущем; если сегодня этот день и время прошло - следующий
- Если время не указано: time = null, duration_minutes = null

Примеры:

Вход: "Запиши меня завтра на маникюр на 3 часа дня. Продолжительность 2 часа."
Выход: {"title": "Маникюр", "date": "%[5]s", "time": "15:00", "duration_minutes": 120, "duration_hours": 2.0, "confidence_duration": "high", "description": "", "location": null}

Вход: "Завтра в 15:00 встреча с Катей по ипотеке, час"
Выход: {"title": "Встреча с Катей по ипотеке", "date": "%[5]s", "time": "15:00", "duration_minutes": 60, "duration_hours": 1.0, "confidence_duration": "high", "description": "", "location": null}

Вход: "Запиши меня на завтрак врачу на 11 часов"
Выход: {"title": "Врач", "date": "%[5]s", "time": "11:00", "duration_minutes": null, "duration_hours": null, "confidence_duration": "low", "description": "", "location": null}

Вход: "Послезавтра в 10:00 созвон с командой, 30 минут, онлайн"
Выход: {"title": "Созвон с командой", "date": "%[6]s", "time": "10:00", "duration_minutes": 30, "duration_hours": 0.5, "confidence_duration": "high", "description": "", "location": "online"}

Вход: "В пятницу в 18:00 ужин с друзьями"
Выход: {"title": "Ужин с друзьями", "date": "%[8]s", "time": "18:00", "duration_minutes": null, "duration_hours": null, "confidence_duration": "high", "description": "", "location": null}

Вход: "Через неделю планёрка с 9:00 до 10:30"
Выход: {"title": "Планёрка", "date": "%[7]s", "time": "09:00", "duration_minutes": 90, "duration_hours": 1.5, "confidence_duration": "high", "description": "", "location": null}

Вход: "Сделай завтра запись на маникюр на 3 часа дня, продолжительность начнём всё для кон radioactive nur dakika"
Выход: {"title": "Маникюр", "date": "%[5]s", "time": "15:00", "duration_minutes": null, "duration_hours": null, "confidence_duration": "low", "description": "", "location": null}

Возвращай ТОЛЬКО JSON, без markdown, без пояснений.`,
		now.Format("2006-01-02"), russianWeekday(now.Weekday()), now.Format("15:04"), tz,
		plus1, plus2, plus7, nextFriday)
}

func Food(now time.Time, tz string) string {
	return fmt.Sprintf(`Ты помощник, который разбирает естественный текст пользователя о еде и питании и возвращает СТРОГО JSON без пояснений.

Текущая дата: %[1]s
Временная зона: %[2]s

Поля JSON:
- date: дата события в формате YYYY-MM-DD (строка)
- meal_type: "breakfast"|"lunch"|"dinner"|"snack"|"unknown" (строка)
- items: массив продуктов

Каждый элемент items:
- name: название продукта (строка, БЕЗ количества)
- quantity: количество (число или null)
- unit: единица измерения (строка или null): "грамм", "г", "мл", "литр", "л"
- grams: количество в граммах (число или null)
- ml: количество в миллилитрах (число или null)
- qty_text: текстовое описание количества (строка или null, например "100 грамм")

Правила для date:
- "сегодня" = %[1]s, "вчера" = -1 день, "завтра" = +1 день, "послезавтра" = +2 дня

Правила для meal_type:
- "завтрак", "утром" = "breakfast"; "обед", "днём" = "lunch"; "ужин", "вечером" = "dinner"; "перекус", "полдник", "ланч" = "snack"; иначе "unknown"

Правила для items:
1. Разделяй продукты по запятым, точкам с запятой, "и", "с"
2. Количество после запятой ("Пшеничная каша, 100 грамм") связывай с предыдущим продуктом
3. Продукт без количества: quantity=null, unit=null, grams=null, ml=null, qty_text=null
4. Исправляй ошибки распознавания: "рамм" → "грамм"
5. unit из ["г", "грамм", "грамма", "граммов"] → grams = quantity; unit из ["мл", "миллилитр"] → ml = quantity; unit из ["л", "литр"] → ml = quantity * 1000

Примеры:

Вход: "меню творог 200 грамм"
Выход: {"date": "%[1]s", "meal_type": "unknown", "items": [{"name": "Творог", "quantity": 200, "unit": "грамм", "grams": 200, "ml": null, "qty_text": "200 грамм"}]}

Вход: "завтрак омлет и кофе"
Выход: {"date": "%[1]s", "meal_type": "breakfast", "items": [{"name": "Омлет", "quantity": null, "unit": null, "grams": null, "ml": null, "qty_text": null}, {"name": "Кофе", "quantity": null, "unit": null, "grams": null, "ml": null, "qty_text": null}]}

Вход: "обед борщ 300 грамм и хлеб"
Выход: {"date": "%[1]s", "meal_type": "lunch", "items": [{"name": "Борщ", "quantity": 300, "unit": "грамм", "grams": 300, "ml": null, "qty_text": "300 грамм"}, {"name": "Хлеб", "quantity": null, "unit": null, "grams": null, "ml": null, "qty_text": null}]}

Возвращай ТОЛЬКО JSON, без markdown, без пояснений.`,
		now.Format("2006-01-02"), tz)
}

func russianWeekday(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "понедельник"
	case time.Tuesday:
		return "вторник"
	case time.Wednesday:
		return "среда"
	case time.Thursday:
		return "четверг"
	case time.Friday:
		return "пятница"
	case time.Saturday:
		return "суббота"
	default:
		return "воскресенье"
	}
}
