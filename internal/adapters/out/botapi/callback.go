package botapi

import (
	"strconv"

	"github.com/go-telegram/bot/models"
)

// Callback is an inline button tap carried by a webhook update.
type Callback struct {
	ID         string
	MessageRef string
	Data       string
	Operator   string
}

// CallbackFromUpdate extracts the button tap of update. ok is false for every other
// kind of update. MessageRef is empty when the card is no longer accessible.
func CallbackFromUpdate(update models.Update) (cb Callback, ok bool) {
	q := update.CallbackQuery
	if q == nil {
		return Callback{}, false
	}

	cb = Callback{ID: q.ID, Data: q.Data, Operator: q.From.Username}
	if cb.Operator == "" && q.From.ID != 0 {
		cb.Operator = strconv.FormatInt(q.From.ID, 10)
	}
	if m := q.Message.Message; m != nil {
		cb.MessageRef = FormatMessageRef(strconv.FormatInt(m.Chat.ID, 10), int64(m.ID))
	}
	return cb, true
}
