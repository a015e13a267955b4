package botapi_test

import (
	"encoding/json"
	"testing"

	"fulfillment/internal/adapters/out/botapi"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeUpdate(t *testing.T, raw string) models.Update {
	t.Helper()
	var update models.Update
	require.NoError(t, json.Unmarshal([]byte(raw), &update))
	return update
}

func TestCallbackFromUpdate(t *testing.T) {
	update := decodeUpdate(t, `{
		"update_id": 10,
		"callback_query": {
			"id": "cb-1",
			"from": {"id": 501, "is_bot": false, "first_name": "Alice", "username": "alice"},
			"message": {"message_id": 77, "date": 1760431800, "chat": {"id": -1001, "type": "supergroup"}},
			"chat_instance": "42",
			"data": "accepted:O-1"
		}
	}`)

	cb, ok := botapi.CallbackFromUpdate(update)

	require.True(t, ok)
	assert.Equal(t, botapi.Callback{ID: "cb-1", MessageRef: "-1001:77", Data: "accepted:O-1", Operator: "alice"}, cb)
}

func TestCallbackFromUpdate_OperatorWithoutUsername(t *testing.T) {
	update := decodeUpdate(t, `{
		"update_id": 11,
		"callback_query": {"id": "cb-2", "from": {"id": 501, "first_name": "Bob"}, "data": "cancelled:O-1"}
	}`)

	cb, ok := botapi.CallbackFromUpdate(update)

	require.True(t, ok)
	assert.Equal(t, "501", cb.Operator)
	assert.Empty(t, cb.MessageRef)
}

func TestCallbackFromUpdate_IgnoresOtherUpdates(t *testing.T) {
	update := decodeUpdate(t, `{
		"update_id": 12,
		"message": {"message_id": 3, "date": 1760431800, "chat": {"id": 4242, "type": "private"}, "text": "hi"}
	}`)

	_, ok := botapi.CallbackFromUpdate(update)

	assert.False(t, ok)
}
