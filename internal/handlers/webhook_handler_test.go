package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebhookEvent(t *testing.T) {
	t.Run("flat payload", func(t *testing.T) {
		ev, err := parseWebhookEvent([]byte(`{"status":"successful","tx_ref":"subscription_u1_1000","transaction_id":4567,"amount":9.99,"currency":"USD"}`))
		require.NoError(t, err)
		assert.Equal(t, "successful", ev.Status)
		assert.Equal(t, "subscription_u1_1000", ev.TxRef)
		assert.Equal(t, "4567", ev.TransactionID)
		assert.Equal(t, 9.99, ev.Amount)
		assert.Equal(t, "USD", ev.Currency)
	})

	t.Run("envelope payload", func(t *testing.T) {
		ev, err := parseWebhookEvent([]byte(`{"event":"charge.completed","data":{"id":"285959875","tx_ref":"subscription_u1_1000","amount":"9.99","currency":"USD","status":"Successful"}}`))
		require.NoError(t, err)
		assert.Equal(t, "successful", ev.Status)
		assert.Equal(t, "subscription_u1_1000", ev.TxRef)
		assert.Equal(t, "285959875", ev.TransactionID)
		assert.Equal(t, 9.99, ev.Amount)
	})

	t.Run("missing fields are tolerated", func(t *testing.T) {
		ev, err := parseWebhookEvent([]byte(`{}`))
		require.NoError(t, err)
		assert.Empty(t, ev.Status)
		assert.Empty(t, ev.TxRef)
	})

	for _, body := range []string{``, `not json`, `[1,2]`, `"text"`, `{"status":`} {
		_, err := parseWebhookEvent([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestMetadataText(t *testing.T) {
	assert.Nil(t, metadataText(nil))
	assert.Nil(t, metadataText([]byte(`null`)))
	assert.Equal(t, "first visit", *metadataText([]byte(`"first visit"`)))
	assert.Equal(t, `{"weeks":20,"notes":["a"]}`, *metadataText([]byte(`{ "weeks": 20, "notes": ["a"] }`)))
}
