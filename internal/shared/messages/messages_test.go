package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_OverridesAndDefaults(t *testing.T) {
	m, err := Parse([]byte(`{"transfer_sent":{"title":"Sent","body":"{amount} to {name}"}}`))
	require.NoError(t, err)

	assert.Equal(t, "Sent", m.TransferSent.Title)
	assert.Equal(t, Defaults().BankLinked, m.BankLinked)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`{`))
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	got := Defaults().TransferReceived.Render(map[string]string{
		"name":   "Ada",
		"amount": "12.50",
	})
	assert.Equal(t, "Money received", got.Title)
	assert.Equal(t, "Ada sent you $12.50.", got.Body)
}

func TestRender_NoVars(t *testing.T) {
	m := MessageText{Title: "{x}", Body: "b"}
	assert.Equal(t, m, m.Render(nil))
}
