package plaid

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		ClientID: "client-id",
		Secret:   "secret",
		Products: []string{"auth", "transactions"},
		BaseURL:  srv.URL,
	})
	require.NoError(t, err)
	return c
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestNewClient_UnknownEnv(t *testing.T) {
	_, err := NewClient(Config{Env: "staging"})
	assert.Error(t, err)

	c, err := NewClient(Config{Env: "sandbox"})
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.plaid.com", c.baseURL)
	assert.Equal(t, []string{"US"}, c.countryCodes)
}

func TestCreateLinkToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, linkTokenPath, r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "client-id", body["client_id"])
		assert.Equal(t, "secret", body["secret"])
		assert.Equal(t, "Ada Lovelace", body["client_name"])
		assert.Equal(t, map[string]any{"client_user_id": "user-1"}, body["user"])
		assert.Equal(t, []any{"auth", "transactions"}, body["products"])
		w.Write([]byte(`{"link_token":"link-sandbox-123","expiration":"2024-01-01T00:00:00Z"}`))
	})

	resp, err := c.CreateLinkToken(context.Background(), LinkTokenRequest{ClientUserID: "user-1", ClientName: "Ada Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, "link-sandbox-123", resp.LinkToken)
}

func TestGetAccounts_DecodesBalances(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"accounts":[{"account_id":"acc-1","balances":{"available":null,"current":110.25},"mask":"0000","name":"Plaid Checking","official_name":"Plaid Gold Standard","type":"depository","subtype":"checking"}],
			"item":{"item_id":"item-1","institution_id":"ins_109508"}
		}`))
	})

	resp, err := c.GetAccounts(context.Background(), "access-token")
	require.NoError(t, err)
	require.Len(t, resp.Accounts, 1)

	acc := resp.Accounts[0]
	assert.False(t, acc.Balances.Available.Valid)
	assert.True(t, acc.Balances.Current.Valid)
	assert.True(t, acc.Balances.Current.Decimal.Equal(decimal.RequireFromString("110.25")))
	assert.Equal(t, "ins_109508", resp.Item.InstitutionID)
}

func TestGetAccounts_NoAccounts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"accounts":[],"item":{"item_id":"item-1"}}`))
	})

	_, err := c.GetAccounts(context.Background(), "access-token")
	assert.Error(t, err)
}

func TestPost_TypedError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error_type":"RATE_LIMIT_EXCEEDED","error_code":"RATE_LIMIT_EXCEEDED","error_message":"slow down"}`))
	})

	_, err := c.ExchangePublicToken(context.Background(), "public-token")
	require.Error(t, err)

	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusTooManyRequests, pe.Status)
	assert.Equal(t, CodeRateLimitExceeded, ErrorCode(err))
}

func TestPost_UntypedError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`upstream down`))
	})

	_, err := c.GetInstitution(context.Background(), "ins_1")
	require.Error(t, err)
	assert.Empty(t, ErrorCode(err))
	assert.Contains(t, err.Error(), "502")
}

func TestSyncTransactions_AccumulatesAllPages(t *testing.T) {
	var cursors []any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		cursors = append(cursors, body["cursor"])

		switch body["cursor"] {
		case nil:
			w.Write([]byte(`{"added":[{"transaction_id":"t1","amount":12.5,"date":"2024-03-01","category":["Food","Coffee"]}],"next_cursor":"c1","has_more":true}`))
		case "c1":
			w.Write([]byte(`{"added":[{"transaction_id":"t2","amount":-4,"date":"2024-03-02"}],"next_cursor":"c2","has_more":false}`))
		default:
			t.Errorf("unexpected cursor %v", body["cursor"])
		}
	})

	txs, err := c.SyncTransactions(context.Background(), "access-token")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "t1", txs[0].TransactionID)
	assert.Equal(t, "Food", txs[0].PrimaryCategory())
	assert.Equal(t, "t2", txs[1].TransactionID)
	assert.Equal(t, "", txs[1].PrimaryCategory())
	assert.Equal(t, []any{nil, "c1"}, cursors)
}

func TestSyncTransactions_StuckCursor(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"added":[],"next_cursor":"","has_more":true}`))
	})

	_, err := c.SyncTransactions(context.Background(), "access-token")
	assert.Error(t, err)
}

func TestCreateProcessorToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "dwolla", body["processor"])
		assert.Equal(t, "acc-1", body["account_id"])
		w.Write([]byte(`{"processor_token":"processor-sandbox-1"}`))
	})

	tok, err := c.CreateProcessorToken(context.Background(), "access-token", "acc-1", "dwolla")
	require.NoError(t, err)
	assert.Equal(t, "processor-sandbox-1", tok)
}

func TestTransaction_GetDate(t *testing.T) {
	tx := Transaction{DateString: "2024-03-01"}
	d, err := tx.GetDate()
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())

	tx.DateString = "03/01/2024"
	_, err = tx.GetDate()
	assert.Error(t, err)
}
