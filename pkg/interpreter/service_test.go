package interpreter

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotCoffee418/dsmr_telegram/internal/testutil"
	"github.com/NotCoffee418/dsmr_telegram/pkg/obis"
	"github.com/NotCoffee418/dsmr_telegram/pkg/parser"
	"github.com/NotCoffee418/dsmr_telegram/pkg/specifications"
)

func quietParser() parser.Option {
	logger, _ := test.NewNullLogger()
	return parser.WithLogger(logger)
}

func v5Message(t *testing.T) *TelegramMessage {
	t.Helper()
	raw := testutil.LoadTelegram(t, testutil.TelegramV5)
	telegram, err := parser.New(specifications.V5, quietParser()).Parse(raw)
	require.NoError(t, err)
	msg, err := NewTelegramMessage("V5", telegram, raw, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return msg
}

func TestTelegramMessageRoundTrip(t *testing.T) {
	msg := v5Message(t)

	decoded, err := FromJSONBytes(msg.ToJsonBytes())
	require.NoError(t, err)
	assert.Equal(t, msg.Raw, decoded.Raw)
	assert.Equal(t, "V5", decoded.Specification)
	assert.True(t, msg.ReceivedAt.Equal(decoded.ReceivedAt))
	assert.JSONEq(t, string(msg.Telegram), string(decoded.Telegram))

	telegram, spec, err := decoded.Parse(quietParser())
	require.NoError(t, err)
	assert.Equal(t, "V5", spec.Name)
	assert.True(t, telegram.Has(obis.ElectricityUsedTariff1))
}

func TestFromJSONBytesRejectsGarbage(t *testing.T) {
	_, err := FromJSONBytes([]byte("not json"))
	assert.Error(t, err)
	_, err = FromJSONBytes([]byte(`{"specification":"V5"}`))
	assert.Error(t, err)
}

func TestParseUnknownSpecificationMatches(t *testing.T) {
	msg := v5Message(t)
	msg.Specification = "SOMEONE_ELSES_METER"

	telegram, _, err := msg.Parse(quietParser())
	require.NoError(t, err)
	assert.True(t, telegram.Has(obis.ElectricityUsedTariff1))
}

func TestParseDecryptedTelegram(t *testing.T) {
	msg := &TelegramMessage{
		Specification: "SAGEMCOM_T210_D_R",
		Raw:           testutil.LoadTelegram(t, testutil.TelegramSagemcomT210DR),
	}
	telegram, spec, err := msg.Parse(quietParser())
	require.NoError(t, err)
	assert.True(t, spec.GeneralGlobalCipher)
	assert.Equal(t, 21, telegram.Len())
}

func TestListenerURL(t *testing.T) {
	u := ListenerURL("raspberrypi.local:9039", false)
	assert.Equal(t, "ws://raspberrypi.local:9039/ws", u.String())
	u = ListenerURL("meter.example.com", true)
	assert.Equal(t, "wss://meter.example.com/ws", u.String())
}

func TestHubAndListener(t *testing.T) {
	logger, _ := test.NewNullLogger()
	hub := NewHub(logger)
	initial := v5Message(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, initial.ToJsonBytes())
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *TelegramMessage, 4)
	stopped := make(chan error, 1)
	go func() {
		u := ListenerURL(strings.TrimPrefix(server.URL, "http://"), false)
		stopped <- StartListener(ctx, u, func(msg *TelegramMessage) {
			received <- msg
		}, logger)
	}()

	select {
	case msg := <-received:
		assert.Equal(t, initial.Raw, msg.Raw)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial message")
	}
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 5*time.Second, 10*time.Millisecond)

	second := *initial
	second.Specification = "V5_SECOND"
	hub.Broadcast(second.ToJsonBytes())
	select {
	case msg := <-received:
		assert.Equal(t, "V5_SECOND", msg.Specification)
	case <-time.After(5 * time.Second):
		t.Fatal("no broadcast message")
	}

	cancel()
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestListenerGivesUp(t *testing.T) {
	oldRetries, oldDelay := maxRetries, baseRetryDelay
	maxRetries, baseRetryDelay = 3, time.Millisecond
	t.Cleanup(func() {
		maxRetries, baseRetryDelay = oldRetries, oldDelay
	})

	// A port nobody listens on.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	logger, _ := test.NewNullLogger()
	err = StartListener(context.Background(), ListenerURL(addr, false), func(*TelegramMessage) {
		t.Fatal("nothing to receive")
	}, logger)
	assert.ErrorIs(t, err, ErrGaveUp)
}
