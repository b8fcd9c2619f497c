package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"stock-alert-bot/internal/commands"
	"stock-alert-bot/internal/database"
	"stock-alert-bot/internal/price"
	"stock-alert-bot/internal/types"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	chatID    string
	text      string
	parseMode string
}

// fakeAPI answers the Bot API calls the bot makes.
type fakeAPI struct {
	mu       sync.Mutex
	sent     []sentMessage
	failChat string
	delay    time.Duration
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"alerts","username":"alerts_bot"}}`)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if f.delay > 0 {
			time.Sleep(f.delay)
		}
		chatID := r.PostForm.Get("chat_id")
		if chatID == f.failChat {
			fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
			return
		}
		f.mu.Lock()
		f.sent = append(f.sent, sentMessage{chatID: chatID, text: r.PostForm.Get("text"), parseMode: r.PostForm.Get("parse_mode")})
		f.mu.Unlock()
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":%s,"type":"private"}}}`, chatID)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type quotes map[string]float64

func (q quotes) LatestPrice(_ context.Context, symbol string) (price.Observation, error) {
	p, ok := q[symbol]
	if !ok {
		return price.Unavailable(symbol), nil
	}
	return price.Observation{Symbol: symbol, Price: p, Currency: "INR", Available: true}, nil
}

func newTestBot(t *testing.T, api *fakeAPI) (*Bot, *database.Store) {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	store, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	handler := commands.NewHandler(store, quotes{"TCS.NS": 3510.25}, price.NewSymbolResolver(".NS", nil), "₹", time.Second)
	bot, err := NewBot(BotConfig{Token: "test-token", APIEndpoint: server.URL + "/bot%s/%s"}, handler)
	require.NoError(t, err)
	return bot, store
}

func commandUpdate(text string, from *tgbotapi.User) tgbotapi.Update {
	command := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 3,
		Text:      text,
		From:      from,
		Chat:      &tgbotapi.Chat{ID: 42, Type: "private"},
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command)}},
	}}
}

func TestBot_HandleUpdate(t *testing.T) {
	bot, store := newTestBot(t, &fakeAPI{})
	ctx := context.Background()
	alice := &tgbotapi.User{ID: 42, UserName: "alice"}

	reply := bot.HandleUpdate(ctx, commandUpdate("/setalert TCS 3500", alice))
	assert.Contains(t, reply, "Alert set for TCS")

	user, err := store.GetUserByExternalID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.DisplayName)

	alerts, err := store.ListAlerts(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, 3500.0, alerts[0].TargetPrice)

	assert.Contains(t, bot.HandleUpdate(ctx, commandUpdate("/listalerts", alice)), "TCS")
	assert.Contains(t, bot.HandleUpdate(ctx, commandUpdate("/price TCS", alice)), "3,510.25")
	assert.Contains(t, bot.HandleUpdate(ctx, commandUpdate("/removealert TCS", alice)), "Removed alert for TCS")
	assert.Equal(t, bot.commands.Help(), bot.HandleUpdate(ctx, commandUpdate("/unknown", alice)))
}

func TestBot_HandleUpdateWithoutMessage(t *testing.T) {
	bot, store := newTestBot(t, &fakeAPI{})
	ctx := context.Background()

	assert.Empty(t, bot.HandleUpdate(ctx, tgbotapi.Update{UpdateID: 5}))

	_, err := store.GetUserByExternalID(ctx, 42)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestBot_HandleUpdateWithoutSender(t *testing.T) {
	bot, store := newTestBot(t, &fakeAPI{})
	ctx := context.Background()

	bot.HandleUpdate(ctx, commandUpdate("/start", nil))

	user, err := store.GetUserByExternalID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ExternalID)
}

func TestNotifier_Send(t *testing.T) {
	api := &fakeAPI{}
	bot, _ := newTestBot(t, api)

	err := NewNotifier(bot).Send(context.Background(), 42, "TCS hit ₹3510.25 (target: ₹3500.0)")
	require.NoError(t, err)

	sent := api.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "42", sent[0].chatID)
	assert.Equal(t, `TCS hit ₹3510\.25 \(target: ₹3500\.0\)`, sent[0].text)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, sent[0].parseMode)
}

func TestNotifier_SendFailure(t *testing.T) {
	api := &fakeAPI{failChat: "13"}
	bot, _ := newTestBot(t, api)

	err := NewNotifier(bot).Send(context.Background(), 13, "TCS hit ₹3510.25 (target: ₹3500.0)")
	assert.ErrorIs(t, err, types.ErrDeliveryFailure)
	assert.Empty(t, api.messages())
}

func TestNotifier_SendTimeout(t *testing.T) {
	api := &fakeAPI{delay: 200 * time.Millisecond}
	bot, _ := newTestBot(t, api)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := NewNotifier(bot).Send(ctx, 42, "late")
	assert.ErrorIs(t, err, types.ErrDeliveryFailure)
}
