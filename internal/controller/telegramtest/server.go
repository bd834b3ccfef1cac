// Package telegramtest поднимает поддельный Bot API для тестов обработчиков.
package telegramtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
)

// Call - один запрос к Bot API
type Call struct {
	Method string
	Params map[string]string
}

// ChatID возвращает chat_id запроса
func (c Call) ChatID() int64 {
	id, _ := strconv.ParseInt(c.Params["chat_id"], 10, 64)
	return id
}

// Text возвращает текст сообщения
func (c Call) Text() string {
	return c.Params["text"]
}

// Markup разбирает inline-клавиатуру запроса. Пустая клавиатура - nil.
func (c Call) Markup() *models.InlineKeyboardMarkup {
	raw := c.Params["reply_markup"]
	if raw == "" || raw == "null" {
		return nil
	}
	var markup models.InlineKeyboardMarkup
	if err := json.Unmarshal([]byte(raw), &markup); err != nil || markup.InlineKeyboard == nil {
		return nil
	}
	return &markup
}

// CallbackData собирает callback_data всех кнопок по порядку
func (c Call) CallbackData() []string {
	markup := c.Markup()
	if markup == nil {
		return nil
	}
	var data []string
	for _, row := range markup.InlineKeyboard {
		for _, button := range row {
			data = append(data, button.CallbackData)
		}
	}
	return data
}

// boolMethods отвечают true вместо сообщения
var boolMethods = map[string]bool{
	"answerCallbackQuery": true,
	"setMyCommands":       true,
	"setWebhook":          true,
	"deleteWebhook":       true,
	"deleteMessage":       true,
}

// Server записывает все запросы и отвечает успехом
type Server struct {
	srv *httptest.Server

	mu     sync.Mutex
	calls  []Call
	nextID int
}

func NewServer(t testing.TB) *Server {
	s := &Server{nextID: 1}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.srv.Close)
	return s
}

// Bot создаёт клиента, направленного на этот сервер
func (s *Server) Bot(t testing.TB, opts ...bot.Option) *bot.Bot {
	opts = append([]bot.Option{bot.WithSkipGetMe(), bot.WithServerURL(s.srv.URL)}, opts...)
	b, err := bot.New("test-token", opts...)
	require.NoError(t, err)
	return b
}

// Calls возвращает копию всех запросов
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Find возвращает запросы указанного метода
func (s *Server) Find(method string) []Call {
	var found []Call
	for _, c := range s.Calls() {
		if c.Method == method {
			found = append(found, c)
		}
	}
	return found
}

// Messages возвращает отправленные сообщения в чат
func (s *Server) Messages(chatID int64) []Call {
	var found []Call
	for _, c := range s.Find("sendMessage") {
		if c.ChatID() == chatID {
			found = append(found, c)
		}
	}
	return found
}

// Last возвращает последний запрос метода
func (s *Server) Last(t testing.TB, method string) Call {
	calls := s.Find(method)
	require.NotEmpty(t, calls, "no %s calls", method)
	return calls[len(calls)-1]
}

func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	call := Call{Method: path.Base(r.URL.Path), Params: map[string]string{}}

	if r.Header.Get("Content-Type") == "application/json" {
		var body map[string]json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&body)
		for k, v := range body {
			var str string
			if json.Unmarshal(v, &str) == nil {
				call.Params[k] = str
			} else {
				call.Params[k] = string(v)
			}
		}
	} else {
		// multipart: значения попадают в r.Form вместе с query
		_ = r.ParseMultipartForm(1 << 20)
		for k, v := range r.Form {
			if len(v) > 0 {
				call.Params[k] = v[0]
			}
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	id := s.nextID
	s.nextID++
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if boolMethods[call.Method] {
		_, _ = fmt.Fprint(w, `{"ok":true,"result":true}`)
		return
	}
	_, _ = fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%d,"date":0,"chat":{"id":%d,"type":"private"}}}`,
		id, call.ChatID())
}
