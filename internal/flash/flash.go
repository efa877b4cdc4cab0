// Package flash carries one-shot user messages across a redirect in a cookie.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CookieName is the cookie holding pending messages.
const CookieName = "apartment_flash"

// Message levels.
const (
	LevelSuccess = "success"
	LevelError   = "error"
)

const (
	pendingKey   = "flash.pending"
	cookieMaxAge = 5 * 60
	maxMessages  = 10
)

// Message is a single user-facing notice.
type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Success queues a success message for the next page view.
func Success(c *gin.Context, text string) {
	Add(c, Message{Level: LevelSuccess, Text: text})
}

// Error queues an error message for the next page view.
func Error(c *gin.Context, text string) {
	Add(c, Message{Level: LevelError, Text: text})
}

// Add queues messages behind any already stored in the request cookie.
func Add(c *gin.Context, messages ...Message) {
	pending := pendingMessages(c)
	for _, msg := range messages {
		msg.Text = strings.TrimSpace(msg.Text)
		if msg.Text == "" {
			continue
		}
		if msg.Level == "" {
			msg.Level = LevelSuccess
		}
		pending = append(pending, msg)
	}
	if len(pending) > maxMessages {
		pending = pending[len(pending)-maxMessages:]
	}
	c.Set(pendingKey, pending)

	value, err := encode(pending)
	if err != nil {
		return
	}
	setCookie(c, value, cookieMaxAge)
}

// Consume returns the stored messages and clears the cookie.
func Consume(c *gin.Context) []Message {
	messages := pendingMessages(c)
	c.Set(pendingKey, []Message(nil))
	if _, err := c.Cookie(CookieName); err == nil {
		setCookie(c, "", -1)
	}
	return messages
}

func pendingMessages(c *gin.Context) []Message {
	if value, ok := c.Get(pendingKey); ok {
		if messages, ok := value.([]Message); ok {
			return append([]Message(nil), messages...)
		}
	}
	raw, err := c.Cookie(CookieName)
	if err != nil || raw == "" {
		return nil
	}
	messages, err := decode(raw)
	if err != nil {
		return nil
	}
	return messages
}

func encode(messages []Message) (string, error) {
	data, err := json.Marshal(messages)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decode(value string) ([]Message, error) {
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, err
	}
	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func setCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Request != nil && c.Request.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
