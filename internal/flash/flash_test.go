package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(cookies ...*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	ctx.Request = req
	return ctx, recorder
}

func flashCookie(t *testing.T, recorder *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	var found *http.Cookie
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == CookieName {
			found = cookie
		}
	}
	require.NotNil(t, found, "cookie %s not set", CookieName)
	return found
}

func TestAddAndConsumeAcrossRequests(t *testing.T) {
	ctx, recorder := newContext()
	Success(ctx, "Notification marked as read.")
	Error(ctx, "   ")
	Error(ctx, "Second notice")

	cookie := flashCookie(t, recorder)
	require.True(t, cookie.HttpOnly)

	next, nextRecorder := newContext(cookie)
	messages := Consume(next)
	require.Equal(t, []Message{
		{Level: LevelSuccess, Text: "Notification marked as read."},
		{Level: LevelError, Text: "Second notice"},
	}, messages)

	cleared := flashCookie(t, nextRecorder)
	require.Empty(t, cleared.Value)
	require.Negative(t, cleared.MaxAge)

	require.Empty(t, Consume(next))
}

func TestAddAppendsToExistingCookie(t *testing.T) {
	first, recorder := newContext()
	Success(first, "one")

	second, secondRecorder := newContext(flashCookie(t, recorder))
	Error(second, "two")

	third, _ := newContext(flashCookie(t, secondRecorder))
	require.Equal(t, []Message{
		{Level: LevelSuccess, Text: "one"},
		{Level: LevelError, Text: "two"},
	}, Consume(third))
}

func TestConsumeIgnoresMalformedCookie(t *testing.T) {
	ctx, recorder := newContext(&http.Cookie{Name: CookieName, Value: "%%%not-base64"})
	require.Empty(t, Consume(ctx))
	require.Empty(t, flashCookie(t, recorder).Value)
}

func TestConsumeWithoutCookieSetsNothing(t *testing.T) {
	ctx, recorder := newContext()
	require.Empty(t, Consume(ctx))
	require.Empty(t, recorder.Result().Cookies())
}

func TestAddKeepsMostRecentMessages(t *testing.T) {
	ctx, _ := newContext()
	for i := 0; i < maxMessages+3; i++ {
		Add(ctx, Message{Text: string(rune('a' + i))})
	}
	messages := Consume(ctx)
	require.Len(t, messages, maxMessages)
	require.Equal(t, "d", messages[0].Text)
	require.Equal(t, LevelSuccess, messages[0].Level)
}
