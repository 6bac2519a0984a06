package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBotToken = "test-bot-token"
	testUserJSON = `{"id":42,"first_name":"Flip","last_name":"Coin","username":"flipper","language_code":"en","photo_url":"https://t.me/i/42.jpg"}`
)

// signInitData signs launch parameters the way Telegram does
func signInitData(botToken string, authDate time.Time, startParam string) string {
	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	values.Set("user", testUserJSON)
	if startParam != "" {
		values.Set("start_param", startParam)
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+values.Get(key))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

func authHeader(startParam string) string {
	return "tma " + signInitData(testBotToken, time.Now(), startParam)
}

func TestAuthenticate(t *testing.T) {
	t.Run("valid launch data", func(t *testing.T) {
		identity, err := authenticate(authHeader("ref_code"), testBotToken, time.Hour)
		require.NoError(t, err)

		assert.Equal(t, "42", identity.ProfileID())
		assert.Equal(t, "flipper", identity.User.Username)
		assert.Equal(t, "Flip", identity.User.FirstName)
		assert.Equal(t, "https://t.me/i/42.jpg", identity.User.PhotoURL)
		assert.Equal(t, "ref_code", identity.StartParam)
	})

	t.Run("signed with another token", func(t *testing.T) {
		header := "tma " + signInitData("other-token", time.Now(), "")
		_, err := authenticate(header, testBotToken, time.Hour)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		header := "tma " + signInitData(testBotToken, time.Now().Add(-2*time.Hour), "")
		_, err := authenticate(header, testBotToken, time.Hour)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		_, err := authenticate("Bearer abc", testBotToken, time.Hour)
		assert.ErrorIs(t, err, ErrUnauthorized)

		_, err = authenticate("", testBotToken, time.Hour)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("tampered payload", func(t *testing.T) {
		header := strings.Replace(authHeader(""), "flipper", "hacker", 1)
		_, err := authenticate(header, testBotToken, time.Hour)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}
