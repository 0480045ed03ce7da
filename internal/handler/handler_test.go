package handler_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/converse/internal/auth"
	"github.com/sakif/converse/internal/handler"
	sqliteRepo "github.com/sakif/converse/internal/repository/sqlite"
	"github.com/sakif/converse/internal/service"
	"github.com/sakif/converse/internal/storage"
)

// testEnv wires the real stack — chi router, services, in-memory sqlite,
// temp-dir blob store — the same way internal/server does, so handler
// tests exercise exactly the request path production sees.
type testEnv struct {
	router *chi.Mux
	db     *sqliteRepo.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", auth.DefaultTokenTTL)
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(4)

	blobs, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	users := db.Users()
	channels := db.Channels()

	authSvc := service.NewAuthService(users, tokens, passwords, blobs, logger)
	channelSvc := service.NewChannelService(channels, users, logger)
	contactSvc := service.NewContactService(users, logger)

	authHandler := handler.NewAuthHandler(authSvc, tokens.TTL(), logger)
	channelHandler := handler.NewChannelHandler(channelSvc, logger)
	contactHandler := handler.NewContactHandler(contactSvc, logger)

	router := chi.NewRouter()
	router.Post("/signup", authHandler.HandleSignup)
	router.Post("/login", authHandler.HandleLogin)
	router.Post("/logout", authHandler.HandleLogout)
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/user-info", authHandler.HandleUserInfo)
		r.Post("/update-profile", authHandler.HandleUpdateProfile)
		r.Delete("/remove-profile-image", authHandler.HandleRemoveProfileImage)
		r.Post("/channels", channelHandler.HandleCreate)
		r.Get("/channels", channelHandler.HandleList)
		r.Get("/channels/{id}/messages", channelHandler.HandleMessages)
		r.Post("/contacts/search", contactHandler.HandleSearch)
		r.Get("/contacts", contactHandler.HandleAll)
	})

	return &testEnv{router: router, db: db}
}

// do performs a JSON request, optionally with a session cookie.
func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// signup registers a user and returns the session cookie and the user id.
func (e *testEnv) signup(t *testing.T, email, password string) (*http.Cookie, string) {
	t.Helper()

	rr := e.do(t, http.MethodPost, "/signup", map[string]string{
		"email": email, "password": password,
	}, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	cookie := sessionCookie(t, rr)

	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return cookie, resp.User.ID
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestSignupLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/signup", map[string]string{
		"email": "a@x.com", "password": "pw1",
	}, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	cookie := sessionCookie(t, rr)
	assert.True(t, cookie.Secure, "session cookie must be Secure")
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	assert.Positive(t, cookie.MaxAge)

	assert.NotContains(t, rr.Body.String(), "password")

	rr = env.do(t, http.MethodPost, "/login", map[string]string{
		"email": "a@x.com", "password": "pw1",
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		User struct {
			Email        string `json:"email"`
			ProfileSetup bool   `json:"profileSetup"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "a@x.com", resp.User.Email)
	assert.False(t, resp.User.ProfileSetup)
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "a@x.com", "pw1")

	t.Run("wrong password", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/login", map[string]string{
			"email": "a@x.com", "password": "wrong",
		}, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "Password is incorrect")
	})

	t.Run("unknown email", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/login", map[string]string{
			"email": "ghost@x.com", "password": "pw1",
		}, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "User with the given email not found")
	})

	t.Run("missing fields", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/login", map[string]string{}, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSignup_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "a@x.com", "pw1")

	rr := env.do(t, http.MethodPost, "/signup", map[string]string{
		"email": "a@x.com", "password": "pw2",
	}, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestAuthGate(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.signup(t, "a@x.com", "pw1")

	t.Run("no cookie", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/user-info", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "You are not authorized to access this")
	})

	t.Run("invalid token", func(t *testing.T) {
		bad := &http.Cookie{Name: auth.SessionCookie, Value: "garbage"}
		rr := env.do(t, http.MethodGet, "/user-info", nil, bad)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Contains(t, rr.Body.String(), "Token is invalid")
	})

	t.Run("valid session", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/user-info", nil, cookie)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Contains(t, rr.Body.String(), "a@x.com")
		assert.NotContains(t, rr.Body.String(), "password")
	})
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.signup(t, "a@x.com", "pw1")

	t.Run("missing last name", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/update-profile", map[string]any{
			"firstName": "Ada",
		}, cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "First Name, Last Name are required")
	})

	t.Run("success", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/update-profile", map[string]any{
			"firstName": "Ada", "lastName": "Lovelace", "color": 2,
		}, cookie)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var user struct {
			FirstName    string `json:"firstName"`
			ProfileSetup bool   `json:"profileSetup"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))
		assert.Equal(t, "Ada", user.FirstName)
		assert.True(t, user.ProfileSetup)
	})
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/logout", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	cookie := sessionCookie(t, rr)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge, "logout must expire the cookie")
}

func TestChannels(t *testing.T) {
	env := newTestEnv(t)
	adminCookie, _ := env.signup(t, "admin@x.com", "pw1")
	_, memberID := env.signup(t, "member@x.com", "pw1")

	t.Run("ghost member rejected", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/channels", map[string]any{
			"name": "general", "members": []string{memberID, "ghost-id"},
		}, adminCookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Some members are not valid users.")
	})

	var channelID string
	t.Run("create", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/channels", map[string]any{
			"name": "general", "members": []string{memberID},
		}, adminCookie)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var resp struct {
			Channel struct {
				ID string `json:"id"`
			} `json:"channel"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		channelID = resp.Channel.ID
		require.NotEmpty(t, channelID)
	})

	t.Run("visible to admin and member", func(t *testing.T) {
		for _, email := range []string{"admin@x.com", "member@x.com"} {
			rr := env.do(t, http.MethodPost, "/login", map[string]string{
				"email": email, "password": "pw1",
			}, nil)
			require.Equal(t, http.StatusOK, rr.Code)

			rr = env.do(t, http.MethodGet, "/channels", nil, sessionCookie(t, rr))
			require.Equal(t, http.StatusOK, rr.Code)

			var resp struct {
				Channels []struct {
					ID string `json:"id"`
				} `json:"channels"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			require.Len(t, resp.Channels, 1)
			assert.Equal(t, channelID, resp.Channels[0].ID)
		}
	})

	t.Run("messages of missing channel", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/channels/ghost-id/messages", nil, adminCookie)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "Channel not found")
	})

	t.Run("empty history", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/channels/"+channelID+"/messages", nil, adminCookie)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Messages []json.RawMessage `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Empty(t, resp.Messages)
	})
}

func TestContacts(t *testing.T) {
	env := newTestEnv(t)
	cookie, myID := env.signup(t, "me@x.com", "pw1")
	env.signup(t, "other@x.com", "pw1")

	t.Run("list excludes caller", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/contacts", nil, cookie)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Contacts []struct {
				ID    string `json:"id"`
				Email string `json:"email"`
			} `json:"contacts"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Contacts, 1)
		assert.NotEqual(t, myID, resp.Contacts[0].ID)
	})

	t.Run("search", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/contacts/search", map[string]string{
			"searchTerm": "other",
		}, cookie)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "other@x.com")
	})

	t.Run("empty search term", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/contacts/search", map[string]string{}, cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
