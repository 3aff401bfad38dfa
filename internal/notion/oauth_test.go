package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAuthURL(t *testing.T) {
	client := NewOAuthClient(&OAuthConfig{ClientID: "cid", RedirectURI: "http://localhost:8080/callback"})

	u, err := url.Parse(client.GetAuthURL("xyz"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "user", q.Get("owner"))
	assert.Equal(t, "xyz", q.Get("state"))
	assert.Equal(t, "http://localhost:8080/callback", q.Get("redirect_uri"))
}

func TestExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "cid", user)
		assert.Equal(t, "csecret", pass)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "authorization_code", body["grant_type"])
		assert.Equal(t, "the-code", body["code"])

		_, _ = w.Write([]byte(`{"access_token":"secret_x","token_type":"bearer","workspace_name":"Studio","duplicated_template_id":"root-page"}`))
	}))
	defer srv.Close()

	client := NewOAuthClient(&OAuthConfig{ClientID: "cid", ClientSecret: "csecret", TokenURL: srv.URL})
	token, err := client.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "secret_x", token.AccessToken)
	assert.Equal(t, "Studio", token.WorkspaceName)
	assert.Equal(t, "root-page", token.DuplicatedTemplateID)
}

func TestExchangeCodeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","message":"Invalid code."}`))
	}))
	defer srv.Close()

	client := NewOAuthClient(&OAuthConfig{ClientID: "cid", TokenURL: srv.URL})
	_, err := client.ExchangeCode(context.Background(), "bad")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestCallbackServer(t *testing.T) {
	server, err := NewCallbackServer(0)
	require.NoError(t, err)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/callback?code=abc&state=s1", server.Port()))
		if err == nil {
			resp.Body.Close()
		}
	}()

	code, err := server.Wait(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "abc", code)
}

func TestReadCallback(t *testing.T) {
	tests := []struct {
		query   string
		code    string
		wantErr string
	}{
		{"code=abc&state=s1", "abc", ""},
		{"code=abc&state=other", "", "state mismatch"},
		{"error=access_denied&state=s1", "", "OAuth error: access_denied"},
		{"state=s1", "", "no authorization code received"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/callback?"+tt.query, nil)
			code, err := readCallback(r, "s1")
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.code, code)
		})
	}
}
