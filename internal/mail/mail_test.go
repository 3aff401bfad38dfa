package mail

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkey1/kitlend/internal/lending"
)

var reservation = lending.Reservation{
	KitID:     "k1",
	KitName:   "Mic",
	Name:      "Ada",
	Email:     "ada@example.com",
	Wechat:    "ada_w",
	Project:   "Thesis",
	Usage:     "Interviews",
	StartDate: "2024-08-01",
	EndDate:   "2024-08-03",
}

type sentMail struct {
	From struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"from"`
	TemplateID       string `json:"template_id"`
	Personalizations []struct {
		To []struct {
			Email string `json:"email"`
		} `json:"to"`
		DynamicTemplateData map[string]string `json:"dynamic_template_data"`
	} `json:"personalizations"`
}

func TestNotify(t *testing.T) {
	var got sentMail
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, sendEndpoint, r.URL.Path)
		assert.Equal(t, "Bearer SG.key", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := New(Options{APIKey: "SG.key", FromEmail: "lab@example.com", FromName: "Lab", TemplateID: "d-123", Host: srv.URL})
	require.NoError(t, m.Notify(context.Background(), reservation, "res-1"))

	assert.Equal(t, "lab@example.com", got.From.Email)
	assert.Equal(t, "Lab", got.From.Name)
	assert.Equal(t, "d-123", got.TemplateID)
	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "ada@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, map[string]string{
		"_id":       "res-1",
		"kitName":   "Mic",
		"name":      "Ada",
		"email":     "ada@example.com",
		"wechat":    "ada_w",
		"startDate": "2024-08-01",
		"endDate":   "2024-08-03",
		"project":   "Thesis",
		"usage":     "Interviews",
	}, got.Personalizations[0].DynamicTemplateData)
}

func TestNotifyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"errors":[{"message":"bad key"}]}`)
	}))
	defer srv.Close()

	m := New(Options{APIKey: "bad", Host: srv.URL})
	err := m.Notify(context.Background(), reservation, "res-1")
	require.Error(t, err)

	var restErr *rest.RestError
	require.ErrorAs(t, err, &restErr)
	assert.Equal(t, http.StatusUnauthorized, restErr.Response.StatusCode)
	assert.Contains(t, err.Error(), "bad key")
}
