package sanity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2021-10-21/data/query/production", r.URL.Path)
		assert.Equal(t, `*[_type == "kit" && _id == $id][0]{name}`, r.URL.Query().Get("query"))
		assert.Equal(t, `"kit-1"`, r.URL.Query().Get("$id"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"ms":3,"query":"...","result":{"name":"Zoom H6"}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{ProjectID: "p", Dataset: "production", Token: "secret", BaseURL: srv.URL})
	var out struct {
		Name string `json:"name"`
	}
	err := c.Query(context.Background(), `*[_type == "kit" && _id == $id][0]{name}`, map[string]any{"id": "kit-1"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "Zoom H6", out.Name)
}

func TestQueryNullResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":null}`))
	}))
	defer srv.Close()

	c := NewClient(Options{Dataset: "d", BaseURL: srv.URL})
	var out *struct{ Name string }
	require.NoError(t, c.Query(context.Background(), "*[0]", nil, &out))
	assert.Nil(t, out)
}

func TestQueryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"queryParseError","description":"unexpected token"}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{Dataset: "d", BaseURL: srv.URL})
	err := c.Query(context.Background(), "*[", nil, &struct{}{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "unexpected token", apiErr.Description)
}

func TestCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2021-10-21/data/mutate/production", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("returnIds"))

		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Mutations []struct {
				Create map[string]any `json:"create"`
			} `json:"mutations"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		require.Len(t, payload.Mutations, 1)
		assert.Equal(t, "reservation", payload.Mutations[0].Create["_type"])

		w.Write([]byte(`{"transactionId":"tx","results":[{"id":"res-1","operation":"create"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Options{ProjectID: "p", Dataset: "production", BaseURL: srv.URL})
	id, err := c.Create(context.Background(), map[string]any{"_type": "reservation"})
	require.NoError(t, err)
	assert.Equal(t, "res-1", id)
}

func TestEndpoints(t *testing.T) {
	c := NewClient(Options{ProjectID: "abc", Dataset: "production", UseCDN: true})
	assert.Equal(t, "https://abc.apicdn.sanity.io/v2021-10-21/data/query/production", c.endpoint(true, "query"))
	assert.Equal(t, "https://abc.api.sanity.io/v2021-10-21/data/mutate/production", c.endpoint(false, "mutate"))
}

func TestImageURL(t *testing.T) {
	c := NewClient(Options{ProjectID: "abc", Dataset: "production"})
	img := Image{Asset: Reference{Ref: "image-Tb9Ew8CXIwaY6R1kjMvI0uRR-2000x3000-jpg"}}
	assert.Equal(t, "https://cdn.sanity.io/images/abc/production/Tb9Ew8CXIwaY6R1kjMvI0uRR-2000x3000.jpg", c.ImageURL(img))
	assert.Equal(t, "", c.ImageURL(Image{Asset: Reference{Ref: "file-x-pdf"}}))
}

func TestPortableText(t *testing.T) {
	raw := `[
		{"_type":"block","_key":"a","style":"normal","children":[{"_type":"span","text":"Charge "},{"_type":"span","text":"batteries"}]},
		{"_type":"image","asset":{"_ref":"image-x-1x1-png"}},
		{"_type":"block","_key":"b","children":[{"_type":"span","text":"Return clean"}]}
	]`
	var blocks []Block
	require.NoError(t, json.Unmarshal([]byte(raw), &blocks))
	assert.Equal(t, "Charge batteries\nReturn clean", PlainText(blocks))

	out, err := json.Marshal(blocks[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"_type":"image","asset":{"_ref":"image-x-1x1-png"}}`, string(out))
}
