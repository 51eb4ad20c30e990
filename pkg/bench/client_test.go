package bench

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("", time.Second)
	assert.Error(t, err)

	_, err = NewClient("ftp://example.com", time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheme")

	client, err := NewClient("http://example.com/", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", client.baseURL)
}

func TestClient_ListOffset(t *testing.T) {
	srv := newBenchServer(t)
	client := newBenchClient(t, srv)

	page, err := client.ListOffset(context.Background(), "records", 2,
		url.Values{"limit": {"10"}, "sort": {"seq:asc"}, "withTotal": {"true"}})
	require.NoError(t, err)

	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, 5, page.TotalPages)
	require.NotNil(t, page.TotalCount)
	assert.Equal(t, 45, *page.TotalCount)
	assert.True(t, page.HasNext)
	assert.True(t, page.HasPrevious)
	require.Len(t, page.Items, 10)
	assert.Equal(t, float64(11), page.Items[0]["seq"])
}

func TestClient_ListForward(t *testing.T) {
	srv := newBenchServer(t)
	client := newBenchClient(t, srv)

	first, err := client.ListForward(context.Background(), "records", "",
		url.Values{"limit": {"40"}, "sort": {"seq:asc"}})
	require.NoError(t, err)
	require.Len(t, first.Edges, 40)
	require.True(t, first.PageInfo.HasNextPage)
	require.NotNil(t, first.PageInfo.EndCursor)

	rest, err := client.ListForward(context.Background(), "records", *first.PageInfo.EndCursor,
		url.Values{"limit": {"40"}, "sort": {"seq:asc"}})
	require.NoError(t, err)
	assert.Len(t, rest.Edges, 5)
	assert.False(t, rest.PageInfo.HasNextPage)
	assert.Equal(t, float64(41), rest.Edges[0].Node["seq"])
}

func TestClient_Search(t *testing.T) {
	srv := newBenchServer(t)
	client := newBenchClient(t, srv)

	ranked, err := client.Search(context.Background(), "users", "ada", 10)
	require.NoError(t, err)
	require.NotEmpty(t, ranked.Hits)
	assert.Equal(t, "Ada Lovelace", ranked.Hits[0].Node["name"])
}

func TestClient_HTTPError(t *testing.T) {
	srv := newBenchServer(t)
	client := newBenchClient(t, srv)

	_, err := client.ListForward(context.Background(), "ghosts", "", nil)
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "NOT_FOUND")
}

func TestClient_DoesNotMutateParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)

	params := url.Values{"limit": {"5"}}
	_, err = client.ListOffset(context.Background(), "records", 3, params)
	require.NoError(t, err)

	assert.Equal(t, url.Values{"limit": {"5"}}, params)
}
