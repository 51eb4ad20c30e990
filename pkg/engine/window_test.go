package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirelab/quire/pkg/cursor"
)

func TestWindow_OffsetPage(t *testing.T) {
	eng := New(testSchema(), Options{})
	records := testRecords(30)

	w, err := eng.Paginate(context.Background(), records, nil, byID(), OffsetRequest(2, 10).WithTotalCount())
	require.NoError(t, err)

	page := w.OffsetPage()
	assert.Equal(t, idRange(11, 20), recordIDs(page.Items))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, 3, page.TotalPages)
	require.NotNil(t, page.TotalCount)
	assert.Equal(t, 30, *page.TotalCount)
	assert.True(t, page.HasNext)
	assert.True(t, page.HasPrevious)
}

func TestWindow_OffsetPage_EmptyItemsNotNull(t *testing.T) {
	eng := New(testSchema(), Options{})

	w, err := eng.Paginate(context.Background(), nil, nil, byID(), OffsetRequest(1, 10))
	require.NoError(t, err)

	raw, err := json.Marshal(w.OffsetPage())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"items":[]`)
	assert.NotContains(t, string(raw), `"totalCount"`)
}

func TestWindow_Connection_EdgeCursorsResume(t *testing.T) {
	eng := New(testSchema(), Options{})
	records := testRecords(30)

	w, err := eng.Paginate(context.Background(), records, nil, byID(), ForwardRequest("", 10))
	require.NoError(t, err)
	conn, err := w.Connection()
	require.NoError(t, err)
	require.Len(t, conn.Edges, 10)

	assert.Equal(t, *conn.PageInfo.StartCursor, conn.Edges[0].Cursor)
	assert.Equal(t, *conn.PageInfo.EndCursor, conn.Edges[9].Cursor)
	assert.True(t, conn.PageInfo.HasNextPage)
	assert.False(t, conn.PageInfo.HasPreviousPage)

	// Any interior edge works as a resume point, not only the last one.
	mid, err := eng.Paginate(context.Background(), records, nil, byID(), ForwardRequest(conn.Edges[4].Cursor, 10))
	require.NoError(t, err)
	assert.Equal(t, idRange(6, 15), recordIDs(mid.Records))
}

func TestWindow_Connection_CursorKeysDecodable(t *testing.T) {
	eng := New(testSchema(), Options{})
	records := testRecords(5)

	w, err := eng.Paginate(context.Background(), records, nil, byID(), ForwardRequest("", 5).WithTotalCount())
	require.NoError(t, err)
	conn, err := w.Connection()
	require.NoError(t, err)

	for i, edge := range conn.Edges {
		dec, err := cursor.Decode(edge.Cursor)
		require.NoError(t, err)
		require.Len(t, dec.Key, 1)
		assert.Equal(t, edge.Node.GetID(), dec.Key[0], "edge %d", i)
	}
	require.NotNil(t, conn.TotalCount)
	assert.Equal(t, 5, *conn.TotalCount)
}

func TestWindow_Connection_EmptyOmitsCursors(t *testing.T) {
	eng := New(testSchema(), Options{})

	w, err := eng.Paginate(context.Background(), nil, nil, byID(), ForwardRequest("", 10))
	require.NoError(t, err)
	conn, err := w.Connection()
	require.NoError(t, err)

	raw, err := json.Marshal(conn)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "startCursor")
	assert.NotContains(t, string(raw), "endCursor")
	assert.Contains(t, string(raw), `"edges":[]`)
}
