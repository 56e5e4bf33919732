package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	p := Normalize(Params{})
	require.Equal(t, 1, p.Page)
	require.Equal(t, DefaultPageSize, p.PageSize)

	p = Normalize(Params{Page: -3, PageSize: 10_000})
	require.Equal(t, 1, p.Page)
	require.Equal(t, MaxPageSize, p.PageSize)
}

func TestOffset(t *testing.T) {
	require.Equal(t, 0, Params{Page: 1, PageSize: 25}.Offset())
	require.Equal(t, 50, Params{Page: 3, PageSize: 25}.Offset())
	require.Equal(t, 0, Params{}.Offset())
}

func TestFromQuery(t *testing.T) {
	query := url.Values{}
	query.Set("page", "2")
	query.Set("page_size", "40")

	p := FromQuery(query)
	require.Equal(t, 2, p.Page)
	require.Equal(t, 40, p.PageSize)

	p = FromQuery(url.Values{})
	require.Equal(t, 1, p.Page)
	require.Equal(t, DefaultPageSize, p.PageSize)
}

func TestMetaFor(t *testing.T) {
	meta := MetaFor(Params{Page: 2, PageSize: 25}, 51)
	require.Equal(t, int64(51), meta.TotalRows)
	require.Equal(t, int64(3), meta.TotalPages)

	meta = MetaFor(Params{Page: 1, PageSize: 25}, 50)
	require.Equal(t, int64(2), meta.TotalPages)

	meta = MetaFor(Params{Page: 1, PageSize: 25}, 0)
	require.Equal(t, int64(0), meta.TotalPages)
}
