package web

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-navigator/internal/model"
	"github.com/iliyamo/campus-navigator/internal/service"
)

func TestRenderMap(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	id := uint64(12)
	require.NoError(t, r.Render(&buf, MapPage, service.MapView{CenterLat: 55.75, CenterLng: 37.61, SelectedPoiID: &id}, nil))
	assert.Contains(t, buf.String(), `data-center-lat="55.75"`)
	assert.Contains(t, buf.String(), `data-center-lng="37.61"`)
	assert.Contains(t, buf.String(), `data-selected-poi-id="12"`)

	buf.Reset()
	require.NoError(t, r.Render(&buf, MapPage, service.MapView{CenterLat: 1, CenterLng: 2}, nil))
	assert.Contains(t, buf.String(), `data-selected-poi-id=""`)
}

func TestRenderSearchEscapes(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	res := service.SearchResult{
		Query:     "<b>",
		Buildings: []model.Building{{ID: 3}},
		Rooms:     []model.Room{{Number: "101", BuildingCode: "A"}},
		Pois:      []model.Poi{{ID: 5, Title: "Canteen", Type: "canteen"}},
	}
	require.NoError(t, r.Render(&buf, SearchPage, res, nil))
	out := buf.String()
	assert.NotContains(t, out, "<b>")
	assert.Contains(t, out, "&lt;b&gt;")
	assert.Contains(t, out, "Building #3")
	assert.Contains(t, out, "A – 101")
	assert.Contains(t, out, `href="/?poi_id=5"`)
}
