package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menus4all-staging-api/internal/models"
)

func TestParseCSVQuotedComma(t *testing.T) {
	items := ParseCSV("name,price\n\"Soup, of the day\",5.00\nBread,2")

	require.Len(t, items, 2)
	assert.Equal(t, map[string]string{"name": "Soup, of the day", "price": "5.00"}, items[0])
	assert.Equal(t, map[string]string{"name": "Bread", "price": "2"}, items[1])
}

func TestParseCSVShortRowsPad(t *testing.T) {
	items := ParseCSV("name,price,notes\nBread,2")

	require.Len(t, items, 1)
	assert.Equal(t, map[string]string{"name": "Bread", "price": "2", "notes": ""}, items[0])
}

func TestParseCSVTrimsAndSkipsBlankLines(t *testing.T) {
	items := ParseCSV(" name , price \n\n  Soup ,  4.50  \n\n")

	require.Len(t, items, 1)
	assert.Equal(t, map[string]string{"name": "Soup", "price": "4.50"}, items[0])
}

func TestParseCSVEmptyInput(t *testing.T) {
	assert.Nil(t, ParseCSV(""))
	assert.Nil(t, ParseCSV("  \n \n"))
	// A lone header yields no items.
	assert.Empty(t, ParseCSV("name,price"))
}

func TestBuildMenuPayload(t *testing.T) {
	rec := models.MenuRecord{
		RestaurantName:   "The Green Table",
		City:             "Portland",
		State:            "Oregon",
		Latitude:         "45.52",
		Longitude:        "-122.68",
		GeneralMenuNotes: []string{"All items gluten free on request"},
		CreatedDate:      1000,
		Status:           models.StatusDraft,
	}
	items := []map[string]string{{"name": "Soup", "price": "4.50"}}

	payload := BuildMenuPayload(rec, items, 2000)
	require.NotNil(t, payload)

	assert.Equal(t, "The Green Table", payload.Restaurant.Name)
	assert.Equal(t, "https://www.google.com/maps?q=45.52,-122.68", payload.Restaurant.Location.GoogleMapsLink)
	assert.Equal(t, items, payload.Menu.Items)
	assert.Equal(t, []string{"All items gluten free on request"}, payload.Menu.Notes)
	assert.Equal(t, int64(1000), payload.Metadata.CreatedDate)
	assert.Equal(t, int64(2000), payload.Metadata.LastUpdated)
	assert.Equal(t, models.StatusDraft, payload.Metadata.Status)
}

func TestBuildMenuPayloadDefaults(t *testing.T) {
	payload := BuildMenuPayload(models.MenuRecord{RestaurantName: "New Place"}, nil, 5000)

	require.NotNil(t, payload)
	assert.NotNil(t, payload.Menu.Items, "no CSV still yields an items array")
	assert.Empty(t, payload.Menu.Items)
	assert.Empty(t, payload.Restaurant.Location.GoogleMapsLink, "no coordinates, no maps link")
	assert.Equal(t, int64(5000), payload.Metadata.CreatedDate, "missing createdDate falls back to now")
}
