package lifecycle

import (
	"fmt"
	"strings"

	"menus4all-staging-api/internal/models"
)

// ParseCSV parses uploaded menu CSV text: a header row followed by one row
// per line item. Double quotes toggle an in-field mode so quoted cells may
// contain literal commas; the quote characters themselves are dropped. Cells
// are trimmed and short rows pad with empty strings.
func ParseCSV(text string) []map[string]string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	headers := strings.Split(lines[0], ",")
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	items := make([]map[string]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := parseCSVLine(line)
		item := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(values) {
				item[header] = values[i]
			} else {
				item[header] = ""
			}
		}
		items = append(items, item)
	}
	return items
}

// parseCSVLine splits one row on commas, honoring double-quoted cells.
func parseCSVLine(line string) []string {
	var result []string
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			result = append(result, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	result = append(result, strings.TrimSpace(current.String()))
	return result
}

// BuildMenuPayload wraps parsed CSV items and the record's restaurant,
// location and notes fields into the structured menu consumed by publish.
// A record with no CSV yields a payload with no items.
func BuildMenuPayload(rec models.MenuRecord, items []map[string]string, now int64) *models.MenuPayload {
	if items == nil {
		items = []map[string]string{}
	}

	var mapsLink string
	if rec.Latitude != "" && rec.Longitude != "" {
		mapsLink = fmt.Sprintf("https://www.google.com/maps?q=%s,%s", rec.Latitude, rec.Longitude)
	}

	created := rec.CreatedDate
	if created == 0 {
		created = now
	}

	return &models.MenuPayload{
		Restaurant: models.PayloadRestaurant{
			Name:    rec.RestaurantName,
			Address: rec.Address,
			City:    rec.City,
			State:   rec.State,
			Location: models.PayloadLocation{
				Latitude:       rec.Latitude,
				Longitude:      rec.Longitude,
				GoogleMapsLink: mapsLink,
			},
			Phone:            rec.PhoneNumber,
			Hours:            rec.Hours,
			AverageMealPrice: rec.AverageMealPrice,
			HeroImage:        rec.HeroImagePath,
			HeroImageCaption: rec.HeroImageCaption,
			Website:          rec.WebsiteURLs,
			CuisineTypes:     rec.CuisineTypes,
			DietaryOptions:   rec.DietaryOptions,
		},
		Menu: models.PayloadMenu{
			Items:          items,
			Notes:          rec.GeneralMenuNotes,
			Disclaimer:     rec.Disclaimer,
			TechnicalNotes: rec.TechnicalNotes,
			SectionDetails: rec.SectionDetails,
		},
		Metadata: models.PayloadMetadata{
			CreatedDate: created,
			LastUpdated: now,
			RequestedBy: rec.RequestedBy,
			AssignedTo:  rec.AssignedTo,
			Status:      rec.Status,
		},
	}
}
