package models

// Menu workflow statuses. A staging record is always in exactly one of these.
const (
	StatusDraft          = "draft"
	StatusReadyForReview = "ready-for-review"
	StatusApproved       = "approved"
	StatusLive           = "live"
	StatusNeedsUpdate    = "needs-update"
)

// ValidStatus reports whether s is one of the workflow statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusReadyForReview, StatusApproved, StatusLive, StatusNeedsUpdate:
		return true
	}
	return false
}

// MenuRecord is one restaurant menu draft in the staging database.
// Timestamps are epoch milliseconds to match the data the dashboard renders.
type MenuRecord struct {
	ID             string `bson:"_id,omitempty" json:"id,omitempty"`
	RestaurantName string `bson:"restaurantName,omitempty" json:"restaurantName,omitempty"`
	Address        string `bson:"address,omitempty" json:"address,omitempty"`
	City           string `bson:"city,omitempty" json:"city,omitempty"`
	State          string `bson:"state,omitempty" json:"state,omitempty"`
	Latitude       string `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude      string `bson:"longitude,omitempty" json:"longitude,omitempty"`
	PhoneNumber    string `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Hours          string `bson:"hours,omitempty" json:"hours,omitempty"`

	AverageMealPrice string `bson:"averageMealPrice,omitempty" json:"averageMealPrice,omitempty"`
	MenuType         string `bson:"menuType,omitempty" json:"menuType,omitempty"`

	HeroImagePath    string `bson:"heroImagePath,omitempty" json:"heroImagePath,omitempty"`
	HeroImageURL     string `bson:"heroImageURL,omitempty" json:"heroImageURL,omitempty"`
	HeroImageCaption string `bson:"heroImageCaption,omitempty" json:"heroImageCaption,omitempty"`
	WebsiteURLs      string `bson:"websiteURLs,omitempty" json:"websiteURLs,omitempty"`

	CuisineTypes     []string `bson:"cuisineTypes,omitempty" json:"cuisineTypes,omitempty"`
	CuisineOther     string   `bson:"cuisineOther,omitempty" json:"cuisineOther,omitempty"`
	DietaryOptions   []string `bson:"dietaryOptions,omitempty" json:"dietaryOptions,omitempty"`
	GeneralMenuNotes []string `bson:"generalMenuNotes,omitempty" json:"generalMenuNotes,omitempty"`

	MenuNotesAdditional string `bson:"menuNotesAdditional,omitempty" json:"menuNotesAdditional,omitempty"`
	Disclaimer          string `bson:"disclaimer,omitempty" json:"disclaimer,omitempty"`
	TechnicalNotes      string `bson:"technicalNotes,omitempty" json:"technicalNotes,omitempty"`
	SectionDetails      string `bson:"sectionDetails,omitempty" json:"sectionDetails,omitempty"`

	// Raw uploaded CSV and the structured menu derived from it.
	CSVData  string       `bson:"csvData,omitempty" json:"csvData,omitempty"`
	MenuJSON *MenuPayload `bson:"menuJson,omitempty" json:"menuJson,omitempty"`

	Status      string `bson:"status,omitempty" json:"status,omitempty"`
	ReviewNotes string `bson:"reviewNotes,omitempty" json:"reviewNotes,omitempty"`
	AssignedTo  string `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	RequestedBy string `bson:"requestedBy,omitempty" json:"requestedBy,omitempty"`

	CreatedDate   int64 `bson:"createdDate,omitempty" json:"createdDate,omitempty"`
	LastUpdated   int64 `bson:"lastUpdated,omitempty" json:"lastUpdated,omitempty"`
	LiveDate      int64 `bson:"liveDate,omitempty" json:"liveDate,omitempty"`
	NextUpdateDue int64 `bson:"nextUpdateDue,omitempty" json:"nextUpdateDue,omitempty"`

	// Set on first publish and never cleared afterwards.
	ProductionPath string `bson:"productionPath,omitempty" json:"productionPath,omitempty"`
	ProductionSlug string `bson:"productionSlug,omitempty" json:"productionSlug,omitempty"`
}

// MenuPayload is the structured menu generated from an uploaded CSV plus the
// record's restaurant fields.
type MenuPayload struct {
	Restaurant PayloadRestaurant `bson:"restaurant" json:"restaurant"`
	Menu       PayloadMenu       `bson:"menu" json:"menu"`
	Metadata   PayloadMetadata   `bson:"metadata" json:"metadata"`
}

type PayloadRestaurant struct {
	Name             string          `bson:"name" json:"name"`
	Address          string          `bson:"address,omitempty" json:"address,omitempty"`
	City             string          `bson:"city,omitempty" json:"city,omitempty"`
	State            string          `bson:"state,omitempty" json:"state,omitempty"`
	Location         PayloadLocation `bson:"location" json:"location"`
	Phone            string          `bson:"phone,omitempty" json:"phone,omitempty"`
	Hours            string          `bson:"hours,omitempty" json:"hours,omitempty"`
	AverageMealPrice string          `bson:"averageMealPrice,omitempty" json:"averageMealPrice,omitempty"`
	HeroImage        string          `bson:"heroImage,omitempty" json:"heroImage,omitempty"`
	HeroImageCaption string          `bson:"heroImageCaption,omitempty" json:"heroImageCaption,omitempty"`
	Website          string          `bson:"website,omitempty" json:"website,omitempty"`
	CuisineTypes     []string        `bson:"cuisineTypes,omitempty" json:"cuisineTypes,omitempty"`
	DietaryOptions   []string        `bson:"dietaryOptions,omitempty" json:"dietaryOptions,omitempty"`
}

type PayloadLocation struct {
	Latitude       string `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude      string `bson:"longitude,omitempty" json:"longitude,omitempty"`
	GoogleMapsLink string `bson:"googleMapsLink,omitempty" json:"googleMapsLink,omitempty"`
}

// PayloadMenu holds the ordered line items parsed from the CSV. Each item maps
// a CSV header to the cell value for that row.
type PayloadMenu struct {
	Items          []map[string]string `bson:"items" json:"items"`
	Notes          []string            `bson:"notes,omitempty" json:"notes,omitempty"`
	Disclaimer     string              `bson:"disclaimer,omitempty" json:"disclaimer,omitempty"`
	TechnicalNotes string              `bson:"technicalNotes,omitempty" json:"technicalNotes,omitempty"`
	SectionDetails string              `bson:"sectionDetails,omitempty" json:"sectionDetails,omitempty"`
}

type PayloadMetadata struct {
	CreatedDate int64  `bson:"createdDate,omitempty" json:"createdDate,omitempty"`
	LastUpdated int64  `bson:"lastUpdated,omitempty" json:"lastUpdated,omitempty"`
	RequestedBy string `bson:"requestedBy,omitempty" json:"requestedBy,omitempty"`
	AssignedTo  string `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	Status      string `bson:"status,omitempty" json:"status,omitempty"`
}

// RestaurantInfo is the nested block written to production in flat mode. It
// matches the shape the live site already reads for its existing menus.
type RestaurantInfo struct {
	Name             string   `bson:"name" json:"name"`
	Address          string   `bson:"address,omitempty" json:"address,omitempty"`
	City             string   `bson:"city,omitempty" json:"city,omitempty"`
	State            string   `bson:"state,omitempty" json:"state,omitempty"`
	Phone            string   `bson:"phone,omitempty" json:"phone,omitempty"`
	CuisineType      string   `bson:"cuisineType,omitempty" json:"cuisineType,omitempty"`
	Dietary          []string `bson:"dietary,omitempty" json:"dietary,omitempty"`
	AverageMealPrice string   `bson:"averageMealPrice,omitempty" json:"averageMealPrice,omitempty"`
	HeroImage        string   `bson:"heroImage,omitempty" json:"heroImage,omitempty"`
	HeroImageAlt     string   `bson:"heroImageAlt,omitempty" json:"heroImageAlt,omitempty"`
	Hours            string   `bson:"hours,omitempty" json:"hours,omitempty"`
	Lat              float64  `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng              float64  `bson:"lng,omitempty" json:"lng,omitempty"`
	Slug             string   `bson:"slug,omitempty" json:"slug,omitempty"`
	GoogleMapsURL    string   `bson:"googleMapsUrl,omitempty" json:"googleMapsUrl,omitempty"`
	MenuIntro        []string `bson:"menuIntro,omitempty" json:"menuIntro,omitempty"`
	Disclaimer       string   `bson:"disclaimer,omitempty" json:"disclaimer,omitempty"`
}

// FlatProduction is the production payload written in flat mode: the nested
// restaurantInfo block plus the structured menu. Hierarchical mode writes a
// flattened field map instead; both are produced only by the publish
// transform and are read-only to the rest of this service.
type FlatProduction struct {
	RestaurantInfo RestaurantInfo `bson:"restaurantInfo" json:"restaurantInfo"`
	Menu           *MenuPayload   `bson:"menu,omitempty" json:"menu,omitempty"`
}
