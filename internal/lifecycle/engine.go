package lifecycle

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"menus4all-staging-api/internal/models"
)

// The staging window: a live menu is due for a refresh 90 days after publish.
const NextUpdateWindow = 90 * 24 * time.Hour

// autoMarkNeedsUpdate would flip stale live menus to needs-update during
// ListNeedingUpdate. Deliberately off: the dashboard surfaces stale menus and
// an operator moves them by hand.
const autoMarkNeedsUpdate = false

// PublishMode selects the production path scheme and payload shape.
type PublishMode string

const (
	// PublishFlat writes slug(restaurantName) at the production root with a
	// nested restaurantInfo block, matching the site's existing menus.
	PublishFlat PublishMode = "flat"
	// PublishHierarchical writes state/city/restaurant paths with a flattened
	// field set.
	PublishHierarchical PublishMode = "hierarchical"
)

// Store is the document-store surface the engine needs. The mongo adapter in
// internal/store implements it; tests use the in-memory implementation.
type Store interface {
	FetchAll(ctx context.Context) (map[string]models.MenuRecord, error)
	// FetchOne returns (nil, nil) when the id is absent; absence is a valid
	// result, not an error.
	FetchOne(ctx context.Context, id string) (*models.MenuRecord, error)
	// Save fully replaces the record. Creation stamps createdDate; every save
	// stamps lastUpdated.
	Save(ctx context.Context, id string, rec models.MenuRecord) (models.MenuRecord, error)
	// PatchStatus writes only status, lastUpdated and (when non-empty)
	// reviewNotes.
	PatchStatus(ctx context.Context, id, status, notes string) error
	// Patch merges the given fields into the record and stamps lastUpdated.
	Patch(ctx context.Context, id string, fields map[string]interface{}) error
	// Remove is idempotent; removing an absent id is not an error.
	Remove(ctx context.Context, id string) error
	QueryByField(ctx context.Context, field, value string) (map[string]models.MenuRecord, error)

	ProductionExists(ctx context.Context, key string) (bool, error)
	PutProduction(ctx context.Context, key string, payload interface{}) error
}

// Engine owns the menu status state machine and the staging-to-production
// publication workflow. It never touches presentation state; callers hand it
// fully formed records.
type Engine struct {
	store  Store
	mode   PublishMode
	logger zerolog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

func NewEngine(store Store, mode PublishMode, logger zerolog.Logger) *Engine {
	if mode != PublishHierarchical {
		mode = PublishFlat
	}
	return &Engine{
		store:  store,
		mode:   mode,
		logger: logger,
		now:    time.Now,
	}
}

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewMenuID builds a fresh staging id of the form menu_<epoch-ms>_<random>.
func NewMenuID(nowMillis int64) string {
	b := make([]byte, 9)
	for i := range b {
		b[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return fmt.Sprintf("menu_%d_%s", nowMillis, string(b))
}

// Save creates or replaces a staging record. An empty id means creation: the
// engine assigns a fresh id and the record starts in draft unless the caller
// set a status.
func (e *Engine) Save(ctx context.Context, id string, rec models.MenuRecord) (models.MenuRecord, error) {
	if rec.Status == "" {
		rec.Status = models.StatusDraft
	}
	if !models.ValidStatus(rec.Status) {
		return models.MenuRecord{}, &ValidationError{Field: "status", Reason: "unknown status " + rec.Status}
	}
	if err := validateGeo(rec); err != nil {
		return models.MenuRecord{}, err
	}

	if id == "" {
		id = NewMenuID(e.now().UnixMilli())
	}
	saved, err := e.store.Save(ctx, id, rec)
	if err != nil {
		return models.MenuRecord{}, err
	}
	e.logger.Debug().Str("menuID", id).Str("status", saved.Status).Msg("menu saved")
	return saved, nil
}

// Get fetches one staging record, failing with ErrNotFound when absent.
func (e *Engine) Get(ctx context.Context, id string) (models.MenuRecord, error) {
	rec, err := e.store.FetchOne(ctx, id)
	if err != nil {
		return models.MenuRecord{}, err
	}
	if rec == nil {
		return models.MenuRecord{}, ErrNotFound
	}
	return *rec, nil
}

// List returns every staging record keyed by id.
func (e *Engine) List(ctx context.Context) (map[string]models.MenuRecord, error) {
	return e.store.FetchAll(ctx)
}

// Query returns staging records whose field equals value. Equality only; the
// expected record counts stay in the low hundreds.
func (e *Engine) Query(ctx context.Context, field, value string) (map[string]models.MenuRecord, error) {
	return e.store.QueryByField(ctx, field, value)
}

// MarkReady moves a draft (or stale live menu already flagged needs-update)
// into review.
func (e *Engine) MarkReady(ctx context.Context, id string) error {
	return e.transition(ctx, "markReady", id, models.StatusReadyForReview, "",
		models.StatusDraft, models.StatusNeedsUpdate)
}

// Approve moves a menu out of review, clearing the way for publish.
func (e *Engine) Approve(ctx context.Context, id string) error {
	return e.transition(ctx, "approve", id, models.StatusApproved, "",
		models.StatusReadyForReview)
}

// SendBack returns a menu under review to draft with reviewer notes. Notes
// are required; an empty or whitespace-only note fails before any write.
func (e *Engine) SendBack(ctx context.Context, id, notes string) error {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return &ValidationError{Field: "reviewNotes", Reason: "review notes are required to send a menu back"}
	}
	return e.transition(ctx, "sendBack", id, models.StatusDraft, notes,
		models.StatusReadyForReview)
}

func (e *Engine) transition(ctx context.Context, op, id, target, notes string, allowedFrom ...string) error {
	rec, err := e.store.FetchOne(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotFound
	}

	current := rec.Status
	if current == "" {
		current = models.StatusDraft
	}
	allowed := false
	for _, from := range allowedFrom {
		if current == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return &PreconditionError{Op: op, Current: current, Required: strings.Join(allowedFrom, " or ")}
	}

	if err := e.store.PatchStatus(ctx, id, target, notes); err != nil {
		return err
	}
	e.logger.Info().Str("menuID", id).Str("from", current).Str("to", target).Msg("status changed")
	return nil
}

// Delete removes the staging record only. A published production copy is the
// public artifact and survives staging deletion on purpose.
func (e *Engine) Delete(ctx context.Context, id string) error {
	if err := e.store.Remove(ctx, id); err != nil {
		return err
	}
	e.logger.Info().Str("menuID", id).Msg("staging menu deleted")
	return nil
}

// ListNeedingUpdate returns the live records whose nextUpdateDue has passed.
// Statuses are not mutated here; see autoMarkNeedsUpdate.
func (e *Engine) ListNeedingUpdate(ctx context.Context) (map[string]models.MenuRecord, error) {
	all, err := e.store.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	now := e.now().UnixMilli()
	due := make(map[string]models.MenuRecord)
	for id, rec := range all {
		if rec.Status != models.StatusLive || rec.NextUpdateDue == 0 || rec.NextUpdateDue > now {
			continue
		}
		due[id] = rec
		if autoMarkNeedsUpdate {
			if err := e.store.PatchStatus(ctx, id, models.StatusNeedsUpdate, ""); err != nil {
				return nil, err
			}
		}
	}
	return due, nil
}

// AttachCSV stores the raw CSV on the record and derives the structured menu
// from it, replacing any previous derivation.
func (e *Engine) AttachCSV(ctx context.Context, id, csvText string) (models.MenuRecord, error) {
	rec, err := e.store.FetchOne(ctx, id)
	if err != nil {
		return models.MenuRecord{}, err
	}
	if rec == nil {
		return models.MenuRecord{}, ErrNotFound
	}

	items := ParseCSV(csvText)
	rec.CSVData = csvText
	rec.MenuJSON = BuildMenuPayload(*rec, items, e.now().UnixMilli())
	return e.store.Save(ctx, id, *rec)
}

// Publish pushes an approved menu to production and marks the staging record
// live. The production write and the staging update are sequential, not
// atomic; rerunning publish with the same inputs converges, so a failure
// between the two steps is recoverable by publishing again.
func (e *Engine) Publish(ctx context.Context, id string, confirmOverwrite bool) (string, error) {
	rec, err := e.store.FetchOne(ctx, id)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", ErrNotFound
	}
	if rec.Status != models.StatusApproved {
		return "", &PreconditionError{Op: "publish", Current: rec.Status, Required: models.StatusApproved}
	}

	key, slug, err := e.productionKey(*rec)
	if err != nil {
		return "", err
	}

	exists, err := e.store.ProductionExists(ctx, key)
	if err != nil {
		return "", err
	}
	if exists && !confirmOverwrite {
		return key, ErrConflictRequiresConfirmation
	}

	var payload interface{}
	if e.mode == PublishHierarchical {
		payload = e.hierarchicalPayload(*rec, slug)
	} else {
		payload = e.flatPayload(*rec, slug)
	}

	if err := e.store.PutProduction(ctx, key, payload); err != nil {
		return "", err
	}

	now := e.now().UnixMilli()
	err = e.store.Patch(ctx, id, map[string]interface{}{
		"status":         models.StatusLive,
		"liveDate":       now,
		"productionPath": key,
		"productionSlug": slug,
		"nextUpdateDue":  now + NextUpdateWindow.Milliseconds(),
	})
	if err != nil {
		// Production already holds the new copy; staging still says approved.
		// Publishing again repairs this.
		e.logger.Error().Err(err).Str("menuID", id).Str("productionPath", key).
			Msg("production written but staging update failed")
		return "", err
	}

	e.logger.Info().Str("menuID", id).Str("productionPath", key).
		Str("mode", string(e.mode)).Msg("menu published")
	return key, nil
}

// productionKey validates the identity fields the configured path scheme
// needs and computes the production key and restaurant slug.
func (e *Engine) productionKey(rec models.MenuRecord) (key, slug string, err error) {
	if strings.TrimSpace(rec.RestaurantName) == "" {
		return "", "", &ValidationError{Field: "restaurantName", Reason: "required to push to production"}
	}
	slug = Slugify(rec.RestaurantName)

	if e.mode != PublishHierarchical {
		return slug, slug, nil
	}

	if strings.TrimSpace(rec.State) == "" {
		return "", "", &ValidationError{Field: "state", Reason: "required to push to production"}
	}
	if strings.TrimSpace(rec.City) == "" {
		return "", "", &ValidationError{Field: "city", Reason: "required to push to production"}
	}
	key = Slugify(rec.State) + "/" + Slugify(rec.City) + "/" + slug
	return key, slug, nil
}

// flatPayload projects the staging record into the nested restaurantInfo
// shape the live site reads for its existing menus.
func (e *Engine) flatPayload(rec models.MenuRecord, slug string) models.FlatProduction {
	cuisine := rec.CuisineOther
	if len(rec.CuisineTypes) > 0 {
		cuisine = rec.CuisineTypes[0]
	}
	hero := rec.HeroImagePath
	if hero == "" {
		hero = rec.HeroImageURL
	}

	lat, _ := strconv.ParseFloat(rec.Latitude, 64)
	lng, _ := strconv.ParseFloat(rec.Longitude, 64)

	var mapsURL string
	if rec.Latitude != "" && rec.Longitude != "" {
		mapsURL = fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%s,%s", rec.Latitude, rec.Longitude)
	}

	return models.FlatProduction{
		RestaurantInfo: models.RestaurantInfo{
			Name:             rec.RestaurantName,
			Address:          rec.Address,
			City:             rec.City,
			State:            rec.State,
			Phone:            rec.PhoneNumber,
			CuisineType:      cuisine,
			Dietary:          rec.DietaryOptions,
			AverageMealPrice: rec.AverageMealPrice,
			HeroImage:        hero,
			HeroImageAlt:     rec.HeroImageCaption,
			Hours:            rec.Hours,
			Lat:              lat,
			Lng:              lng,
			Slug:             slug,
			GoogleMapsURL:    mapsURL,
			MenuIntro:        rec.GeneralMenuNotes,
			Disclaimer:       rec.Disclaimer,
		},
		Menu: rec.MenuJSON,
	}
}

// hierarchicalPayload is the flattened field set: the staging record minus
// workflow-only fields, plus the publish stamps. Empty values are stripped so
// the store never sees them.
func (e *Engine) hierarchicalPayload(rec models.MenuRecord, slug string) map[string]interface{} {
	now := e.now().UnixMilli()
	fields := map[string]interface{}{
		"restaurantName":   rec.RestaurantName,
		"address":          rec.Address,
		"city":             rec.City,
		"state":            rec.State,
		"latitude":         rec.Latitude,
		"longitude":        rec.Longitude,
		"phoneNumber":      rec.PhoneNumber,
		"hours":            rec.Hours,
		"averageMealPrice": rec.AverageMealPrice,
		"heroImage":        rec.HeroImagePath,
		"heroImageURL":     rec.HeroImageURL,
		"heroImageAlt":     rec.HeroImageCaption,
		"website":          rec.WebsiteURLs,
		"cuisineTypes":     rec.CuisineTypes,
		"dietaryOptions":   rec.DietaryOptions,
		"generalMenuNotes": rec.GeneralMenuNotes,
		"disclaimer":       rec.Disclaimer,
		"slug":             slug,
		"stagingId":        rec.ID,
		"liveDate":         now,
	}
	if rec.MenuJSON != nil {
		fields["menu"] = rec.MenuJSON
	}
	return StripEmpty(fields)
}

// StripEmpty drops nil, empty-string and empty-slice values from a field map
// before it reaches the store.
func StripEmpty(fields map[string]interface{}) map[string]interface{} {
	cleaned := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if val == "" {
				continue
			}
		case []string:
			if len(val) == 0 {
				continue
			}
		}
		cleaned[k] = v
	}
	return cleaned
}

// validateGeo rejects out-of-range coordinates. Empty coordinates are fine;
// drafts fill in over time.
func validateGeo(rec models.MenuRecord) error {
	if rec.Latitude != "" {
		lat, err := strconv.ParseFloat(rec.Latitude, 64)
		if err != nil || lat < -90 || lat > 90 {
			return &ValidationError{Field: "latitude", Reason: "must be a number between -90 and 90"}
		}
	}
	if rec.Longitude != "" {
		lng, err := strconv.ParseFloat(rec.Longitude, 64)
		if err != nil || lng < -180 || lng > 180 {
			return &ValidationError{Field: "longitude", Reason: "must be a number between -180 and 180"}
		}
	}
	return nil
}
