package lifecycle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menus4all-staging-api/internal/models"
)

// memStore is an in-memory Store with the same stamping semantics as the
// mongo adapter.
type memStore struct {
	staging    map[string]models.MenuRecord
	production map[string]interface{}
	now        func() int64

	failNext  error // returned by the next mutating call, then cleared
	failPatch error // returned by the next Patch call only, then cleared

	writeCount int
}

func newMemStore(now func() int64) *memStore {
	return &memStore{
		staging:    make(map[string]models.MenuRecord),
		production: make(map[string]interface{}),
		now:        now,
	}
}

func (m *memStore) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *memStore) FetchAll(ctx context.Context) (map[string]models.MenuRecord, error) {
	out := make(map[string]models.MenuRecord, len(m.staging))
	for id, rec := range m.staging {
		out[id] = rec
	}
	return out, nil
}

func (m *memStore) FetchOne(ctx context.Context, id string) (*models.MenuRecord, error) {
	rec, ok := m.staging[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memStore) Save(ctx context.Context, id string, rec models.MenuRecord) (models.MenuRecord, error) {
	if err := m.takeFailure(); err != nil {
		return models.MenuRecord{}, err
	}
	now := m.now()
	rec.ID = id
	rec.LastUpdated = now
	if rec.CreatedDate == 0 {
		if existing, ok := m.staging[id]; ok && existing.CreatedDate != 0 {
			rec.CreatedDate = existing.CreatedDate
		} else {
			rec.CreatedDate = now
		}
	}
	m.staging[id] = rec
	m.writeCount++
	return rec, nil
}

func (m *memStore) PatchStatus(ctx context.Context, id, status, notes string) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	rec, ok := m.staging[id]
	if !ok {
		return nil
	}
	rec.Status = status
	rec.LastUpdated = m.now()
	if notes != "" {
		rec.ReviewNotes = notes
	}
	m.staging[id] = rec
	m.writeCount++
	return nil
}

func (m *memStore) Patch(ctx context.Context, id string, fields map[string]interface{}) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	if err := m.failPatch; err != nil {
		m.failPatch = nil
		return err
	}
	rec, ok := m.staging[id]
	if !ok {
		return nil
	}
	for k, v := range StripEmpty(fields) {
		switch k {
		case "status":
			rec.Status = v.(string)
		case "liveDate":
			rec.LiveDate = v.(int64)
		case "nextUpdateDue":
			rec.NextUpdateDue = v.(int64)
		case "productionPath":
			rec.ProductionPath = v.(string)
		case "productionSlug":
			rec.ProductionSlug = v.(string)
		}
	}
	rec.LastUpdated = m.now()
	m.staging[id] = rec
	m.writeCount++
	return nil
}

func (m *memStore) Remove(ctx context.Context, id string) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	delete(m.staging, id)
	m.writeCount++
	return nil
}

func (m *memStore) QueryByField(ctx context.Context, field, value string) (map[string]models.MenuRecord, error) {
	out := make(map[string]models.MenuRecord)
	for id, rec := range m.staging {
		switch field {
		case "city":
			if rec.City == value {
				out[id] = rec
			}
		case "status":
			if rec.Status == value {
				out[id] = rec
			}
		}
	}
	return out, nil
}

func (m *memStore) ProductionExists(ctx context.Context, key string) (bool, error) {
	_, ok := m.production[key]
	return ok, nil
}

func (m *memStore) PutProduction(ctx context.Context, key string, payload interface{}) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.production[key] = payload
	m.writeCount++
	return nil
}

const testNow = int64(1700000000000)

func newTestEngine(t *testing.T, mode PublishMode) (*Engine, *memStore) {
	t.Helper()
	st := newMemStore(func() int64 { return testNow })
	e := NewEngine(st, mode, zerolog.Nop())
	e.now = func() time.Time { return time.UnixMilli(testNow) }
	return e, st
}

func seedMenu(st *memStore, id, status string) models.MenuRecord {
	rec := models.MenuRecord{
		ID:             id,
		RestaurantName: "The Green Table",
		Address:        "12 Oak St",
		City:           "Portland",
		State:          "Oregon",
		Latitude:       "45.52",
		Longitude:      "-122.68",
		Status:         status,
		CreatedDate:    testNow - 1000,
		LastUpdated:    testNow - 1000,
	}
	st.staging[id] = rec
	return rec
}

func TestSaveCreatesWithFreshID(t *testing.T) {
	e, _ := newTestEngine(t, PublishFlat)

	saved, err := e.Save(context.Background(), "", models.MenuRecord{
		RestaurantName: "Bread & Butter",
		City:           "Salem",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(saved.ID, "menu_"), "id should carry the menu_ prefix, got %q", saved.ID)
	assert.Equal(t, models.StatusDraft, saved.Status)
	assert.Equal(t, testNow, saved.CreatedDate)
	assert.Equal(t, testNow, saved.LastUpdated)

	// Round-trip: fetch returns what was saved plus the stamps.
	got, err := e.Get(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
	assert.Equal(t, "Bread & Butter", got.RestaurantName)
	assert.Equal(t, "Salem", got.City)

	// Two creations never share an id.
	other, err := e.Save(context.Background(), "", models.MenuRecord{RestaurantName: "Other"})
	require.NoError(t, err)
	assert.NotEqual(t, saved.ID, other.ID)
}

func TestSavePreservesCreatedDate(t *testing.T) {
	e, st := newTestEngine(t, PublishFlat)
	seedMenu(st, "menu_1", models.StatusDraft)

	saved, err := e.Save(context.Background(), "menu_1", models.MenuRecord{
		RestaurantName: "The Green Table",
		Status:         models.StatusDraft,
	})
	require.NoError(t, err)
	assert.Equal(t, testNow-1000, saved.CreatedDate)
	assert.Equal(t, testNow, saved.LastUpdated)
}

func TestSaveRejectsBadCoordinates(t *testing.T) {
	e, _ := newTestEngine(t, PublishFlat)

	_, err := e.Save(context.Background(), "", models.MenuRecord{
		RestaurantName: "Nowhere",
		Latitude:       "123.4",
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "latitude")

	_, err = e.Save(context.Background(), "", models.MenuRecord{
		RestaurantName: "Nowhere",
		Longitude:      "-200",
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "longitude")
}

func TestSaveRejectsUnknownStatus(t *testing.T) {
	e, _ := newTestEngine(t, PublishFlat)

	_, err := e.Save(context.Background(), "", models.MenuRecord{
		RestaurantName: "Nowhere",
		Status:         "published",
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		op      func(e *Engine, id string) error
		to      string
		wantErr bool
	}{
		{"markReady from draft", models.StatusDraft,
			func(e *Engine, id string) error { return e.MarkReady(context.Background(), id) },
			models.StatusReadyForReview, false},
		{"markReady from needs-update", models.StatusNeedsUpdate,
			func(e *Engine, id string) error { return e.MarkReady(context.Background(), id) },
			models.StatusReadyForReview, false},
		{"markReady from live rejected", models.StatusLive,
			func(e *Engine, id string) error { return e.MarkReady(context.Background(), id) },
			"", true},
		{"approve from review", models.StatusReadyForReview,
			func(e *Engine, id string) error { return e.Approve(context.Background(), id) },
			models.StatusApproved, false},
		{"approve from draft rejected", models.StatusDraft,
			func(e *Engine, id string) error { return e.Approve(context.Background(), id) },
			"", true},
		{"sendBack from review", models.StatusReadyForReview,
			func(e *Engine, id string) error { return e.SendBack(context.Background(), id, "fix the hours") },
			models.StatusDraft, false},
		{"sendBack from approved rejected", models.StatusApproved,
			func(e *Engine, id string) error { return e.SendBack(context.Background(), id, "fix the hours") },
			"", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, st := newTestEngine(t, PublishFlat)
			before := seedMenu(st, "menu_1", tc.from)

			err := tc.op(e, "menu_1")
			after := st.staging["menu_1"]

			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, IsPrecondition(err), "expected precondition failure, got %v", err)
				assert.Equal(t, before, after, "failed transition must not write")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.to, after.Status)
			assert.Equal(t, testNow, after.LastUpdated)

			// Only the declared side effects change.
			after.Status = before.Status
			after.LastUpdated = before.LastUpdated
			after.ReviewNotes = before.ReviewNotes
			assert.Equal(t, before, after)
		})
	}
}

func TestSendBackRecordsNotes(t *testing.T) {
	e, st := newTestEngine(t, PublishFlat)
	seedMenu(st, "menu_1", models.StatusReadyForReview)

	require.NoError(t, e.SendBack(context.Background(), "menu_1", "  missing dessert section  "))
	after := st.staging["menu_1"]
	assert.Equal(t, models.StatusDraft, after.Status)
	assert.Equal(t, "missing dessert section", after.ReviewNotes)
}

func TestSendBackRequiresNotes(t *testing.T) {
	for _, notes := range []string{"", "   ", "\t\n"} {
		e, st := newTestEngine(t, PublishFlat)
		seedMenu(st, "menu_1", models.StatusReadyForReview)
		writes := st.writeCount

		err := e.SendBack(context.Background(), "menu_1", notes)
		require.Error(t, err)
		assert.True(t, IsValidation(err))
		assert.Equal(t, models.StatusReadyForReview, st.staging["menu_1"].Status)
		assert.Equal(t, writes, st.writeCount, "rejected sendBack must not write")
	}
}

func TestTransitionOnMissingMenu(t *testing.T) {
	e, _ := newTestEngine(t, PublishFlat)
	assert.ErrorIs(t, e.MarkReady(context.Background(), "menu_gone"), ErrNotFound)
	assert.ErrorIs(t, e.Approve(context.Background(), "menu_gone"), ErrNotFound)
	assert.ErrorIs(t, e.SendBack(context.Background(), "menu_gone", "notes"), ErrNotFound)
}

func TestPublishFlat(t *testing.T) {
	e, st := newTestEngine(t, PublishFlat)
	rec := seedMenu(st, "menu_1", models.StatusApproved)
	rec.CuisineTypes = []string{"Farm to Table", "American"}
	rec.GeneralMenuNotes = []string{"Gluten-free options marked"}
	rec.MenuJSON = &models.MenuPayload{Menu: models.PayloadMenu{Items: []map[string]string{{"name": "Soup"}}}}
	st.staging["menu_1"] = rec

	path, err := e.Publish(context.Background(), "menu_1", false)
	require.NoError(t, err)
	assert.Equal(t, "the-green-table", path)

	payload, ok := st.production[path].(models.FlatProduction)
	require.True(t, ok, "flat mode writes the nested restaurantInfo payload")
	assert.Equal(t, "The Green Table", payload.RestaurantInfo.Name)
	assert.Equal(t, "the-green-table", payload.RestaurantInfo.Slug)
	assert.Equal(t, "Farm to Table", payload.RestaurantInfo.CuisineType)
	assert.Equal(t, []string{"Gluten-free options marked"}, payload.RestaurantInfo.MenuIntro)
	assert.InDelta(t, 45.52, payload.RestaurantInfo.Lat, 0.0001)
	assert.InDelta(t, -122.68, payload.RestaurantInfo.Lng, 0.0001)
	require.NotNil(t, payload.Menu)
	assert.Len(t, payload.Menu.Menu.Items, 1)

	after := st.staging["menu_1"]
	assert.Equal(t, models.StatusLive, after.Status)
	assert.Equal(t, testNow, after.LiveDate)
	assert.Equal(t, "the-green-table", after.ProductionPath)
	assert.Equal(t, "the-green-table", after.ProductionSlug)
	assert.Equal(t, testNow+90*24*60*60*1000, after.NextUpdateDue)
	assert.Equal(t, testNow, after.LastUpdated)
}

func TestPublishHierarchical(t *testing.T) {
	e, st := newTestEngine(t, PublishHierarchical)
	seedMenu(st, "menu_1", models.StatusApproved)

	path, err := e.Publish(context.Background(), "menu_1", false)
	require.NoError(t, err)
	assert.Equal(t, "oregon/portland/the-green-table", path)

	payload, ok := st.production[path].(map[string]interface{})
	require.True(t, ok, "hierarchical mode writes the flattened field set")
	assert.Equal(t, "The Green Table", payload["restaurantName"])
	assert.Equal(t, "the-green-table", payload["slug"])
	assert.Equal(t, "menu_1", payload["stagingId"])
	_, hasStatus := payload["status"]
	assert.False(t, hasStatus, "workflow fields stay in staging")
	_, hasEmpty := payload["phoneNumber"]
	assert.False(t, hasEmpty, "empty fields are stripped")

	after := st.staging["menu_1"]
	assert.Equal(t, "oregon/portland/the-green-table", after.ProductionPath)
	assert.Equal(t, "the-green-table", after.ProductionSlug)
}

func TestPublishHierarchicalRequiresLocation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.MenuRecord)
		field  string
	}{
		{"missing name", func(r *models.MenuRecord) { r.RestaurantName = " " }, "restaurantName"},
		{"missing state", func(r *models.MenuRecord) { r.State = "" }, "state"},
		{"missing city", func(r *models.MenuRecord) { r.City = "" }, "city"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, st := newTestEngine(t, PublishHierarchical)
			rec := seedMenu(st, "menu_1", models.StatusApproved)
			tc.mutate(&rec)
			st.staging["menu_1"] = rec

			_, err := e.Publish(context.Background(), "menu_1", false)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Contains(t, err.Error(), tc.field)
			assert.Empty(t, st.production, "validation failure must not write production")
		})
	}
}

func TestPublishRequiresApproved(t *testing.T) {
	for _, status := range []string{models.StatusDraft, models.StatusReadyForReview, models.StatusLive, models.StatusNeedsUpdate} {
		e, st := newTestEngine(t, PublishFlat)
		before := seedMenu(st, "menu_1", status)
		writes := st.writeCount

		_, err := e.Publish(context.Background(), "menu_1", false)
		require.Error(t, err, "status %s", status)
		assert.True(t, IsPrecondition(err))
		assert.Empty(t, st.production, "nothing may reach production")
		assert.Equal(t, before, st.staging["menu_1"])
		assert.Equal(t, writes, st.writeCount)
	}
}

func TestPublishMissingMenu(t *testing.T) {
	e, _ := newTestEngine(t, PublishFlat)
	_, err := e.Publish(context.Background(), "menu_gone", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPublishConflictNeedsConfirmation(t *testing.T) {
	e, st := newTestEngine(t, PublishFlat)
	seedMenu(st, "menu_1", models.StatusApproved)
	st.production["the-green-table"] = map[string]interface{}{"restaurantInfo": "previous copy"}

	path, err := e.Publish(context.Background(), "menu_1", false)
	assert.ErrorIs(t, err, ErrConflictRequiresConfirmation)
	assert.Equal(t, "the-green-table", path, "conflict reports the contested path")
	assert.Equal(t, models.StatusApproved, st.staging["menu_1"].Status, "conflict must not change staging")
	assert.Equal(t, map[string]interface{}{"restaurantInfo": "previous copy"}, st.production["the-green-table"])

	// The operator confirmed: overwrite proceeds.
	path, err = e.Publish(context.Background(), "menu_1", true)
	require.NoError(t, err)
	assert.Equal(t, "the-green-table", path)
	_, ok := st.production[path].(models.FlatProduction)
	assert.True(t, ok)
	assert.Equal(t, models.StatusLive, st.staging["menu_1"].Status)
}

func TestPublishRetryAfterPartialFailure(t *testing.T) {
	e, st := newTestEngine(t, PublishFlat)
	seedMenu(st, "menu_1", models.StatusApproved)

	// The production write lands but the staging update fails.
	st.failPatch = errors.New("connection reset")
	_, err := e.Publish(context.Background(), "menu_1", false)
	require.Error(t, err)
	assert.Contains(t, st.production, "the-green-table", "production copy exists despite the failure")
	assert.Equal(t, models.StatusApproved, st.staging["menu_1"].Status, "staging still shows approved")

	// Re-running publish converges: same key, same payload, staging catches
	// up. The existing production copy belongs to this very menu, so the
	// retry confirms the overwrite.
	_, err = e.Publish(context.Background(), "menu_1", true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLive, st.staging["menu_1"].Status)
	assert.Equal(t, "the-green-table", st.staging["menu_1"].ProductionPath)
	assert.Equal(t, testNow+NextUpdateWindow.Milliseconds(), st.staging["menu_1"].NextUpdateDue)
}

func TestListNeedingUpdate(t *testing.T) {
	e, st := newTestEngine(t, PublishFlat)

	due := seedMenu(st, "menu_due", models.StatusLive)
	due.NextUpdateDue = testNow - 1
	st.staging["menu_due"] = due

	exactly := seedMenu(st, "menu_exact", models.StatusLive)
	exactly.NextUpdateDue = testNow
	st.staging["menu_exact"] = exactly

	fresh := seedMenu(st, "menu_fresh", models.StatusLive)
	fresh.NextUpdateDue = testNow + 1
	st.staging["menu_fresh"] = fresh

	// A non-live record is never due, regardless of its timestamp.
	stale := seedMenu(st, "menu_draft", models.StatusDraft)
	stale.NextUpdateDue = testNow - 1
	st.staging["menu_draft"] = stale

	unset := seedMenu(st, "menu_unset", models.StatusLive)
	unset.NextUpdateDue = 0
	st.staging["menu_unset"] = unset

	got, err := e.ListNeedingUpdate(context.Background())
	require.NoError(t, err)

	assert.Len(t, got, 2)
	assert.Contains(t, got, "menu_due")
	assert.Contains(t, got, "menu_exact")

	// The listing never mutates statuses.
	assert.Equal(t, models.StatusLive, st.staging["menu_due"].Status)
	assert.Equal(t, models.StatusDraft, st.staging["menu_draft"].Status)
}

func TestDeleteRemovesStagingOnly(t *testing.T) {
	e, st := newTestEngine(t, PublishFlat)
	seedMenu(st, "menu_1", models.StatusApproved)

	_, err := e.Publish(context.Background(), "menu_1", false)
	require.NoError(t, err)

	require.NoError(t, e.Delete(context.Background(), "menu_1"))
	assert.NotContains(t, st.staging, "menu_1")
	assert.Contains(t, st.production, "the-green-table", "production copy survives staging deletion")

	// Deleting again is idempotent.
	require.NoError(t, e.Delete(context.Background(), "menu_1"))
}

func TestAttachCSVDerivesMenu(t *testing.T) {
	e, st := newTestEngine(t, PublishFlat)
	seedMenu(st, "menu_1", models.StatusDraft)

	csv := "name,price\n\"Soup, of the day\",5.00\nBread,2"
	saved, err := e.AttachCSV(context.Background(), "menu_1", csv)
	require.NoError(t, err)

	assert.Equal(t, csv, saved.CSVData)
	require.NotNil(t, saved.MenuJSON)
	require.Len(t, saved.MenuJSON.Menu.Items, 2)
	assert.Equal(t, "Soup, of the day", saved.MenuJSON.Menu.Items[0]["name"])
	assert.Equal(t, "5.00", saved.MenuJSON.Menu.Items[0]["price"])
	assert.Equal(t, "The Green Table", saved.MenuJSON.Restaurant.Name)

	_, err = e.AttachCSV(context.Background(), "menu_gone", csv)
	assert.ErrorIs(t, err, ErrNotFound)
}
