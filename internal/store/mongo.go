package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"menus4all-staging-api/internal/lifecycle"
	"menus4all-staging-api/internal/models"
)

const (
	stagingCollection    = "staging-menus"
	productionCollection = "menus"
)

// Mongo adapts the two logical menu stores onto MongoDB collections: the
// staging workflow collection and the production collection the live site
// reads. Optional fields carry omitempty bson tags and patch maps are
// stripped before writing, so empty values never reach the store.
type Mongo struct {
	staging    *mongo.Collection
	production *mongo.Collection
	logger     zerolog.Logger

	now func() int64
}

func NewMongo(stagingDB, productionDB *mongo.Database, logger zerolog.Logger) *Mongo {
	return &Mongo{
		staging:    stagingDB.Collection(stagingCollection),
		production: productionDB.Collection(productionCollection),
		logger:     logger,
		now:        func() int64 { return time.Now().UnixMilli() },
	}
}

// FetchAll returns every staging record keyed by id; an empty collection
// yields an empty map.
func (m *Mongo) FetchAll(ctx context.Context) (map[string]models.MenuRecord, error) {
	cursor, err := m.staging.Find(ctx, bson.M{})
	if err != nil {
		return nil, &lifecycle.StoreUnavailableError{Op: "fetchAll", Err: err}
	}
	defer cursor.Close(ctx)

	var records []models.MenuRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, &lifecycle.StoreUnavailableError{Op: "fetchAll", Err: err}
	}

	result := make(map[string]models.MenuRecord, len(records))
	for _, rec := range records {
		result[rec.ID] = rec
	}
	return result, nil
}

// FetchOne returns (nil, nil) when the id is absent.
func (m *Mongo) FetchOne(ctx context.Context, id string) (*models.MenuRecord, error) {
	var rec models.MenuRecord
	err := m.staging.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, &lifecycle.StoreUnavailableError{Op: "fetchOne", Err: err}
	}
	return &rec, nil
}

// Save fully replaces the record at id, creating it when absent. Creation
// stamps createdDate; every save stamps lastUpdated.
func (m *Mongo) Save(ctx context.Context, id string, rec models.MenuRecord) (models.MenuRecord, error) {
	existing, err := m.FetchOne(ctx, id)
	if err != nil {
		return models.MenuRecord{}, err
	}

	now := m.now()
	rec.ID = id
	rec.LastUpdated = now
	if rec.CreatedDate == 0 {
		if existing != nil && existing.CreatedDate != 0 {
			rec.CreatedDate = existing.CreatedDate
		} else {
			rec.CreatedDate = now
		}
	}

	_, err = m.staging.ReplaceOne(ctx, bson.M{"_id": id}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return models.MenuRecord{}, &lifecycle.StoreUnavailableError{Op: "save", Err: err}
	}
	return rec, nil
}

// PatchStatus writes only status, lastUpdated and, when notes is non-empty,
// reviewNotes. No other field is touched.
func (m *Mongo) PatchStatus(ctx context.Context, id, status, notes string) error {
	update := bson.M{
		"status":      status,
		"lastUpdated": m.now(),
	}
	if notes != "" {
		update["reviewNotes"] = notes
	}

	_, err := m.staging.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return &lifecycle.StoreUnavailableError{Op: "patchStatus", Err: err}
	}
	return nil
}

// Patch merges fields into the record. Empty values are stripped first and
// lastUpdated is stamped.
func (m *Mongo) Patch(ctx context.Context, id string, fields map[string]interface{}) error {
	update := bson.M{}
	for k, v := range lifecycle.StripEmpty(fields) {
		update[k] = v
	}
	update["lastUpdated"] = m.now()

	_, err := m.staging.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return &lifecycle.StoreUnavailableError{Op: "patch", Err: err}
	}
	return nil
}

// Remove deletes the staging record. Removing an absent id is not an error.
func (m *Mongo) Remove(ctx context.Context, id string) error {
	_, err := m.staging.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return &lifecycle.StoreUnavailableError{Op: "remove", Err: err}
	}
	return nil
}

// QueryByField returns staging records whose field equals value.
func (m *Mongo) QueryByField(ctx context.Context, field, value string) (map[string]models.MenuRecord, error) {
	cursor, err := m.staging.Find(ctx, bson.M{field: value})
	if err != nil {
		return nil, &lifecycle.StoreUnavailableError{Op: "queryByField", Err: err}
	}
	defer cursor.Close(ctx)

	var records []models.MenuRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, &lifecycle.StoreUnavailableError{Op: "queryByField", Err: err}
	}

	result := make(map[string]models.MenuRecord, len(records))
	for _, rec := range records {
		result[rec.ID] = rec
	}
	return result, nil
}

// ProductionExists reports whether a record already occupies the production
// key.
func (m *Mongo) ProductionExists(ctx context.Context, key string) (bool, error) {
	count, err := m.production.CountDocuments(ctx, bson.M{"_id": key})
	if err != nil {
		return false, &lifecycle.StoreUnavailableError{Op: "productionExists", Err: err}
	}
	return count > 0, nil
}

// PutProduction writes the published payload at key, overwriting any
// previous copy. The upsert filter supplies the _id.
func (m *Mongo) PutProduction(ctx context.Context, key string, payload interface{}) error {
	_, err := m.production.ReplaceOne(ctx, bson.M{"_id": key}, payload, options.Replace().SetUpsert(true))
	if err != nil {
		return &lifecycle.StoreUnavailableError{Op: "putProduction", Err: err}
	}
	m.logger.Debug().Str("productionPath", key).Msg("production record written")
	return nil
}
