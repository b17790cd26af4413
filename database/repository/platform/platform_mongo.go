package platformRepo

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"trailbound/database"
	"trailbound/models"
	"trailbound/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PlatformSettingsRepository reads and writes the single global settings
// document. A missing document is not an error; callers fall back to builtin
// defaults.
type PlatformSettingsRepository interface {
	Get(ctx context.Context) (*models.PlatformSettings, error)
	Save(ctx context.Context, settings models.PlatformSettings) error
}

// The settings document is read on every booking and sweep iteration, so Get
// is served from the redis cache between operator updates.
const (
	platformCacheKey = "platform_settings"
	platformCacheTTL = 5 * time.Minute
)

type mongoPlatformRepo struct {
	coll *mongo.Collection
}

// NewMongoPlatformRepo returns a PlatformSettingsRepository backed by MongoDB.
func NewMongoPlatformRepo() PlatformSettingsRepository {
	db := database.MongoClient.Database("trailbound")
	return &mongoPlatformRepo{
		coll: db.Collection("platform_settings"),
	}
}

func (r *mongoPlatformRepo) Get(ctx context.Context) (*models.PlatformSettings, error) {
	cache := utils.GetCacheClient()
	if cache != nil {
		cached, err := cache.Get(ctx, platformCacheKey).Result()
		if err == nil {
			var settings models.PlatformSettings
			if jsonErr := json.Unmarshal([]byte(cached), &settings); jsonErr == nil {
				return &settings, nil
			}
			// Corrupt entry; drop it and fall through to Mongo.
			_ = cache.Del(ctx, platformCacheKey).Err()
		}
	}

	var settings models.PlatformSettings
	err := r.coll.FindOne(ctx, bson.M{"id": models.PlatformSettingsID}).Decode(&settings)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	if cache != nil {
		if b, jsonErr := json.Marshal(settings); jsonErr == nil {
			if err := cache.Set(ctx, platformCacheKey, b, platformCacheTTL).Err(); err != nil {
				log.Printf("WARNING: failed to cache platform settings: %v", err)
			}
		}
	}
	return &settings, nil
}

func (r *mongoPlatformRepo) Save(ctx context.Context, settings models.PlatformSettings) error {
	settings.ID = models.PlatformSettingsID
	settings.UpdatedAt = time.Now()
	opts := options.Replace().SetUpsert(true)
	_, err := r.coll.ReplaceOne(ctx, bson.M{"id": models.PlatformSettingsID}, settings, opts)
	if err != nil {
		return err
	}

	// Invalidate so the next Get sees the new values immediately.
	if cache := utils.GetCacheClient(); cache != nil {
		if err := cache.Del(ctx, platformCacheKey).Err(); err != nil {
			log.Printf("WARNING: failed to invalidate platform settings cache: %v", err)
		}
	}
	return nil
}
