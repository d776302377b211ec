// README: Live driver index in Redis GEO plus a Postgres snapshot trail.
package location

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"freteiro/internal/types"
)

const liveDriversKey = "drivers:live"

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, rdb *redis.Client) *Store {
	return &Store{db: db, redis: rdb}
}

// Index refreshes the driver's entry in the live GEO set and appends a
// snapshot row. The GEO set answers "who is near this point right now"; the
// snapshot trail is the durable history.
func (s *Store) Index(ctx context.Context, driverID types.ID, pos types.Point) error {
	if err := s.redis.GeoAdd(ctx, liveDriversKey, &redis.GeoLocation{
		Name:      string(driverID),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	}).Err(); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO location_snapshots (driver_id, lat, lng, recorded_at)
		VALUES ($1, $2, $3, $4)`,
		string(driverID), pos.Lat, pos.Lng, time.Now().UTC(),
	)
	return err
}

// Remove drops the driver from the live set, typically when they go
// offline. The snapshot trail is untouched.
func (s *Store) Remove(ctx context.Context, driverID types.ID) error {
	return s.redis.ZRem(ctx, liveDriversKey, string(driverID)).Err()
}

type NearbyDriver struct {
	DriverID   types.ID
	Position   types.Point
	DistanceKm float64
}

// Nearby returns live drivers within radiusKm of origin, closest first.
func (s *Store) Nearby(ctx context.Context, origin types.Point, radiusKm float64, limit int) ([]NearbyDriver, error) {
	locs, err := s.redis.GeoSearchLocation(ctx, liveDriversKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  origin.Lng,
			Latitude:   origin.Lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
			Count:      limit,
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, err
	}

	out := make([]NearbyDriver, 0, len(locs))
	for _, l := range locs {
		out = append(out, NearbyDriver{
			DriverID:   types.ID(l.Name),
			Position:   types.Point{Lat: l.Latitude, Lng: l.Longitude},
			DistanceKm: l.Dist,
		})
	}
	return out, nil
}
