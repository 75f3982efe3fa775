package postgres

import (
	"context"

	"github.com/samirrijal/medifly/internal/core/domain"
)

// UserLocationRepo implements ports.UserLocationRepository with pgx.
type UserLocationRepo struct {
	db *DB
}

// NewUserLocationRepo creates a new UserLocationRepo.
func NewUserLocationRepo(db *DB) *UserLocationRepo {
	return &UserLocationRepo{db: db}
}

// Upsert replaces the user's location.
func (r *UserLocationRepo) Upsert(ctx context.Context, loc *domain.UserLocation) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO user_locations (user_id, encrypted_location, transcripted_location, location, detection_method, updated_at)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET encrypted_location = EXCLUDED.encrypted_location,
		    transcripted_location = EXCLUDED.transcripted_location,
		    location = EXCLUDED.location,
		    detection_method = EXCLUDED.detection_method,
		    updated_at = EXCLUDED.updated_at
	`, loc.UserID, loc.EncryptedLocation, loc.TranscriptedLocation,
		loc.Location.Lon, loc.Location.Lat, string(loc.DetectionMethod), loc.UpdatedAt)
	return err
}

// GetByUser returns the user's location.
func (r *UserLocationRepo) GetByUser(ctx context.Context, userID string) (*domain.UserLocation, error) {
	var loc domain.UserLocation
	var method string
	err := r.db.Pool.QueryRow(ctx, `
		SELECT user_id, encrypted_location, transcripted_location,
		       ST_Y(location::geometry), ST_X(location::geometry), detection_method, updated_at
		FROM user_locations WHERE user_id = $1
	`, userID).Scan(
		&loc.UserID, &loc.EncryptedLocation, &loc.TranscriptedLocation,
		&loc.Location.Lat, &loc.Location.Lon, &method, &loc.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "location for user", userID)
	}
	loc.DetectionMethod = domain.DetectionMethod(method)
	return &loc, nil
}
