// Package ranking orders pharmacies and medicines by proximity and text relevance.
package ranking

import "github.com/samirrijal/medifly/internal/pkg/fuzzy"

// Weights combines the per-field match scores of a pharmacy.
type Weights struct {
	Name    float64 `mapstructure:"name"`
	Address float64 `mapstructure:"address"`
	Phone   float64 `mapstructure:"phone"`
}

// Config tunes the ranker. All fields are required; start from DefaultConfig.
type Config struct {
	EarthRadiusKm     float64     `mapstructure:"earth_radius_km"`
	NoiseThreshold    float64     `mapstructure:"noise_threshold"`
	MedicineThreshold float64     `mapstructure:"medicine_threshold"`
	PhoneMinDigits    int         `mapstructure:"phone_min_digits"`
	PhoneScore        float64     `mapstructure:"phone_score"`
	Weights           Weights     `mapstructure:"weights"`
	Tiers             fuzzy.Tiers `mapstructure:"tiers"`
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		EarthRadiusKm:     6371,
		NoiseThreshold:    25,
		MedicineThreshold: 30,
		PhoneMinDigits:    3,
		PhoneScore:        100,
		Weights:           Weights{Name: 0.5, Address: 0.35, Phone: 0.15},
		Tiers:             fuzzy.DefaultTiers(),
	}
}
