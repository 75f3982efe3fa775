package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/samirrijal/medifly/internal/adapters/phonepe"
	"github.com/samirrijal/medifly/internal/core/drone"
	"github.com/samirrijal/medifly/internal/core/ranking"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Valkey      ValkeyConfig      `mapstructure:"valkey"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Log         LogConfig         `mapstructure:"log"`
	Search      ranking.Config    `mapstructure:"search"`
	Drone       DroneConfig       `mapstructure:"drone"`
	Location    LocationConfig    `mapstructure:"location"`
	Geolocation GeolocationConfig `mapstructure:"geolocation"`
	PhonePe     phonepe.Config    `mapstructure:"phonepe"`
	Temporal    TemporalConfig    `mapstructure:"temporal"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout"`
	WriteTimeout   int      `mapstructure:"write_timeout"`
	RequestTimeout int      `mapstructure:"request_timeout"`
	AllowOrigins   []string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Enabled      bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DroneConfig is the simulation tuning plus the scheduler settings.
type DroneConfig struct {
	drone.Config `mapstructure:",squash"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	DepotLat     float64       `mapstructure:"depot_lat"`
	DepotLon     float64       `mapstructure:"depot_lon"`
}

// LocationConfig holds the at-rest encryption material for user locations.
type LocationConfig struct {
	Secret string `mapstructure:"secret"`
	Salt   string `mapstructure:"salt"`
}

type GeolocationConfig struct {
	IPLocateAPIKey   string  `mapstructure:"iplocate_api_key"`
	IPLocateURL      string  `mapstructure:"iplocate_url"`
	IPLocateRate     float64 `mapstructure:"iplocate_rate"`
	NominatimURL     string  `mapstructure:"nominatim_url"`
	NominatimRate    float64 `mapstructure:"nominatim_rate"`
	NominatimAgent   string  `mapstructure:"nominatim_user_agent"`
	TrustProxyHeader bool    `mapstructure:"trust_proxy_header"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MEDIFLY_DATABASE_HOST → database.host
	v.SetEnvPrefix("MEDIFLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.request_timeout", 15)
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "medifly")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "medifly")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_endpoint", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	s := ranking.DefaultConfig()
	v.SetDefault("search.earth_radius_km", s.EarthRadiusKm)
	v.SetDefault("search.noise_threshold", s.NoiseThreshold)
	v.SetDefault("search.medicine_threshold", s.MedicineThreshold)
	v.SetDefault("search.phone_min_digits", s.PhoneMinDigits)
	v.SetDefault("search.phone_score", s.PhoneScore)
	v.SetDefault("search.weights.name", s.Weights.Name)
	v.SetDefault("search.weights.address", s.Weights.Address)
	v.SetDefault("search.weights.phone", s.Weights.Phone)
	v.SetDefault("search.tiers.exact_score", s.Tiers.Exact)
	v.SetDefault("search.tiers.substring_score", s.Tiers.Substring)
	v.SetDefault("search.tiers.fuzzy_cap", s.Tiers.FuzzyCap)

	d := drone.DefaultConfig()
	v.SetDefault("drone.tick", d.Tick)
	v.SetDefault("drone.move_ratio", d.MoveRatio)
	v.SetDefault("drone.arrival_tolerance_deg", d.ArrivalToleranceDeg)
	v.SetDefault("drone.min_altitude", d.MinAltitude)
	v.SetDefault("drone.max_altitude", d.MaxAltitude)
	v.SetDefault("drone.min_speed", d.MinSpeed)
	v.SetDefault("drone.max_speed", d.MaxSpeed)
	v.SetDefault("drone.zones.departure_km", d.Zones.DepartureKm)
	v.SetDefault("drone.zones.midway_km", d.Zones.MidwayKm)
	v.SetDefault("drone.zones.arrival_km", d.Zones.ArrivalKm)
	v.SetDefault("drone.tick_interval", 30*time.Second)
	// Bangalore city centre
	v.SetDefault("drone.depot_lat", 12.9716)
	v.SetDefault("drone.depot_lon", 77.5946)

	v.SetDefault("location.secret", "")
	v.SetDefault("location.salt", "medifly-location")

	v.SetDefault("geolocation.iplocate_api_key", "")
	v.SetDefault("geolocation.iplocate_url", "")
	v.SetDefault("geolocation.iplocate_rate", 2)
	v.SetDefault("geolocation.nominatim_url", "")
	v.SetDefault("geolocation.nominatim_rate", 1)
	v.SetDefault("geolocation.nominatim_user_agent", "Medifly-App")
	v.SetDefault("geolocation.trust_proxy_header", false)

	v.SetDefault("phonepe.merchant_id", "PGTESTPAYUAT")
	v.SetDefault("phonepe.salt_key", "099eb0cd-02cf-4e2a-8aca-3e6c6aff0399")
	v.SetDefault("phonepe.salt_index", "1")
	v.SetDefault("phonepe.production", false)
	v.SetDefault("phonepe.base_url", "")
	v.SetDefault("phonepe.redirect_url", "http://localhost:5173/payment/callback")
	v.SetDefault("phonepe.callback_url", "http://localhost:8080/v1/payments/phonepe/webhook")

	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "fulfillment-queue")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}

	s := c.Search
	if s.EarthRadiusKm <= 0 {
		errs = append(errs, "search.earth_radius_km must be positive")
	}
	if s.Weights.Name < 0 || s.Weights.Address < 0 || s.Weights.Phone < 0 {
		errs = append(errs, "search.weights must not be negative")
	}
	if math.Abs(s.Weights.Name+s.Weights.Address+s.Weights.Phone-1) > 1e-9 {
		errs = append(errs, "search.weights must sum to 1")
	}
	if !(s.Tiers.Exact >= s.Tiers.Substring && s.Tiers.Substring >= s.Tiers.FuzzyCap && s.Tiers.FuzzyCap >= 0) {
		errs = append(errs, "search.tiers must satisfy exact >= substring >= fuzzy_cap >= 0")
	}

	d := c.Drone
	if d.Tick <= 0 || d.TickInterval <= 0 {
		errs = append(errs, "drone.tick and drone.tick_interval must be positive")
	}
	if d.MoveRatio <= 0 || d.MoveRatio >= 1 {
		errs = append(errs, "drone.move_ratio must be in (0, 1)")
	}
	if d.MinAltitude > d.MaxAltitude || d.MinSpeed > d.MaxSpeed || d.MinSpeed <= 0 {
		errs = append(errs, "drone altitude/speed ranges are invalid")
	}

	if c.Location.Salt == "" {
		errs = append(errs, "location.salt is required")
	}
	if c.PhonePe.MerchantID == "" || c.PhonePe.SaltKey == "" || c.PhonePe.SaltIndex == "" {
		errs = append(errs, "phonepe.merchant_id, phonepe.salt_key and phonepe.salt_index are required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
