package config

import (
	"errors"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config defines the app configuration.
type Config struct {
	Server struct {
		Port     int    `yaml:"port" env:"PORT" env-default:"4000"`
		Env      string `yaml:"env" env:"ENV" env-default:"development"`
		LogLevel string `yaml:"log_level" env:"LOGLEVEL" env-default:"info"`
	} `yaml:"server"`
	Database struct {
		Driver       string `yaml:"driver" env:"DBDRIVER" env-default:"postgres"`
		DSN          string `yaml:"dsn" env:"DSN"`
		MaxOpenConns int    `yaml:"max_open_conns" env:"MAXOPENCONNS" env-default:"25"`
		MaxIdleConns int    `yaml:"max_idle_conns" env:"MAXIDLECONNS" env-default:"25"`
		MaxIdleTime  string `yaml:"max_idle_time" env:"MAXIDLETIME" env-default:"15m"`
	} `yaml:"database"`
	Limiter struct {
		RPS     float64 `yaml:"rps" env:"RPS" env-default:"4"`
		Burst   int     `yaml:"burst" env:"BURST" env-default:"8"`
		Enabled bool    `yaml:"enabled" env:"LENABLED" env-default:"true"`
	} `yaml:"limiter"`
	Cors struct {
		TrustedOrigins []string `yaml:"trusted_origins" env:"TRUSTEDORIGINS" env-separator:" "`
	} `yaml:"cors"`
	Metrics struct {
		Enabled bool `yaml:"enabled" env:"MENABLED"`
	} `yaml:"metrics"`
	BasicAuth struct {
		Username string `yaml:"username" env:"BASICAUTHUSERNAME"`
		Password string `yaml:"password" env:"BASICAUTHPASSWORD"`
	} `yaml:"basic_auth"`
	Admin struct {
		Username string `yaml:"username" env:"ADMINUSERNAME" env-default:"admin"`
		Password string `yaml:"password" env:"ADMINPASSWORD"`
		Email    string `yaml:"email" env:"ADMINEMAIL" env-default:"admin@localhost.localdomain"`
	} `yaml:"admin"`
	BookData struct {
		GoogleBooksURL string `yaml:"google_books_url" env:"GOOGLEBOOKSURL" env-default:"https://www.googleapis.com/books/v1/volumes"`
		OpenLibraryURL string `yaml:"open_library_url" env:"OPENLIBRARYURL" env-default:"https://openlibrary.org/api/books"`
		APIKey         string `yaml:"api_key" env:"GOOGLEAPIKEY"`
		Timeout        string `yaml:"timeout" env:"BOOKDATATIMEOUT" env-default:"10s"`
		CacheTTL       string `yaml:"cache_ttl" env:"BOOKDATACACHETTL" env-default:"1h"`
	} `yaml:"bookdata"`
	Covers struct {
		Backend string `yaml:"backend" env:"COVERSBACKEND" env-default:"dir"`
		Dir     string `yaml:"dir" env:"COVERSDIR" env-default:"./data/covers"`
	} `yaml:"covers"`
	S3 struct {
		AccessKeyID     string `yaml:"access_key_id" env:"ACCESSKEYID"`
		SecretAccessKey string `yaml:"secret_access_key" env:"SECRETACCESSKEY"`
		Region          string `yaml:"region" env:"REGION"`
		Bucket          string `yaml:"bucket" env:"BUCKET"`
	} `yaml:"s3"`
	Import struct {
		TempDir string `yaml:"temp_dir" env:"IMPORTTEMPDIR"`
	} `yaml:"import"`
}

// Decode reads the configuration from the YAML file at path, letting environment
// variables override file values. When the file does not exist the configuration
// is read from the environment alone.
func Decode(path string) (Config, error) {
	var cfg Config
	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return Config{}, err
			}
			return cfg, nil
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, err
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
