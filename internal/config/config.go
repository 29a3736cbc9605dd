package config

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/sentrycore/site/internal/domain"
)

type Config struct {
	Site   Site   `yaml:"site"`
	Server Server `yaml:"server"`
}

type Site struct {
	URL              string `yaml:"url"` // allowed CORS origin, any when empty
	StorageURL       string `yaml:"storageURL"`
	PageSize         int    `yaml:"pageSize"`
	TransitionDelay  string `yaml:"transitionDelay"` // e.g. 200ms
	SequencedRefresh bool   `yaml:"sequencedRefresh"`
}

type Server struct {
	Listen        string  `yaml:"listen"`
	PostgresDsn   string  `yaml:"postgresDsn"`
	RedisAddr     string  `yaml:"redisAddr"`
	RedisPassword string  `yaml:"redisPassword"`
	RedisDB       int     `yaml:"redisDB"`
	MemcachedAddr string  `yaml:"memcachedAddr"`
	EnableTrace   bool    `yaml:"enableTrace"`
	TraceEndpoint string  `yaml:"traceEndpoint"`
	JWTSecret     string  `yaml:"jwtSecret"`
	JWTIssuer     string  `yaml:"jwtIssuer"`
	ContactRate   float64 `yaml:"contactRate"` // submissions per second per client
	ContactBurst  int     `yaml:"contactBurst"`
	LogLevel      string  `yaml:"logLevel"` // debug, info, warn, error
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode "+path)
	}

	if config.Server.Listen == "" {
		config.Server.Listen = ":8000"
	}
	if config.Site.PageSize <= 0 {
		config.Site.PageSize = domain.DefaultPageSize
	}
	if config.Server.ContactRate <= 0 {
		config.Server.ContactRate = 0.2
	}
	if config.Server.ContactBurst <= 0 {
		config.Server.ContactBurst = 3
	}

	_, err = config.transitionDelay()
	if err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) transitionDelay() (time.Duration, error) {
	if c.Site.TransitionDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Site.TransitionDelay)
	if err != nil {
		return 0, errors.Wrap(err, "invalid site.transitionDelay")
	}
	return d, nil
}

// Domain converts the file config into what the application layers consume.
func (c Config) Domain() domain.Config {
	delay, _ := c.transitionDelay()
	return domain.Config{
		StorageURL:      c.Site.StorageURL,
		PageSize:        c.Site.PageSize,
		TransitionDelay: delay,
		JWTSecret:       c.Server.JWTSecret,
		JWTIssuer:       c.Server.JWTIssuer,
	}
}
