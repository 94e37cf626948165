// Package config loads settings for the panel binaries from an optional YAML
// file, a .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Placeholder is the documented stand-in for credentials; it counts as unset.
const Placeholder = "OR_PUT_KEY_HERE"

// DefaultVenue is the venue searched when EVENTFUL_VENUES is unset.
const DefaultVenue = "V0-001-011627287-1"

// Configuration errors.
var (
	// ErrMissingCredential is returned when a required key or identifier is unset.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalid is returned when a value cannot be parsed or is out of range.
	ErrInvalid = errors.New("invalid configuration")
)

// Config holds settings for all three binaries.
type Config struct {
	App        AppConfig        `yaml:"app"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	AirQuality AirQualityConfig `yaml:"air_quality"`
	Events     EventsConfig     `yaml:"events"`
	Waker      WakerConfig      `yaml:"waker"`
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	Env       string `yaml:"env"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled        bool          `yaml:"enabled"`
	OTLPEndpoint   string        `yaml:"otlp_endpoint"`
	ExportInterval time.Duration `yaml:"export_interval"`
}

// AirQualityConfig holds settings for the AQI poller.
type AirQualityConfig struct {
	APIKey     string        `yaml:"api_key"`
	DeviceID   string        `yaml:"device_id"`
	BaseURL    string        `yaml:"base_url"`
	Interval   time.Duration `yaml:"interval"`
	Output     string        `yaml:"output"`
	StatusAddr string        `yaml:"status_addr"`
}

// EventsConfig holds settings for the events digest.
type EventsConfig struct {
	AppKey     string        `yaml:"app_key"`
	Venues     []string      `yaml:"venues"`
	BaseURL    string        `yaml:"base_url"`
	PageSize   int           `yaml:"page_size"`
	LineBudget int           `yaml:"line_budget"`
	Output     string        `yaml:"output"`
	StatusLog  string        `yaml:"status_log"`
	Interval   time.Duration `yaml:"interval"`
}

// WakerConfig holds settings for the screen waker.
type WakerConfig struct {
	SensorLine  int           `yaml:"sensor_line"`
	LEDLine     int           `yaml:"led_line"`
	GPIOChip    string        `yaml:"gpio_chip"`
	DPMSTimeout time.Duration `yaml:"dpms_timeout"`
	Tick        time.Duration `yaml:"tick"`
	Display     string        `yaml:"display"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		App: AppConfig{
			Env:       "development",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint:   "localhost:4317",
			ExportInterval: 15 * time.Second,
		},
		AirQuality: AirQualityConfig{
			APIKey:   Placeholder,
			DeviceID: Placeholder,
			BaseURL:  "https://api.kaiterra.cn/v1",
			Interval: 60 * time.Second,
			Output:   "aqi.html",
		},
		Events: EventsConfig{
			AppKey:     Placeholder,
			Venues:     []string{DefaultVenue},
			BaseURL:    "http://api.eventful.com/json",
			PageSize:   10,
			LineBudget: 20,
			Output:     "events.html",
			StatusLog:  "get_events.log",
		},
		Waker: WakerConfig{
			SensorLine:  14,
			LEDLine:     15,
			GPIOChip:    "gpiochip0",
			DPMSTimeout: 120 * time.Second,
			Tick:        time.Second,
		},
	}
}

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// File is an optional YAML file. Empty skips it.
	File string

	// EnvFiles are dotenv files. Missing files are ignored.
	EnvFiles []string

	// LookupEnv reads the process environment (default: os.LookupEnv).
	LookupEnv func(key string) (string, bool)
}

// Load reads HOMEPANEL_CONFIG (if set), .env and the environment.
func Load() (*Config, error) {
	return LoadWith(LoadOptions{
		File:     os.Getenv("HOMEPANEL_CONFIG"),
		EnvFiles: []string{".env"},
	})
}

// LoadWith loads configuration using explicit sources.
func LoadWith(opts LoadOptions) (*Config, error) {
	cfg := Default()

	if opts.File != "" {
		if err := loadYAML(opts.File, &cfg); err != nil {
			return nil, err
		}
	}

	dotenv, err := readEnvFiles(opts.EnvFiles)
	if err != nil {
		return nil, err
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	env := envSource{dotenv: dotenv, lookup: lookup}
	if err := env.apply(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: parse %s: %w", ErrInvalid, path, err)
	}
	if len(doc.Content) == 0 {
		return nil
	}

	secondsToDurations(doc.Content[0], reflect.TypeOf(*cfg))
	if err := doc.Content[0].Decode(cfg); err != nil {
		return fmt.Errorf("%w: parse %s: %w", ErrInvalid, path, err)
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// secondsToDurations rewrites bare integers under time.Duration fields as
// seconds, so "interval: 60" means the same in YAML as AQI_INTERVAL=60.
func secondsToDurations(node *yaml.Node, t reflect.Type) {
	if node.Kind != yaml.MappingNode || t.Kind() != reflect.Struct {
		return
	}

	fields := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		fields[name] = f.Type
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		ft, ok := fields[key.Value]
		if !ok {
			continue
		}
		if ft == durationType && value.Kind == yaml.ScalarNode && value.Tag == "!!int" {
			value.Value += "s"
			value.Tag = "!!str"
			continue
		}
		secondsToDurations(value, ft)
	}
}

func readEnvFiles(files []string) (map[string]string, error) {
	merged := make(map[string]string)
	for _, file := range files {
		values, err := godotenv.Read(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrInvalid, file, err)
		}
		for k, v := range values {
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
	}
	return merged, nil
}

// envSource resolves a variable from the environment, then the dotenv files.
type envSource struct {
	dotenv map[string]string
	lookup func(string) (string, bool)
}

func (e envSource) get(key string) (string, bool) {
	if v, ok := e.lookup(key); ok {
		return v, true
	}
	v, ok := e.dotenv[key]
	return v, ok
}

func (e envSource) apply(cfg *Config) error {
	e.str("APP_ENV", &cfg.App.Env)
	e.str("LOG_LEVEL", &cfg.App.LogLevel)
	e.str("LOG_FORMAT", &cfg.App.LogFormat)

	e.str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint)
	if v, ok := e.get("OTEL_ENABLED"); ok {
		cfg.Telemetry.Enabled = v == "true"
	}

	e.str("KAITERRA_KEY", &cfg.AirQuality.APIKey)
	e.str("LASEREGG_SERIAL1", &cfg.AirQuality.DeviceID)
	e.str("KAITERRA_BASE_URL", &cfg.AirQuality.BaseURL)
	e.str("AQI_OUTPUT", &cfg.AirQuality.Output)
	e.str("STATUS_ADDR", &cfg.AirQuality.StatusAddr)

	e.str("EVENTFUL_KEY", &cfg.Events.AppKey)
	e.str("EVENTFUL_BASE_URL", &cfg.Events.BaseURL)
	e.str("EVENTS_OUTPUT", &cfg.Events.Output)
	e.str("EVENTS_LOG", &cfg.Events.StatusLog)
	if v, ok := e.get("EVENTFUL_VENUES"); ok {
		cfg.Events.Venues = splitList(v)
	}

	e.str("GPIO_CHIP", &cfg.Waker.GPIOChip)
	e.str("DISPLAY", &cfg.Waker.Display)

	return errors.Join(
		e.duration("OTEL_METRIC_EXPORT_INTERVAL", &cfg.Telemetry.ExportInterval),
		e.duration("AQI_INTERVAL", &cfg.AirQuality.Interval),
		e.integer("EVENTS_PAGE_SIZE", &cfg.Events.PageSize),
		e.integer("EVENTS_LINE_BUDGET", &cfg.Events.LineBudget),
		e.duration("EVENTS_INTERVAL", &cfg.Events.Interval),
		e.integer("GPIO_SENSOR_LINE", &cfg.Waker.SensorLine),
		e.integer("GPIO_LED_LINE", &cfg.Waker.LEDLine),
		e.duration("DPMS_TIMEOUT", &cfg.Waker.DPMSTimeout),
		e.duration("WAKER_TICK", &cfg.Waker.Tick),
	)
}

func (e envSource) str(key string, dst *string) {
	if v, ok := e.get(key); ok && v != "" {
		*dst = v
	}
}

func (e envSource) integer(key string, dst *int) error {
	v, ok := e.get(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, v)
	}
	*dst = n
	return nil
}

// duration accepts Go durations ("90s") or a bare number of seconds.
func (e envSource) duration(key string, dst *time.Duration) error {
	v, ok := e.get(key)
	if !ok || v == "" {
		return nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a duration", ErrInvalid, key, v)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isSet(v string) bool {
	return v != "" && v != Placeholder
}

func missing(name string) error {
	return fmt.Errorf("%w: %s is not set", ErrMissingCredential, name)
}

// ValidateAirQuality checks the settings the AQI poller needs.
func (c *Config) ValidateAirQuality() error {
	var errs []error
	if !isSet(c.AirQuality.APIKey) {
		errs = append(errs, missing("KAITERRA_KEY"))
	}
	if !isSet(c.AirQuality.DeviceID) {
		errs = append(errs, missing("LASEREGG_SERIAL1"))
	}
	if c.AirQuality.Interval <= 0 {
		errs = append(errs, fmt.Errorf("%w: AQI_INTERVAL must be positive", ErrInvalid))
	}
	return errors.Join(errs...)
}

// ValidateEvents checks the settings the events digest needs.
func (c *Config) ValidateEvents() error {
	var errs []error
	if !isSet(c.Events.AppKey) {
		errs = append(errs, missing("EVENTFUL_KEY"))
	}
	if len(c.Events.Venues) == 0 {
		errs = append(errs, missing("EVENTFUL_VENUES"))
	}
	if c.Events.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: EVENTS_PAGE_SIZE must be positive", ErrInvalid))
	}
	if c.Events.LineBudget <= 0 {
		errs = append(errs, fmt.Errorf("%w: EVENTS_LINE_BUDGET must be positive", ErrInvalid))
	}
	if c.Events.Interval < 0 {
		errs = append(errs, fmt.Errorf("%w: EVENTS_INTERVAL must not be negative", ErrInvalid))
	}
	return errors.Join(errs...)
}

// ValidateWaker checks the settings the screen waker needs. DISPLAY is
// optional: without it the waker still mirrors presence onto the LED.
func (c *Config) ValidateWaker() error {
	var errs []error
	if c.Waker.SensorLine < 0 || c.Waker.LEDLine < 0 {
		errs = append(errs, fmt.Errorf("%w: GPIO lines must not be negative", ErrInvalid))
	}
	if c.Waker.SensorLine == c.Waker.LEDLine {
		errs = append(errs, fmt.Errorf("%w: GPIO_SENSOR_LINE and GPIO_LED_LINE must differ", ErrInvalid))
	}
	if c.Waker.Tick <= 0 {
		errs = append(errs, fmt.Errorf("%w: WAKER_TICK must be positive", ErrInvalid))
	}
	if c.Waker.DPMSTimeout < time.Second {
		errs = append(errs, fmt.Errorf("%w: DPMS_TIMEOUT must be at least 1s", ErrInvalid))
	}
	return errors.Join(errs...)
}
