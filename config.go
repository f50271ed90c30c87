package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// defaultCategory is the data category used when none is configured.
	defaultCategory = "headway"
)

// Config is the configuration struct for the service.
type Config struct {
	// BackendURL is the dashboard backend base url.
	BackendURL string
	// DataFilepath is the filepath to recorded backend data.
	DataFilepath string
	// Route is the selected route id.
	Route string
	// Stop is the selected station name.
	Stop string
	// Destination is the travel time destination station name.
	Destination string
	// Category is the selected data category.
	Category string
	// Period is the chunking period in hours.
	Period int
	// Watch is the daily refresh flag.
	Watch bool
	// ArchiveEndpoint is the report archive endpoint.
	ArchiveEndpoint string
	// ArchiveUser is the report archive user.
	ArchiveUser string
	// ArchivePass is the report archive user pass.
	ArchivePass string
	// History is the archived report listing flag.
	History bool

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.BackendURL == "" && cfg.DataFilepath == "" {
		errs = errors.Join(errs, fmt.Errorf("backend url cannot be an empty string without a data filepath"))
	}
	if cfg.Route == "" {
		errs = errors.Join(errs, fmt.Errorf("route cannot be an empty string"))
	}
	if cfg.Stop == "" {
		errs = errors.Join(errs, fmt.Errorf("stop cannot be an empty string"))
	}
	if cfg.Period < 0 {
		errs = errors.Join(errs, fmt.Errorf("period cannot be negative"))
	}
	if cfg.ArchiveUser != "" && cfg.ArchiveEndpoint == "" {
		errs = errors.Join(errs, fmt.Errorf("archive user provided without an archive endpoint"))
	}
	if cfg.History && cfg.ArchiveEndpoint == "" {
		errs = errors.Join(errs, fmt.Errorf("history requested without an archive endpoint"))
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	flags := []struct {
		name  string
		value interface{}
		usage string
	}{
		{"backendurl", &cfg.BackendURL, "the dashboard backend url"},
		{"datafilepath", &cfg.DataFilepath, "the recorded backend data filepath, replaces the backend"},
		{"route", &cfg.Route, "the route id, e.g. Red or Green-B"},
		{"stop", &cfg.Stop, "the station name"},
		{"destination", &cfg.Destination, "the travel time destination station name"},
		{"category", &cfg.Category, "the data category: headway, dwell or traveltime"},
		{"period", &cfg.Period, "the chunking period in hours"},
		{"watch", &cfg.Watch, "the daily refresh flag"},
		{"archiveendpoint", &cfg.ArchiveEndpoint, "the report archive endpoint"},
		{"archiveuser", &cfg.ArchiveUser, "the report archive user"},
		{"archivepass", &cfg.ArchivePass, "the report archive user pass"},
		{"history", &cfg.History, "the archived report listing flag"},
	}

	// Register command line arguments using loaded environment variables as defaults.
	for _, f := range flags {
		err = cfg.registerFlag(f.name, f.value, f.usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	if cfg.Category == "" {
		cfg.Category = defaultCategory
	}

	return cfg.Validate()
}
