package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/andrejsm/readsync/internal/flagx"
	"github.com/andrejsm/readsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "3s"
// or as integer nanoseconds. Zero values leave the runtime Config untouched,
// so a partial file only overrides what it names.
type JsonConfig struct {
	ServiceURL       string         `json:"service_url"`
	AnonKey          string         `json:"anon_key"`
	DBPath           string         `json:"db_path"`
	DeviceName       string         `json:"device_name"`
	PageSize         int            `json:"page_size"`
	RequestTimeout   timex.Duration `json:"request_timeout"`
	DrainTimeout     timex.Duration `json:"drain_timeout"`
	PrefetchInterval timex.Duration `json:"prefetch_interval"`
}

// parseJson overlays Config with values loaded from the JSON file given via
// -c/-config. If no file is given the function is a no-op. Read or
// unmarshal errors panic; the process cannot do anything useful with a
// half-applied config.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServiceURL != "" {
		cfg.ServiceURL = jc.ServiceURL
	}
	if jc.AnonKey != "" {
		cfg.AnonKey = jc.AnonKey
	}
	if jc.DBPath != "" {
		cfg.DBPath = jc.DBPath
	}
	if jc.DeviceName != "" {
		cfg.DeviceName = jc.DeviceName
	}
	if jc.PageSize != 0 {
		cfg.PageSize = jc.PageSize
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
	if jc.DrainTimeout.Duration != 0 {
		cfg.DrainTimeout = time.Duration(jc.DrainTimeout.Duration)
	}
	if jc.PrefetchInterval.Duration != 0 {
		cfg.PrefetchInterval = time.Duration(jc.PrefetchInterval.Duration)
	}
}
