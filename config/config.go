// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultBulkMaxSize bounds the number of entity refs per queue item.
	DefaultBulkMaxSize = 10

	// DefaultEnvironment is the only remote environment currently served.
	DefaultEnvironment = "prod"
)

// Config aggregates configuration for the application.
type Config struct {
	Site     SiteConfig   `mapstructure:"site"`
	API      APIConfig    `mapstructure:"api"`
	Source   SourceConfig `mapstructure:"source"`
	Queue    QueueConfig  `mapstructure:"queue"`
	Entities EntityMap    `mapstructure:"entities"`
}

// SiteConfig identifies this site to the personalization service.
type SiteConfig struct {
	SiteID      string `mapstructure:"site_id"`
	AccountID   string `mapstructure:"account_id"`
	SiteHash    string `mapstructure:"site_hash"`
	Environment string `mapstructure:"environment"`
	BaseURL     string `mapstructure:"base_url"`
}

// APIConfig configures the remote push endpoint.
type APIConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SourceConfig configures the host content API the pipeline reads from.
type SourceConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// QueueConfig configures export queue behavior.
type QueueConfig struct {
	BulkMaxSize int `mapstructure:"bulk_max_size"`
}

// accountIDPattern matches valid personalization account identifiers.
var accountIDPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z\d_]*$`)

// Load reads configuration from config.yaml and environment variables.
// Environment variables use the prefix "CONTENTPUSH" and the dot character
// in keys is replaced by an underscore. For example, "site.account_id"
// becomes "CONTENTPUSH_SITE_ACCOUNT_ID".
func Load() (*Config, error) {
	cfg := &Config{
		Site: SiteConfig{
			Environment: DefaultEnvironment,
		},
		API: APIConfig{
			Timeout: 30 * time.Second,
		},
		Queue: QueueConfig{
			BulkMaxSize: DefaultBulkMaxSize,
		},
	}

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("CONTENTPUSH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.ReadInConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration, rejecting malformed entries
// instead of letting them surface as lookup failures mid-export.
func (c *Config) Validate() error {
	if c.Queue.BulkMaxSize <= 0 {
		return fmt.Errorf("queue.bulk_max_size must be positive, got %d", c.Queue.BulkMaxSize)
	}
	if c.Site.AccountID != "" && !accountIDPattern.MatchString(c.Site.AccountID) {
		return fmt.Errorf("site.account_id %q is not a valid account identifier", c.Site.AccountID)
	}
	if c.Site.Environment == "" {
		c.Site.Environment = DefaultEnvironment
	}
	return c.Entities.Validate()
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(time.Duration(0)) {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
