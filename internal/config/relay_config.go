package config

import (
	"time"

	"github.com/aleister1102/ogpreview/internal/imagerelay"
)

// RelayConfig controls re-hosting of discovered images.
type RelayConfig struct {
	Enabled       bool            `json:"enabled" yaml:"enabled"`
	ObjectStore   string          `json:"object_store,omitempty" yaml:"object_store,omitempty" validate:"omitempty,objectstore"`
	TimeoutSecs   int             `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"omitempty,min=1,max=300"`
	MaxImageBytes int64           `json:"max_image_bytes,omitempty" yaml:"max_image_bytes,omitempty" validate:"omitempty,min=1024"`
	Concurrency   int             `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"omitempty,min=1,max=16"`
	Bunny         BunnyConfig     `json:"bunny,omitempty" yaml:"bunny,omitempty"`
	File          FileStoreConfig `json:"file,omitempty" yaml:"file,omitempty"`
}

// BunnyConfig describes the Bunny storage zone images are uploaded to.
type BunnyConfig struct {
	Region      string `json:"region,omitempty" yaml:"region,omitempty"`
	StorageZone string `json:"storage_zone,omitempty" yaml:"storage_zone,omitempty"`
	AccessKey   string `json:"access_key,omitempty" yaml:"access_key,omitempty"`
	CDNBaseURL  string `json:"cdn_base_url,omitempty" yaml:"cdn_base_url,omitempty" validate:"omitempty,url"`
	MaxRetries  int    `json:"max_retries,omitempty" yaml:"max_retries,omitempty" validate:"omitempty,min=0,max=10"`
}

// FileStoreConfig places images on local disk behind a static URL prefix.
type FileStoreConfig struct {
	Dir           string `json:"dir,omitempty" yaml:"dir,omitempty"`
	PublicBaseURL string `json:"public_base_url,omitempty" yaml:"public_base_url,omitempty" validate:"omitempty,url"`
}

// NewDefaultRelayConfig creates default relay configuration
func NewDefaultRelayConfig() RelayConfig {
	relay := imagerelay.DefaultConfig()
	bunny := imagerelay.DefaultBunnyConfig()
	return RelayConfig{
		Enabled:       false,
		ObjectStore:   ObjectStoreBunny,
		TimeoutSecs:   int(relay.Timeout / time.Second),
		MaxImageBytes: relay.MaxImageBytes,
		Concurrency:   relay.Concurrency,
		Bunny: BunnyConfig{
			Region:      bunny.Region,
			StorageZone: bunny.StorageZone,
			CDNBaseURL:  bunny.CDNBaseURL,
			MaxRetries:  bunny.MaxRetries,
		},
		File: FileStoreConfig{
			Dir:           DefaultRelayFileDir,
			PublicBaseURL: DefaultRelayPublicBaseURL,
		},
	}
}

// ImageRelayConfig converts the relay section.
func (c RelayConfig) ImageRelayConfig() imagerelay.Config {
	def := imagerelay.DefaultConfig()
	out := def
	out.Timeout = seconds(c.TimeoutSecs, def.Timeout)
	if c.MaxImageBytes > 0 {
		out.MaxImageBytes = c.MaxImageBytes
	}
	if c.Concurrency > 0 {
		out.Concurrency = c.Concurrency
	}
	return out
}

// BunnyStoreConfig converts the bunny subsection.
func (c RelayConfig) BunnyStoreConfig() imagerelay.BunnyConfig {
	out := imagerelay.DefaultBunnyConfig()
	if c.Bunny.Region != "" {
		out.Region = c.Bunny.Region
	}
	if c.Bunny.StorageZone != "" {
		out.StorageZone = c.Bunny.StorageZone
	}
	if c.Bunny.CDNBaseURL != "" {
		out.CDNBaseURL = c.Bunny.CDNBaseURL
	}
	out.AccessKey = c.Bunny.AccessKey
	out.MaxRetries = c.Bunny.MaxRetries
	return out
}
