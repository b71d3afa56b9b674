package storage

import (
	"github.com/user-none/eblitnes/input"
	"github.com/user-none/eblitnes/remote"
)

// Config represents the application configuration stored in config.json
type Config struct {
	Version int          `json:"version"`
	Video   VideoConfig  `json:"video"`
	Input   InputConfig  `json:"input"`
	Remote  RemoteConfig `json:"remote"`
	Window  WindowConfig `json:"window"`
}

// VideoConfig contains video-related settings
type VideoConfig struct {
	ShowFPS bool `json:"showFPS"`
}

// InputConfig contains keyboard binding overrides. Only user overrides
// are stored; an empty button name unbinds the key.
type InputConfig struct {
	Keyboard    map[string]string `json:"keyboard,omitempty"` // key name -> button name
	AliasPolicy string            `json:"aliasPolicy"`        // "last-write" or "refcount"
}

// RemoteConfig controls the remote input server.
type RemoteConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
}

// WindowConfig contains window state
type WindowConfig struct {
	Fullscreen bool `json:"fullscreen"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Video: VideoConfig{
			ShowFPS: true,
		},
		Input: InputConfig{
			AliasPolicy: input.AliasLastWrite.String(),
		},
		Remote: RemoteConfig{
			Address: remote.DefaultAddress,
		},
	}
}

// Bindings returns the default key bindings with the configured
// overrides applied.
func (c *Config) Bindings() (input.Bindings, error) {
	return input.DefaultBindings().WithOverrides(c.Input.Keyboard)
}

// Policy returns the configured alias policy.
func (c *Config) Policy() (input.AliasPolicy, error) {
	return input.ParseAliasPolicy(c.Input.AliasPolicy)
}
