package storage

import (
	"encoding/json"
	"fmt"
	"net"
	"sort"

	"github.com/user-none/eblitnes/controller"
	"github.com/user-none/eblitnes/input"
)

// detectPresentKeys unmarshals JSON bytes to determine which config keys
// are explicitly present in the file. Returns a flat set of dotted-path keys
// (e.g., "video.showFPS"). Only fields whose zero value differs from the
// default are checked.
func detectPresentKeys(jsonBytes []byte) map[string]bool {
	present := make(map[string]bool)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(jsonBytes, &raw); err != nil {
		return present
	}

	if _, ok := raw["version"]; ok {
		present["version"] = true
	}

	nested := map[string][]string{
		"video":  {"showFPS"},
		"input":  {"aliasPolicy"},
		"remote": {"address"},
	}
	for section, keys := range nested {
		sectionRaw, ok := raw[section]
		if !ok {
			continue
		}
		var fields map[string]json.RawMessage
		if json.Unmarshal(sectionRaw, &fields) != nil {
			continue
		}
		for _, k := range keys {
			if _, ok := fields[k]; ok {
				present[section+"."+k] = true
			}
		}
	}

	return present
}

// ApplyMissingDefaults sets default values for config fields that are absent
// from the JSON file, preserving intentional zero values (e.g. showFPS=false).
func ApplyMissingDefaults(config *Config, presentKeys map[string]bool) {
	defaults := DefaultConfig()

	if !presentKeys["version"] {
		config.Version = defaults.Version
	}
	if !presentKeys["video.showFPS"] {
		config.Video.ShowFPS = defaults.Video.ShowFPS
	}
	if !presentKeys["input.aliasPolicy"] {
		config.Input.AliasPolicy = defaults.Input.AliasPolicy
	}
	if !presentKeys["remote.address"] {
		config.Remote.Address = defaults.Remote.Address
	}
}

// KeyCheck reports why a key name cannot be bound, or nil if it can.
// The host supplies it since key names depend on the keyboard backend.
type KeyCheck func(name string) error

// keyboardProblems returns one description per unusable entry in
// input.keyboard, keyed by the entry's key name.
func keyboardProblems(keyboard map[string]string, checkKey KeyCheck) map[string]string {
	problems := make(map[string]string)
	for key, button := range keyboard {
		if checkKey != nil {
			if err := checkKey(key); err != nil {
				problems[key] = err.Error()
				continue
			}
		}
		if button == "" {
			continue
		}
		if _, ok := controller.ParseButton(button); !ok {
			problems[key] = fmt.Sprintf("unknown button %q", button)
		}
	}
	return problems
}

// ValidateConfig checks all config fields and returns human-readable error
// descriptions. An empty slice means the config is valid. checkKey, if
// non-nil, validates the key names in input.keyboard.
func ValidateConfig(config *Config, checkKey KeyCheck) []string {
	var errors []string

	if config.Version != 1 {
		errors = append(errors, fmt.Sprintf("version: %d (valid: 1)", config.Version))
	}

	if _, err := config.Policy(); err != nil {
		errors = append(errors, fmt.Sprintf("input.aliasPolicy: %q (valid: %q, %q)",
			config.Input.AliasPolicy, input.AliasLastWrite, input.AliasRefCount))
	}

	problems := keyboardProblems(config.Input.Keyboard, checkKey)
	keys := make([]string, 0, len(problems))
	for k := range problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		errors = append(errors, fmt.Sprintf("input.keyboard.%s: %s", k, problems[k]))
	}

	if _, _, err := net.SplitHostPort(config.Remote.Address); err != nil {
		errors = append(errors, fmt.Sprintf("remote.address: %q (valid: host:port)", config.Remote.Address))
	}

	return errors
}

// CorrectConfig resets any invalid fields to their defaults from DefaultConfig()
// and drops unusable key bindings. Valid fields are preserved and config
// is not modified.
func CorrectConfig(config *Config, checkKey KeyCheck) *Config {
	defaults := DefaultConfig()
	corrected := *config

	if corrected.Version != 1 {
		corrected.Version = defaults.Version
	}
	if _, err := corrected.Policy(); err != nil {
		corrected.Input.AliasPolicy = defaults.Input.AliasPolicy
	}
	if problems := keyboardProblems(config.Input.Keyboard, checkKey); len(problems) > 0 {
		keyboard := make(map[string]string, len(config.Input.Keyboard))
		for k, v := range config.Input.Keyboard {
			if _, bad := problems[k]; !bad {
				keyboard[k] = v
			}
		}
		corrected.Input.Keyboard = keyboard
	}
	if _, _, err := net.SplitHostPort(corrected.Remote.Address); err != nil {
		corrected.Remote.Address = defaults.Remote.Address
	}

	return &corrected
}
