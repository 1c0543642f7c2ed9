package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// authKeys are the entries in the host's auth file that count as Chutes
// credentials. Only "chutes" carries a usable key; the others are legacy.
var authKeys = []string{"chutes", "CHUTES_API_TOKEN", "chutes_api_token"}

// AuthEntry is one provider credential in the host's auth file.
type AuthEntry struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

// AuthPath returns the location of the host's auth file, honoring
// XDG_DATA_HOME.
func AuthPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "opencode", "auth.json")
}

// ReadAuth parses the auth file at path into its raw entries.
func ReadAuth(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return entries, nil
}

// ChutesAPIKeyFromAuth returns the Chutes key stored in the auth file, or
// "" when the file is missing, unreadable, or has no usable entry.
func ChutesAPIKeyFromAuth(path string) string {
	entries, err := ReadAuth(path)
	if err != nil {
		return ""
	}
	raw, ok := entries["chutes"]
	if !ok {
		return ""
	}
	var entry AuthEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return ""
	}
	return entry.Key
}

// HasChutesAuth reports whether the auth file holds any non-empty Chutes
// credential entry.
func HasChutesAuth(path string) bool {
	entries, err := ReadAuth(path)
	if err != nil {
		return false
	}
	for _, key := range authKeys {
		if present(entries[key]) {
			return true
		}
	}
	return false
}

func present(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "false", `""`, "0":
		return false
	}
	return true
}
