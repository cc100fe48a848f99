package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SettingAPIKey is the settings key holding the GoedGepickt API key when it
// is managed through the application instead of the environment.
const SettingAPIKey = "goedgepickt_api_key"

// Setting returns the value for key, or "" when the key is unset.
func (s *Store) Setting(key string) (string, error) {
	var value string
	err := s.q.Get("get-setting", &value, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting inserts or replaces a settings value.
func (s *Store) SetSetting(key, value string) error {
	if _, err := s.q.Exec("upsert-setting", key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
