// Package settings loads and saves the application settings file: the legal
// author identity and contact block used on manuscript title pages.
package settings

import (
	"encoding/json"
	"os"

	apperrors "github.com/smith-and-web/kindling-sub000/core/errors"
)

// Settings mirrors {app_data}/settings.json. All fields are optional.
type Settings struct {
	AuthorName          string `json:"author_name,omitempty"`
	ContactAddressLine1 string `json:"contact_address_line1,omitempty"`
	ContactAddressLine2 string `json:"contact_address_line2,omitempty"`
	ContactPhone        string `json:"contact_phone,omitempty"`
	ContactEmail        string `json:"contact_email,omitempty"`
}

// Load reads settings from path. A missing file yields zero-value settings,
// not an error.
func Load(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, apperrors.NewIO("read", path, err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, apperrors.NewParse("settings JSON", path, err.Error())
	}
	return s, nil
}

// Save writes settings to path as pretty-printed JSON.
func Save(path string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, "encoding settings")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperrors.NewIO("write", path, err)
	}
	return nil
}
