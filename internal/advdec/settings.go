package advdec

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const (
	EnvCredentials = "GOOGLE_SHEETS_CREDENTIALS"
	EnvSheetID     = "SHEET_ID"
	EnvHistoryDB   = "ADVDEC_HISTORY_DB"
	EnvWebHook     = "DISCORD_WEBHOOK"
)

const (
	DefaultFetchRetries = 3
	DefaultRetryDelay   = 2 * time.Second

	MostActiveTab = "Most Active"
	AdvDecTab     = "Adv_Dec"
	MostActiveCSV = "Most_Active.csv"
	AdvDecCSV     = "Adv_Dec.csv"
)

// Settings is the job configuration, loaded once in main and passed down
// explicitly.
type Settings struct {
	CredentialsJSON []byte
	SheetID         string
	HistoryDBPath   string
	DiscordWebHook  string
	OutputDir       string
	FetchRetries    int
	RetryDelay      time.Duration
}

// LoadSettingsFromEnv reads the job configuration from the environment. The
// credentials blob and the target sheet are required; everything else has
// defaults.
func LoadSettingsFromEnv() (*Settings, error) {
	credentials := os.Getenv(EnvCredentials)
	if credentials == "" {
		return nil, fmt.Errorf("%s environment variable is not set", EnvCredentials)
	}
	if !json.Valid([]byte(credentials)) {
		return nil, fmt.Errorf("%s does not contain valid JSON", EnvCredentials)
	}

	sheetID := os.Getenv(EnvSheetID)
	if sheetID == "" {
		return nil, fmt.Errorf("%s environment variable is not set", EnvSheetID)
	}

	return &Settings{
		CredentialsJSON: []byte(credentials),
		SheetID:         sheetID,
		HistoryDBPath:   os.Getenv(EnvHistoryDB),
		DiscordWebHook:  os.Getenv(EnvWebHook),
		OutputDir:       ".",
		FetchRetries:    DefaultFetchRetries,
		RetryDelay:      DefaultRetryDelay,
	}, nil
}
