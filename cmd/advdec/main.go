package main

import (
	"context"
	"log"

	"github.com/tsrajpurohit/AdvDec/internal/advdec"
	"github.com/tsrajpurohit/AdvDec/internal/discord"
	"github.com/tsrajpurohit/AdvDec/internal/nse"
	"github.com/tsrajpurohit/AdvDec/internal/recorder"
	"github.com/tsrajpurohit/AdvDec/internal/sheets"
)

const VersionNumber = "1.2.0"

const nseBaseURL = "https://www.nseindia.com"

func main() {
	log.Printf("Starting advdec (v%s)\n", VersionNumber)

	settings, err := advdec.LoadSettingsFromEnv()
	if err != nil {
		log.Fatalf("%s\n", err.Error())
	}

	checkLatestVersion()

	ctx := context.Background()
	sheetsClient, err := sheets.NewClient(ctx, settings.SheetID, settings.CredentialsJSON)
	if err != nil {
		log.Fatalf("Unable to create Sheets client: %s\n", err.Error())
	}

	rec := initRecorder(settings.HistoryDBPath)
	defer rec.Close()

	api := nse.NewAPI(nse.APIParams{BaseURL: nseBaseURL})
	defer api.Cancel()

	job := advdec.AdvDec{
		Settings: settings,
		API:      api,
		Sheets:   sheetsClient,
		Recorder: rec,
		Notifier: &discord.WebHook{
			URL:     settings.DiscordWebHook,
			Enabled: settings.DiscordWebHook != "",
		},
	}
	job.Run()

	log.Printf("Exiting advdec")
}

func initRecorder(path string) recorder.Recorder {
	if path == "" {
		return &recorder.NoopRecorder{}
	}
	r, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		log.Printf("Unable to open run history '%s': %s\n", path, err.Error())
		return &recorder.NoopRecorder{}
	}
	return r
}
