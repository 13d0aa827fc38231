package advdec

import (
	"fmt"
	"log"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/tsrajpurohit/AdvDec/internal/recorder"
	"github.com/tsrajpurohit/AdvDec/internal/table"
)

// Fetcher retrieves raw datasets from the market data provider.
type Fetcher interface {
	MostActive() (interface{}, error)
	AdvancesDeclines() (interface{}, error)
}

// Uploader writes a table to a named tab of the target spreadsheet.
type Uploader interface {
	Upload(t *table.Table, tabName string) error
}

// Notifier receives the human readable run summary. Summaries of runs with
// failed datasets go through SendError.
type Notifier interface {
	SendText(text string) error
	SendError(text string) error
}

// AdvDec runs the fetch, normalize and publish pipeline for both NSE
// datasets. The datasets are fully independent: a failure in one never
// blocks the other.
type AdvDec struct {
	Settings *Settings
	API      Fetcher
	Sheets   Uploader
	Recorder recorder.Recorder
	Notifier Notifier

	sleep func(time.Duration)
}

type dataset struct {
	name    string
	tabName string
	csvName string
	fetch   func() (interface{}, error)
}

func (a *AdvDec) Run() {
	datasets := []dataset{
		{
			name:    "most-active",
			tabName: MostActiveTab,
			csvName: MostActiveCSV,
			fetch:   a.fetchMostActive,
		},
		{
			name:    "advances-declines",
			tabName: AdvDecTab,
			csvName: AdvDecCSV,
			fetch:   a.API.AdvancesDeclines,
		},
	}

	records := make([]*recorder.RunRecord, 0, len(datasets))
	for _, d := range datasets {
		records = append(records, a.runDataset(d))
	}
	a.notify(records)
}

func (a *AdvDec) runDataset(d dataset) *recorder.RunRecord {
	rec := &recorder.RunRecord{
		Dataset:   d.name,
		StartedAt: time.Now(),
	}
	defer func() {
		rec.FinishedAt = time.Now()
		if a.Recorder == nil {
			return
		}
		if err := a.Recorder.RecordRun(rec); err != nil {
			log.Printf("Unable to record %s run: %s\n", d.name, err.Error())
		}
	}()

	raw, err := d.fetch()
	if err != nil {
		fail(rec, "fetch", err)
		log.Printf("Error fetching %s data: %s\n", d.name, err.Error())
		return rec
	}
	if raw == nil {
		rec.Status = recorder.StatusSkipped
		log.Printf("No %s data returned, skipping.\n", d.name)
		return rec
	}

	t, err := table.Normalize(raw)
	if err != nil {
		fail(rec, "normalize", err)
		log.Printf("Error normalizing %s data: %s\n", d.name, err.Error())
		return rec
	}
	if t.Empty() {
		rec.Status = recorder.StatusSkipped
		log.Printf("No %s rows after normalization, skipping.\n", d.name)
		return rec
	}
	rec.Rows = len(t.Rows)

	// The two sinks are independent; one failing must not stop the other.
	if err := a.Sheets.Upload(t, d.tabName); err != nil {
		fail(rec, "upload", err)
		log.Printf("Error uploading %s to worksheet '%s': %s\n", d.name, d.tabName, err.Error())
	} else {
		log.Printf("Data uploaded to '%s' successfully.\n", d.tabName)
	}

	csvPath := filepath.Join(a.Settings.OutputDir, d.csvName)
	if err := t.WriteCSV(csvPath); err != nil {
		fail(rec, "csv", err)
		log.Printf("Error saving %s data to CSV: %s\n", d.name, err.Error())
	} else {
		log.Printf("%s data saved to CSV: %s\n", d.name, csvPath)
	}

	if rec.Status == "" {
		rec.Status = recorder.StatusOK
	}
	return rec
}

// fetchMostActive retries transient provider failures, sleeping a random
// duration between RetryDelay and twice RetryDelay before each new attempt.
func (a *AdvDec) fetchMostActive() (interface{}, error) {
	retries := a.Settings.FetchRetries
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		raw, err := a.API.MostActive()
		if err == nil {
			return raw, nil
		}
		lastErr = err
		log.Printf("Error fetching most-active data (attempt %d/%d): %s\n", attempt, retries, err.Error())
		if attempt < retries {
			a.wait()
		}
	}
	return nil, lastErr
}

func (a *AdvDec) wait() {
	delay := a.Settings.RetryDelay
	if delay <= 0 {
		return
	}
	d := delay + time.Duration(rand.Int63n(int64(delay)))
	if a.sleep != nil {
		a.sleep(d)
		return
	}
	time.Sleep(d)
}

func (a *AdvDec) notify(records []*recorder.RunRecord) {
	if a.Notifier == nil {
		return
	}

	failed := false
	b := strings.Builder{}
	fmt.Fprintf(&b, "AdvDec run finished\n")
	for _, rec := range records {
		switch rec.Status {
		case recorder.StatusFailed:
			failed = true
			fmt.Fprintf(&b, "%s: failed at %s (%s)\n", rec.Dataset, rec.Stage, rec.Error)
		case recorder.StatusSkipped:
			fmt.Fprintf(&b, "%s: no data\n", rec.Dataset)
		default:
			fmt.Fprintf(&b, "%s: %d rows\n", rec.Dataset, rec.Rows)
		}
	}

	send := a.Notifier.SendText
	if failed {
		send = a.Notifier.SendError
	}
	if err := send(b.String()); err != nil {
		log.Printf("Unable to send run summary: %s\n", err.Error())
	}
}

func fail(rec *recorder.RunRecord, stage string, err error) {
	rec.Status = recorder.StatusFailed
	if rec.Stage == "" {
		rec.Stage = stage
	}
	if rec.Error != "" {
		rec.Error += "; "
	}
	rec.Error += err.Error()
}
