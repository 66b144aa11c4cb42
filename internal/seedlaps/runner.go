package seedlaps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/hotlap/pkg/logger"
)

const requestTimeout = 10 * time.Second

// Stats accumulates the outcome of a seeding run.
type Stats struct {
	Created       int
	UpdatedBest   int
	IgnoredSlower int
	Ghosts        int
	Failures      int
}

// Run generates laps and sends them to the target instance.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("seedlaps")
	client := &http.Client{Timeout: requestTimeout}
	stats := &Stats{}

	laps := generateLaps(cfg)
	log.Info(ctx, "seeding laps",
		logger.String("target", cfg.BaseURL),
		logger.Int("submissions", len(laps)),
		logger.Int("drivers", cfg.Drivers),
	)

	for i := range laps {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		var (
			status string
			err    error
		)
		if laps[i].Ghost != nil {
			err = postGhost(ctx, client, cfg.BaseURL, &laps[i])
			if err == nil {
				stats.Ghosts++
			}
		} else {
			status, err = postTime(ctx, client, cfg.BaseURL, &laps[i])
		}
		if err != nil {
			stats.Failures++
			log.Warn(ctx, "submission failed", logger.Error(err))
			continue
		}

		switch status {
		case "created":
			stats.Created++
		case "updated_best":
			stats.UpdatedBest++
		case "ignored_slower":
			stats.IgnoredSlower++
		}
	}

	log.Info(ctx, "seeding finished",
		logger.Int("created", stats.Created),
		logger.Int("updated_best", stats.UpdatedBest),
		logger.Int("ignored_slower", stats.IgnoredSlower),
		logger.Int("ghosts", stats.Ghosts),
		logger.Int("failures", stats.Failures),
	)
	return stats, nil
}

func postTime(ctx context.Context, client *http.Client, baseURL string, lap *Lap) (string, error) {
	body, err := json.Marshal(map[string]any{
		"driver_id":    lap.DriverID,
		"name":         lap.Name,
		"car":          lap.Car,
		"track":        lap.Track,
		"layout":       lap.Layout,
		"condition":    lap.Condition,
		"weather":      lap.Weather,
		"timing":       lap.Timing,
		"ghost_length": lap.GhostLength,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/times", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, data)
	}

	var res struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", err
	}
	return res.Status, nil
}

func postGhost(ctx context.Context, client *http.Client, baseURL string, lap *Lap) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"driver_id":    lap.DriverID,
		"name":         lap.Name,
		"car":          strconv.Itoa(lap.Car),
		"track":        strconv.Itoa(lap.Track),
		"layout":       strconv.Itoa(lap.Layout),
		"condition":    strconv.Itoa(lap.Condition),
		"weather":      strconv.Itoa(lap.Weather),
		"timing":       strconv.FormatFloat(lap.Timing, 'f', -1, 64),
		"ghost_length": strconv.Itoa(lap.GhostLength),
		"sha256":       lap.SHA256,
		"size":         strconv.Itoa(len(lap.Ghost)),
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("ghost", lap.SHA256+".tsreplay")
	if err != nil {
		return err
	}
	if _, err := part.Write(lap.Ghost); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/ghosts", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, data)
	}
	return nil
}
