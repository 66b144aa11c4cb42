package seedlaps

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// Plausible category code ranges for generated laps.
const (
	carCount       = 12
	trackCount     = 8
	layoutCount    = 3
	conditionCount = 2
	weatherCount   = 3

	baseLapSeconds   = 75.0
	lapSpreadSeconds = 45.0
	samplesPerSecond = 60
)

// Lap is one generated submission.
type Lap struct {
	DriverID    string
	Name        string
	Car         int
	Track       int
	Layout      int
	Condition   int
	Weather     int
	Timing      float64
	GhostLength int

	// Ghost payload, present for the configured fraction of laps.
	Ghost  []byte
	SHA256 string
}

// generateLaps produces submissions spread across a fixed driver pool so
// that repeats exercise the best-time merge path.
func generateLaps(cfg *Config) []Lap {
	drivers := make([]string, cfg.Drivers)
	for i := range drivers {
		drivers[i] = uuid.New().String()
	}

	laps := make([]Lap, cfg.Submissions)
	for i := range laps {
		d := rand.Intn(len(drivers))
		timing := baseLapSeconds + rand.Float64()*lapSpreadSeconds

		laps[i] = Lap{
			DriverID:    drivers[d],
			Name:        fmt.Sprintf("driver-%02d", d),
			Car:         rand.Intn(carCount),
			Track:       rand.Intn(trackCount),
			Layout:      rand.Intn(layoutCount),
			Condition:   rand.Intn(conditionCount),
			Weather:     rand.Intn(weatherCount),
			Timing:      timing,
			GhostLength: int(timing * samplesPerSecond),
		}

		if rand.Float64() < cfg.GhostRatio {
			ghost := make([]byte, cfg.GhostBytes)
			_, _ = rand.Read(ghost)
			sum := sha256.Sum256(ghost)
			laps[i].Ghost = ghost
			laps[i].SHA256 = hex.EncodeToString(sum[:])
		}
	}
	return laps
}
