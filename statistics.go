package fluxzero

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Record is the outcome of one epoch of arena games for one match.
type Record struct {
	Match  string
	Epoch  int
	Wins   float32
	Losses float32
	Draws  float32
}

// WinRate is the share of games won.
func (r Record) WinRate() float32 {
	total := r.Wins + r.Losses + r.Draws
	if total == 0 {
		return 0
	}
	return r.Wins / total
}

type Statistics struct {
	Records []Record
}

func makeStatistics() Statistics {
	return Statistics{Records: make([]Record, 0, 64)}
}

func (s *Statistics) update(match string, epoch int, c *Contestant) {
	c.Lock()
	s.Records = append(s.Records, Record{
		Match:  match,
		Epoch:  epoch,
		Wins:   c.Wins,
		Losses: c.Loss,
		Draws:  c.Draw,
	})
	c.Unlock()
}

var statisticsHeader = []string{"match", "epoch", "wins", "losses", "draws", "win_rate"}

// Dump writes the records to filename as CSV, one row per record.
func (s *Statistics) Dump(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(statisticsHeader); err != nil {
		return errors.WithStack(err)
	}
	for _, r := range s.Records {
		record := []string{
			r.Match,
			strconv.Itoa(r.Epoch),
			strconv.FormatFloat(float64(r.Wins), 'f', 0, 32),
			strconv.FormatFloat(float64(r.Losses), 'f', 0, 32),
			strconv.FormatFloat(float64(r.Draws), 'f', 0, 32),
			strconv.FormatFloat(float64(r.WinRate()), 'f', 3, 32),
		}
		if err := w.Write(record); err != nil {
			return errors.WithStack(err)
		}
	}
	w.Flush()
	return errors.WithStack(w.Error())
}
