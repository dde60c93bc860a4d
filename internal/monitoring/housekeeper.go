package monitoring

import (
	"fmt"
	"sort"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Purger drops every expired record from a token store.
type Purger interface {
	Purge() (int, error)
}

// Housekeeper periodically sweeps expired sessions and reset tokens.
// Expiry is enforced lazily on access; the sweep only keeps the documents small.
type Housekeeper struct {
	cron   *cron.Cron
	stores map[string]Purger
}

// NewHousekeeper creates a housekeeper that sweeps stores on a standard
// five-field cron schedule, e.g. "@hourly" or "*/15 * * * *".
func NewHousekeeper(schedule string, stores map[string]Purger) (*Housekeeper, error) {
	h := &Housekeeper{
		cron:   cron.New(),
		stores: stores,
	}
	if _, err := h.cron.AddFunc(schedule, func() { h.Sweep() }); err != nil {
		return nil, fmt.Errorf("invalid housekeeping schedule %q: %w", schedule, err)
	}
	return h, nil
}

// Start runs the schedule in the background.
func (h *Housekeeper) Start() {
	log.Info().Int("stores", len(h.stores)).Msg("Starting housekeeping scheduler")
	h.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (h *Housekeeper) Stop() {
	<-h.cron.Stop().Done()
	log.Info().Msg("Housekeeping scheduler stopped")
}

// Sweep purges every store once and returns the number of records removed
// per store. A failing store is logged and skipped.
func (h *Housekeeper) Sweep() map[string]int {
	names := make([]string, 0, len(h.stores))
	for name := range h.stores {
		names = append(names, name)
	}
	sort.Strings(names)

	removed := make(map[string]int, len(names))
	for _, name := range names {
		n, err := h.stores[name].Purge()
		if err != nil {
			log.Error().Err(err).Str("store", name).Msg("Failed to purge expired tokens")
			continue
		}
		removed[name] = n
		if n > 0 {
			log.Info().Str("store", name).Int("removed", n).Msg("Purged expired tokens")
		}
	}
	return removed
}
