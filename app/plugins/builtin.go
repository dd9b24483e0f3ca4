package plugins

import (
	"time"
	_ "time/tzdata"

	"github.com/kilianp07/evflex/core/factory"
	"github.com/kilianp07/evflex/core/model"
	"github.com/kilianp07/evflex/core/store"
	_ "github.com/kilianp07/evflex/infra/metrics"
	_ "github.com/kilianp07/evflex/infra/mqtt"
	"github.com/kilianp07/evflex/infra/tripsource"
)

type csvSource struct{ r *tripsource.Reader }

func (s csvSource) Load(input string) ([]model.TripRecord, error) { return s.r.ReadFile(input) }

func init() {
	RegisterStore("jsonl", func(opts store.Options) (store.Store, error) {
		return store.NewJSONLStore(opts.Path)
	})
	RegisterStore("jsonl_rotating", func(opts store.Options) (store.Store, error) {
		return store.NewRotatingJSONLStore(opts)
	})
	RegisterStore("sqlite", func(opts store.Options) (store.Store, error) {
		return store.NewSQLiteStore(opts.Path)
	})

	RegisterTripSource("csv", func(conf map[string]any) (TripSource, error) {
		var c struct {
			Timezone string `json:"timezone"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		loc := time.UTC
		if c.Timezone != "" {
			l, err := time.LoadLocation(c.Timezone)
			if err != nil {
				return nil, err
			}
			loc = l
		}
		return csvSource{r: tripsource.NewReader(loc)}, nil
	})
}
