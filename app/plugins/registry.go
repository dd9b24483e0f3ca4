package plugins

import (
	"github.com/kilianp07/evflex/core/model"
	"github.com/kilianp07/evflex/core/store"
)

// StoreFactory builds an activity row store from its file options.
type StoreFactory func(opts store.Options) (store.Store, error)

// TripSource loads every trip found at input.
type TripSource interface {
	Load(input string) ([]model.TripRecord, error)
}

// TripSourceFactory builds a trip source from raw config.
type TripSourceFactory func(conf map[string]any) (TripSource, error)

var (
	Stores      = map[string]StoreFactory{}
	TripSources = map[string]TripSourceFactory{}
)

func RegisterStore(name string, f StoreFactory)           { Stores[name] = f }
func RegisterTripSource(name string, f TripSourceFactory) { TripSources[name] = f }
