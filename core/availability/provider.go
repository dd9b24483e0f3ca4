package availability

import (
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/evflex/core/model"
)

// Provider assigns rated and available power to the parks of a chain.
type Provider struct {
	table      map[model.Purpose]float64
	fallback   float64
	efficiency float64
	minPark    time.Duration
}

// New returns a Provider for cfg, loading cfg.TableFile when set.
func New(cfg Config) (*Provider, error) {
	cfg.SetDefaults()
	if cfg.TableFile != "" {
		t, err := LoadTable(cfg.TableFile)
		if err != nil {
			return nil, fmt.Errorf("load availability table: %w", err)
		}
		cfg.RatedPower = t.RatedPower
		cfg.DefaultRatedPower = t.DefaultRatedPower
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	table := make(map[model.Purpose]float64, len(cfg.RatedPower))
	for p, kw := range cfg.RatedPower {
		table[model.Purpose(strings.ToUpper(string(p)))] = kw
	}
	return &Provider{
		table:      table,
		fallback:   cfg.DefaultRatedPower,
		efficiency: cfg.Efficiency,
		minPark:    time.Duration(cfg.MinParkingMinutes) * time.Minute,
	}, nil
}

// RatedPower returns the rated power in kW of a charging point at a park with
// the given purpose.
func (p *Provider) RatedPower(purpose model.Purpose) float64 {
	if kw, ok := p.table[purpose]; ok {
		return kw
	}
	return p.fallback
}

// Annotate sets RatedPower and AvailablePower on every park of c. Parks
// shorter than the minimum parking time get no available power.
func (p *Provider) Annotate(c *model.Chain) {
	for i := range c.Activities {
		a := &c.Activities[i]
		park, ok := a.Park()
		if !ok {
			continue
		}
		park.RatedPower = p.RatedPower(a.Purpose)
		park.AvailablePower = park.RatedPower * p.efficiency
		if a.Duration() < p.minPark {
			park.AvailablePower = 0
		}
	}
}
