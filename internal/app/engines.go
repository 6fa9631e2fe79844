package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/blackwell-systems/copilotwatch/internal/analytics"
	"github.com/blackwell-systems/copilotwatch/internal/config"
	"github.com/blackwell-systems/copilotwatch/internal/lazy"
	"github.com/blackwell-systems/copilotwatch/internal/registry"
)

// engines holds lazily-built query engines over the configured datasets.
// A command only pays the load cost for the datasets it actually touches.
type engines struct {
	cfg      *config.Config
	usage    *lazy.Value[*analytics.UsageEngine]
	segments *lazy.Value[*analytics.SegmentEngine]
	premium  *lazy.Value[*analytics.PremiumEngine]
	metrics  *lazy.Value[*registry.Registry]
}

// loadEngines reads configuration and wires the lazy engine holders.
func loadEngines() (*engines, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	usageCSV := cfg.Datasets.UsageCSV
	interactionsCSV := cfg.Datasets.InteractionsCSV
	segmentCSV := cfg.Datasets.SegmentAdoptionCSV
	premiumCSV := cfg.Datasets.PremiumRequestsCSV
	metricsFile := cfg.MetricsFile

	return &engines{
		cfg: cfg,
		usage: lazy.New(func() (*analytics.UsageEngine, error) {
			return analytics.NewUsageEngine(usageCSV, interactionsCSV)
		}),
		segments: lazy.New(func() (*analytics.SegmentEngine, error) {
			return analytics.NewSegmentEngine(segmentCSV)
		}),
		premium: lazy.New(func() (*analytics.PremiumEngine, error) {
			return analytics.NewPremiumEngine(premiumCSV)
		}),
		metrics: lazy.New(func() (*registry.Registry, error) {
			return registry.Load(metricsFile)
		}),
	}, nil
}

// renderable is any query result that can print itself as text.
type renderable interface {
	Render() string
}

// emit writes a query result to stdout, as indented JSON when --json is
// set and as the rendered text block otherwise.
func emit(v renderable) error {
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	fmt.Println(v.Render())
	return nil
}

// nameList is a plain list of dataset values, used by the list-style
// subcommands so they share the emit path.
type nameList struct {
	Header string   `json:"-"`
	Empty  string   `json:"-"`
	Names  []string `json:"names"`
}

func (l nameList) Render() string {
	if len(l.Names) == 0 {
		return l.Empty
	}
	out := l.Header
	for _, name := range l.Names {
		out += "\n- " + name
	}
	return out
}
