package routing

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/warp/travel-engine/travel"
)

// =============================================================================
// POSTCODE CLASSIFIER
// =============================================================================

// Classifier maps an address to a remoteness band.
type Classifier interface {
	Classify(address string) travel.Band
}

//go:embed bands.yaml
var defaultBandTable []byte

var postcodePattern = regexp.MustCompile(`\b(\d{4})\b`)

// PostcodeRange assigns Band to postcodes in [Low, High].
type PostcodeRange struct {
	Low  int    `yaml:"low"`
	High int    `yaml:"high"`
	Band string `yaml:"band"`
	Name string `yaml:"name,omitempty"`
}

type bandTable struct {
	DefaultBand string          `yaml:"default_band"`
	Ranges      []PostcodeRange `yaml:"ranges"`
}

type postcodeSpan struct {
	low, high int
	band      travel.Band
}

// PostcodeClassifier reads the last four-digit group of an address as its
// postcode. Overlapping ranges resolve to the more remote band. Addresses
// without a postcode, or outside every range, get the default band.
type PostcodeClassifier struct {
	spans       []postcodeSpan
	defaultBand travel.Band
}

// DefaultClassifier uses the built-in table.
func DefaultClassifier() *PostcodeClassifier {
	c, err := ParseClassifier(defaultBandTable)
	if err != nil {
		panic(fmt.Sprintf("built-in band table: %v", err))
	}
	return c
}

// LoadClassifier reads a YAML band table from disk.
func LoadClassifier(path string) (*PostcodeClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read band table: %w", err)
	}
	return ParseClassifier(data)
}

func ParseClassifier(data []byte) (*PostcodeClassifier, error) {
	var t bandTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse band table: %w", err)
	}

	c := &PostcodeClassifier{defaultBand: travel.BandMMM1}
	if t.DefaultBand != "" {
		b, err := travel.ParseBand(t.DefaultBand)
		if err != nil {
			return nil, fmt.Errorf("default_band: %w", err)
		}
		c.defaultBand = b
	}

	for i, r := range t.Ranges {
		if r.Low < 0 || r.High > 9999 || r.Low > r.High {
			return nil, fmt.Errorf("range %d: invalid postcodes %d-%d", i, r.Low, r.High)
		}
		b, err := travel.ParseBand(r.Band)
		if err != nil {
			return nil, fmt.Errorf("range %d: %w", i, err)
		}
		c.spans = append(c.spans, postcodeSpan{low: r.Low, high: r.High, band: b})
	}
	sort.SliceStable(c.spans, func(i, j int) bool { return c.spans[i].low < c.spans[j].low })
	return c, nil
}

func (c *PostcodeClassifier) Classify(address string) travel.Band {
	pc, ok := Postcode(address)
	if !ok {
		return c.defaultBand
	}

	var (
		band  travel.Band
		found bool
	)
	for _, s := range c.spans {
		if s.low > pc {
			break
		}
		if pc <= s.high {
			band = travel.MoreRemote(band, s.band)
			found = true
		}
	}
	if !found {
		return c.defaultBand
	}
	return band
}

// Postcode returns the last four-digit group in the address.
func Postcode(address string) (int, bool) {
	m := postcodePattern.FindAllStringSubmatch(address, -1)
	if len(m) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(m[len(m)-1][1])
	if err != nil {
		return 0, false
	}
	return n, true
}
