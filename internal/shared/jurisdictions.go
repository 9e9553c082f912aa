package shared

import (
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const jurisdictionsPathEnv = "CLEANPLATE_JURISDICTIONS"

// GradingScheme selects which adapter handles a jurisdiction's rows.
type GradingScheme string

const (
	SchemeLetter    GradingScheme = "letter"     // A/B/C style (NYC)
	SchemePassFail  GradingScheme = "pass_fail"  // results column (Chicago)
	SchemeScoreOnly GradingScheme = "score_only" // numeric score, no grade (Austin)
)

// Jurisdiction describes one government source: where to fetch and how
// its grading vocabulary is shaped.
type Jurisdiction struct {
	Code     string        `yaml:"code"`
	Name     string        `yaml:"name"`
	Endpoint string        `yaml:"endpoint"`
	Scheme   GradingScheme `yaml:"scheme"`
	OrderBy  string        `yaml:"orderBy"` // source column for newest-first paging
	Disabled bool          `yaml:"disabled"`
}

type jurisdictionsFile struct {
	Jurisdictions []Jurisdiction `yaml:"jurisdictions"`
}

// Jurisdictions returns the configured source registry: the YAML file
// named by CLEANPLATE_JURISDICTIONS when set and parseable, otherwise
// the built-in defaults. Disabled entries are filtered out.
func Jurisdictions() []Jurisdiction {
	js := defaultJurisdictions()

	if path := os.Getenv(jurisdictionsPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("cannot read jurisdictions file, using defaults")
		} else {
			var f jurisdictionsFile
			if err := yaml.Unmarshal(raw, &f); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("cannot parse jurisdictions file, using defaults")
			} else if len(f.Jurisdictions) > 0 {
				js = f.Jurisdictions
			}
		}
	}

	out := make([]Jurisdiction, 0, len(js))
	for _, j := range js {
		if j.Disabled {
			continue
		}
		out = append(out, j)
	}
	return out
}

func defaultJurisdictions() []Jurisdiction {
	return []Jurisdiction{
		{
			Code:     "nyc",
			Name:     "New York City, NY",
			Endpoint: "https://data.cityofnewyork.us/resource/43nn-pn8j.json",
			Scheme:   SchemeLetter,
			OrderBy:  "inspection_date",
		},
		{
			Code:     "chicago",
			Name:     "Chicago, IL",
			Endpoint: "https://data.cityofchicago.org/resource/4ijn-s7e5.json",
			Scheme:   SchemePassFail,
			OrderBy:  "inspection_date",
		},
		{
			Code:     "austin",
			Name:     "Austin, TX",
			Endpoint: "https://data.austintexas.gov/resource/ecmv-9xxi.json",
			Scheme:   SchemeScoreOnly,
			OrderBy:  "inspection_date",
		},
	}
}
