package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestJurisdictions_Defaults(t *testing.T) {
	t.Setenv(jurisdictionsPathEnv, "")

	js := Jurisdictions()
	if len(js) != 3 {
		t.Fatalf("expected 3 defaults, got %d", len(js))
	}
	schemes := map[string]GradingScheme{}
	for _, j := range js {
		schemes[j.Code] = j.Scheme
	}
	if schemes["nyc"] != SchemeLetter || schemes["chicago"] != SchemePassFail || schemes["austin"] != SchemeScoreOnly {
		t.Fatalf("unexpected scheme mapping: %+v", schemes)
	}
}

func TestJurisdictions_FileOverrideAndDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jurisdictions.yml")
	yml := `jurisdictions:
  - code: nyc
    name: New York City, NY
    endpoint: https://data.cityofnewyork.us/resource/43nn-pn8j.json
    scheme: letter
    orderBy: inspection_date
  - code: sf
    name: San Francisco, CA
    endpoint: https://data.sfgov.org/resource/pyih-qa8i.json
    scheme: score_only
    orderBy: inspection_date
    disabled: true
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(jurisdictionsPathEnv, path)

	js := Jurisdictions()
	if len(js) != 1 {
		t.Fatalf("expected disabled entry filtered, got %d entries", len(js))
	}
	if js[0].Code != "nyc" || js[0].Scheme != SchemeLetter {
		t.Fatalf("unexpected entry: %+v", js[0])
	}
}

func TestJurisdictions_UnreadableFileFallsBack(t *testing.T) {
	t.Setenv(jurisdictionsPathEnv, filepath.Join(t.TempDir(), "missing.yml"))

	js := Jurisdictions()
	if len(js) != 3 {
		t.Fatalf("expected defaults on missing file, got %d", len(js))
	}
}
