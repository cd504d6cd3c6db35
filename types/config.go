package types

import (
	"text2phenotype.com/fsl/logger"
	"text2phenotype.com/fsl/utils"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"io/ioutil"
	"os"
	"path"
	"strings"
	"sync"
)

const (
	MatchModeDefault = "fold"
	MatchModeFold    = "fold"
	MatchModeExact   = "exact"

	// pipeline type
	PhraseScreenPipeline  = "phrase_screen"
	PresenceAuditPipeline = "presence_audit"

	// features
	StatsFeature = "stats"
)

type RequestParams struct {
	MatchMode string `yaml:"match_mode" json:"match_mode"`
}

func (rParams RequestParams) IsEmpty() bool {
	return len(rParams.MatchMode) == 0
}

func (rParams RequestParams) GetHashCode() uint64 {
	if rParams.MatchMode == "" {
		rParams.MatchMode = MatchModeDefault
	}
	return utils.HashString(strings.ToLower(rParams.MatchMode))
}

type FSLConfig struct {
	PhraseSet       string   `yaml:"phrase_set" json:"phrase_set"`
	PhraseScheme    string   `yaml:"phrase_scheme" json:"phrase_scheme"`
	Catalog         string   `yaml:"catalog" json:"catalog"`
	CatalogScheme   string   `yaml:"catalog_scheme" json:"catalog_scheme"`
	MinPhraseLength int32    `yaml:"min_phrase_length" json:"min_phrase_length"`
	ExcludedCodes   []string `yaml:"excluded_codes" json:"excluded_codes"`
}

type ParamsConfig struct {
	FSL FSLConfig `yaml:"FSL" json:"fsl"`
}
type Configuration struct {
	Name          string        `json:"name"`
	FilePath      string        `json:"file_path"`
	RequestParams RequestParams `yaml:"request_params" json:"request_params"`
	Params        ParamsConfig  `yaml:"params" json:"params"`
	Pipeline      string        `yaml:"pipeline" json:"pipeline"`
	Features      []string      `yaml:"features" json:"features"`
}

func (cfg Configuration) CheckFeature(featureName string) bool {
	for _, feat := range cfg.Features {
		if feat == featureName {
			return true
		}
	}

	return false
}

func (cfg Configuration) MatchMode() string {
	if cfg.RequestParams.IsEmpty() {
		return MatchModeDefault
	}
	return strings.ToLower(cfg.RequestParams.MatchMode)
}

func LoadConfigurations(dirPath string) ([]Configuration, error) {
	fslLogger := logger.NewLogger("LoadConfigurations")

	files, err := ioutil.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	loaded := make(chan Configuration, len(files))
	for _, f := range files {
		// skip dirs and non-yaml files
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}
		wg.Add(1)
		go func(file os.FileInfo) {
			defer wg.Done()
			if cfg, ok := loadConfiguration(dirPath, file, &fslLogger); ok {
				loaded <- cfg
			}
		}(f)
	}
	go func() {
		wg.Wait()
		close(loaded)
	}()

	configs := make([]Configuration, 0, len(files))
	for cfg := range loaded {
		configs = append(configs, cfg)
	}
	return configs, nil
}

// loadConfiguration parses one screen config. Broken files are logged and
// skipped.
func loadConfiguration(dirPath string, file os.FileInfo, fslLogger *zerolog.Logger) (Configuration, bool) {
	cfg := Configuration{
		Name:     strings.TrimSuffix(file.Name(), ".yaml"),
		FilePath: path.Join(dirPath, file.Name()),
	}
	buf, err := ioutil.ReadFile(cfg.FilePath)
	if err != nil {
		fslLogger.Err(err).Msgf("Failed to read config %s", cfg.FilePath)
		return cfg, false
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		fslLogger.Err(err).Msgf("Failed to parse config %s", cfg.FilePath)
		return cfg, false
	}
	if cfg.Pipeline != PhraseScreenPipeline && cfg.Pipeline != PresenceAuditPipeline {
		fslLogger.Error().Msgf("Skipping config %s, unknown pipeline type %q", file.Name(), cfg.Pipeline)
		return cfg, false
	}
	if mode := cfg.MatchMode(); mode != MatchModeFold && mode != MatchModeExact {
		fslLogger.Error().Msgf("Skipping config %s, unknown match mode %q", file.Name(), mode)
		return cfg, false
	}
	return cfg, true
}
