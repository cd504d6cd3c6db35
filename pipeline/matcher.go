package pipeline

import (
	"text2phenotype.com/fsl/logger"
	"text2phenotype.com/fsl/phrases"
	"text2phenotype.com/fsl/types"
	"text2phenotype.com/fsl/utils"
	"errors"
	"github.com/rs/zerolog"
	"path"
	"strings"
	"sync"
	"sync/atomic"
)

type ScreenMatchParams struct {
	MinPhraseLength int32
	ExcludedCodes   []string
}

func GetDefaultScreenMatchParams() ScreenMatchParams {
	return ScreenMatchParams{
		MinPhraseLength: 1,
	}
}

type ScreenConfig struct {
	Name      string
	Set       phrases.Set
	Catalog   phrases.Catalog
	Params    ScreenMatchParams
	MatchMode string
	WithStats bool
}

func CreateScreenConfigs(phrasesDir string, configs []types.Configuration) (map[string]ScreenConfig, error) {

	fslLogger := logger.NewLogger("CreateScreenConfigs")
	fslLogger.Info().Msg("Loading configurations")

	var wg sync.WaitGroup
	var mu sync.Mutex

	setMap := make(map[string]phrases.Set)
	catalogMap := make(map[string]phrases.Catalog)

	for _, cfg := range configs {
		configLogger := fslLogger.With().Str("config_name", cfg.Name).Logger()

		if cfg.Pipeline != types.PhraseScreenPipeline && cfg.Pipeline != types.PresenceAuditPipeline {
			continue
		}
		wg.Add(1)
		// load phrase set
		errLogger := configLogger.With().Caller().Logger()
		go func(configName string, setParams types.FSLConfig, errLogger zerolog.Logger) {
			defer wg.Done()

			setPath := setParams.PhraseSet
			if len(setPath) == 0 {
				errLogger.Error().Str("path", setPath).Msg("Phrase set path is not correct")
				return
			}

			absSetPath := path.Join(
				phrasesDir,
				setPath,
			)

			setSchemeParam := setParams.PhraseScheme
			if len(setSchemeParam) == 0 {
				errLogger.Error().Str("scheme", setSchemeParam).Msg("Phrase set scheme is not correct")
				return
			}

			setScheme := strings.Split(setSchemeParam, "|")

			set, e := phrases.CreateSet(configName, absSetPath, setScheme)
			if e != nil {
				errLogger.Err(e).Msg("Could not load phrase set")
				return
			}

			mu.Lock()
			setMap[configName] = set
			mu.Unlock()

		}(cfg.Name, cfg.Params.FSL, errLogger)

		wg.Add(1)
		// load catalog
		go func(configName string, catParams types.FSLConfig, errLogger zerolog.Logger) {
			defer wg.Done()

			catPath := catParams.Catalog
			if len(catPath) == 0 {
				errLogger.Error().Str("catalog_path", catPath).Msg("Catalog path is not correct")
				return
			}

			absCatPath := path.Join(
				phrasesDir,
				catPath,
			)

			catSchemeParam := catParams.CatalogScheme
			if len(catSchemeParam) == 0 {
				errLogger.Error().Str("catalog_scheme", catSchemeParam).Msg("Catalog scheme is not correct")
				return
			}

			catScheme := strings.Split(catSchemeParam, "|")

			catalog, e := phrases.CreateCatalog(configName, absCatPath, catScheme)
			if e != nil {
				errLogger.Err(e).Msg("Could not create catalog")
				return
			}

			mu.Lock()
			catalogMap[catPath] = catalog
			mu.Unlock()

		}(cfg.Name, cfg.Params.FSL, errLogger)
	}

	wg.Wait()

	result := make(map[string]ScreenConfig)
	for _, cfg := range configs {

		set, ok := setMap[cfg.Name]
		if !ok {
			continue
		}
		catalog, ok := catalogMap[cfg.Params.FSL.Catalog]
		if !ok {
			continue
		}

		screenCfg := ScreenConfig{
			Name:      cfg.Name,
			Set:       set,
			Catalog:   catalog,
			Params:    GetDefaultScreenMatchParams(),
			MatchMode: cfg.MatchMode(),
			WithStats: cfg.CheckFeature(types.StatsFeature),
		}

		if cfg.Params.FSL.MinPhraseLength > screenCfg.Params.MinPhraseLength {
			screenCfg.Params.MinPhraseLength = cfg.Params.FSL.MinPhraseLength
		}
		screenCfg.Params.ExcludedCodes = utils.UniqueStrings(cfg.Params.FSL.ExcludedCodes)
		result[cfg.Name] = screenCfg
	}
	if len(result) == 0 {
		return nil, errors.New("failed to load at least one correct config")
	}
	fslLogger.Info().Msgf("Loaded %d screen configurations", len(result))
	return result, nil
}

func NewPhraseMatcher() func(in <-chan *types.Document, cfg ScreenConfig, tid string) <-chan []types.Match {
	return func(in <-chan *types.Document, cfg ScreenConfig, tid string) <-chan []types.Match {
		fslLogger := logger.NewLogger("PhraseMatcher").With().
			Str("config_name", cfg.Name).
			Str("tid", tid).Logger()

		out := make(chan []types.Match)

		excluded := make(map[*string]bool)
		store := utils.GlobalStringStore()
		for _, code := range cfg.Params.ExcludedCodes {
			excluded[store.GetPointer(code)] = true
		}

		foldCase := cfg.MatchMode != types.MatchModeExact

		go func() {
			defer close(out)
			var cnt uint32

			var wg sync.WaitGroup
			for doc := range in {

				wg.Add(1)

				go func(doc *types.Document) {
					defer wg.Done()

					index := doc.Index(cfg.MatchMode)

					matches := make([]types.Match, 0)
					next := cfg.Set()
					for phrase, ok := next(); ok; phrase, ok = next() {
						if phrase.Length() < cfg.Params.MinPhraseLength {
							continue
						}

						codes := filterCodes(phrase.Codes, excluded)
						if len(codes) == 0 {
							continue
						}

						match := types.Match{
							Phrase: phrase.Text,
							Codes:  codes,
						}

						// an empty document has no index, every phrase stays unmatched
						if index != nil {
							found, err := index.Contains(phrase.Symbols(foldCase))
							if err != nil {
								fslLogger.Err(err).Msg("")
								continue
							}
							match.Found = found
						}

						matches = append(matches, match)
					}

					atomic.AddUint32(&cnt, uint32(len(matches)))

					out <- matches
				}(doc)

			}

			wg.Wait()
			fslLogger.Debug().Msgf("Checked %d phrases", cnt)
		}()
		return out
	}
}

func filterCodes(codes []*string, excluded map[*string]bool) []*string {
	if len(excluded) == 0 {
		return codes
	}

	result := make([]*string, 0, len(codes))
	for _, code := range codes {
		if !excluded[code] {
			result = append(result, code)
		}
	}
	return result
}
