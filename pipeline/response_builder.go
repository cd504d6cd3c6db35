package pipeline

import (
	"text2phenotype.com/fsl/logger"
	"text2phenotype.com/fsl/phrases"
	"text2phenotype.com/fsl/types"
	"github.com/rs/zerolog"
	"sort"
	"strings"
	"unicode/utf8"
)

type Result struct {
	ConfigName string
	Data       interface{}
}

func NewPhraseScreenResult() func(in <-chan []types.Match, cfg ScreenConfig, request Request) <-chan Result {
	return func(in <-chan []types.Match, cfg ScreenConfig, request Request) <-chan Result {
		fslLogger := logger.NewLogger("PhraseScreenResult").With().
			Str("config_name", cfg.Name).
			Str("tid", request.Tid).Logger()

		out := make(chan Result)
		go func() {
			defer close(out)
			var allMatches []types.Match

			for matches := range in {
				allMatches = append(allMatches, matches...)
			}

			var hits []types.Match
			for _, match := range allMatches {
				if match.Found {
					hits = append(hits, match)
				}
			}

			var response types.PhraseScreenResponse
			response.DocId = request.Tid
			response.Hits = buildPhraseSections(hits, cfg.Catalog, &fslLogger)

			if cfg.WithStats {
				response.Stats = &types.ScreenStats{
					PhrasesChecked: len(allMatches),
					PhrasesMatched: len(hits),
					TextLength:     int32(utf8.RuneCountInString(request.Text)),
				}
			}

			out <- Result{
				ConfigName: cfg.Name,
				Data:       response,
			}
		}()
		return out
	}
}

func NewPresenceAuditResult() func(in <-chan []types.Match, cfg ScreenConfig, request Request) <-chan Result {
	return func(in <-chan []types.Match, cfg ScreenConfig, request Request) <-chan Result {
		fslLogger := logger.NewLogger("PresenceAuditResult").With().
			Str("config_name", cfg.Name).
			Str("tid", request.Tid).Logger()

		out := make(chan Result)
		go func() {
			defer close(out)
			var allMatches []types.Match

			for matches := range in {
				allMatches = append(allMatches, matches...)
			}

			var missing []types.Match
			for _, match := range allMatches {
				if !match.Found {
					missing = append(missing, match)
				}
			}

			var response types.PresenceAuditResponse
			response.DocId = request.Tid
			response.Covered = len(missing) == 0
			response.Missing = buildPhraseSections(missing, cfg.Catalog, &fslLogger)

			if cfg.WithStats {
				response.Stats = &types.ScreenStats{
					PhrasesChecked: len(allMatches),
					PhrasesMatched: len(allMatches) - len(missing),
					TextLength:     int32(utf8.RuneCountInString(request.Text)),
				}
			}

			out <- Result{
				ConfigName: cfg.Name,
				Data:       response,
			}
		}()
		return out
	}
}

func buildPhraseSections(matches []types.Match, catalog phrases.Catalog, errLogger *zerolog.Logger) []types.PhraseSection {
	sections := make([]types.PhraseSection, len(matches))

	var allCodes []*string
	codesCache := make(map[*string]bool)
	for _, match := range matches {
		for _, code := range match.Codes {
			_, hasCode := codesCache[code]
			if !hasCode {
				codesCache[code] = true
				allCodes = append(allCodes, code)
			}
		}
	}

	entries, err := catalog(allCodes)
	if err != nil {
		errLogger.Err(err).Msg("Failed to resolve catalog entries")
		entries = make(map[*string]*types.CatalogEntry)
	}

	for i, match := range matches {
		codes := make([]types.CatalogCode, len(match.Codes))
		for j, code := range match.Codes {
			catalogCode := types.CatalogCode{
				Code:     strings.ToUpper(*code),
				Severity: phrases.GetSeverityLabel(types.SeverityUnknown),
			}

			entry, ok := entries[code]
			if ok {
				catalogCode.Label = entry.Label
				catalogCode.Severity = phrases.GetSeverityLabel(entry.Severity)
			}

			codes[j] = catalogCode
		}

		sort.Slice(codes, func(a int, b int) bool {
			return codes[a].Code < codes[b].Code
		})

		sections[i] = types.PhraseSection{
			Id:     i,
			Phrase: *match.Phrase,
			Codes:  codes,
		}
	}

	return sections
}
