package pipeline

import (
	"text2phenotype.com/fsl/logger"
	"text2phenotype.com/fsl/types"
	"encoding/json"
)

type ScreenParams struct {
	PhrasesFolder  string                `json:"phrases_folder"`
	Configurations []types.Configuration `json:"configurations"`
}

func GetScreenParams(phrasesPath string, cfgs []types.Configuration) ScreenParams {
	return ScreenParams{
		PhrasesFolder:  phrasesPath,
		Configurations: cfgs,
	}
}

func Screen(params ScreenParams) (Pipeline, error) {
	fslLogger := logger.NewLogger("Phrase screen pipeline")
	errLogger := fslLogger.With().Caller().Logger()
	fslLogger.Info().
		Interface("params", params).
		Msg("Starting phrase screen pipeline (see parameters in 'params' field)")
	screenCfgs, err := CreateScreenConfigs(params.PhrasesFolder, params.Configurations)
	if err != nil {
		errLogger.Err(err).
			Interface("configurations", params.Configurations).
			Str("phrases_folder", params.PhrasesFolder).
			Msg("Failed to create screen configs")
		return nil, err
	}

	// only configurations that actually loaded take part in the pipeline,
	// otherwise the channel splitter would wait for a consumer that never comes
	var activeConfigs []types.Configuration
	for _, cfg := range params.Configurations {
		if _, ok := screenCfgs[cfg.Name]; ok {
			activeConfigs = append(activeConfigs, cfg)
		}
	}

	seenParams := make(map[uint64]bool)
	var matchModes []string
	for _, cfg := range activeConfigs {
		if types.Distinct(seenParams, cfg.RequestParams) {
			matchModes = append(matchModes, cfg.MatchMode())
		}
	}

	normalizer := NewNormalizer(matchModes)
	indexer := NewIndexer()

	matcher := NewPhraseMatcher()
	splitter := NewDocumentChannelSplitter(len(activeConfigs))

	screen_response := NewPhraseScreenResult()

	audit_response := NewPresenceAuditResult()

	return func(request Request) <-chan string {
		responseChan := make(chan string)
		pplnLog := fslLogger.With().Str("tid", request.Tid).Logger()
		pplnLog.Info().Msg("Started phrase screen pipeline")
		errLogger = pplnLog.With().Caller().Logger()

		go func() {
			var in = make(chan string)

			norm := normalizer(in)
			idx := indexer(norm)

			split := splitter(idx)

			resultChannel := make(chan Result)
			defer close(resultChannel)

			for i, cfg := range activeConfigs {
				screenCfg := screenCfgs[cfg.Name]

				switch cfg.Pipeline {
				case types.PhraseScreenPipeline:
					{
						matches := matcher(split[i], screenCfg, request.Tid)
						scrRes := screen_response(matches, screenCfg, request)
						connect(scrRes, resultChannel)
					}
				case types.PresenceAuditPipeline:
					{
						matches := matcher(split[i], screenCfg, request.Tid)
						audRes := audit_response(matches, screenCfg, request)
						connect(audRes, resultChannel)
					}
				}
			}

			in <- request.Text
			close(in)
			response := make(map[string]interface{})

			for i := 0; i < len(activeConfigs); i++ {
				res := <-resultChannel
				pplnLog.Info().
					Str("config_name", res.ConfigName).
					Msg("Finished screening for configuration")
				response[res.ConfigName] = res.Data
			}

			buf, err := json.Marshal(response)
			if err != nil {
				errLogger.Err(err).Str("tid", request.Tid).Msg("Failed to marshall response")
			}
			pplnLog.Info().Msg("Finished phrase screen pipeline")
			txt := string(buf)
			responseChan <- txt
		}()

		return responseChan
	}, nil

}

func connect(from <-chan Result, to chan<- Result) {
	go func() {
		for v := range from {
			to <- v
		}
	}()
}
