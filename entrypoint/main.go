package main

import (
	"text2phenotype.com/fsl/api"
	"text2phenotype.com/fsl/logger"
	"text2phenotype.com/fsl/pipeline"
	"text2phenotype.com/fsl/types"
	"text2phenotype.com/fsl/utils"
	"text2phenotype.com/fsl/worker"
	"flag"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"net/http"
	"os"
	"time"
)

type Config struct {
	ConfigPath    string `envconfig:"FSL_CONFIG_PATH" required:"true"`
	PhrasesPath   string `envconfig:"FSL_PHRASES_PATH" required:"true"`
	RestAPIActive bool   `envconfig:"FSL_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string `envconfig:"FSL_REST_API_PORT" default:"10000"`
}

const pipelineStartMaxRetries = 5

func main() {
	logger.SetupLogging()
	fslLogger := logger.NewLogger("Main")

	buildIndex := flag.Bool("build-index", false, "build the phrase set cache and exit")
	wrapLogs := flag.Bool("wrap-logs", false, "relaunch self under the logs wrapper")
	flag.Parse()

	if *wrapLogs {
		logger.WrapProcess(os.Args[0], stripWrapFlag(os.Args[1:])...)
		return
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fslLogger.Fatal().Caller().Err(err).Msg("Failed to read environment")
	}

	if *buildIndex {
		buildPhraseCache(config, fslLogger)
		return
	}

	ppln := startPipeline(config, fslLogger)

	if config.RestAPIActive {
		go serveAPI(config, ppln, fslLogger)
	}

	fslLogger.Info().Msg("Start FSL Worker")
	for {
		rmqWorker, err := worker.New(ppln)
		if err != nil {
			fslLogger.Fatal().Err(err).Msg("Could not initialize RMQ worker")
		}
		if err = rmqWorker.StartWorker(); err != nil {
			fslLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
			time.Sleep(5 * time.Second)
		}
	}
}

// stripWrapFlag drops -wrap-logs from the args handed to the child so the
// relaunched process runs the service itself.
func stripWrapFlag(args []string) []string {
	kept := make([]string, 0, len(args))
	for _, arg := range args {
		if arg != "-wrap-logs" && arg != "--wrap-logs" {
			kept = append(kept, arg)
		}
	}
	return kept
}

func buildPhraseCache(config Config, fslLogger zerolog.Logger) {
	cfgs, err := types.LoadConfigurations(config.ConfigPath)
	if err != nil {
		fslLogger.Err(err).Msg("Failed to load configurations")
		return
	}
	if _, err = pipeline.CreateScreenConfigs(config.PhrasesPath, cfgs); err != nil {
		fslLogger.Fatal().Caller().Err(err).Msg("Failed to build phrase set cache")
	}
	fslLogger.Info().Msg("Phrase set cache was built. Exit...")
}

// startPipeline loads configurations and warms the screen pipeline, retrying
// a few times before giving up. The string store is locked as soon as every
// phrase set is in memory.
func startPipeline(config Config, fslLogger zerolog.Logger) pipeline.Pipeline {
	for retry := 0; retry < pipelineStartMaxRetries; retry++ {
		cfgs, err := types.LoadConfigurations(config.ConfigPath)
		if err != nil {
			fslLogger.Err(err).Msg("Failed to load configurations. Retrying in 5 sec")
			time.Sleep(5 * time.Second)
			continue
		}
		fslLogger.Info().Msgf("Loaded %d configurations", len(cfgs))
		fslLogger.Info().Msg("Starting pipelines loading")

		ppln, err := pipeline.Screen(pipeline.GetScreenParams(config.PhrasesPath, cfgs))
		if err != nil {
			fslLogger.Err(err).Msg("Failed to start phrase screen pipeline. Retrying in 5 sec")
			time.Sleep(5 * time.Second)
			continue
		}
		utils.GlobalStringStore().Lock()
		fslLogger.Info().Msg("Pipelines loaded")
		return ppln
	}
	fslLogger.Fatal().Caller().Msg("Could not start pipelines after 5 retries, exiting")
	return nil
}

func serveAPI(config Config, ppln pipeline.Pipeline, fslLogger zerolog.Logger) {
	fslLogger.Info().Msg("Starting API service")
	handler := &api.Request{Pipeline: ppln}
	http.HandleFunc("/", handler.ProcessData)
	host := fmt.Sprintf(":%s", config.RestAPIPort)
	fslLogger.Info().Msgf("REST API on %s", host)
	err := http.ListenAndServe(host, nil)
	fslLogger.Fatal().Caller().Err(err).Msg("REST API stopped with error")
}
