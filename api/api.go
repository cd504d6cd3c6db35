package api

import (
	"text2phenotype.com/fsl/logger"
	"text2phenotype.com/fsl/pipeline"
	"github.com/rs/zerolog"
	"io/ioutil"
	"net/http"
)

var apiLogger = logger.NewLogger("API")

// Request serves the debug REST endpoint. The raw request body is screened
// with the already loaded pipeline and the JSON response written back as is.
type Request struct {
	Pipeline pipeline.Pipeline
}

func (req *Request) ProcessData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fslLogger := requestLogger(r)

	if r.Method != http.MethodPost {
		fslLogger.Error().Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		fslLogger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not read request body")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	request := pipeline.Request{
		Tid:  "test_api",
		Text: string(body),
	}
	fslLogger.Info().Str("tid", request.Tid).Msg("Starting pipeline for request from API")
	response := <-req.Pipeline(request)
	_, _ = w.Write([]byte(response))
	fslLogger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
}

// requestLogger tags every record with the method and URL being served.
func requestLogger(r *http.Request) zerolog.Logger {
	type requestInfo struct {
		Method string `json:"method"`
		Url    string `json:"url"`
	}
	return apiLogger.With().Interface("request_info", requestInfo{
		Method: r.Method,
		Url:    r.URL.String(),
	}).Logger()
}
