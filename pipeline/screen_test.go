package pipeline

import (
	"text2phenotype.com/fsl/types"
	"encoding/json"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"
)

func writeScreenFixtures(t *testing.T) (string, func()) {
	root, err := ioutil.TempDir("", "fsl_pipeline")
	require.NoError(t, err)

	phrasesDir := filepath.Join(root, "resources", "phrases", "default")
	require.NoError(t, os.MkdirAll(phrasesDir, 0700))

	setContent := "C001|chest pain\n" +
		"C002|shortness of breath\n" +
		"C003|banana\n" +
		"C100|Melena\n"
	require.NoError(t, ioutil.WriteFile(filepath.Join(phrasesDir, "symptoms.bsv"), []byte(setContent), 0600))

	catalogContent := "C001|Chest pain|critical\n" +
		"C002|Shortness of breath|warning\n" +
		"C003|Banana intake|info\n"
	require.NoError(t, ioutil.WriteFile(filepath.Join(phrasesDir, "catalog.bsv"), []byte(catalogContent), 0600))

	return filepath.Join(root, "resources", "phrases"), func() { _ = os.RemoveAll(root) }
}

func makeConfiguration(name string, pipelineKind string, mode string, features []string, excluded []string) types.Configuration {
	return types.Configuration{
		Name:          name,
		Pipeline:      pipelineKind,
		Features:      features,
		RequestParams: types.RequestParams{MatchMode: mode},
		Params: types.ParamsConfig{
			FSL: types.FSLConfig{
				PhraseSet:     "default/symptoms.bsv",
				PhraseScheme:  "code|phrase",
				Catalog:       "default/catalog.bsv",
				CatalogScheme: "code|label|severity",
				ExcludedCodes: excluded,
			},
		},
	}
}

func runScreen(t *testing.T, ppln Pipeline, text string, tid string) map[string]json.RawMessage {
	res := <-ppln(Request{Text: text, Tid: tid})

	var response map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(res), &response))
	return response
}

func TestScreenPipeline(t *testing.T) {
	phrasesPath, cleanup := writeScreenFixtures(t)
	defer cleanup()

	cfgs := []types.Configuration{
		makeConfiguration("screen", types.PhraseScreenPipeline, "", []string{types.StatsFeature}, nil),
		makeConfiguration("audit", types.PresenceAuditPipeline, "", nil, nil),
	}

	ppln, err := Screen(GetScreenParams(phrasesPath, cfgs))
	require.NoError(t, err)

	text := "The patient described chest\n pain and denied shortness    of breath yesterday."
	response := runScreen(t, ppln, text, "test_tid")
	require.Len(t, response, 2)

	var screenRes types.PhraseScreenResponse
	require.NoError(t, json.Unmarshal(response["screen"], &screenRes))
	require.Equal(t, "test_tid", screenRes.DocId)
	require.Len(t, screenRes.Hits, 2)
	require.Equal(t, "chest pain", screenRes.Hits[0].Phrase)
	require.Equal(t, "shortness of breath", screenRes.Hits[1].Phrase)
	require.Equal(t, 0, screenRes.Hits[0].Id)
	require.Equal(t, 1, screenRes.Hits[1].Id)

	require.Len(t, screenRes.Hits[0].Codes, 1)
	require.Equal(t, "C001", screenRes.Hits[0].Codes[0].Code)
	require.Equal(t, "Chest pain", screenRes.Hits[0].Codes[0].Label)
	require.Equal(t, "critical", screenRes.Hits[0].Codes[0].Severity)

	require.NotNil(t, screenRes.Stats)
	require.Equal(t, 4, screenRes.Stats.PhrasesChecked)
	require.Equal(t, 2, screenRes.Stats.PhrasesMatched)
	require.Equal(t, int32(utf8.RuneCountInString(text)), screenRes.Stats.TextLength)

	var auditRes types.PresenceAuditResponse
	require.NoError(t, json.Unmarshal(response["audit"], &auditRes))
	require.Equal(t, "test_tid", auditRes.DocId)
	require.False(t, auditRes.Covered)
	require.Len(t, auditRes.Missing, 2)
	require.Equal(t, "Melena", auditRes.Missing[0].Phrase)
	require.Equal(t, "banana", auditRes.Missing[1].Phrase)
	require.Nil(t, auditRes.Stats)

	missingCode := auditRes.Missing[0].Codes[0]
	require.Equal(t, "C100", missingCode.Code)
	require.Equal(t, "", missingCode.Label)
	require.Equal(t, "unknown", missingCode.Severity)
}

func TestScreenPipelineMatchModes(t *testing.T) {
	phrasesPath, cleanup := writeScreenFixtures(t)
	defer cleanup()

	cfgs := []types.Configuration{
		makeConfiguration("exact", types.PhraseScreenPipeline, types.MatchModeExact, nil, nil),
		makeConfiguration("fold", types.PhraseScreenPipeline, types.MatchModeFold, nil, nil),
	}

	ppln, err := Screen(GetScreenParams(phrasesPath, cfgs))
	require.NoError(t, err)

	response := runScreen(t, ppln, "History of Melena denied; Chest pain present.", "modes_tid")

	var exactRes types.PhraseScreenResponse
	require.NoError(t, json.Unmarshal(response["exact"], &exactRes))
	require.Len(t, exactRes.Hits, 1)
	require.Equal(t, "Melena", exactRes.Hits[0].Phrase)

	var foldRes types.PhraseScreenResponse
	require.NoError(t, json.Unmarshal(response["fold"], &foldRes))
	require.Len(t, foldRes.Hits, 2)
	require.Equal(t, "Melena", foldRes.Hits[0].Phrase)
	require.Equal(t, "chest pain", foldRes.Hits[1].Phrase)
}

func TestScreenPipelineEmptyText(t *testing.T) {
	phrasesPath, cleanup := writeScreenFixtures(t)
	defer cleanup()

	cfgs := []types.Configuration{
		makeConfiguration("screen", types.PhraseScreenPipeline, "", []string{types.StatsFeature}, nil),
		makeConfiguration("audit", types.PresenceAuditPipeline, "", nil, nil),
	}

	ppln, err := Screen(GetScreenParams(phrasesPath, cfgs))
	require.NoError(t, err)

	response := runScreen(t, ppln, "   \n\t  ", "empty_tid")

	var screenRes types.PhraseScreenResponse
	require.NoError(t, json.Unmarshal(response["screen"], &screenRes))
	require.Empty(t, screenRes.Hits)
	require.Equal(t, 4, screenRes.Stats.PhrasesChecked)
	require.Equal(t, 0, screenRes.Stats.PhrasesMatched)

	var auditRes types.PresenceAuditResponse
	require.NoError(t, json.Unmarshal(response["audit"], &auditRes))
	require.False(t, auditRes.Covered)
	require.Len(t, auditRes.Missing, 4)
}

func TestPresenceAuditCovered(t *testing.T) {
	phrasesPath, cleanup := writeScreenFixtures(t)
	defer cleanup()

	cfgs := []types.Configuration{
		makeConfiguration("audit", types.PresenceAuditPipeline, "", nil, nil),
	}

	ppln, err := Screen(GetScreenParams(phrasesPath, cfgs))
	require.NoError(t, err)

	text := "Noted melena and chest pain, also shortness of breath after one banana."
	response := runScreen(t, ppln, text, "covered_tid")

	var auditRes types.PresenceAuditResponse
	require.NoError(t, json.Unmarshal(response["audit"], &auditRes))
	require.True(t, auditRes.Covered)
	require.Empty(t, auditRes.Missing)
}

func TestScreenPipelineExcludedCodes(t *testing.T) {
	phrasesPath, cleanup := writeScreenFixtures(t)
	defer cleanup()

	cfgs := []types.Configuration{
		makeConfiguration("screen", types.PhraseScreenPipeline, "", []string{types.StatsFeature}, []string{"C001"}),
	}

	ppln, err := Screen(GetScreenParams(phrasesPath, cfgs))
	require.NoError(t, err)

	response := runScreen(t, ppln, "Recurring chest pain and banana intake.", "excluded_tid")

	var screenRes types.PhraseScreenResponse
	require.NoError(t, json.Unmarshal(response["screen"], &screenRes))

	// the only code of "chest pain" is excluded, the phrase is not checked at all
	require.Equal(t, 3, screenRes.Stats.PhrasesChecked)
	require.Len(t, screenRes.Hits, 1)
	require.Equal(t, "banana", screenRes.Hits[0].Phrase)
}

func TestScreenPipelineMinPhraseLength(t *testing.T) {
	phrasesPath, cleanup := writeScreenFixtures(t)
	defer cleanup()

	cfg := makeConfiguration("screen", types.PhraseScreenPipeline, "", []string{types.StatsFeature}, nil)
	cfg.Params.FSL.MinPhraseLength = 7

	ppln, err := Screen(GetScreenParams(phrasesPath, []types.Configuration{cfg}))
	require.NoError(t, err)

	response := runScreen(t, ppln, "banana chest pain melena", "min_length_tid")

	var screenRes types.PhraseScreenResponse
	require.NoError(t, json.Unmarshal(response["screen"], &screenRes))

	// "banana" and "Melena" are below the length threshold
	require.Equal(t, 2, screenRes.Stats.PhrasesChecked)
	require.Len(t, screenRes.Hits, 1)
	require.Equal(t, "chest pain", screenRes.Hits[0].Phrase)
}
