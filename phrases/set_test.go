package phrases

import (
	"text2phenotype.com/fsl/logger"
	"text2phenotype.com/fsl/types"
	"text2phenotype.com/fsl/utils"
	"encoding/json"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

var setScheme = []string{types.CODE, types.PHRASE}
var catalogScheme = []string{types.CODE, types.LABEL, types.SEVERITY}

func writeBSVFixture(t *testing.T, name string, content string) (string, func()) {
	root, err := ioutil.TempDir("", "fsl_phrases")
	require.NoError(t, err)

	bsvDir := filepath.Join(root, "resources", "phrases", "default")
	err = os.MkdirAll(bsvDir, 0700)
	require.NoError(t, err)

	bsvPath := filepath.Join(bsvDir, name)
	err = ioutil.WriteFile(bsvPath, []byte(content), 0600)
	require.NoError(t, err)

	return bsvPath, func() { _ = os.RemoveAll(root) }
}

func collectPhrases(set Set) []*Phrase {
	var result []*Phrase
	next := set()
	for phrase, ok := next(); ok; phrase, ok = next() {
		result = append(result, phrase)
	}
	return result
}

func TestCreateSet(t *testing.T) {
	content := "# code|phrase\n" +
		"C001|chest pain\n" +
		"C002|chest \t pain\n" +
		"C001|chest pain\n" +
		"C003|  shortness of breath \n" +
		"C004|   \n" +
		"C005|Ankle Edema\n"

	setPath, cleanup := writeBSVFixture(t, "set.bsv", content)
	defer cleanup()

	set, err := CreateSet("test", setPath, setScheme)
	require.NoError(t, err)

	loaded := collectPhrases(set)
	require.Len(t, loaded, 3)

	require.Equal(t, "Ankle Edema", *loaded[0].Text)
	require.Equal(t, "chest pain", *loaded[1].Text)
	require.Equal(t, "shortness of breath", *loaded[2].Text)

	folded := loaded[0]
	require.Equal(t, []rune("Ankle Edema"), folded.Symbols(false))
	require.Equal(t, []rune("ankle edema"), folded.Symbols(true))
	require.Equal(t, int32(0), folded.Begin)
	require.Equal(t, int32(11), folded.End)

	merged := loaded[1]
	require.Equal(t, 2, merged.GetCodeCount())
	require.Same(t, utils.GlobalStringStore().GetPointer("C001"), merged.Codes[0])
	require.Same(t, utils.GlobalStringStore().GetPointer("C002"), merged.Codes[1])
}

func TestCreateSetFromCache(t *testing.T) {
	content := "C001|first phrase\nC002|second phrase\n"
	setPath, cleanup := writeBSVFixture(t, "set.bsv", content)
	defer cleanup()

	fslLogger := logger.NewLogger("test")
	cachePath, err := getDstFilepath(setPath, setScheme, &fslLogger)
	require.NoError(t, err)

	cachedText := "cached phrase"
	cachedCode := "c009"
	list := PhraseList{{
		Span:  types.Span{Begin: 0, End: 13, Text: &cachedText},
		Codes: []*string{&cachedCode},
	}}
	serialized, err := json.Marshal(list)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(cachePath), 0700))
	require.NoError(t, ioutil.WriteFile(cachePath, serialized, 0600))

	set, err := CreateSet("test", setPath, setScheme)
	require.NoError(t, err)

	loaded := collectPhrases(set)
	require.Len(t, loaded, 1)
	require.Equal(t, cachedText, *loaded[0].Text)
	require.Same(t, utils.GlobalStringStore().GetPointer(cachedCode), loaded[0].Codes[0])
	require.Equal(t, []rune(cachedText), loaded[0].Symbols(false))
}

func TestCreateCatalog(t *testing.T) {
	content := "# code|label|severity\n" +
		"C001|Chest pain|warning\n" +
		"C001|Chest pain (recurrent)|critical\n" +
		"C002|Mild cough|low\n" +
		"C003|Unlabeled finding|\n"

	catalogPath, cleanup := writeBSVFixture(t, "catalog.bsv", content)
	defer cleanup()

	catalog, err := CreateCatalog("test", catalogPath, catalogScheme)
	require.NoError(t, err)

	store := utils.GlobalStringStore()
	codes := []*string{
		store.GetPointer("C001"),
		store.GetPointer("C002"),
		store.GetPointer("C003"),
		store.GetPointer("C999"),
	}

	entries, err := catalog(codes)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	first := entries[codes[0]]
	require.NotNil(t, first)
	require.Equal(t, "Chest pain (recurrent)", first.Label)
	require.Equal(t, types.SeverityCritical, first.Severity)

	second := entries[codes[1]]
	require.NotNil(t, second)
	require.Equal(t, "Mild cough", second.Label)
	require.Equal(t, types.SeverityInfo, second.Severity)

	third := entries[codes[2]]
	require.NotNil(t, third)
	require.Equal(t, "Unlabeled finding", third.Label)
	require.Equal(t, types.SeverityUnknown, third.Severity)

	_, ok := entries[codes[3]]
	require.False(t, ok)
}

func TestGetSeverityGroupID(t *testing.T) {
	require.Equal(t, types.SeverityCritical, GetSeverityGroupID("CRITICAL"))
	require.Equal(t, types.SeverityCritical, GetSeverityGroupID(" severe "))
	require.Equal(t, types.SeverityWarning, GetSeverityGroupID("Warn"))
	require.Equal(t, types.SeverityInfo, GetSeverityGroupID("note"))
	require.Equal(t, types.SeverityUnknown, GetSeverityGroupID("whatever"))
	require.Equal(t, types.SeverityUnknown, GetSeverityGroupID(""))

	require.Equal(t, "critical", GetSeverityLabel(types.SeverityCritical))
	require.Equal(t, "unknown", GetSeverityLabel(types.SeverityUnknown))
}
