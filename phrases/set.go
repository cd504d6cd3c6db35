package phrases

import (
	"bufio"
	"text2phenotype.com/fsl/logger"
	"text2phenotype.com/fsl/types"
	"text2phenotype.com/fsl/utils"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"github.com/rs/zerolog"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Set yields a fresh iterator over the loaded phrases on every call.
type Set func() Iterator

func CreateSet(configName string, path string, scheme []string) (Set, error) {
	fslLogger := logger.NewLogger("Phrase set loader").With().
		Str("config_name", configName).
		Str("path", path).Logger()
	errLogger := fslLogger.With().Caller().Logger()
	fslLogger.Info().Msg("Started loading")

	idxCachePath, err := getDstFilepath(path, scheme, &errLogger)
	if err != nil {
		errLogger.Err(err).Msg("Could not create phrase cache path")
		return nil, err
	}
	fslLogger = fslLogger.With().Str("phrase_cache_path", idxCachePath).Logger()
	errLogger = errLogger.With().Str("phrase_cache_path", idxCachePath).Logger()

	cacheExists := func() bool {
		_, err := os.Stat(idxCachePath)
		return err == nil
	}()

	var list PhraseList

	if !cacheExists {
		fslLogger.Info().Msg("Building new phrase list")
		var schemaMap = make(map[string]byte)
		for i, columnName := range scheme {
			schemaMap[columnName] = byte(i)
		}

		codeIdx := schemaMap[types.CODE]
		phraseIdx := schemaMap[types.PHRASE]

		var rawPhrases []*Phrase

		getHash := func(columns []string) uint64 {
			code := columns[codeIdx]
			phrase := columns[phraseIdx]
			return utils.HashString(code + "_" + phrase)
		}

		reader, err := utils.NewBSVReader(path, getHash)
		if err != nil {
			errLogger.Err(err).Msg("Could not create BSV reader")
			return nil, err
		}

		for columns := range reader {
			code := columns[codeIdx]
			symbols := utils.CollapseSpaces([]rune(columns[phraseIdx]))

			if len(symbols) == 0 {
				continue
			}

			text := string(symbols)
			phrase := Phrase{
				Span: types.Span{
					Begin: 0,
					End:   int32(len(symbols)),
					Text:  &text,
				},
				Codes: []*string{utils.GlobalStringStore().GetPointer(code)},
			}
			phrase.prepare()

			rawPhrases = append(rawPhrases, &phrase)
		}

		list = createPhraseList(rawPhrases)
		serialized, err := json.Marshal(list)
		if err != nil {
			errLogger.Err(err).Msg("Got error while marshalling phrase list")
			return nil, err
		}

		go func(data []byte) {
			err := os.MkdirAll(filepath.Dir(idxCachePath), 0700)
			if err != nil {
				errLogger.Err(err).Msg("Could not create directory for phrase cache")
				return
			}
			f, err := os.Create(idxCachePath)
			if err != nil {
				errLogger.Err(err).Msg("Could not create file for phrase cache")
				return
			}
			defer func(f *os.File) {
				err := f.Close()
				if err != nil {
					errLogger.Err(err).Msg("Caught error while closing cache file")
				}
			}(f)
			w := bufio.NewWriter(f)
			_, err = w.Write(data)
			if err != nil {
				errLogger.Err(err).Msg("Could not write serialized phrase list")
				return
			}
			if err := w.Flush(); err != nil {
				errLogger.Err(err).Msg("Could not flush phrase cache file")
			}
		}(serialized)

	} else {
		fslLogger.Info().Msg("Loading phrase list from cache")
		listCache, err := ioutil.ReadFile(idxCachePath)
		if err != nil {
			return nil, err
		}

		err = list.UnmarshalJSON(listCache)
		if err != nil {
			return nil, err
		}
	}

	fslLogger.Info().Msgf("%d phrases were loaded", len(list))
	return func() Iterator {
		return list.Iterate()
	}, nil
}

func getDstFilepath(setPath string, scheme []string, errLogger *zerolog.Logger) (string, error) {
	hash, err := func() (string, error) {
		f, err := os.Open(setPath)
		if err != nil {
			return "", err
		}
		defer func(f *os.File) {
			_ = f.Close()
		}(f)
		hasher := sha256.New()
		if _, err := io.Copy(hasher, f); err != nil {
			return "", err
		}
		result := utils.HashString(strings.Join(scheme, "") + hex.EncodeToString(hasher.Sum(nil)))
		return strconv.FormatUint(result, 10), nil
	}()

	if err != nil {
		errLogger.Err(err).Msg("Could not read phrase set file")
		return "", err
	}
	resourcePath := filepath.Dir(filepath.Dir(filepath.Dir(setPath)))
	idxSetDir := filepath.Base(filepath.Dir(setPath))

	idxName := strings.TrimSuffix(filepath.Base(setPath), filepath.Ext(setPath))
	filename := strings.Join([]string{idxName, hash, ".json"}, "")

	return filepath.Join(resourcePath, "tmp_index", idxSetDir, filename), nil
}
