package phrases

import (
	"bufio"
	"bytes"
	"text2phenotype.com/fsl/logger"
	"text2phenotype.com/fsl/types"
	"text2phenotype.com/fsl/utils"
	"io"
	"io/ioutil"
	"strings"
)

type Catalog func(codes []*string) (map[*string]*types.CatalogEntry, error) // code -> catalog entry

type CatalogOffset struct {
	Offset int64
	Length int
}

func CreateCatalog(configName string, path string, scheme []string) (Catalog, error) {
	fslLogger := logger.NewLogger("Catalog loader").With().
		Str("config_name", configName).
		Str("path", path).Logger()
	fslLogger.Info().Msg("Started loading")

	// create scheme index map
	var schemaMap = make(map[string]int)
	for i, columnName := range scheme {
		schemaMap[columnName] = i
	}

	codeIdx := schemaMap[types.CODE]

	catalogBytes, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	bytesReader := bytes.NewReader(catalogBytes)
	reader := bufio.NewReader(bytesReader)
	store := utils.GlobalStringStore()

	entryMap := make(map[*string][]CatalogOffset)

	offset := int64(0)
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		offset += int64(len(line))
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		cutLine := strings.Trim(line, "\n")
		columns := strings.Split(cutLine, "|")

		code := columns[codeIdx]
		codePtr := store.GetPointer(code)

		entryData := CatalogOffset{
			Offset: offset - int64(len(line)),
			Length: len(line),
		}
		entryMap[codePtr] = append(entryMap[codePtr], entryData)
	}

	severityIdx := schemaMap[types.SEVERITY]

	fslLogger.Info().Msgf("Loaded %d catalog entries", len(entryMap))
	errLogger := fslLogger.With().Caller().Logger()

	return func(codes []*string) (map[*string]*types.CatalogEntry, error) {
		result := make(map[*string]*types.CatalogEntry)

		for _, codePtr := range codes {
			codeOffsets := entryMap[codePtr]

			var entry *types.CatalogEntry

			for _, codeOffset := range codeOffsets {
				buf := make([]byte, codeOffset.Length)
				_, err := bytesReader.ReadAt(buf, codeOffset.Offset)
				if err != nil {
					errLogger.Err(err).Msg("")
					return nil, err
				}
				line := string(buf)

				line = strings.Trim(line, "\n")
				columns := strings.Split(line, "|")

				severity := GetSeverityGroupID(columns[severityIdx])

				if entry == nil {
					entry = types.CreateCatalogEntry(columns, codePtr, schemaMap)
				}
				entry.Update(severity, columns, schemaMap)
			}

			if entry != nil {
				result[codePtr] = entry
			}
		}
		return result, nil
	}, nil
}
