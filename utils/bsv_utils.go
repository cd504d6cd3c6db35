package utils

import (
	"bufio"
	"text2phenotype.com/fsl/logger"
	"os"
	"path"
	"strings"
)

type GetHashFunc func(columns []string) uint64

// NewBSVReader streams the pipe-separated rows of one .bsv file, skipping
// comment lines and rows whose getHash value was seen before. Column case is
// kept as is, match modes decide about folding later.
func NewBSVReader(bsvPath string, getHash GetHashFunc) (<-chan []string, error) {
	_, fileName := path.Split(bsvPath)
	fslLogger := logger.NewLogger("BSVReader (" + fileName + ")")

	f, err := os.Open(bsvPath)
	if err != nil {
		return nil, err
	}

	rows := make(chan []string)
	go func() {
		defer f.Close()
		defer close(rows)

		seen := make(map[uint64]bool)
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
				continue
			}
			columns := strings.Split(line, "|")
			hash := getHash(columns)
			if seen[hash] {
				continue
			}
			seen[hash] = true
			rows <- columns
		}
		if err := scanner.Err(); err != nil {
			fslLogger.Error().Err(err).Msg("Failed reading file")
		}
	}()
	return rows, nil
}
