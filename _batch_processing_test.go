package main

import (
	"text2phenotype.com/fsl/pipeline"
	"text2phenotype.com/fsl/types"
	"text2phenotype.com/fsl/utils"
	"io/ioutil"
	"path"
	"strings"
	"sync"
	"testing"
	"time"
)

// Manual batch harness. Point the folders below at local data and rename the
// file to drop the leading underscore before running.

type sampleFile struct {
	name string
	path string
}

func listSamples(inDir string) ([]sampleFile, error) {
	entries, err := ioutil.ReadDir(inDir)
	if err != nil {
		return nil, err
	}
	var samples []sampleFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		samples = append(samples, sampleFile{
			name: entry.Name(),
			path: path.Join(inDir, entry.Name()),
		})
	}
	return samples, nil
}

func TestBatchProcessing(t *testing.T) {
	// Folder with screen configurations: <fsl repository folder>/config
	cfgDir := ""
	// Folder with samples *.txt
	inDir := ""
	// Folder to save results *.json
	outDir := ""
	// Phrase sets folder: <fsl repository folder>/resources/phrases
	phrasesDir := ""
	// Upper bound on samples screened in parallel
	batchSize := 10

	cfgs, err := types.LoadConfigurations(cfgDir)
	if err != nil {
		t.Fatal(err)
	}
	ppln, err := pipeline.Screen(pipeline.ScreenParams{
		PhrasesFolder:  phrasesDir,
		Configurations: cfgs,
	})
	if err != nil {
		t.Fatal(err)
	}
	utils.GlobalStringStore().Lock()

	samples, err := listSamples(inDir)
	if err != nil {
		t.Fatal(err)
	}

	started := time.Now()
	sem := make(chan struct{}, batchSize)
	var wg sync.WaitGroup
	for _, sample := range samples {
		sample := sample
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := screenSample(ppln, sample, outDir); err != nil {
				t.Error(sample.name, err)
			}
		}()
	}
	wg.Wait()
	t.Log("Processing time (ms)", time.Since(started).Milliseconds())
}

func screenSample(ppln pipeline.Pipeline, sample sampleFile, outDir string) error {
	buf, err := ioutil.ReadFile(sample.path)
	if err != nil {
		return err
	}
	resp := <-ppln(pipeline.Request{
		Tid:  sample.name,
		Text: string(buf),
	})
	return ioutil.WriteFile(path.Join(outDir, sample.name+".json"), []byte(resp), 0644)
}
