package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/contactkeval/option-pricer/internal/logger"
)

// localCSVProvider serves spot prices from a "symbol,price" CSV file.
// The file is read once, on first use.
type localCSVProvider struct {
	path      string
	secondary Provider

	loadOnce sync.Once
	spots    map[string]float64
	loadErr  error
}

// NewLocalCSVProvider returns a Provider backed by the CSV at path.
func NewLocalCSVProvider(path string, secondary Provider) Provider {
	return &localCSVProvider{path: path, secondary: secondary}
}

func (localCSVProv *localCSVProvider) Secondary() Provider {
	return localCSVProv.secondary
}

func (localCSVProv *localCSVProvider) Spot(ctx context.Context, underlying string) (float64, error) {
	localCSVProv.loadOnce.Do(localCSVProv.load)
	if localCSVProv.loadErr != nil && localCSVProv.secondary == nil {
		return 0, localCSVProv.loadErr
	}

	if px, ok := localCSVProv.spots[normalizeSymbol(underlying)]; ok {
		return px, nil
	}
	return delegate(ctx, localCSVProv, underlying)
}

func (localCSVProv *localCSVProvider) load() {
	localCSVProv.loadErr = localCSVProv.read()
	if localCSVProv.loadErr != nil && localCSVProv.secondary != nil {
		logger.Errorf("%v, using secondary", localCSVProv.loadErr)
	}
}

func (localCSVProv *localCSVProvider) read() error {
	f, err := os.Open(localCSVProv.path)
	if err != nil {
		return fmt.Errorf("open spots file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("read spots file %s: %w", localCSVProv.path, err)
	}

	spots := make(map[string]float64, len(records))
	for _, row := range records {
		if len(row) < 2 {
			continue
		}
		// header rows and bad prices are skipped
		px, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			continue
		}
		spots[normalizeSymbol(row[0])] = px
	}

	logger.Debugf("loaded %d spots from %s", len(spots), localCSVProv.path)
	localCSVProv.spots = spots
	return nil
}
