package marketdata

// csv.go: lee series guardadas por el paso de descarga.
//
// Layout: <dir>/<TICKER>/<TICKER>_data_<from>_to_<to>_<interval>.csv
// Si no existe el fichero exacto del rango, usa el último (orden léxico) que
// coincida con <TICKER>_data_*_<interval>.csv y filtra por [from, to).
//
// La primera columna es el timestamp; el cierre se busca por nombre ("Close").
// Las filas de cabecera extra que añade yfinance (Ticker, Datetime...) se
// saltan mientras no haya aparecido ninguna fila válida.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tradesim/internal/domain"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// CSVProvider implementa ports.SeriesProvider sobre ficheros CSV locales.
type CSVProvider struct {
	dir string
}

// NewCSVProvider crea un provider que lee de dir.
func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

// FetchSeries lee la serie del ticker. ctx no se usa: la lectura es local.
func (p *CSVProvider) FetchSeries(_ context.Context, ticker string, from, to time.Time, interval string) (domain.TimeSeries, error) {
	path, err := p.resolve(ticker, from, to, interval)
	if err != nil {
		return nil, fmt.Errorf("marketdata.CSVProvider: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("marketdata.CSVProvider: open %q: %w", path, err)
	}
	defer f.Close()

	series, err := ReadSeriesCSV(f)
	if err != nil {
		return nil, fmt.Errorf("marketdata.CSVProvider: %s: %w", path, err)
	}
	return filterRange(series, from, to), nil
}

// resolve devuelve el fichero del rango exacto o, si no existe, el último disponible.
func (p *CSVProvider) resolve(ticker string, from, to time.Time, interval string) (string, error) {
	tickerDir := filepath.Join(p.dir, ticker)

	if !from.IsZero() && !to.IsZero() {
		exact := filepath.Join(tickerDir, fmt.Sprintf("%s_data_%s_to_%s_%s.csv",
			ticker, from.Format(time.DateOnly), to.Format(time.DateOnly), interval))
		if _, err := os.Stat(exact); err == nil {
			return exact, nil
		}
	}

	matches, err := filepath.Glob(filepath.Join(tickerDir, fmt.Sprintf("%s_data_*_%s.csv", ticker, interval)))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no %s data for %s in %s", interval, ticker, tickerDir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// ReadSeriesCSV parsea un CSV con timestamp en la primera columna y una columna "Close".
func ReadSeriesCSV(r io.Reader) (domain.TimeSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	closeCol := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "close") {
			closeCol = i
			break
		}
	}
	if closeCol < 1 {
		return nil, errors.New(`no "Close" column`)
	}

	var series domain.TimeSeries
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) <= closeCol {
			return nil, fmt.Errorf("line %d: %d fields, want > %d", line, len(rec), closeCol)
		}

		ts, tsErr := parseTime(rec[0])
		px, pxErr := decimal.NewFromString(strings.TrimSpace(rec[closeCol]))
		if tsErr != nil || pxErr != nil {
			if len(series) == 0 {
				continue // cabeceras extra
			}
			return nil, fmt.Errorf("line %d: bad row %q: %w", line, rec, errors.Join(tsErr, pxErr))
		}
		series = append(series, domain.PriceBar{Timestamp: ts, Close: px})
	}
	return series, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// filterRange deja las barras en [from, to). Un extremo cero no filtra.
func filterRange(s domain.TimeSeries, from, to time.Time) domain.TimeSeries {
	if from.IsZero() && to.IsZero() {
		return s
	}
	out := make(domain.TimeSeries, 0, len(s))
	for _, b := range s {
		if !from.IsZero() && b.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !b.Timestamp.Before(to) {
			continue
		}
		out = append(out, b)
	}
	return out
}
