package simulator

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tradesim/internal/domain"
)

var t0 = time.Date(2024, 5, 6, 13, 30, 0, 0, time.UTC)

func makeSeries(closes ...float64) domain.TimeSeries {
	s := make(domain.TimeSeries, len(closes))
	for i, c := range closes {
		s[i] = domain.PriceBar{
			Timestamp: t0.Add(time.Duration(i) * time.Minute),
			Close:     decimal.NewFromFloat(c),
		}
	}
	return s
}

// rampSeries crea n barras con cierres 100, 101, 102...
func rampSeries(n int) domain.TimeSeries {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	return makeSeries(closes...)
}

// scriptedRand devuelve los valores en orden; falla el test (panic) si se sale de rango.
type scriptedRand struct {
	values []int
	calls  []int // n recibido en cada llamada
}

func (r *scriptedRand) IntN(n int) int {
	r.calls = append(r.calls, n)
	v := r.values[0]
	r.values = r.values[1:]
	if v < 0 || v >= n {
		panic("scripted value out of range")
	}
	return v
}

type memorySink struct {
	scalars  []domain.Scalar
	flushes  int
	failAt   int // 0 = nunca
	flushErr error
}

func (m *memorySink) WriteScalar(_ context.Context, s domain.Scalar) error {
	if m.failAt > 0 && len(m.scalars)+1 == m.failAt {
		return errors.New("sink full")
	}
	m.scalars = append(m.scalars, s)
	return nil
}

func (m *memorySink) Flush(context.Context) error {
	m.flushes++
	return m.flushErr
}

type mockProvider struct {
	series map[string]domain.TimeSeries
	errs   map[string]error
}

func (m *mockProvider) FetchSeries(_ context.Context, ticker string, _, _ time.Time, _ string) (domain.TimeSeries, error) {
	if err := m.errs[ticker]; err != nil {
		return nil, err
	}
	return m.series[ticker], nil
}

type mockNotifier struct {
	runs []domain.Run
}

func (m *mockNotifier) Notify(_ context.Context, run domain.Run) error {
	m.runs = append(m.runs, run)
	return nil
}

type mockRecorder struct {
	runs     int
	scalars  int
	failures []string
}

func (m *mockRecorder) ObserveRun(_ domain.Run, scalars int) {
	m.runs++
	m.scalars += scalars
}

func (m *mockRecorder) ObserveFailure(stage string) {
	m.failures = append(m.failures, stage)
}
