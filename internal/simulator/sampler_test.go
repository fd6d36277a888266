package simulator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradesim/internal/domain"
)

func TestSimulate_WorkedExample(t *testing.T) {
	series := map[string]domain.TimeSeries{
		"AAPL": makeSeries(10, 12, 9, 15, 11),
	}
	// buy = IntN(4) = 1, sell = 2 + IntN(3) = 3
	rng := &scriptedRand{values: []int{1, 1}}

	trades, skipped, err := Simulate(series, 1, 10, rng)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, trades, 1)
	assert.Equal(t, []int{4, 3}, rng.calls)

	tr := trades[0]
	assert.Equal(t, 1, tr.BuyIndex)
	assert.Equal(t, 3, tr.SellIndex)
	assert.True(t, tr.BuyPrice.Equal(decimal.NewFromInt(12)))
	assert.True(t, tr.SellPrice.Equal(decimal.NewFromInt(15)))
	assert.True(t, tr.ProfitLoss.Equal(decimal.NewFromInt(30)))
	assert.InDelta(t, 25.0, tr.Score, 1e-9)
	require.Len(t, tr.Window, 1)
	assert.True(t, tr.Window[0].Close.Equal(decimal.NewFromInt(10)))
}

func TestSimulate_IndexAndWindowInvariants(t *testing.T) {
	series := map[string]domain.TimeSeries{
		"AAPL": rampSeries(120),
		"AMZN": rampSeries(7),
		"TWO":  rampSeries(2),
	}

	trades, skipped, err := Simulate(series, 200, 10, NewRand(7))
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, trades, 600)

	for _, tr := range trades {
		s := series[tr.Ticker]
		require.GreaterOrEqual(t, tr.BuyIndex, 0)
		require.Less(t, tr.BuyIndex, tr.SellIndex)
		require.Less(t, tr.SellIndex, len(s))

		wantLen := min(domain.WindowLen, tr.BuyIndex)
		require.Len(t, tr.Window, wantLen)
		for j, bar := range tr.Window {
			assert.Equal(t, s[tr.BuyIndex-wantLen+j], bar)
		}
	}
}

func TestSimulate_TwoBarSeriesAlwaysZeroOne(t *testing.T) {
	series := map[string]domain.TimeSeries{"X": rampSeries(2)}

	trades, _, err := Simulate(series, 20, 1, NewRand(1))
	require.NoError(t, err)
	for _, tr := range trades {
		assert.Equal(t, 0, tr.BuyIndex)
		assert.Equal(t, 1, tr.SellIndex)
	}
}

func TestSimulate_OrderByTickerThenDraw(t *testing.T) {
	series := map[string]domain.TimeSeries{
		"MSFT": rampSeries(10),
		"AAPL": rampSeries(10),
		"GOOG": rampSeries(10),
	}

	trades, _, err := Simulate(series, 3, 10, NewRand(3))
	require.NoError(t, err)
	require.Len(t, trades, 9)

	var got []string
	for _, tr := range trades {
		got = append(got, tr.Ticker)
	}
	assert.Equal(t, []string{"AAPL", "AAPL", "AAPL", "GOOG", "GOOG", "GOOG", "MSFT", "MSFT", "MSFT"}, got)
}

func TestSimulate_Deterministic(t *testing.T) {
	series := map[string]domain.TimeSeries{
		"AAPL": rampSeries(500),
		"AMZN": rampSeries(300),
	}

	a, _, err := Simulate(series, 50, 10, NewRand(42))
	require.NoError(t, err)
	b, _, err := Simulate(series, 50, 10, NewRand(42))
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Ticker, b[i].Ticker)
		assert.Equal(t, a[i].BuyIndex, b[i].BuyIndex)
		assert.Equal(t, a[i].SellIndex, b[i].SellIndex)
	}
}

func TestSimulate_DifferentSeedsDiffer(t *testing.T) {
	series := map[string]domain.TimeSeries{"AAPL": rampSeries(1000)}

	a, _, _ := Simulate(series, 20, 10, NewRand(1))
	b, _, _ := Simulate(series, 20, 10, NewRand(2))

	same := true
	for i := range a {
		if a[i].BuyIndex != b[i].BuyIndex || a[i].SellIndex != b[i].SellIndex {
			same = false
			break
		}
	}
	assert.False(t, same)
}

func TestSimulate_InsufficientDataSkipped(t *testing.T) {
	series := map[string]domain.TimeSeries{
		"ONE":   makeSeries(100),
		"EMPTY": nil,
		"OK":    rampSeries(5),
	}

	trades, skipped, err := Simulate(series, 4, 10, NewRand(9))
	require.NoError(t, err)
	assert.Len(t, trades, 4)
	for _, tr := range trades {
		assert.Equal(t, "OK", tr.Ticker)
	}

	require.Len(t, skipped, 2)
	assert.Equal(t, "EMPTY", skipped[0].Ticker)
	assert.Equal(t, 0, skipped[0].Bars)
	assert.Equal(t, "ONE", skipped[1].Ticker)
	assert.Equal(t, 1, skipped[1].Bars)
}

func TestSimulate_ZeroTradesPerTicker(t *testing.T) {
	trades, skipped, err := Simulate(map[string]domain.TimeSeries{"A": rampSeries(5)}, 0, 10, NewRand(1))
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Empty(t, skipped)
}

func TestSimulate_EmptyInput(t *testing.T) {
	trades, skipped, err := Simulate(nil, 10, 10, NewRand(1))
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Empty(t, skipped)
}

func TestSimulate_Preconditions(t *testing.T) {
	series := map[string]domain.TimeSeries{"A": rampSeries(5)}

	_, _, err := Simulate(series, 1, 0, NewRand(1))
	assert.ErrorIs(t, err, domain.ErrInvalidShares)

	_, _, err = Simulate(series, 1, -5, NewRand(1))
	assert.ErrorIs(t, err, domain.ErrInvalidShares)

	_, _, err = Simulate(series, -1, 10, NewRand(1))
	assert.ErrorIs(t, err, domain.ErrInvalidTradeCount)

	_, _, err = Simulate(series, 1, 10, nil)
	assert.Error(t, err)
}

func TestSimulate_UnorderedSeries(t *testing.T) {
	s := rampSeries(5)
	s[3].Timestamp = s[1].Timestamp

	_, _, err := Simulate(map[string]domain.TimeSeries{"BAD": s}, 1, 10, NewRand(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnorderedSeries)
	assert.Contains(t, err.Error(), "BAD")
}

func TestSimulate_ZeroBuyPriceIsFatal(t *testing.T) {
	series := map[string]domain.TimeSeries{"Z": makeSeries(0, 1, 2)}
	// buy = 0, sell = 1 + 0
	rng := &scriptedRand{values: []int{0, 0}}

	trades, _, err := Simulate(series, 1, 10, rng)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrZeroBuyPrice)
	assert.Nil(t, trades)
}

// --- drawPair ---

func TestDrawPair_Bounds(t *testing.T) {
	rng := NewRand(99)
	for n := 2; n < 40; n++ {
		for range 200 {
			buy, sell := drawPair(rng, n)
			require.GreaterOrEqual(t, buy, 0)
			require.LessOrEqual(t, buy, n-2)
			require.Greater(t, sell, buy)
			require.LessOrEqual(t, sell, n-1)
		}
	}
}

func TestDrawPair_CoversFullRange(t *testing.T) {
	rng := NewRand(5)
	const n = 6
	seenBuy := make(map[int]bool)
	seenSell := make(map[int]bool)
	for range 5000 {
		buy, sell := drawPair(rng, n)
		seenBuy[buy] = true
		seenSell[sell] = true
	}
	assert.Len(t, seenBuy, n-1)  // 0..4
	assert.Len(t, seenSell, n-1) // 1..5
}
