package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/tradesim/internal/domain"
	"github.com/olekukonko/tablewriter"
)

const defaultTopN = 5

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
	topN  int
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table, topN: defaultTopN}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table, topN: defaultTopN}
}

// Notify imprime el resumen del run en el modo configurado.
func (c *Console) Notify(_ context.Context, run domain.Run) error {
	if len(run.Trades) == 0 {
		fmt.Fprintf(c.out, "[%s] run %s: no trades generated\n", time.Now().Format("15:04:05"), shortID(run.ID))
		c.printSkipped(run.Skipped)
		return nil
	}

	if c.table {
		c.printFull(run)
	} else {
		c.printCompact(run)
	}
	return nil
}

// printCompact imprime lo esencial en una línea por run.
func (c *Console) printCompact(run domain.Run) {
	sums := domain.Summarize(run.Trades)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] run %s → %d trades, %d tickers",
		time.Now().Format("15:04:05"), shortID(run.ID), len(run.Trades), len(sums))
	if len(run.Skipped) > 0 {
		fmt.Fprintf(&sb, ", skipped:%d", len(run.Skipped))
	}
	fmt.Fprintf(&sb, " | score [%.2f%%, %.2f%%]", run.MinScore, run.MaxScore)

	for _, s := range sums {
		fmt.Fprintf(&sb, " | %s win %.0f%% avg %+.2f%%", s.Ticker, s.WinRate*100, s.AvgPct)
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla por ticker y los mejores/peores trades.
func (c *Console) printFull(run domain.Run) {
	fmt.Fprintf(c.out, "\n[%s] run %s — %d trades, seed %d\n",
		time.Now().Format("15:04:05"), run.ID, len(run.Trades), run.Seed)

	c.printSummaryTable(domain.Summarize(run.Trades))
	c.printTopTrades(run.Trades)
	c.printSkipped(run.Skipped)
}

func (c *Console) printSummaryTable(sums []domain.TickerSummary) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Ticker", "Trades", "Win%", "Avg%", "Best%", "Worst%", "Total P/L", "Avg hold", "Avg window")

	for _, s := range sums {
		table.Append(
			s.Ticker,
			fmt.Sprintf("%d", s.Trades),
			fmt.Sprintf("%.1f", s.WinRate*100),
			fmt.Sprintf("%+.3f", s.AvgPct),
			fmt.Sprintf("%+.3f", s.BestPct),
			fmt.Sprintf("%+.3f", s.WorstPct),
			s.TotalPnL.StringFixed(2),
			s.AvgHolding.Round(time.Minute).String(),
			fmt.Sprintf("%.1f", s.AvgWindow),
		)
	}

	table.Render()
}

// printTopTrades imprime los topN trades por score normalizado, arriba y abajo.
func (c *Console) printTopTrades(trades []domain.Trade) {
	sorted := make([]domain.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].NormalizedScore > sorted[j].NormalizedScore
	})

	n := min(c.topN, len(sorted))
	fmt.Fprintf(c.out, "\n=== TOP %d ===\n", n)
	c.printTradeTable(sorted[:n])

	if len(sorted) > n {
		bottom := sorted[max(n, len(sorted)-n):]
		fmt.Fprintf(c.out, "\n=== BOTTOM %d ===\n", len(bottom))
		c.printTradeTable(bottom)
	}
}

func (c *Console) printTradeTable(trades []domain.Trade) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Ticker", "Buy", "Sell", "Buy $", "Sell $", "P/L", "Pct", "Norm")

	for _, t := range trades {
		table.Append(
			t.Ticker,
			t.BuyDate.Format("01-02 15:04"),
			t.SellDate.Format("01-02 15:04"),
			t.BuyPrice.StringFixed(2),
			t.SellPrice.StringFixed(2),
			t.ProfitLoss.StringFixed(2),
			fmt.Sprintf("%+.3f%%", t.Score),
			fmt.Sprintf("%.3f", t.NormalizedScore),
		)
	}

	table.Render()
}

func (c *Console) printSkipped(skipped []domain.SkippedTicker) {
	for _, s := range skipped {
		fmt.Fprintf(c.out, "  ⚠ %s skipped (%d bars): %s\n", s.Ticker, s.Bars, s.Reason)
	}
}

// shortID recorta un UUID a sus primeros 8 caracteres.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
