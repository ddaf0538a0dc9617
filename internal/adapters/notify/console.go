package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/tezfolio/internal/domain"
)

// Console implementa ports.Notifier y renderiza el estado en tablas.
type Console struct {
	out io.Writer
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Notify imprime el aviso en una línea.
func (c *Console) Notify(_ context.Context, n domain.Notice) error {
	at := n.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := fmt.Fprintf(c.out, "[%s] %s %s: %s\n",
		at.Format("15:04:05"), strings.ToUpper(string(n.Level)), n.Title, n.Message)
	return err
}

// PrintCatalog imprime los pools disponibles.
func (c *Console) PrintCatalog(pools []domain.Pool) {
	if len(pools) == 0 {
		fmt.Fprintln(c.out, "no pools available")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "", "Token", "Symbol", "Std", "Pool", "Tez pool", "Tez→Token")
	for i, p := range pools {
		table.Append(
			fmt.Sprintf("%d", i+1),
			p.Initials(),
			truncate(p.TokenName, 28),
			p.TokenSymbol,
			strings.ToUpper(string(p.Standard)),
			p.PoolAddress,
			fmt.Sprintf("%.2f", p.TezPool),
			priceLabel(p.TezToToken),
		)
	}
	table.Render()
}

// PrintAllocation imprime la selección en curso.
func (c *Console) PrintAllocation(entries []domain.AllocationEntry) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Symbol", "Pool", "Weight %")
	for _, e := range entries {
		w := "-"
		if e.Weight != nil {
			w = fmt.Sprintf("%g", *e.Weight)
		}
		table.Append(e.Pool.TokenSymbol, e.Pool.PoolAddress, w)
	}
	table.Render()
}

// PrintEmulation imprime la curva emulada (punto de partida = 100%) y su resumen.
func (c *Console) PrintEmulation(samples []domain.EmulationSample) {
	fmt.Fprintln(c.out, "Worth of the portfolio with selected tokens (start = 100%)")

	table := tablewriter.NewWriter(c.out)
	table.Header("Day", "Worth")
	for _, s := range samples {
		table.Append(s.Day.Format("2006-01-02"), fmt.Sprintf("%.2f%%", s.Percent()))
	}
	table.Render()

	sum := domain.SummarizeEmulation(samples)
	fmt.Fprintf(c.out, "  return %+.2f%% | daily vol %.2f%% | max drawdown %.2f%% | %d days\n",
		sum.TotalReturn*100, sum.Volatility*100, sum.MaxDrawdown*100, sum.Samples)
}

// PrintVariants imprime las variantes de la optimización.
func (c *Console) PrintVariants(variants []domain.Variant) {
	if len(variants) == 0 {
		fmt.Fprintln(c.out, "no profitable variants for such tokens")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Profit", "Volatility", "Weights")
	for i, v := range variants {
		table.Append(
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%.2f%%", v.ProfitRatio*100),
			fmt.Sprintf("%.2f%%", v.VolatilityRatio*100),
			weightsLabel(v.Weights),
		)
	}
	table.Render()
}

// PrintPosition imprime la posición on-chain.
func (c *Console) PrintPosition(position domain.Position) {
	if position.Empty() {
		fmt.Fprintln(c.out, "no portfolio")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Symbol", "Asset", "Weight", "Pool")
	for _, it := range position {
		table.Append(it.Symbol, it.Asset, it.Weight, it.Token)
	}
	table.Render()
}

// PrintOperations imprime el journal.
func (c *Console) PrintOperations(ops []domain.OperationRecord) {
	if len(ops) == 0 {
		fmt.Fprintln(c.out, "journal is empty")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("When", "Kind", "Owner", "Op", "Result", "Error")
	for _, op := range ops {
		result := "OK"
		if !op.Success {
			result = "FAILED"
		}
		table.Append(
			op.StartedAt.Local().Format("2006-01-02 15:04"),
			string(op.Kind),
			truncate(op.Owner, 12),
			truncate(op.OpHash, 14),
			result,
			truncate(op.Error, 40),
		)
	}
	table.Render()
}

func weightsLabel(weights map[string]float64) string {
	symbols := make([]string, 0, len(weights))
	for s := range weights {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	parts := make([]string, len(symbols))
	for i, s := range symbols {
		parts[i] = fmt.Sprintf("%s: %g", s, weights[s])
	}
	return strings.Join(parts, ", ")
}

func priceLabel(p float64) string {
	if p == 0 {
		return "-"
	}
	return fmt.Sprintf("%.4f", p)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
