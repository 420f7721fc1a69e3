// Package report writes priced quotes to disk as JSON and CSV.
package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/contactkeval/option-pricer/internal/engine"
)

// PremiumPlaces is the number of decimals premiums are rendered with.
const PremiumPlaces = 4

func WriteJSON(res *engine.Result, outdir string) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, "quotes.json"), b, 0644)
}

func WriteCSV(quotes []engine.Quote, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, "quotes.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	headers := []string{"id", "underlying", "option_type", "spot", "strike", "volatility", "risk_free_rate", "time_to_expiry", "dividend_yield", "forward", "discount_factor", "premium", "boundary", "error"}
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, q := range quotes {
		if err := w.Write(Row(q)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Row renders one quote as CSV fields. Failed quotes leave the numeric
// output columns empty.
func Row(q engine.Quote) []string {
	p := q.Params
	row := []string{
		q.ID,
		q.Underlying,
		string(q.OptionType),
		num(p.Underlying),
		num(p.Strike),
		num(p.Volatility),
		num(p.RiskFreeRate),
		num(p.TimeToExpiry),
		num(p.DividendYield),
	}
	if q.Error != "" {
		return append(row, "", "", "", "", q.Error)
	}
	return append(row,
		decimal.NewFromFloat(q.Forward).StringFixed(PremiumPlaces),
		decimal.NewFromFloat(q.Discount).StringFixed(8),
		decimal.NewFromFloat(q.Premium).StringFixed(PremiumPlaces),
		strconv.FormatBool(q.Boundary),
		"",
	)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
