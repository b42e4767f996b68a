package http

import (
	"budget/internal/chart"
	"budget/internal/core"
	"budget/internal/ledger"

	"github.com/shopspring/decimal"
)

type recordRow struct {
	ID       string
	Position int
	Category string
	Value    string
}

type totalRow struct {
	Category string
	Amount   string
}

// ledgerView is the data of the "ledger" partial.
type ledgerView struct {
	Budget      string
	BudgetInput string
	Total       string
	Balance     string
	Sign        ledger.Sign
	Empty       bool
	Records     []recordRow
	Totals      []totalRow
}

// pageView is the data of index.html.
type pageView struct {
	Ledger     ledgerView
	Categories []core.Category
	Charts     []chart.Config
}

func (s *Server) ledgerView(snap ledger.Snapshot) ledgerView {
	v := ledgerView{
		Budget:      s.formatAmount(snap.Budget),
		BudgetInput: snap.Budget.String(),
		Total:       s.formatAmount(ledger.TotalExpenses(snap)),
		Balance:     s.formatAmount(ledger.Balance(snap)),
		Sign:        ledger.BalanceSign(snap),
		Empty:       snap.Empty(),
	}
	for i, r := range snap.Records {
		v.Records = append(v.Records, recordRow{
			ID:       r.ID,
			Position: i + 1,
			Category: string(r.Category),
			Value:    s.formatAmount(r.Value),
		})
	}
	for _, t := range ledger.CategoryTotals(snap) {
		v.Totals = append(v.Totals, totalRow{Category: string(t.Category), Amount: s.formatAmount(t.Amount)})
	}
	return v
}

type recordJSON struct {
	ID       string          `json:"id"`
	Category string          `json:"category"`
	Value    decimal.Decimal `json:"value"`
}

type categoryTotalJSON struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

type pointJSON struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// ledgerResponse is the body of GET /api/ledger and of JSON mutation
// responses. Amounts are decimal strings.
type ledgerResponse struct {
	Budget         decimal.Decimal     `json:"budget"`
	Total          decimal.Decimal     `json:"total"`
	Balance        decimal.Decimal     `json:"balance"`
	Sign           ledger.Sign         `json:"sign"`
	Records        []recordJSON        `json:"records"`
	CategoryTotals []categoryTotalJSON `json:"category_totals"`
	Series         []pointJSON         `json:"series"`
}

func newLedgerResponse(snap ledger.Snapshot) ledgerResponse {
	resp := ledgerResponse{
		Budget:         snap.Budget,
		Total:          ledger.TotalExpenses(snap),
		Balance:        ledger.Balance(snap),
		Sign:           ledger.BalanceSign(snap),
		Records:        make([]recordJSON, 0, len(snap.Records)),
		CategoryTotals: []categoryTotalJSON{},
		Series:         []pointJSON{},
	}
	for _, r := range snap.Records {
		resp.Records = append(resp.Records, recordJSON{ID: r.ID, Category: string(r.Category), Value: r.Value})
	}
	for _, t := range ledger.CategoryTotals(snap) {
		resp.CategoryTotals = append(resp.CategoryTotals, categoryTotalJSON{Category: string(t.Category), Amount: t.Amount})
	}
	for _, p := range ledger.ChronologicalSeries(snap) {
		resp.Series = append(resp.Series, pointJSON{Label: p.Label, Value: p.Value})
	}
	return resp
}

// chartPayload pairs a canvas id with its Chart.js configuration.
type chartPayload struct {
	ID     string         `json:"id"`
	Config map[string]any `json:"config"`
}

func chartPayloads(snap ledger.Snapshot) []chartPayload {
	configs := chart.Build(snap)
	out := make([]chartPayload, 0, len(configs))
	for _, c := range configs {
		out = append(out, chartPayload{ID: c.ID, Config: c.ChartJS()})
	}
	return out
}
