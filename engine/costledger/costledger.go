// Package costledger accumulates per-call LLM token usage and turns it into
// priced cost, per C10. Rates are expressed in fixed-point "micro-credits"
// (1 credit = 1_000_000 micro-credits) so the ledger never depends on a
// floating-point or arbitrary-precision decimal library for three
// constants — no example in the retrieval pack reaches for one at this
// scale either.
package costledger

import (
	"fmt"

	"github.com/finalyze/core/engine/core"
)

// APITag identifies which priced API a generation result came from.
type APITag string

const (
	APILocalModel APITag = "local_model"
	APIProviderA  APITag = "provider_a"
	APIProviderB  APITag = "provider_b"
)

// rate is expressed in micro-credits per token.
type rate struct {
	input  int64
	output int64
}

// rates is the per-API pricing table translated from
// original_source/backend/src/llm/mod.rs's Api::exchange_rate (0.0005 and
// 0.0015 credits/token for the priced APIs, zero for the free one).
var rates = map[APITag]rate{
	APILocalModel: {input: 500, output: 1500},
	APIProviderA:  {input: 500, output: 1500},
	APIProviderB:  {input: 0, output: 0},
}

const microCreditsPerCredit = 1_000_000

// CostMicroCredits computes the cost of one generation result in
// micro-credits: prompt_tokens*input_rate + generated_tokens*output_rate.
// Cache reads/writes are priced at the same input/output rate respectively
// when the API reports them; otherwise they are zero, which falls out
// naturally since CacheReadTokens/CacheWriteTokens default to zero when
// unreported.
func CostMicroCredits(api APITag, r core.GenerationResult) int64 {
	ra, ok := rates[api]
	if !ok {
		ra = rate{}
	}
	cost := int64(r.PromptTokens)*ra.input + int64(r.GeneratedTokens)*ra.output
	cost += int64(r.CacheReadTokens)*ra.input + int64(r.CacheWriteTokens)*ra.output
	return cost
}

// CostCredits returns the same cost as a float64 number of credits, for
// display purposes (e.g. 100 prompt + 50 generated tokens against the local
// model API => 0.125 credits).
func CostCredits(api APITag, r core.GenerationResult) float64 {
	return float64(CostMicroCredits(api, r)) / microCreditsPerCredit
}

// Entry is one line item in the ledger: a single priced generation call.
type Entry struct {
	API    APITag
	Result core.GenerationResult
}

// Ledger accumulates entries for one report and renders the two views C10
// specifies.
type Ledger struct {
	entries []Entry
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Record appends one priced call.
func (l *Ledger) Record(api APITag, r core.GenerationResult) {
	l.entries = append(l.entries, Entry{API: api, Result: r})
}

// RecordAll seeds the ledger from a report's accumulated generation
// results, tagging each by its own APITag field.
func (l *Ledger) RecordAll(results []core.GenerationResult) {
	for _, r := range results {
		l.Record(APITag(r.APITag), r)
	}
}

// TokenBillLine is one row of the token bill: every entry whose API has a
// nonzero cost_per_token.
type TokenBillLine struct {
	API             APITag
	PromptTokens    int
	GeneratedTokens int
	MicroCredits    int64
}

// TokenBill returns one line per entry with a nonzero per-token cost,
// i.e. excludes free APIs (Provider B) from the bill.
func (l *Ledger) TokenBill() []TokenBillLine {
	var lines []TokenBillLine
	for _, e := range l.entries {
		ra, ok := rates[e.API]
		if !ok || (ra.input == 0 && ra.output == 0) {
			continue
		}
		lines = append(lines, TokenBillLine{
			API:             e.API,
			PromptTokens:    e.Result.PromptTokens,
			GeneratedTokens: e.Result.GeneratedTokens,
			MicroCredits:    CostMicroCredits(e.API, e.Result),
		})
	}
	return lines
}

// WalletEntryKind discriminates a wallet-bill line as either a credit
// addition or a token debit.
type WalletEntryKind string

const (
	WalletCredit WalletEntryKind = "credit"
	WalletDebit  WalletEntryKind = "debit"
)

// WalletLine is one row of the wallet bill: a credit addition or a token
// debit, with the running balance after that line.
type WalletLine struct {
	Kind           WalletEntryKind
	MicroCredits   int64
	RunningBalance int64
}

// WalletBill replays the ledger as a sequence of debits against a starting
// balance, returning the running balance after each entry.
func (l *Ledger) WalletBill(startingBalanceMicroCredits int64) []WalletLine {
	lines := make([]WalletLine, 0, len(l.entries))
	balance := startingBalanceMicroCredits
	for _, e := range l.entries {
		cost := CostMicroCredits(e.API, e.Result)
		balance -= cost
		lines = append(lines, WalletLine{
			Kind:           WalletDebit,
			MicroCredits:   cost,
			RunningBalance: balance,
		})
	}
	return lines
}

// AddCredit records a wallet credit addition (a top-up), for callers that
// want to interleave additions with debits in one bill. Returns the
// resulting WalletLine so callers can thread the balance forward.
func AddCredit(balance int64, amountMicroCredits int64) (int64, WalletLine) {
	balance += amountMicroCredits
	return balance, WalletLine{Kind: WalletCredit, MicroCredits: amountMicroCredits, RunningBalance: balance}
}

// Total returns the sum of every entry's cost, in micro-credits.
func (l *Ledger) Total() int64 {
	var total int64
	for _, e := range l.entries {
		total += CostMicroCredits(e.API, e.Result)
	}
	return total
}

// String renders a human-readable summary, mirroring pkg/metrics'
// dependency-free, plain-text accounting style.
func (l *Ledger) String() string {
	return fmt.Sprintf("ledger: %d entries, %.6f credits total", len(l.entries), float64(l.Total())/microCreditsPerCredit)
}
