package domain

import (
	"github.com/shopspring/decimal"
)

// tolerance percentages and confirmation depths used by the status reducer.
// amounts within tolerance of the requested total count as exact
type StatusRules struct {
	UnderpaymentTolerance decimal.Decimal // percent, 0.5 means 0.5%
	OverpaymentTolerance  decimal.Decimal // percent
	RequiredDepth         map[Network]uint32
}

func (r StatusRules) depthFor(n Network) uint32 {
	if r.RequiredDepth == nil {
		return 1
	}
	if d, ok := r.RequiredDepth[n]; ok {
		return d
	}
	return 1
}

var percentBase = decimal.NewFromInt(100)

// lower bound of the "fully paid" band in the invoice currency
func (r StatusRules) UnderTarget(requested decimal.Decimal) decimal.Decimal {
	return requested.Sub(requested.Mul(r.UnderpaymentTolerance).Div(percentBase))
}

// upper bound of the "exact" band. anything above is an overpayment
func (r StatusRules) OverTarget(requested decimal.Decimal) decimal.Decimal {
	return requested.Add(requested.Mul(r.OverpaymentTolerance).Div(percentBase))
}

// DedupEvents collapses replays of one (source_network, tx_ref), keeping the
// highest-confidence instance. replays never change the amount
func DedupEvents(events []PaymentEvents) []PaymentEvents {
	type key struct {
		network Network
		txRef   string
	}

	seen := make(map[key]int, len(events))
	out := make([]PaymentEvents, 0, len(events))

	for _, e := range events {
		k := key{e.SourceNetwork, e.TxRef}
		idx, ok := seen[k]
		if !ok {
			seen[k] = len(out)
			out = append(out, e)
			continue
		}

		prev := &out[idx]
		if e.Confidence > prev.Confidence || (e.Confidence == prev.Confidence && e.Depth > prev.Depth) {
			prev.Confidence = e.Confidence
			prev.Depth = e.Depth
		}
	}

	return out
}

// Accrue attributes deduplicated events to payment methods by network, asset
// tag and identifier, and fills each method's Accrued. an event for a shared
// identifier lands on exactly one method, decided by its asset tag
func Accrue(methods []PaymentMethods, events []PaymentEvents) []PaymentMethods {
	out := make([]PaymentMethods, len(methods))
	copy(out, methods)

	for c := range out {
		out[c].Accrued = decimal.Zero
	}

	for _, e := range events {
		if e.AfterTerminal {
			continue // audit records, never credited
		}
		for c := range out {
			if out[c].Matches(&e) {
				out[c].Accrued = out[c].Accrued.Add(e.Amount)
				break
			}
		}
	}

	return out
}

// PaidValue sums accrued amounts converted at each method's locked-in rate
func PaidValue(methods []PaymentMethods) decimal.Decimal {
	var total = decimal.Zero
	for c := range methods {
		total = total.Add(methods[c].AccruedValue())
	}
	return total
}

// Recompute derives the invoice status from the full event set and the clock.
// it is a pure function: re-applying the same events always yields the same
// status, which is what makes concurrent retries of ApplyPaymentEvent safe.
// the result never moves backward from the persisted status rank, and
// terminal statuses are sinks
func Recompute(invoice *Invoices, methods []PaymentMethods, events []PaymentEvents, rules StatusRules, now int64) Status {
	current := invoice.Status

	if current == STATUS_EXPIRED || current == STATUS_INVALID {
		return current
	}

	deduped := DedupEvents(events)
	accrued := Accrue(methods, deduped)
	paid := PaidValue(accrued)

	if current == STATUS_COMPLETE {
		return current
	}

	if paid.IsZero() {
		if invoice.IsExpired(now) {
			return STATUS_EXPIRED
		}
		return clampRank(current, STATUS_NEW)
	}

	underTarget := rules.UnderTarget(invoice.RequestedAmount)
	overTarget := rules.OverTarget(invoice.RequestedAmount)

	if paid.LessThan(underTarget) {
		// funded invoices are never force-expired. they go invalid only when
		// funds never reach the threshold by the grace deadline
		if invoice.GraceTimestamp > 0 && now > invoice.GraceTimestamp {
			return STATUS_INVALID
		}
		return clampRank(current, STATUS_PAID_PARTIAL)
	}

	final := allFinal(accrued, deduped, rules)

	if paid.GreaterThan(overTarget) {
		if final {
			return STATUS_COMPLETE
		}
		return clampRank(current, STATUS_PAID_OVER)
	}

	if !final {
		return clampRank(current, STATUS_PROCESSING)
	}

	if invoice.AcknowledgedAt > 0 {
		return STATUS_COMPLETE
	}
	return clampRank(current, STATUS_CONFIRMED)
}

// true when every event contributing to an accruing method has reached the
// required confirmation depth for its network, or is settled
func allFinal(methods []PaymentMethods, events []PaymentEvents, rules StatusRules) bool {
	var contributing int
	for _, e := range events {
		if e.AfterTerminal {
			continue
		}
		var matched bool
		for c := range methods {
			if methods[c].Matches(&e) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		contributing++
		if !e.Confidence.AtDepth(e.Depth, rules.depthFor(e.SourceNetwork)) {
			return false
		}
	}
	return contributing > 0
}

// no recomputation may move an invoice to an earlier-numbered state
func clampRank(current, next Status) Status {
	if current.IsTerminal() {
		return current
	}
	if next.Rank() < current.Rank() {
		return current
	}
	return next
}
