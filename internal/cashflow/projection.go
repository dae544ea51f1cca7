// Package cashflow computes forward-looking daily balance projections. Project is
// a pure function of its Input: it reads no clock and touches no store.
package cashflow

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"salonledger/internal/apierror"
	"salonledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Scenario selects the confidence factor applied to expected inflows.
type Scenario string

const (
	Optimistic  Scenario = "OPTIMISTIC"
	Realistic   Scenario = "REALISTIC"
	Pessimistic Scenario = "PESSIMISTIC"
)

var scenarioFactors = map[Scenario]decimal.Decimal{
	Optimistic:  decimal.RequireFromString("1.00"),
	Realistic:   decimal.RequireFromString("0.85"),
	Pessimistic: decimal.RequireFromString("0.70"),
}

func ParseScenario(s string) (Scenario, error) {
	sc := Scenario(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := scenarioFactors[sc]; !ok {
		return "", fmt.Errorf("unknown scenario %q", s)
	}
	return sc, nil
}

// Factor returns the inflow multiplier for the scenario, or zero when unknown.
func (s Scenario) Factor() decimal.Decimal { return scenarioFactors[s] }

type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

var (
	highThreshold   = decimal.RequireFromString("0.9")
	mediumThreshold = decimal.RequireFromString("0.75")
)

// ConfidenceFor labels a factor: HIGH from 0.9, MEDIUM from 0.75, LOW below.
func ConfidenceFor(factor decimal.Decimal) Confidence {
	switch {
	case factor.GreaterThanOrEqual(highThreshold):
		return ConfidenceHigh
	case factor.GreaterThanOrEqual(mediumThreshold):
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

type FlowSource string

const (
	SourceReceivable FlowSource = "receivable"
	SourcePayable    FlowSource = "payable"
	SourceRecurring  FlowSource = "recurring"
)

// Receivable is a pending installment due on DueDate.
type Receivable struct {
	RefID       uuid.UUID
	Description string
	Amount      decimal.Decimal
	DueDate     time.Time
}

// Payable is a pending obligation due on DueDate.
type Payable struct {
	RefID       uuid.UUID
	Description string
	Amount      decimal.Decimal
	DueDate     time.Time
}

// Recurrence is an active recurring expense template.
type Recurrence struct {
	RefID       uuid.UUID
	Description string
	Amount      decimal.Decimal
	Frequency   model.Frequency
	StartDate   time.Time
	EndDate     *time.Time
}

type Input struct {
	StartDate       time.Time
	EndDate         time.Time
	Scenario        Scenario
	OpeningBalance  decimal.Decimal // aggregate balance of every account as of now
	MinimumRequired decimal.Decimal
	MaxDays         int // 0 disables the window limit
	Receivables     []Receivable
	Payables        []Payable
	Recurring       []Recurrence
}

// Flow is one dated expected inflow or outflow. For inflows Amount is the
// scenario-weighted value and OriginalAmount what is actually due.
type Flow struct {
	Date           time.Time
	Amount         decimal.Decimal
	OriginalAmount decimal.Decimal
	Confidence     Confidence
	Source         FlowSource
	RefID          uuid.UUID
	Description    string
}

type Day struct {
	Date            time.Time
	OpeningBalance  decimal.Decimal
	Inflow          decimal.Decimal
	Outflow         decimal.Decimal
	ClosingBalance  decimal.Decimal
	MinimumRequired decimal.Decimal
	BelowMinimum    bool
}

type Summary struct {
	OpeningBalance    decimal.Decimal
	ClosingBalance    decimal.Decimal
	TotalInflow       decimal.Decimal
	TotalOutflow      decimal.Decimal
	NetChange         decimal.Decimal
	LowestBalance     decimal.Decimal
	LowestBalanceDate time.Time
	DaysBelowMinimum  int
	FirstBreachDate   *time.Time
}

type Projection struct {
	StartDate        time.Time
	EndDate          time.Time
	Scenario         Scenario
	ConfidenceFactor decimal.Decimal
	Inflows          []Flow
	Outflows         []Flow
	Days             []Day
	Summary          Summary
}

// Project walks every day of [StartDate, EndDate] inclusive. Only inflows are
// scaled by the scenario factor; outflows are taken as certain.
func Project(in Input) (*Projection, error) {
	if err := ValidateWindow(in.StartDate, in.EndDate, in.Scenario, in.MaxDays); err != nil {
		return nil, err
	}
	factor := scenarioFactors[in.Scenario]
	start, end := Day0(in.StartDate), Day0(in.EndDate)
	days := daysBetween(start, end) + 1

	label := ConfidenceFor(factor)
	inflows := make([]Flow, 0, len(in.Receivables))
	for _, r := range in.Receivables {
		due := Day0(r.DueDate)
		if !within(due, start, end) {
			continue
		}
		inflows = append(inflows, Flow{
			Date:           due,
			Amount:         r.Amount.Mul(factor).Round(2),
			OriginalAmount: r.Amount.Round(2),
			Confidence:     label,
			Source:         SourceReceivable,
			RefID:          r.RefID,
			Description:    r.Description,
		})
	}

	outflows := make([]Flow, 0, len(in.Payables))
	for _, p := range in.Payables {
		due := Day0(p.DueDate)
		if !within(due, start, end) {
			continue
		}
		outflows = append(outflows, certain(due, p.Amount, SourcePayable, p.RefID, p.Description))
	}
	for _, rec := range in.Recurring {
		for _, d := range Occurrences(rec, start, end) {
			outflows = append(outflows, certain(d, rec.Amount, SourceRecurring, rec.RefID, rec.Description))
		}
	}
	sortFlows(inflows)
	sortFlows(outflows)

	inByDay := sumByDay(inflows)
	outByDay := sumByDay(outflows)
	minimum := in.MinimumRequired.Round(2)
	opening := in.OpeningBalance.Round(2)

	series := make([]Day, 0, days)
	balance := opening
	sum := Summary{
		OpeningBalance: opening,
		TotalInflow:    decimal.Zero,
		TotalOutflow:   decimal.Zero,
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		day := Day{
			Date:            d,
			OpeningBalance:  balance,
			Inflow:          inByDay[key],
			Outflow:         outByDay[key],
			MinimumRequired: minimum,
		}
		day.ClosingBalance = day.OpeningBalance.Add(day.Inflow).Sub(day.Outflow)
		day.BelowMinimum = day.ClosingBalance.LessThan(minimum)
		balance = day.ClosingBalance

		sum.TotalInflow = sum.TotalInflow.Add(day.Inflow)
		sum.TotalOutflow = sum.TotalOutflow.Add(day.Outflow)
		if len(series) == 0 || day.ClosingBalance.LessThan(sum.LowestBalance) {
			sum.LowestBalance = day.ClosingBalance
			sum.LowestBalanceDate = d
		}
		if day.BelowMinimum {
			sum.DaysBelowMinimum++
			if sum.FirstBreachDate == nil {
				breach := d
				sum.FirstBreachDate = &breach
			}
		}
		series = append(series, day)
	}
	sum.ClosingBalance = balance
	sum.NetChange = balance.Sub(opening)

	return &Projection{
		StartDate:        start,
		EndDate:          end,
		Scenario:         in.Scenario,
		ConfidenceFactor: factor,
		Inflows:          inflows,
		Outflows:         outflows,
		Days:             series,
		Summary:          sum,
	}, nil
}

// ValidateWindow reports the only inputs Project refuses: an unknown scenario,
// an end before the start, or a window longer than maxDays (when maxDays > 0).
func ValidateWindow(start, end time.Time, scenario Scenario, maxDays int) error {
	if _, ok := scenarioFactors[scenario]; !ok {
		return apierror.Validation("unknown scenario %q", scenario)
	}
	start, end = Day0(start), Day0(end)
	if end.Before(start) {
		return apierror.Validation("end date %s is before start date %s", end.Format(dateLayout), start.Format(dateLayout))
	}
	if days := daysBetween(start, end) + 1; maxDays > 0 && days > maxDays {
		return apierror.Validation("projection window of %d days exceeds the maximum of %d", days, maxDays)
	}
	return nil
}

// stepDays approximates each frequency with a fixed step: months are 30 days
// and years 365.
var stepDays = map[model.Frequency]int{
	model.FrequencyDaily:   1,
	model.FrequencyWeekly:  7,
	model.FrequencyMonthly: 30,
	model.FrequencyYearly:  365,
}

// Occurrences expands rec into its dates inside [from, to], stepping a fixed
// number of days from rec.StartDate and stopping at rec.EndDate when set.
// Unknown frequencies expand to nothing.
func Occurrences(rec Recurrence, from, to time.Time) []time.Time {
	step, ok := stepDays[rec.Frequency]
	if !ok {
		return nil
	}
	from, to = Day0(from), Day0(to)
	if rec.EndDate != nil {
		if e := Day0(*rec.EndDate); e.Before(to) {
			to = e
		}
	}
	first := Day0(rec.StartDate)
	if first.Before(from) {
		// Jump straight to the first step on or after from.
		gap := daysBetween(first, from)
		steps := (gap + step - 1) / step
		first = first.AddDate(0, 0, steps*step)
	}

	var out []time.Time
	for d := first; !d.After(to); d = d.AddDate(0, 0, step) {
		out = append(out, d)
	}
	return out
}

const dateLayout = "2006-01-02"

// Day0 truncates t to its calendar date at UTC midnight.
func Day0(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func within(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}

func certain(date time.Time, amount decimal.Decimal, src FlowSource, ref uuid.UUID, desc string) Flow {
	a := amount.Round(2)
	return Flow{
		Date:           date,
		Amount:         a,
		OriginalAmount: a,
		Confidence:     ConfidenceHigh,
		Source:         src,
		RefID:          ref,
		Description:    desc,
	}
}

func sortFlows(flows []Flow) {
	sort.SliceStable(flows, func(i, j int) bool { return flows[i].Date.Before(flows[j].Date) })
}

func sumByDay(flows []Flow) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, f := range flows {
		key := f.Date.Format(dateLayout)
		out[key] = out[key].Add(f.Amount)
	}
	return out
}
