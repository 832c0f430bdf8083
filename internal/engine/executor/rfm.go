// internal/engine/executor/rfm.go

package executor

import (
	"math"
	"sort"
	"time"

	"sales-insights/internal/models"
)

// rfm holds the per-customer recency/frequency/monetary measures. Recency
// is days between the customer's last order and the dataset's newest date,
// so a customer who ordered on the final day has recency 0.
type rfm struct {
	key       string
	recency   float64
	frequency float64
	monetary  float64
}

var segmentOrder = []string{"champions", "loyal", "at_risk", "hibernating"}

// segmentCustomers scores each customer 1..4 per dimension against the
// quartiles of the observed distribution (4 is best, so recency scoring is
// inverted) and buckets them into a fixed segment table:
//
//	champions    r>=3 f>=3 m>=3
//	loyal        r>=3 f>=2
//	at_risk      r<=2 m>=3
//	hibernating  everyone else
//
// Segments with no customers are omitted. Output order follows the table
// above, so equal inputs always serialize identically.
func segmentCustomers(rows []models.Record, maxDate time.Time) []models.CustomerSegment {
	if len(rows) == 0 {
		return nil
	}

	type acc struct {
		last     time.Time
		orders   float64
		spend    float64
		lastSeen bool
	}
	byCustomer := make(map[string]*acc)
	for _, r := range rows {
		key := r.CustomerKey()
		a := byCustomer[key]
		if a == nil {
			a = &acc{}
			byCustomer[key] = a
		}
		if !a.lastSeen || r.Date.After(a.last) {
			a.last = r.Date
			a.lastSeen = true
		}
		a.orders++
		a.spend += r.Revenue
	}

	measures := make([]rfm, 0, len(byCustomer))
	for key, a := range byCustomer {
		measures = append(measures, rfm{
			key:       key,
			recency:   maxDate.Sub(a.last).Hours() / 24,
			frequency: a.orders,
			monetary:  a.spend,
		})
	}

	recencyQ := quartiles(measures, func(m rfm) float64 { return m.recency })
	frequencyQ := quartiles(measures, func(m rfm) float64 { return m.frequency })
	monetaryQ := quartiles(measures, func(m rfm) float64 { return m.monetary })

	type segAcc struct {
		customers int
		revenue   float64
		recency   float64
		orders    float64
	}
	segs := make(map[string]*segAcc, len(segmentOrder))
	for _, name := range segmentOrder {
		segs[name] = &segAcc{}
	}

	for _, m := range measures {
		// Lower recency is better, so the score is inverted.
		r := 5 - score(m.recency, recencyQ)
		f := score(m.frequency, frequencyQ)
		mo := score(m.monetary, monetaryQ)

		var name string
		switch {
		case r >= 3 && f >= 3 && mo >= 3:
			name = "champions"
		case r >= 3 && f >= 2:
			name = "loyal"
		case r <= 2 && mo >= 3:
			name = "at_risk"
		default:
			name = "hibernating"
		}

		s := segs[name]
		s.customers++
		s.revenue += m.monetary
		s.recency += m.recency
		s.orders += m.frequency
	}

	out := make([]models.CustomerSegment, 0, len(segmentOrder))
	for _, name := range segmentOrder {
		s := segs[name]
		if s.customers == 0 {
			continue
		}
		n := float64(s.customers)
		out = append(out, models.CustomerSegment{
			Name:       name,
			Customers:  s.customers,
			Revenue:    s.revenue,
			AvgRecency: round2(s.recency / n),
			AvgOrders:  round2(s.orders / n),
		})
	}
	return out
}

// quartiles returns the 25/50/75 percentile cut points of a dimension,
// using linear interpolation between ranks.
func quartiles(measures []rfm, dim func(rfm) float64) [3]float64 {
	values := make([]float64, len(measures))
	for i, m := range measures {
		values[i] = dim(m)
	}
	sort.Float64s(values)

	var q [3]float64
	for i, p := range []float64{0.25, 0.50, 0.75} {
		q[i] = percentile(values, p)
	}
	return q
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// score maps a value to 1..4 against quartile cut points, inclusive on the
// lower bound of each bucket.
func score(v float64, q [3]float64) int {
	switch {
	case v <= q[0]:
		return 1
	case v <= q[1]:
		return 2
	case v <= q[2]:
		return 3
	default:
		return 4
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
