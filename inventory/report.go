package inventory

import (
	"context"
	"time"

	"backend/errs"
	"backend/models"
)

// Report granularities.
const (
	Daily   = "daily"
	Weekly  = "weekly"
	Monthly = "monthly"
	Yearly  = "yearly"
)

// SalesReport buckets a store's non-reversed sales by calendar period in the
// engine's reporting timezone. The series is contiguous over [from, to]:
// empty buckets are emitted with zero totals.
func (e *Engine) SalesReport(ctx context.Context, store, granularity string, from, to time.Time) ([]models.ReportBucket, error) {
	if store == "" {
		return nil, errs.Validationf("store parameter is required")
	}
	switch granularity {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return nil, errs.Validationf("unknown granularity %q", granularity)
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, errs.Validationf("invalid report range")
	}

	transactions, err := e.transactions.SalesByStore(ctx, store, from, to)
	if err != nil {
		return nil, err
	}

	// Build the contiguous bucket series first so gaps stay visible.
	var buckets []models.ReportBucket
	index := make(map[time.Time]int)
	for start := e.bucketStart(from, granularity); !start.After(to); start = e.nextBucket(start, granularity) {
		index[start] = len(buckets)
		buckets = append(buckets, models.ReportBucket{BucketStart: start})
	}

	for _, tx := range transactions {
		if tx.Reversed {
			continue
		}
		start := e.bucketStart(tx.CreatedAt, granularity)
		i, ok := index[start]
		if !ok {
			continue
		}
		buckets[i].TransactionCount++
		total := tx.LineTotal()
		if tx.Currency == models.CurrencyUSD {
			if tx.TotalUSD != 0 {
				total = tx.TotalUSD
			}
			buckets[i].TotalUSD += total
		} else {
			if tx.TotalLRD != 0 {
				total = tx.TotalLRD
			}
			buckets[i].TotalLRD += total
		}
	}
	return buckets, nil
}

// bucketStart truncates t to the start of its calendar period in the
// reporting timezone. Weeks start on Monday.
func (e *Engine) bucketStart(t time.Time, granularity string) time.Time {
	t = t.In(e.location)
	year, month, day := t.Date()
	switch granularity {
	case Weekly:
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return time.Date(year, month, day-weekday+1, 0, 0, 0, 0, e.location)
	case Monthly:
		return time.Date(year, month, 1, 0, 0, 0, 0, e.location)
	case Yearly:
		return time.Date(year, 1, 1, 0, 0, 0, 0, e.location)
	default:
		return time.Date(year, month, day, 0, 0, 0, 0, e.location)
	}
}

func (e *Engine) nextBucket(start time.Time, granularity string) time.Time {
	switch granularity {
	case Weekly:
		return start.AddDate(0, 0, 7)
	case Monthly:
		return start.AddDate(0, 1, 0)
	case Yearly:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}
