package engine

import (
	"context"
	"strconv"

	"github.com/javiermolinar/horario/internal/validator"
)

type revalidation struct {
	report validator.Report
	gen    uint64
}

// revalidate runs the validator in the background and hands the result to
// the report handler. Runs for the same timetable are coalesced; a caller
// that joins a run started before its own mutation waits for a fresh one.
func (e *Engine) revalidate(timetableID int64) {
	if e.onReport == nil {
		return
	}

	e.genMu.Lock()
	e.gens[timetableID]++
	want := e.gens[timetableID]
	e.genMu.Unlock()

	e.pending.Add(1)
	go func() {
		defer e.pending.Done()

		key := strconv.FormatInt(timetableID, 10)
		for {
			v, err, _ := e.flight.Do(key, func() (any, error) {
				e.genMu.Lock()
				seen := e.gens[timetableID]
				e.genMu.Unlock()

				report, err := e.Validate(context.Background(), timetableID)
				return revalidation{report: report, gen: seen}, err
			})
			res, _ := v.(revalidation)
			if err != nil || res.gen >= want {
				e.onReport(timetableID, res.report, err)
				return
			}
		}
	}()
}

// Wait blocks until every scheduled revalidation has been delivered.
func (e *Engine) Wait() {
	e.pending.Wait()
}
