package ml

import (
	"errors"
	"fmt"
	"strings"

	"exoseeker/internal/common"
)

var (
	// ErrUnfitted is returned by read operations before a successful fit-all.
	ErrUnfitted = errors.New("models are not fitted")

	// ErrFitInProgress rejects a fit-all while another one is running.
	ErrFitInProgress = errors.New("fit already in progress")
)

// UnknownMissionError reports a mission name outside the recognized set.
type UnknownMissionError struct {
	Mission string
}

func (e *UnknownMissionError) Error() string {
	return fmt.Sprintf("unknown mission %q (expected one of %s)", e.Mission, strings.Join(common.Missions, ", "))
}

// UnknownMetricError reports a metric name that is not computed by the evaluator.
type UnknownMetricError struct {
	Metric string
}

func (e *UnknownMetricError) Error() string {
	return fmt.Sprintf("unknown metric %q (expected one of %s)", e.Metric, strings.Join(common.MetricNames, ", "))
}
