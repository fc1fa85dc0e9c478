package playground

import "time"

// Metrics receives playground measurements
type Metrics interface {
	Composition(variant string)
	Run()
	Sandbox(d time.Duration, interrupted bool)
	Diagnostic(accepted bool)
}

type nopMetrics struct{}

func (nopMetrics) Composition(string)          {}
func (nopMetrics) Run()                        {}
func (nopMetrics) Sandbox(time.Duration, bool) {}
func (nopMetrics) Diagnostic(bool)             {}
