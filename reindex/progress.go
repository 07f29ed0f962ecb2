// Copyright 2025 Verdantis Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reindex

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker tracks and reports progress of a reindexing run.
type ProgressTracker struct {
	mu             sync.Mutex
	out            io.Writer
	total          int
	processed      int
	reportInterval int
	lastReported   int
	startTime      time.Time
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker(out io.Writer, total, reportInterval int) *ProgressTracker {
	if reportInterval <= 0 {
		reportInterval = 100
	}
	return &ProgressTracker{
		out:            out,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start marks the beginning of the run.
func (pt *ProgressTracker) Start() {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.startTime = time.Now()
	pt.processed = 0
	pt.lastReported = 0
}

// Update sets the current processed count and reports if an interval
// boundary was crossed.
func (pt *ProgressTracker) Update(processed int) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.processed = processed
	if pt.processed-pt.lastReported >= pt.reportInterval || pt.processed >= pt.total {
		pt.report()
		pt.lastReported = pt.processed
	}
}

// Finish reports the final count and terminates the progress line.
func (pt *ProgressTracker) Finish() {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.report()
	fmt.Fprintln(pt.out)
}

// Elapsed returns the time since Start was called.
func (pt *ProgressTracker) Elapsed() time.Duration {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return time.Since(pt.startTime)
}

// report writes the current progress. Caller must hold the lock.
func (pt *ProgressTracker) report() {
	elapsed := time.Since(pt.startTime).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(pt.processed) / elapsed
	}
	percent := 0.0
	if pt.total > 0 {
		percent = float64(pt.processed) / float64(pt.total) * 100
	}
	fmt.Fprintf(pt.out, "\rProgress: %d/%d (%.1f%%) - %.1f records/s",
		pt.processed, pt.total, percent, rate)
}
