package poller

import (
	"time"

	"github.com/robalobadob/wordle/apps/go-client/internal/common/clock"
)

// SchedulerTimeout exposes s.timeout to the external test package.
func SchedulerTimeout(s *Scheduler) time.Duration { return s.timeout }

// SchedulerClock exposes s.clock to the external test package.
func SchedulerClock(s *Scheduler) clock.Clock { return s.clock }
