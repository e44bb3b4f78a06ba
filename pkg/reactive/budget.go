package reactive

// DefaultMaxEffectRuns is the per-flush effect run limit of a new Runtime.
const DefaultMaxEffectRuns = 10000

// budget bounds the work a single flush may perform. It protects against
// amplification bugs where an effect keeps invalidating itself or where
// effects cascade into each other without settling.
type budget struct {
	maxEffectRuns int

	// runs counts effect runs in the current flush.
	runs int
}

func (b *budget) reset() {
	b.runs = 0
}

// checkEffectRun reserves one effect run.
// Returns ErrBudgetExceeded once the limit is reached.
func (b *budget) checkEffectRun() error {
	if b.maxEffectRuns > 0 && b.runs >= b.maxEffectRuns {
		return ErrBudgetExceeded
	}
	b.runs++
	return nil
}

// refund returns a reserved run that turned out not to be needed.
func (b *budget) refund() {
	if b.runs > 0 {
		b.runs--
	}
}
