package dupsample

// Sampling defaults
const (
	DefaultBlockSize = 4096 // bytes per sampled or streamed chunk
	DefaultBlocks    = 5    // sampled blocks per trial
	DefaultTrials    = 2    // independent sampling rounds before a probable match
	DefaultWorkers   = 1
)

// Hash size constants
const (
	HashSizeSHA1    = 20
	HashSizeSHA256  = 32
	HashSizeSHA512  = 64
	HashSizeBLAKE2b = 32
	HashSizeBLAKE3  = 32
)

// Outcome is the classifier's verdict for one file
type Outcome int

const (
	OutcomeUnseen        Outcome = iota // first file of its size
	OutcomeDistinct                     // diverged from every known file during sampling
	OutcomeProbable                     // matched every trial, verification skipped
	OutcomeConfirmed                    // full-content digests match
	OutcomeFalsePositive                // matched every trial but full content differs
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnseen:
		return "unseen"
	case OutcomeDistinct:
		return "distinct"
	case OutcomeProbable:
		return "probable"
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeFalsePositive:
		return "false-positive"
	default:
		return "unknown"
	}
}

// IsDuplicate reports whether the outcome produces a duplicate pair
func (o Outcome) IsDuplicate() bool {
	return o == OutcomeProbable || o == OutcomeConfirmed
}
