package batch

// Emitter states reported in ProgressEvent.Status.
const (
	StatusProcessing      = "processing"
	StatusAnalyzing       = "analyzing"
	StatusAnalyzed        = "analyzed"
	StatusGeneratingEmail = "generating_email"
	StatusComplete        = "complete"
	StatusError           = "error"
)

// analysisShare is the percentage of the bar given to the analysis phase; the
// email phase fills the rest.
const analysisShare = 90

// Progress computes floored percentages for a batch of total items. Item i owns
// the span [90*i/n, 90*(i+1)/n]; the email phase runs from 90 to 100.
type Progress struct {
	total int
}

// NewProgress returns a calculator for total items. total < 1 is treated as 1.
func NewProgress(total int) Progress {
	if total < 1 {
		total = 1
	}
	return Progress{total: total}
}

// Processing is the start of item i's span.
func (p Progress) Processing(i int) int {
	return analysisShare * i / p.total
}

// Analyzing is the midpoint of item i's span.
func (p Progress) Analyzing(i int) int {
	return analysisShare * (2*i + 1) / (2 * p.total)
}

// Analyzed is the end of item i's span. Failed items report here too.
func (p Progress) Analyzed(i int) int {
	return analysisShare * (i + 1) / p.total
}

// Email is the position after the k-th (1-based) of m emails.
func (p Progress) Email(k, m int) int {
	if m < 1 {
		return 100
	}
	return analysisShare + (100-analysisShare)*k/m
}
