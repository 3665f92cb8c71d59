package workspace

// Trace captures decisions made during workspace discovery and matching.
// Functions accept a nil trace and skip collection entirely; only the
// explain command pays for it.
type Trace struct {
	EnvOverride   string
	WSL           bool
	CandidateDirs []string

	ScannedDirs    []string
	SkippedByMtime int
	FoundDBs       []string

	Candidates     []CandidateTrace
	Fallback       bool
	FallbackReason string
}

// CandidateTrace explains the score one database received.
type CandidateTrace struct {
	DBPath     string
	Folder     string
	GitRemote  string
	Confidence float64
	MatchType  string
	Reason     string
}

func (t *Trace) addCandidate(c CandidateTrace) {
	if t == nil {
		return
	}
	t.Candidates = append(t.Candidates, c)
}
