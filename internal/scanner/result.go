package scanner

import "time"

// Class groups attempts for reporting.
type Class int

const (
	ClassFailed  Class = iota // response did not satisfy the success predicate
	ClassSuccess              // response satisfied the success predicate
	ClassError                // transport error, no response
)

// Prefix returns the report marker for the class.
func (c Class) Prefix() string {
	switch c {
	case ClassSuccess:
		return "[+]"
	case ClassError:
		return "[!]"
	default:
		return "[-]"
	}
}

func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "found"
	case ClassError:
		return "error"
	default:
		return "failed"
	}
}

// Confirmation is the outcome of the follow-up GET to a success redirect.
type Confirmation struct {
	URL        string
	StatusCode int
	Length     int
	Size       int64
	Error      error
}

// Attempt is the outcome of one candidate. Exactly one Attempt is produced
// per candidate that was actually sent.
type Attempt struct {
	Index       int // position in the wordlist
	Worker      int
	Candidate   string
	Method      string
	URL         string
	StatusCode  int
	Length      int
	Size        int64
	RedirectURL string
	Success     bool
	Confirm     *Confirmation
	Duration    time.Duration
	Error       error
}

// Class returns how the attempt should be reported.
func (a Attempt) Class() Class {
	switch {
	case a.Error != nil:
		return ClassError
	case a.Success:
		return ClassSuccess
	default:
		return ClassFailed
	}
}
