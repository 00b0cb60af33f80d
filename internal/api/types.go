package api

// Common verdict types shared by all provider clients and the report formatter.

// Outcome is the severity category of a verification result. It is always
// taken from the provider response, never recomputed from the sub-flags.
type Outcome string

const (
	OutcomeGenuine      Outcome = "genuine"
	OutcomeSuspicious   Outcome = "suspicious"
	OutcomeFake         Outcome = "fake"
	OutcomeUnrecognized Outcome = "unrecognized"
	OutcomeUnsupported  Outcome = "unsupported"
	OutcomeSizeMismatch Outcome = "size"
	OutcomeError        Outcome = "error"
)

// Verdict is the unified verification result. Every field except Outcome is
// optional; zero values mean "not reported by the provider".
type Verdict struct {
	Outcome Outcome

	// Bank code and receipt profile as reported by the provider
	Bank    string
	Profile string

	// Independent sub-flags. StructOK defaults to true when the provider
	// did not report a structure check at all.
	Forged       bool
	Modified     bool
	Unrecognized bool
	StructOK     bool
	StructDetail string // e.g. "7/9" passed structure checks
	DeviceError  bool

	// Free-text provider messages, in the order received
	Messages []string

	// How many times this receipt was checked before
	PriorChecks int

	// Transaction details extracted from the receipt, if any
	Payment *Payment

	// PDF metadata reported alongside forgery findings, if any
	Meta *PDFMeta

	// Diagnostic text for OutcomeError verdicts
	Diagnostic string
}

// Payment holds whatever transaction fields the provider extracted.
// Absent fields stay empty and are omitted from the report.
type Payment struct {
	SenderName    string
	SenderAccount string
	SenderBank    string

	RecipientName    string
	RecipientAccount string
	RecipientPhone   string
	RecipientBank    string

	Amount string
	Status string
	PaidAt string // epoch seconds, kept raw for verbatim fallback
	DocID  string
}

// PDFMeta carries document metadata the provider attaches to forgery findings.
type PDFMeta struct {
	Version  string
	Creator  string
	Producer string
}

// Clean reports whether every sub-flag is favorable.
func (v *Verdict) Clean() bool {
	return !v.Forged && !v.Modified && !v.Unrecognized && v.StructOK && !v.DeviceError
}

// ErrorVerdict builds an error-class verdict carrying a diagnostic message.
func ErrorVerdict(diag string) *Verdict {
	return &Verdict{Outcome: OutcomeError, StructOK: true, Diagnostic: diag}
}
