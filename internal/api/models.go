package api

import (
	"bytes"
	"encoding/json"
)

// Wire models for the verification providers. The upstream APIs are loose
// about types (numbers and booleans arrive as strings, 0/1 or bare tokens
// depending on the receipt profile), so scalar fields use the Flex types
// below instead of failing the whole payload on one odd field.

// FlexString accepts a JSON string, number or other scalar token.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	// number or boolean token, keep it verbatim
	*f = FlexString(b)
	return nil
}

// FlexBool accepts true/false, 0/1 and their quoted forms.
// Anything unrecognized reads as false.
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	switch string(bytes.Trim(bytes.TrimSpace(b), `"`)) {
	case "true", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}

// DatagrabResponse is the body of the synchronous provider's upload call.
type DatagrabResponse struct {
	Result           string     `json:"result"`
	Profile          string     `json:"profile"`
	IsFake           FlexBool   `json:"is_fake"`
	IsMod            FlexBool   `json:"is_mod"`
	IsUnrec          FlexBool   `json:"is_unrec"`
	ComplianceStatus *FlexBool  `json:"compliance_status"` // nil means not checked
	Message          string     `json:"message"`
	Message2         string     `json:"message2"`
	LastChecks       FlexString `json:"last_checks"`

	CheckData *DatagrabCheckData `json:"check_data"`
}

// DatagrabCheckData is the optional transaction sub-record of the
// synchronous provider.
type DatagrabCheckData struct {
	SenderName  FlexString `json:"sender_name"`
	SenderAcc   FlexString `json:"sender_acc"`
	RemitteName FlexString `json:"remitte_name"`
	RemitteAcc  FlexString `json:"remitte_acc"`
	RemitteTel  FlexString `json:"remitte_tel"`
	Sum         FlexString `json:"sum"`
	Status      FlexString `json:"status"`
	PaymentTime FlexString `json:"payment_time"`
	DocID       FlexString `json:"doc_id"`

	PDFVersion FlexString `json:"pdf_version"`
	Creator    FlexString `json:"creator"`
	Producer   FlexString `json:"producer"`
}

// ChecklineSubmitResponse correlates a submission with later status queries.
type ChecklineSubmitResponse struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// ChecklineStatus values that terminate the poll loop.
const (
	ChecklineStatusCompleted = "completed"
	ChecklineStatusError     = "error"
)

// ChecklineStatusResponse is one status query result of the poll provider.
type ChecklineStatusResponse struct {
	Status string `json:"status"` // pending | completed | error
	Error  string `json:"error"`

	Color          string     `json:"color"` // white | yellow | red | black | not_supported
	IsOriginal     FlexBool   `json:"is_original"`
	StructPassed   *FlexBool  `json:"struct_passed"` // nil means not checked
	StructResult   string     `json:"struct_result"`
	DeviceError    FlexBool   `json:"device_error"`
	Recommendation string     `json:"recommendation"`
	Verifier       string     `json:"verifier"`
	LastChecks     FlexString `json:"last_checks"`

	CheckData *ChecklineCheckData `json:"check_data"`
}

// ChecklineCheckData is the optional transaction sub-record of the
// poll provider.
type ChecklineCheckData struct {
	SenderFio     FlexString `json:"sender_fio"`
	SenderBank    FlexString `json:"sender_bank"`
	SenderReq     FlexString `json:"sender_req"`
	RecipientFio  FlexString `json:"recipient_fio"`
	RecipientBank FlexString `json:"recipient_bank"`
	RecipientReq  FlexString `json:"recipient_req"`
	Sum           FlexString `json:"sum"`
	Status        FlexString `json:"status"`
	Date          FlexString `json:"date"`
}
