package real

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/art97081-arch/receip-bot/internal/api"
)

func TestDatagrabUploadShape(t *testing.T) {
	var gotKey, gotName, gotType string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing multipart file field: %v", err)
			w.Write([]byte(`{"result":"error"}`))
			return
		}
		defer file.Close()
		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(file)
		w.Write([]byte(`{"result":"sber","profile":"1","compliance_status":true}`))
	}))
	defer srv.Close()

	d := NewDatagrab(srv.URL, "secret-key", zerolog.Nop())
	v, err := d.Verify(context.Background(), []byte("%PDF-1.4 test"), "receipt.pdf")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if gotKey != "secret-key" {
		t.Errorf("key = %q", gotKey)
	}
	if gotName != "receipt.pdf" {
		t.Errorf("filename = %q", gotName)
	}
	if gotType != "application/pdf" {
		t.Errorf("part content type = %q", gotType)
	}
	if string(gotBody) != "%PDF-1.4 test" {
		t.Errorf("payload = %q", gotBody)
	}

	if v.Outcome != api.OutcomeGenuine || v.Bank != "sber" || v.Profile != "1" {
		t.Errorf("verdict = %+v", v)
	}
	if !v.Clean() {
		t.Errorf("expected clean verdict, got %+v", v)
	}
}

func TestDatagrabMapsResultCodes(t *testing.T) {
	cases := []struct {
		body    string
		outcome api.Outcome
		diag    string
	}{
		{`{"result":"forbidden"}`, api.OutcomeError, "Неверный API ключ"},
		{`{"result":"unpaid"}`, api.OutcomeError, "Истек оплаченный период API"},
		{`{"result":"error","message":"файл поврежден"}`, api.OutcomeError, "файл поврежден"},
		{`{"result":"unrec","is_unrec":true}`, api.OutcomeUnrecognized, ""},
		{`{"result":"fake","is_fake":1,"compliance_status":0}`, api.OutcomeFake, ""},
		{`{"result":"mod","is_mod":"1"}`, api.OutcomeSuspicious, ""},
		{`{"result":"size"}`, api.OutcomeSizeMismatch, ""},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(tc.body))
		}))
		d := NewDatagrab(srv.URL, "k", zerolog.Nop())
		v, err := d.Verify(context.Background(), []byte("pdf"), "a.pdf")
		srv.Close()
		if err != nil {
			t.Fatalf("%s: Verify: %v", tc.body, err)
		}
		if v.Outcome != tc.outcome {
			t.Errorf("%s: outcome = %q, want %q", tc.body, v.Outcome, tc.outcome)
		}
		if tc.diag != "" && v.Diagnostic != tc.diag {
			t.Errorf("%s: diagnostic = %q, want %q", tc.body, v.Diagnostic, tc.diag)
		}
	}
}

func TestDatagrabLooseFieldTypes(t *testing.T) {
	// the upstream API mixes numbers, strings and booleans between profiles
	body := `{
		"result": "sber",
		"is_fake": 0,
		"is_mod": "0",
		"compliance_status": "1",
		"last_checks": "4",
		"check_data": {"sum": 1500.5, "sender_name": "Иванов", "payment_time": 1700000000}
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	d := NewDatagrab(srv.URL, "k", zerolog.Nop())
	v, err := d.Verify(context.Background(), []byte("pdf"), "a.pdf")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if v.Forged || v.Modified || !v.StructOK {
		t.Errorf("flags mis-read: %+v", v)
	}
	if v.PriorChecks != 4 {
		t.Errorf("PriorChecks = %d, want 4", v.PriorChecks)
	}
	if v.Payment == nil || v.Payment.Amount != "1500.5" || v.Payment.SenderName != "Иванов" {
		t.Errorf("payment mis-read: %+v", v.Payment)
	}
	if v.Payment.PaidAt != "1700000000" {
		t.Errorf("PaidAt = %q", v.Payment.PaidAt)
	}
}

func TestDatagrabNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>502 Bad Gateway</body></html>"))
	}))
	defer srv.Close()

	d := NewDatagrab(srv.URL, "k", zerolog.Nop())
	v, err := d.Verify(context.Background(), []byte("pdf"), "a.pdf")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if v.Outcome != api.OutcomeError {
		t.Fatalf("outcome = %q, want error", v.Outcome)
	}
	if strings.Contains(v.Diagnostic, "<html>") {
		t.Errorf("raw markup leaked into diagnostic: %q", v.Diagnostic)
	}
	if !strings.Contains(v.Diagnostic, "не-JSON") {
		t.Errorf("diagnostic = %q", v.Diagnostic)
	}
}

func TestDatagrabTimeoutBecomesErrorVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"result":"sber"}`))
	}))
	defer srv.Close()

	d := NewDatagrab(srv.URL, "k", zerolog.Nop())
	d.httpClient.Timeout = 50 * time.Millisecond

	v, err := d.Verify(context.Background(), []byte("pdf"), "a.pdf")
	if err != nil {
		t.Fatalf("timeout must not surface as an error: %v", err)
	}
	if v.Outcome != api.OutcomeError {
		t.Fatalf("outcome = %q, want error", v.Outcome)
	}
	if !strings.Contains(v.Diagnostic, "время ожидания") {
		t.Errorf("diagnostic = %q", v.Diagnostic)
	}
}

func TestDatagrabUnreachableHost(t *testing.T) {
	d := NewDatagrab("http://127.0.0.1:1", "k", zerolog.Nop())
	v, err := d.Verify(context.Background(), []byte("pdf"), "a.pdf")
	if err != nil {
		t.Fatalf("transport fault must not surface as an error: %v", err)
	}
	if v.Outcome != api.OutcomeError {
		t.Errorf("outcome = %q, want error", v.Outcome)
	}
}
