package bot

import (
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const ownerID int64 = 42

type fakeStore struct {
	ids     map[int64]struct{}
	addOps  int
	delOps  int
	listOps int
}

func newFakeStore(ids ...int64) *fakeStore {
	fs := &fakeStore{ids: make(map[int64]struct{})}
	for _, id := range ids {
		fs.ids[id] = struct{}{}
	}
	return fs
}

func (f *fakeStore) Contains(id int64) bool {
	_, ok := f.ids[id]
	return ok
}

func (f *fakeStore) Add(id int64) (bool, error) {
	f.addOps++
	if _, ok := f.ids[id]; ok {
		return false, nil
	}
	f.ids[id] = struct{}{}
	return true, nil
}

func (f *fakeStore) Remove(id int64) (bool, error) {
	f.delOps++
	if _, ok := f.ids[id]; !ok {
		return false, nil
	}
	delete(f.ids, id)
	return true, nil
}

func (f *fakeStore) List() []int64 {
	f.listOps++
	out := make([]int64, 0, len(f.ids))
	for id := range f.ids {
		out = append(out, id)
	}
	return out
}

func testBot(store *fakeStore) *Bot {
	return &Bot{
		allowed: store,
		ownerID: ownerID,
		log:     zerolog.Nop(),
	}
}

func commandMessage(from int64, text string) *tgbotapi.Message {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		cmdLen = i
	}
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: from},
		Chat: &tgbotapi.Chat{ID: from},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: cmdLen},
		},
	}
}

func pdfDocument(size int) *tgbotapi.Document {
	return &tgbotapi.Document{
		FileID:   "file-1",
		FileName: "check.pdf",
		MimeType: "application/pdf",
		FileSize: size,
	}
}

func TestOwnerAllowThenUploadAuthorized(t *testing.T) {
	store := newFakeStore()
	b := testBot(store)

	reply := b.dispatchCommand(commandMessage(ownerID, "/allow 555"))
	if !strings.Contains(reply, "555 добавлен") {
		t.Fatalf("allow reply = %q", reply)
	}

	// an upload from 555 now clears every pre-network check
	if reject := b.checkDocument(555, pdfDocument(1024)); reject != "" {
		t.Errorf("555 must be authorized after /allow, got rejection %q", reject)
	}
}

func TestNonOwnerAllowRejectedBeforeMutation(t *testing.T) {
	store := newFakeStore()
	b := testBot(store)

	reply := b.dispatchCommand(commandMessage(999, "/allow 555"))
	if !strings.Contains(reply, "Только владелец") {
		t.Errorf("reply = %q", reply)
	}
	if store.addOps != 0 {
		t.Errorf("allowlist mutated by non-owner: %d add calls", store.addOps)
	}
	if store.Contains(555) {
		t.Error("555 must not have been added")
	}
}

func TestAllowValidation(t *testing.T) {
	store := newFakeStore(555)
	b := testBot(store)

	if reply := b.dispatchCommand(commandMessage(ownerID, "/allow")); !strings.Contains(reply, "Использование") {
		t.Errorf("missing-arg reply = %q", reply)
	}
	if reply := b.dispatchCommand(commandMessage(ownerID, "/allow abc")); !strings.Contains(reply, "должен быть числом") {
		t.Errorf("non-numeric reply = %q", reply)
	}
	if reply := b.dispatchCommand(commandMessage(ownerID, "/allow 555")); !strings.Contains(reply, "уже имеет доступ") {
		t.Errorf("already-present reply = %q", reply)
	}
	if len(store.ids) != 1 {
		t.Errorf("duplicate allow grew the set: %v", store.ids)
	}
}

func TestOwnerNeverEntersAllowlist(t *testing.T) {
	store := newFakeStore()
	b := testBot(store)

	reply := b.dispatchCommand(commandMessage(ownerID, "/allow 42"))
	if !strings.Contains(reply, "Владелец всегда имеет доступ") {
		t.Errorf("reply = %q", reply)
	}
	if store.addOps != 0 || store.Contains(ownerID) {
		t.Error("owner id must never be written to the store")
	}
}

func TestRevokeCommand(t *testing.T) {
	store := newFakeStore(555)
	b := testBot(store)

	if reply := b.dispatchCommand(commandMessage(999, "/revoke 555")); !strings.Contains(reply, "Только владелец") {
		t.Errorf("reply = %q", reply)
	}
	if !store.Contains(555) {
		t.Fatal("non-owner revoke must not mutate the store")
	}

	reply := b.dispatchCommand(commandMessage(ownerID, "/revoke 555"))
	if !strings.Contains(reply, "555 удален") {
		t.Errorf("reply = %q", reply)
	}
	if reject := b.checkDocument(555, pdfDocument(1024)); reject == "" {
		t.Error("555 must lose access after /revoke")
	}

	if reply := b.dispatchCommand(commandMessage(ownerID, "/revoke 555")); !strings.Contains(reply, "не в списке") {
		t.Errorf("absent revoke reply = %q", reply)
	}
}

func TestListCommand(t *testing.T) {
	b := testBot(newFakeStore())
	if reply := b.dispatchCommand(commandMessage(ownerID, "/list_allowed")); !strings.Contains(reply, "пуст") {
		t.Errorf("empty list reply = %q", reply)
	}

	b = testBot(newFakeStore(10, 20))
	reply := b.dispatchCommand(commandMessage(ownerID, "/list_allowed"))
	if !strings.Contains(reply, "• 10") || !strings.Contains(reply, "• 20") {
		t.Errorf("list reply = %q", reply)
	}

	if reply := b.dispatchCommand(commandMessage(999, "/list_allowed")); !strings.Contains(reply, "Только владелец") {
		t.Errorf("non-owner list reply = %q", reply)
	}
}

func TestStartCommand(t *testing.T) {
	b := testBot(newFakeStore())
	reply := b.dispatchCommand(commandMessage(999, "/start"))
	if !strings.Contains(reply, "/allow <user_id>") {
		t.Errorf("help reply = %q", reply)
	}
}

func TestCheckDocumentGate(t *testing.T) {
	b := testBot(newFakeStore(555))

	// unauthorized user, rejected before anything else
	if reject := b.checkDocument(777, pdfDocument(1024)); !strings.Contains(reject, "нет доступа") {
		t.Errorf("unauthorized reject = %q", reject)
	}

	// wrong media type
	doc := pdfDocument(1024)
	doc.MimeType = "image/jpeg"
	if reject := b.checkDocument(555, doc); !strings.Contains(reject, "PDF файл") {
		t.Errorf("non-pdf reject = %q", reject)
	}

	// a 12 MiB file is over the 10 MiB ceiling
	if reject := b.checkDocument(555, pdfDocument(12<<20)); !strings.Contains(reject, "слишком большой") {
		t.Errorf("oversize reject = %q", reject)
	}

	// owner bypasses the allowlist
	if reject := b.checkDocument(ownerID, pdfDocument(1024)); reject != "" {
		t.Errorf("owner rejected: %q", reject)
	}

	if reject := b.checkDocument(555, pdfDocument(10<<20)); reject != "" {
		t.Errorf("exactly-at-limit file rejected: %q", reject)
	}
}
