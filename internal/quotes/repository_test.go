package quotes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/thelpatil/quotal/internal/pricing"
)

func TestSaveQuote_AssignsIDAndDefaultsStatus(t *testing.T) {
	repo := New(newTestDB(t))

	q := sampleQuote("", "Acme site")
	if err := repo.SaveQuote(q); err != nil {
		t.Fatalf("SaveQuote returned error: %v", err)
	}
	if q.ID == "" {
		t.Fatalf("expected an id to be assigned")
	}
	if q.Status != StatusDraft {
		t.Fatalf("expected draft status, got %q", q.Status)
	}

	loaded, err := repo.GetQuote(q.ID)
	if err != nil {
		t.Fatalf("GetQuote returned error: %v", err)
	}
	if loaded.ProjectName != "Acme site" || loaded.Total != 14100 {
		t.Fatalf("unexpected quote loaded: %+v", loaded)
	}
}

func TestSaveQuote_UpdateKeepsSameID(t *testing.T) {
	repo := New(newTestDB(t))

	q := sampleQuote("", "Original name")
	if err := repo.SaveQuote(q); err != nil {
		t.Fatalf("SaveQuote returned error: %v", err)
	}

	q.ProjectName = "Edited name"
	q.Total = 12690
	q.Discount = &pricing.Discount{Kind: pricing.DiscountPercentage, Amount: 10}
	if err := repo.SaveQuote(q); err != nil {
		t.Fatalf("resave returned error: %v", err)
	}

	summaries, err := repo.ListQuotes("")
	if err != nil {
		t.Fatalf("ListQuotes returned error: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("edit should not create a second quote: %+v", summaries)
	}

	loaded, err := repo.GetQuote(q.ID)
	if err != nil {
		t.Fatalf("GetQuote returned error: %v", err)
	}
	if loaded.ProjectName != "Edited name" || loaded.Total != 12690 {
		t.Fatalf("edit not persisted: %+v", loaded)
	}
	if loaded.Discount == nil || loaded.Discount.Kind != pricing.DiscountPercentage || loaded.Discount.Amount != 10 {
		t.Fatalf("discount not persisted: %+v", loaded.Discount)
	}
}

func TestSaveQuote_WithoutClientStoresNullLink(t *testing.T) {
	repo := New(newTestDB(t))

	// No client attached; the foreign key must not reject the save.
	q := sampleQuote("", "Walk-in estimate")
	if err := repo.SaveQuote(q); err != nil {
		t.Fatalf("SaveQuote without client returned error: %v", err)
	}

	loaded, err := repo.GetQuote(q.ID)
	if err != nil {
		t.Fatalf("GetQuote returned error: %v", err)
	}
	if loaded.ClientID != "" {
		t.Fatalf("expected empty client link, got %q", loaded.ClientID)
	}

	var stored sql.NullString
	if err := repo.db.QueryRow(`SELECT client_id FROM quotes WHERE id = ?`, q.ID).Scan(&stored); err != nil {
		t.Fatalf("query client_id: %v", err)
	}
	if stored.Valid {
		t.Fatalf("client_id should be NULL, got %q", stored.String)
	}
}

func TestSaveQuote_LinkedClientSatisfiesForeignKey(t *testing.T) {
	repo := New(newTestDB(t))

	client, err := repo.FindOrCreateClient("Acme Pvt Ltd", "ops@acme.example", "")
	if err != nil {
		t.Fatalf("FindOrCreateClient returned error: %v", err)
	}

	q := sampleQuote("", "Acme relaunch")
	q.ClientID = client.ID
	if err := repo.SaveQuote(q); err != nil {
		t.Fatalf("SaveQuote with client returned error: %v", err)
	}

	loaded, err := repo.GetQuote(q.ID)
	if err != nil {
		t.Fatalf("GetQuote returned error: %v", err)
	}
	if loaded.ClientID != client.ID {
		t.Fatalf("client link lost: %q != %q", loaded.ClientID, client.ID)
	}
}

func TestSaveQuote_UpdateDoesNotResetStatus(t *testing.T) {
	repo := New(newTestDB(t))

	q := sampleQuote("", "Keeps status")
	if err := repo.SaveQuote(q); err != nil {
		t.Fatalf("SaveQuote returned error: %v", err)
	}
	if err := repo.UpdateQuoteStatus(q.ID, StatusSent); err != nil {
		t.Fatalf("UpdateQuoteStatus returned error: %v", err)
	}

	// An edit-and-resave carries no status of its own.
	q.ProjectName = "Keeps status, edited"
	if err := repo.SaveQuote(q); err != nil {
		t.Fatalf("resave returned error: %v", err)
	}

	loaded, err := repo.GetQuote(q.ID)
	if err != nil {
		t.Fatalf("GetQuote returned error: %v", err)
	}
	if loaded.Status != StatusSent {
		t.Fatalf("resave reset status to %q, want %q", loaded.Status, StatusSent)
	}
	if loaded.ProjectName != "Keeps status, edited" {
		t.Fatalf("edit not persisted: %+v", loaded)
	}
}

func TestSaveQuote_RejectsInvalidStatus(t *testing.T) {
	repo := New(newTestDB(t))

	q := sampleQuote("", "Bad status")
	q.Status = "archived"
	if err := repo.SaveQuote(q); err == nil {
		t.Fatalf("expected error for invalid status")
	}
}

func TestListQuotes_SearchMatchesNameAndNotes(t *testing.T) {
	repo := New(newTestDB(t))

	first := sampleQuote("", "Brochure site")
	first.Notes = "rush delivery for launch"
	second := sampleQuote("", "Logo refresh")
	for _, q := range []*Quote{first, second} {
		if err := repo.SaveQuote(q); err != nil {
			t.Fatalf("SaveQuote returned error: %v", err)
		}
	}

	byName, err := repo.ListQuotes("Brochure")
	if err != nil {
		t.Fatalf("ListQuotes returned error: %v", err)
	}
	if len(byName) != 1 || byName[0].ProjectName != "Brochure site" {
		t.Fatalf("name search failed: %+v", byName)
	}

	byNotes, err := repo.ListQuotes("launch")
	if err != nil {
		t.Fatalf("ListQuotes returned error: %v", err)
	}
	if len(byNotes) != 1 || byNotes[0].ID != first.ID {
		t.Fatalf("notes search failed: %+v", byNotes)
	}

	all, err := repo.ListQuotes("")
	if err != nil {
		t.Fatalf("ListQuotes returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("empty query should list everything: %+v", all)
	}
}

func TestUpdateQuoteStatus(t *testing.T) {
	repo := New(newTestDB(t))

	q := sampleQuote("", "Status walk")
	if err := repo.SaveQuote(q); err != nil {
		t.Fatalf("SaveQuote returned error: %v", err)
	}

	if err := repo.UpdateQuoteStatus(q.ID, StatusSent); err != nil {
		t.Fatalf("UpdateQuoteStatus returned error: %v", err)
	}
	loaded, err := repo.GetQuote(q.ID)
	if err != nil {
		t.Fatalf("GetQuote returned error: %v", err)
	}
	if loaded.Status != StatusSent {
		t.Fatalf("status = %q, want %q", loaded.Status, StatusSent)
	}

	if err := repo.UpdateQuoteStatus(q.ID, "paid"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	if err := repo.UpdateQuoteStatus("missing", StatusAccepted); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteQuote(t *testing.T) {
	repo := New(newTestDB(t))

	q := sampleQuote("", "Short lived")
	if err := repo.SaveQuote(q); err != nil {
		t.Fatalf("SaveQuote returned error: %v", err)
	}

	if err := repo.DeleteQuote(q.ID); err != nil {
		t.Fatalf("DeleteQuote returned error: %v", err)
	}
	if _, err := repo.GetQuote(q.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteQuote(q.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestFindOrCreateClient(t *testing.T) {
	repo := New(newTestDB(t))

	created, err := repo.FindOrCreateClient("Asha Rao", "asha@example.com", "Rao Studio")
	if err != nil {
		t.Fatalf("FindOrCreateClient returned error: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected an id to be assigned")
	}

	// Same email resolves to the same client regardless of name spelling.
	again, err := repo.FindOrCreateClient("A. Rao", "asha@example.com", "")
	if err != nil {
		t.Fatalf("second FindOrCreateClient returned error: %v", err)
	}
	if again.ID != created.ID {
		t.Fatalf("email lookup created a duplicate: %+v vs %+v", again, created)
	}

	// Without an email, name matching is case-insensitive.
	noEmail, err := repo.FindOrCreateClient("Walk In", "", "")
	if err != nil {
		t.Fatalf("FindOrCreateClient returned error: %v", err)
	}
	byName, err := repo.FindOrCreateClient("walk in", "", "")
	if err != nil {
		t.Fatalf("FindOrCreateClient returned error: %v", err)
	}
	if byName.ID != noEmail.ID {
		t.Fatalf("name lookup created a duplicate: %+v vs %+v", byName, noEmail)
	}

	clients, err := repo.ListClients()
	if err != nil {
		t.Fatalf("ListClients returned error: %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("expected 2 clients, got %+v", clients)
	}

	if _, err := repo.FindOrCreateClient("   ", "", ""); err == nil {
		t.Fatalf("expected error for blank name")
	}
}

func TestTeamMemberLifecycle(t *testing.T) {
	repo := New(newTestDB(t))

	m := &TeamMember{Name: "Dev One", Role: "developer", Country: "Canada", HourlyRate: 1200, SharePercentage: 40}
	if err := repo.SaveMember(m); err != nil {
		t.Fatalf("SaveMember returned error: %v", err)
	}
	if m.ID == "" || !m.Active {
		t.Fatalf("new member should get an id and start active: %+v", m)
	}

	m.SharePercentage = 35
	if err := repo.SaveMember(m); err != nil {
		t.Fatalf("update returned error: %v", err)
	}

	if err := repo.SetMemberActive(m.ID, false); err != nil {
		t.Fatalf("SetMemberActive returned error: %v", err)
	}

	loaded, err := repo.GetMember(m.ID)
	if err != nil {
		t.Fatalf("GetMember returned error: %v", err)
	}
	if loaded.SharePercentage != 35 || loaded.Active {
		t.Fatalf("updates not persisted: %+v", loaded)
	}

	if err := repo.RecordProjectCompletions(map[string]float64{m.ID: 32800}); err != nil {
		t.Fatalf("RecordProjectCompletions returned error: %v", err)
	}
	if err := repo.RecordProjectCompletions(map[string]float64{m.ID: 12000}); err != nil {
		t.Fatalf("second RecordProjectCompletions returned error: %v", err)
	}
	loaded, err = repo.GetMember(m.ID)
	if err != nil {
		t.Fatalf("GetMember returned error: %v", err)
	}
	if loaded.ProjectsCompleted != 2 || loaded.TotalEarnings != 44800 {
		t.Fatalf("completion tally wrong: %+v", loaded)
	}

	if err := repo.DeleteMember(m.ID); err != nil {
		t.Fatalf("DeleteMember returned error: %v", err)
	}
	if _, err := repo.GetMember(m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSaveMember_Validation(t *testing.T) {
	repo := New(newTestDB(t))

	cases := []TeamMember{
		{Name: "", Role: "developer", HourlyRate: 100, SharePercentage: 10},
		{Name: "Zero Share", Role: "developer", HourlyRate: 100, SharePercentage: 0},
		{Name: "Over Share", Role: "developer", HourlyRate: 100, SharePercentage: 101},
		{Name: "Free Labor", Role: "developer", HourlyRate: 0, SharePercentage: 10},
	}
	for _, m := range cases {
		member := m
		if err := repo.SaveMember(&member); err == nil {
			t.Fatalf("expected validation error for %+v", m)
		}
	}
}

func TestRecordProjectCompletions_AllOrNothing(t *testing.T) {
	repo := New(newTestDB(t))

	m := &TeamMember{Name: "Dev One", Role: "developer", HourlyRate: 1200, SharePercentage: 40}
	if err := repo.SaveMember(m); err != nil {
		t.Fatalf("SaveMember returned error: %v", err)
	}

	err := repo.RecordProjectCompletions(map[string]float64{
		m.ID:      40000,
		"missing": 30000,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown member, got %v", err)
	}

	// The known member's counters must be untouched after the rollback.
	loaded, err := repo.GetMember(m.ID)
	if err != nil {
		t.Fatalf("GetMember returned error: %v", err)
	}
	if loaded.ProjectsCompleted != 0 || loaded.TotalEarnings != 0 {
		t.Fatalf("partial completion leaked through rollback: %+v", loaded)
	}

	if err := repo.RecordProjectCompletions(nil); err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}
}

func TestListMembers_ActiveFirst(t *testing.T) {
	repo := New(newTestDB(t))

	active := &TeamMember{Name: "Zara", Role: "designer", HourlyRate: 900, SharePercentage: 20}
	inactive := &TeamMember{Name: "Amit", Role: "developer", HourlyRate: 1100, SharePercentage: 30}
	for _, m := range []*TeamMember{active, inactive} {
		if err := repo.SaveMember(m); err != nil {
			t.Fatalf("SaveMember returned error: %v", err)
		}
	}
	if err := repo.SetMemberActive(inactive.ID, false); err != nil {
		t.Fatalf("SetMemberActive returned error: %v", err)
	}

	members, err := repo.ListMembers()
	if err != nil {
		t.Fatalf("ListMembers returned error: %v", err)
	}
	if len(members) != 2 || members[0].ID != active.ID || members[1].ID != inactive.ID {
		t.Fatalf("expected active member first, got %+v", members)
	}
}

func sampleQuote(id, name string) *Quote {
	request, _ := json.Marshal(map[string]any{"siteType": "business", "pages": 5})
	breakdown, _ := json.Marshal([]map[string]any{{"label": "Base Price (Business Website)", "amount": 6000.0}})
	return &Quote{
		ID:          id,
		ProjectName: name,
		ServiceType: "web",
		Currency:    "INR",
		Subtotal:    14100,
		Total:       14100,
		Request:     request,
		Breakdown:   breakdown,
	}
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	// One connection keeps the in-memory database alive and makes the
	// foreign-key pragma stick for every statement.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		PRAGMA foreign_keys = ON;
		CREATE TABLE clients (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT,
			company TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE quotes (
			id TEXT PRIMARY KEY,
			client_id TEXT,
			project_name TEXT NOT NULL,
			service_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			currency TEXT NOT NULL DEFAULT 'INR',
			subtotal REAL NOT NULL,
			total REAL NOT NULL,
			original_total REAL NOT NULL DEFAULT 0,
			notes TEXT,
			request_json TEXT NOT NULL,
			breakdown_json TEXT NOT NULL,
			discount_json TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (client_id) REFERENCES clients(id)
		);
		CREATE TABLE team_members (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			country TEXT,
			hourly_rate REAL NOT NULL,
			share_percentage REAL NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			projects_completed INTEGER NOT NULL DEFAULT 0,
			total_earnings REAL NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		t.Fatalf("failed creating tables: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}
