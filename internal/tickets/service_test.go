package tickets

import (
	"context"
	"errors"
	"testing"

	"softwarepar.lat/internal/auth"
)

func supportAdmin() *auth.User { return &auth.User{ID: "admin-1", Role: auth.RoleAdmin} }
func owner() *auth.User        { return &auth.User{ID: "client-1", Role: auth.RoleClient} }

func openTicket(t *testing.T, svc *Service) *Ticket {
	t.Helper()
	tk, err := svc.Open(context.Background(), owner(), "Login broken", "500 on submit", "", "")
	if err != nil {
		t.Fatalf("open ticket: %v", err)
	}
	return tk
}

func TestOpenDefaults(t *testing.T) {
	svc := NewService(NewInMemory())
	tk := openTicket(t, svc)
	if tk.Status != StatusOpen {
		t.Fatalf("status = %q, want %q", tk.Status, StatusOpen)
	}
	if tk.Priority != PriorityMedium {
		t.Fatalf("priority = %q, want %q", tk.Priority, PriorityMedium)
	}
}

func TestStatusMovesForwardOnly(t *testing.T) {
	svc := NewService(NewInMemory())
	tk := openTicket(t, svc)

	if _, err := svc.UpdateStatus(context.Background(), supportAdmin(), tk.ID, StatusResolved); err != nil {
		t.Fatalf("open to resolved: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), supportAdmin(), tk.ID, StatusInProgress); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("resolved to in_progress: err = %v, want ErrInvalidTransition", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), supportAdmin(), tk.ID, StatusClosed); err != nil {
		t.Fatalf("resolved to closed: %v", err)
	}
}

func TestOwnerMayOnlyClose(t *testing.T) {
	svc := NewService(NewInMemory())
	tk := openTicket(t, svc)

	if _, err := svc.UpdateStatus(context.Background(), owner(), tk.ID, StatusResolved); !errors.Is(err, ErrForbidden) {
		t.Fatalf("owner resolve: err = %v, want ErrForbidden", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), owner(), tk.ID, StatusClosed); err != nil {
		t.Fatalf("owner close: %v", err)
	}
}

func TestClosedTicketRejectsResponses(t *testing.T) {
	svc := NewService(NewInMemory())
	tk := openTicket(t, svc)

	if _, err := svc.Respond(context.Background(), owner(), tk.ID, "any update?"); err != nil {
		t.Fatalf("respond while open: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), supportAdmin(), tk.ID, StatusClosed); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := svc.Respond(context.Background(), owner(), tk.ID, "reopening?"); !errors.Is(err, ErrTicketClosed) {
		t.Fatalf("respond on closed: err = %v, want ErrTicketClosed", err)
	}
}

func TestSupportRepliesAreTagged(t *testing.T) {
	svc := NewService(NewInMemory())
	tk := openTicket(t, svc)

	if _, err := svc.Respond(context.Background(), owner(), tk.ID, "still broken"); err != nil {
		t.Fatalf("client respond: %v", err)
	}
	if _, err := svc.Respond(context.Background(), supportAdmin(), tk.ID, "fix deployed"); err != nil {
		t.Fatalf("admin respond: %v", err)
	}

	thread, err := svc.Responses(context.Background(), owner(), tk.ID)
	if err != nil {
		t.Fatalf("responses: %v", err)
	}
	if len(thread) != 2 {
		t.Fatalf("thread length = %d, want 2", len(thread))
	}
	if thread[0].FromSupport || !thread[1].FromSupport {
		t.Fatalf("from_support flags = %v/%v, want false/true", thread[0].FromSupport, thread[1].FromSupport)
	}
}

func TestForeignTicketReadsAsNotFound(t *testing.T) {
	svc := NewService(NewInMemory())
	tk := openTicket(t, svc)

	stranger := &auth.User{ID: "client-2", Role: auth.RoleClient}
	if _, err := svc.Get(context.Background(), stranger, tk.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign get: err = %v, want ErrNotFound", err)
	}
	got, err := svc.List(context.Background(), stranger)
	if err != nil {
		t.Fatalf("foreign list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("stranger sees %d tickets, want 0", len(got))
	}
}
