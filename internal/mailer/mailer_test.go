package mailer

import (
	"net/smtp"
	"strings"
	"testing"
)

func TestDisabledMailerSucceeds(t *testing.T) {
	m := New(Config{})
	if m.Enabled() {
		t.Fatal("mailer with no host reports enabled")
	}
	if err := m.Welcome("user@example.com", "Ana"); err != nil {
		t.Fatalf("disabled send: %v", err)
	}
}

func TestSendUsesConfiguredAccount(t *testing.T) {
	m := New(Config{
		Host:     "smtp.example.com",
		Port:     "587",
		Username: "noreply@softwarepar.lat",
		Password: "secret",
		From:     "noreply@softwarepar.lat",
	})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	if err := m.CommissionSettled("partner@example.com", 100_000); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Fatalf("addr = %q", gotAddr)
	}
	if gotFrom != "noreply@softwarepar.lat" || len(gotTo) != 1 || gotTo[0] != "partner@example.com" {
		t.Fatalf("envelope = %q -> %v", gotFrom, gotTo)
	}
	msg := string(gotMsg)
	if !strings.Contains(msg, "Subject: Comisión acreditada\r\n") {
		t.Fatalf("message missing subject header:\n%s", msg)
	}
	if !strings.Contains(msg, "$1000.00") {
		t.Fatalf("message missing formatted amount:\n%s", msg)
	}
}

func TestMessageHeaders(t *testing.T) {
	msg := string(buildMessage("a@x", "b@y", "Hello", "<p>hi</p>"))
	want := []string{
		"From: a@x\r\n",
		"To: b@y\r\n",
		"MIME-Version: 1.0\r\n",
		"Content-Type: text/html; charset=\"UTF-8\"\r\n",
	}
	for _, w := range want {
		if !strings.Contains(msg, w) {
			t.Fatalf("message missing %q:\n%s", w, msg)
		}
	}
	if !strings.HasSuffix(msg, "\r\n\r\n<p>hi</p>") {
		t.Fatalf("body not separated from headers:\n%s", msg)
	}
}
