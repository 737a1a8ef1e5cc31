package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{43945, "43,945"},
		{1234567, "1,234,567"},
		{-50000, "-50,000"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.amount); got != tt.want {
			t.Errorf("FormatAmount(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatSignMessage(t *testing.T) {
	msg := FormatSignMessage(SignNotification{
		PayeeName:   "王小明",
		GrossAmount: 50000,
		NetAmount:   43945,
		SignLink:    "http://localhost:8080/sign/abc123",
	})

	for _, want := range []string{
		"王小明",
		"NT$ 50,000",
		"NT$ 43,945",
		"http://localhost:8080/sign/abc123",
		"一次性",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestPushSignLink(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody pushRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("request body is not valid JSON: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient("test-channel-token")
	client.pushURL = srv.URL

	err := client.PushSignLink(context.Background(), "Cgroup123", SignNotification{
		PayeeName:   "王小明",
		GrossAmount: 50000,
		NetAmount:   43945,
		SignLink:    "http://localhost:8080/sign/abc123",
	})
	if err != nil {
		t.Fatalf("PushSignLink error: %v", err)
	}

	if gotAuth != "Bearer test-channel-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotBody.To != "Cgroup123" {
		t.Errorf("push target = %q, want Cgroup123", gotBody.To)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Type != "text" {
		t.Fatalf("messages = %+v", gotBody.Messages)
	}
	if !strings.Contains(gotBody.Messages[0].Text, "王小明") {
		t.Errorf("message text missing payee name")
	}
}

func TestPushSignLinkNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("test-channel-token")
	client.pushURL = srv.URL

	err := client.PushSignLink(context.Background(), "Cgroup123", SignNotification{})
	if err == nil {
		t.Fatalf("expected error on 429 response")
	}
}
