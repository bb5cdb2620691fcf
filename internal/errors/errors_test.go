package errors

import (
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"
)

func TestNetworkError(t *testing.T) {
	inner := stderrors.New("connection refused")
	err := &NetworkError{Op: "dial", Addr: "bank.internal:3499", Err: inner, Retryable: true}

	want := "dial bank.internal:3499: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !stderrors.Is(err, inner) {
		t.Error("Unwrap chain broken")
	}
}

func TestSSHError(t *testing.T) {
	inner := stderrors.New("no supported methods remain")
	err := WrapSSH("auth", "bastion.example.com", 22, inner)

	want := "ssh auth bastion.example.com:22: no supported methods remain"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !stderrors.Is(err, inner) {
		t.Error("Unwrap chain broken")
	}
}

func TestWrapClassifies(t *testing.T) {
	refused := Wrap("dial", "127.0.0.1:3499", syscall.ECONNREFUSED)
	if !refused.Retryable {
		t.Error("ECONNREFUSED classified non-retryable")
	}

	denied := Wrap("dial", "127.0.0.1:3499", syscall.EACCES)
	if denied.Retryable {
		t.Error("EACCES classified retryable")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"timed out", syscall.ETIMEDOUT, true},
		{"deadline exceeded", os.ErrDeadlineExceeded, true},
		{"wrapped refused", fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED), true},
		{"permission denied", syscall.EACCES, false},
		{"plain error", stderrors.New("protocol mismatch"), false},
		{"temporary dns", &net.DNSError{Err: "server misbehaving", IsTemporary: true}, true},
		{"permanent dns", &net.DNSError{Err: "no such host", IsNotFound: true}, false},
		{"network error carries flag", &NetworkError{Op: "dial", Err: stderrors.New("x"), Retryable: true}, true},
		{"network error non-retryable", &NetworkError{Op: "dial", Err: syscall.ECONNREFUSED, Retryable: false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
