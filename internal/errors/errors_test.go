package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOfWalksWrappedChain(t *testing.T) {
	base := errors.New("connection refused")
	err := fmt.Errorf("poll cycle: %w", Fetch(base))

	if got := CodeOf(err); got != CodeFetchFailed {
		t.Fatalf("CodeOf = %q, want %q", got, CodeFetchFailed)
	}
	if !IsFetch(err) {
		t.Fatalf("expected IsFetch to match wrapped fetch error")
	}
	if IsUpdate(err) || IsValidation(err) {
		t.Fatalf("fetch error must not match other kinds")
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected underlying error to stay reachable")
	}
}

func TestErrorMessageFallbacks(t *testing.T) {
	cases := []struct {
		name string
		err  Error
		want string
	}{
		{"message", New(CodeUnknown, "boom", errors.New("inner")), "boom"},
		{"wrapped", New(CodeUnknown, "", errors.New("inner")), "inner"},
		{"code only", New(CodeNotFound, "", nil), "not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Fatalf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != CodeUnknown {
		t.Fatalf("CodeOf(plain) = %q, want unknown", got)
	}
	if got := CodeOf(nil); got != CodeUnknown {
		t.Fatalf("CodeOf(nil) = %q, want unknown", got)
	}
}

func TestUpdateMessageNamesIssue(t *testing.T) {
	err := Update("42", errors.New("503"))
	if err.Error() != "failed to update issue 42" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !IsUpdate(err) {
		t.Fatalf("expected update code")
	}
}
