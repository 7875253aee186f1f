package progression

import (
	"errors"
	"testing"
	"time"
)

func TestAlreadyClaimedErrorMatchesSentinel(t *testing.T) {
	var err error = &AlreadyClaimedError{Remaining: 3 * time.Hour}
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("errors.Is(%v, ErrAlreadyClaimed) = false; want true", err)
	}

	var typed *AlreadyClaimedError
	if !errors.As(err, &typed) || typed.Remaining != 3*time.Hour {
		t.Fatalf("errors.As failed or lost the remaining wait: %+v", typed)
	}
}
