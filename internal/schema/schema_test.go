package schema

import "testing"

func TestJSONArraySetSemantics(t *testing.T) {
	var skills JSONArray
	if !skills.Add("Rust") {
		t.Fatalf("first Add should append")
	}
	if skills.Add("Rust") {
		t.Fatalf("second Add should be a no-op")
	}
	skills.Add("Go")
	if len(skills) != 2 || skills[0] != "Rust" || skills[1] != "Go" {
		t.Fatalf("skills=%v, want [Rust Go]", skills)
	}
	if skills.Remove("Python") {
		t.Fatalf("Remove of absent element should be a no-op")
	}
	if !skills.Remove("Rust") || skills.Contains("Rust") {
		t.Fatalf("Remove(Rust) failed: %v", skills)
	}
}

func TestJSONArrayValueAndScan(t *testing.T) {
	v, err := JSONArray(nil).Value()
	if err != nil || v != "[]" {
		t.Fatalf("nil Value()=%v err=%v, want []", v, err)
	}

	var out JSONArray
	if err := out.Scan(`["0xa","0xb"]`); err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(out) != 2 || out[1] != "0xb" {
		t.Fatalf("out=%v", out)
	}
	if err := out.Scan(nil); err != nil || len(out) != 0 {
		t.Fatalf("Scan(nil) out=%v err=%v", out, err)
	}
}

func TestSubmissionStatusFromCode(t *testing.T) {
	cases := map[uint64]SubmissionStatus{
		0: SubmissionCreated,
		1: SubmissionUnderReview,
		2: SubmissionApproved,
		3: SubmissionRejected,
		4: SubmissionWinner,
	}
	for code, want := range cases {
		got, ok := SubmissionStatusFromCode(code)
		if !ok || got != want {
			t.Fatalf("code %d -> %q,%v, want %q", code, got, ok, want)
		}
	}
	if _, ok := SubmissionStatusFromCode(9); ok {
		t.Fatalf("unknown code should not map")
	}
}

func TestSubmissionSetStatusKeepsFlagsConsistent(t *testing.T) {
	s := NewSubmission("0x01")

	s.SetStatus(SubmissionApproved)
	if !s.IsApproved || s.IsWinner {
		t.Fatalf("approved: %+v", s)
	}
	s.SetStatus(SubmissionRejected)
	if s.IsApproved || s.IsWinner {
		t.Fatalf("rejected: %+v", s)
	}
	s.SetStatus(SubmissionWinner)
	if !s.IsWinner || s.Status != SubmissionWinner {
		t.Fatalf("winner: %+v", s)
	}
	if s.SetStatus(SubmissionRejected) {
		t.Fatalf("winner must not be demoted")
	}
	if !s.IsWinner || s.Status != SubmissionWinner {
		t.Fatalf("winner lost after demotion attempt: %+v", s)
	}
}

func TestSubmissionApplyReviewOnWinnerKeepsStatus(t *testing.T) {
	s := NewSubmission("0x01")
	s.SetStatus(SubmissionWinner)
	s.ApplyReview(40, false, 100)
	if s.Status != SubmissionWinner || !s.IsWinner {
		t.Fatalf("status=%s isWinner=%v", s.Status, s.IsWinner)
	}
	if s.Score == nil || *s.Score != 40 || s.ReviewedTimestamp == nil || *s.ReviewedTimestamp != 100 {
		t.Fatalf("review not mirrored: %+v", s)
	}
}
