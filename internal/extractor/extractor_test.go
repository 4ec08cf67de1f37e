package extractor

import "testing"

func TestExtract_NestedCPI(t *testing.T) {
	// Outer program invokes an inner CPI program; both emit a "Program data:" line. The nested
	// CPI's payload must be tagged with the inner program, not the outer one.
	outer := "Outer1111111111111111111111111111111111111"
	inner := "Inner1111111111111111111111111111111111111"
	logs := []string{
		"Program " + outer + " invoke [1]",
		"Program log: doing outer work",
		"Program data: b3V0ZXItcGF5bG9hZA==",
		"Program " + inner + " invoke [2]",
		"Program data: aW5uZXItcGF5bG9hZA==",
		"Program " + inner + " success",
		"Program " + outer + " success",
	}

	payloads, warnings := Extract(logs)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(payloads) != 2 {
		t.Fatalf("len(payloads) = %d, want 2", len(payloads))
	}
	if payloads[0].ProgramID != outer {
		t.Errorf("payloads[0].ProgramID = %q, want %q", payloads[0].ProgramID, outer)
	}
	if payloads[0].LogIndex != 0 {
		t.Errorf("payloads[0].LogIndex = %d, want 0", payloads[0].LogIndex)
	}
	if payloads[1].ProgramID != inner {
		t.Errorf("payloads[1].ProgramID = %q, want %q", payloads[1].ProgramID, inner)
	}
	if payloads[1].LogIndex != 1 {
		t.Errorf("payloads[1].LogIndex = %d, want 1", payloads[1].LogIndex)
	}
}

func TestExtract_CompletenessForKLines(t *testing.T) {
	// TESTABLE PROPERTIES §8.3: a transaction with exactly k "Program data:" lines yields exactly k
	// payloads.
	pid := "Prog11111111111111111111111111111111111111"
	for k := 0; k <= 5; k++ {
		logs := []string{"Program " + pid + " invoke [1]"}
		for i := 0; i < k; i++ {
			logs = append(logs, "Program data: cGF5bG9hZA==")
		}
		logs = append(logs, "Program "+pid+" success")

		payloads, _ := Extract(logs)
		if len(payloads) != k {
			t.Errorf("k=%d: len(payloads) = %d, want %d", k, len(payloads), k)
		}
		if got := CountProgramData(logs); got != k {
			t.Errorf("k=%d: CountProgramData = %d, want %d", k, got, k)
		}
	}
}

func TestExtract_UnbalancedSuccessIsWarningNotFatal(t *testing.T) {
	pid := "Prog11111111111111111111111111111111111111"
	logs := []string{
		"Program " + pid + " success", // no matching invoke
		"Program " + pid + " invoke [1]",
		"Program data: cGF5bG9hZA==",
		"Program " + pid + " success",
	}

	payloads, warnings := Extract(logs)
	if len(payloads) != 1 {
		t.Fatalf("len(payloads) = %d, want 1", len(payloads))
	}
	if len(warnings) != 1 {
		t.Fatalf("len(warnings) = %d, want 1", len(warnings))
	}
}
