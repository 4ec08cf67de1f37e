// Package extractor implements C3: pulling Anchor "Program data:" payloads out of a transaction's
// structured log lines and tagging each with the program that emitted it.
//
// Grounded on the teacher's internal/solana log handling (logs arrive as a flat []string on
// TransactionMeta.LogMessages, same shape the teacher already parses) and on the discriminator-byte
// convention confirmed in other_examples/227b58dc_EmekaIwuagwu-metabridge-hub's listener. The
// invoke/success bracket-tracking itself has no teacher analogue (the teacher never needed to
// disambiguate nested CPI emitters) and is built directly from SPEC_FULL.md §4.2's description of
// Solana's own log format.
package extractor

import (
	"errors"
	"strings"
)

// ErrUnbalancedInvokeLog is returned (never fatally — see Extract) when a "Program X success" line
// has no matching "invoke" on the stack. The transaction is still processed for any payload that did
// parse.
var ErrUnbalancedInvokeLog = errors.New("extractor: unbalanced invoke/success log bracketing")

const programDataPrefix = "Program data: "

// Payload is one decoded "Program data:" line along with the program id whose invocation frame it
// was logged inside, and its position among all Program data lines in the transaction.
type Payload struct {
	ProgramID string
	Base64    string
	LogIndex  int
}

// parseInvoke matches "Program <pubkey> invoke [<depth>]".
// parseSuccess matches "Program <pubkey> success".
func parseInvoke(line string) (programID string, ok bool) {
	const prefix = "Program "
	const suffix = " invoke ["
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	rest := line[len(prefix):]
	idx := strings.Index(rest, suffix)
	if idx < 0 {
		return "", false
	}
	return rest[:idx], true
}

func parseSuccess(line string) (programID string, ok bool) {
	const prefix = "Program "
	const suffix = " success"
	if !strings.HasPrefix(line, prefix) || !strings.HasSuffix(line, suffix) {
		return "", false
	}
	return line[len(prefix) : len(line)-len(suffix)], true
}

// Extract walks a transaction's ordered log lines, yielding one Payload per "Program data: " line,
// tagged with the program id of its enclosing invocation (the top of the invoke-depth stack at the
// point the line was logged). LogIndex is the zero-based position of the line among all "Program
// data:" lines in the transaction, used downstream for intra-tx ordering and idempotency keys.
//
// An unbalanced "success" line (no corresponding "invoke" on the stack) does not abort extraction:
// it is recorded in warnings and the stack is left as-is, matching SPEC_FULL.md §4.2's instruction
// that the transaction still persists any event that did decode.
func Extract(logs []string) (payloads []Payload, warnings []error) {
	var stack []string
	logIdx := 0

	for _, line := range logs {
		if pid, ok := parseInvoke(line); ok {
			stack = append(stack, pid)
			continue
		}
		if pid, ok := parseSuccess(line); ok {
			if len(stack) == 0 {
				warnings = append(warnings, errWithProgram(pid))
				continue
			}
			// Pop the matching frame if it's on top; otherwise pop down to it (tolerant of logs that
			// interleave unrelated "Program <pid> failed" lines the success/invoke pair doesn't cover).
			found := false
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i] == pid {
					stack = stack[:i]
					found = true
					break
				}
			}
			if !found {
				warnings = append(warnings, errWithProgram(pid))
			}
			continue
		}
		if strings.HasPrefix(line, programDataPrefix) {
			b64 := line[len(programDataPrefix):]
			var enclosing string
			if len(stack) > 0 {
				enclosing = stack[len(stack)-1]
			}
			payloads = append(payloads, Payload{
				ProgramID: enclosing,
				Base64:    b64,
				LogIndex:  logIdx,
			})
			logIdx++
		}
	}

	return payloads, warnings
}

func errWithProgram(programID string) error {
	return errors.Join(ErrUnbalancedInvokeLog, errors.New("program "+programID))
}

// CountProgramData returns k, the number of "Program data:" lines in logs, without allocating
// Payload structs. Used by tests asserting TESTABLE PROPERTIES §8.3 ("extraction completeness").
func CountProgramData(logs []string) int {
	n := 0
	for _, line := range logs {
		if strings.HasPrefix(line, programDataPrefix) {
			n++
		}
	}
	return n
}
