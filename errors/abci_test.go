package errors

import (
	"io"
	"strings"
	"testing"
)

func TestABCIInfo(t *testing.T) {
	cases := map[string]struct {
		err        error
		debug      bool
		wantCode   uint32
		wantLog    string
		wantPrefix bool
	}{
		"success": {
			err:      nil,
			wantCode: SuccessABCICode,
		},
		"typed nil is success": {
			err:      (*Error)(nil),
			wantCode: SuccessABCICode,
		},
		"root error": {
			err:      ErrState,
			wantCode: 10,
			wantLog:  "invalid state",
		},
		"wrapped twice keeps the root code": {
			err:      Wrapf(Wrap(ErrInsufficientAmount, "lock"), "deal %d", 3),
			wantCode: 12,
			wantLog:  "deal 3: lock: insufficient amount",
		},
		"collection reports the first code": {
			err:      Append(Wrap(ErrAmount, "deposit"), ErrCurrency),
			wantCode: 13,
		},
		"stdlib error is hidden": {
			err:      io.ErrUnexpectedEOF,
			wantCode: internalABCICode,
			wantLog:  internalABCILog,
		},
		"wrapped stdlib error is hidden": {
			err:      Wrap(io.ErrUnexpectedEOF, "read wallet"),
			wantCode: internalABCICode,
			wantLog:  internalABCILog,
		},
		"stdlib error is shown in debug mode": {
			err:        Wrap(io.ErrUnexpectedEOF, "read wallet"),
			debug:      true,
			wantCode:   internalABCICode,
			wantLog:    "read wallet: unexpected EOF",
			wantPrefix: true,
		},
		"error with own code": {
			err:      codedErr(4242),
			wantCode: 4242,
			wantLog:  "coded",
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			code, log := ABCIInfo(tc.err, tc.debug)
			if code != tc.wantCode {
				t.Errorf("want code %d, got %d", tc.wantCode, code)
			}
			if tc.wantLog == "" {
				return
			}
			if tc.wantPrefix {
				if !strings.HasPrefix(log, tc.wantLog) {
					t.Errorf("want log starting with %q, got %q", tc.wantLog, log)
				}
			} else if log != tc.wantLog {
				t.Errorf("want log %q, got %q", tc.wantLog, log)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	if err := Redact(Wrap(ErrNotFound, "deal 1"), false); !ErrNotFound.Is(err) {
		t.Errorf("registered error must pass: %v", err)
	}
	if err := Redact(io.EOF, false); err.Error() != internalABCILog {
		t.Errorf("stdlib error must be redacted: %v", err)
	}
	if err := Redact(io.EOF, true); err != io.EOF {
		t.Errorf("debug mode must not redact: %v", err)
	}

	var panicked error
	func() {
		defer Recover(&panicked)
		panic("index out of range")
	}()
	if !ErrPanic.Is(panicked) {
		t.Fatalf("want a panic error, got %v", panicked)
	}
	if err := Redact(panicked, false); err.Error() != internalABCILog {
		t.Errorf("panic details must be redacted: %v", err)
	}
}

type codedErr uint32

func (c codedErr) ABCICode() uint32 { return uint32(c) }

func (codedErr) Error() string { return "coded" }
