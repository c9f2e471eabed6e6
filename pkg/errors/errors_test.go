// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, and utility functions

package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/arthur-debert/packrat/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "source_not_found_error",
			code:    errors.ErrSourceNotFound,
			message: "source does not exist",
			wantStr: "[SOURCE_NOT_FOUND] source does not exist",
		},
		{
			name:    "mirror_tool_error",
			code:    errors.ErrMirrorToolFailed,
			message: "rsync exited with status 23",
			wantStr: "[MIRROR_TOOL_FAILED] rsync exited with status 23",
		},
		{
			name:    "config_error",
			code:    errors.ErrConfigParse,
			message: "invalid configuration",
			wantStr: "[CONFIG_PARSE] invalid configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			if err.Code != tt.code {
				t.Errorf("New() code = %v, want %v", err.Code, tt.code)
			}

			if err.Message != tt.message {
				t.Errorf("New() message = %q, want %q", err.Message, tt.message)
			}

			if err.Details == nil {
				t.Error("New() details should be initialized")
			}

			if got := err.Error(); got != tt.wantStr {
				t.Errorf("Error() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	underlying := stderrors.New("permission denied")
	err := errors.Wrap(underlying, errors.ErrCopyFailed, "cannot copy file")

	if err.Code != errors.ErrCopyFailed {
		t.Errorf("Wrap() code = %v, want %v", err.Code, errors.ErrCopyFailed)
	}

	if !stderrors.Is(err, underlying) {
		t.Error("Wrap() should preserve the wrapped error for errors.Is")
	}

	want := "[COPY_FAILED] cannot copy file: permission denied"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrapNil(t *testing.T) {
	if err := errors.Wrap(nil, errors.ErrCopyFailed, "should be nil"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
	if err := errors.Wrapf(nil, errors.ErrCopyFailed, "should be %s", "nil"); err != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", err)
	}
}

func TestIsErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code errors.ErrorCode
		want bool
	}{
		{
			name: "matching_code",
			err:  errors.New(errors.ErrSourceNotFound, "missing"),
			code: errors.ErrSourceNotFound,
			want: true,
		},
		{
			name: "different_code",
			err:  errors.New(errors.ErrSourceNotFound, "missing"),
			code: errors.ErrMirrorToolFailed,
			want: false,
		},
		{
			name: "wrapped_packrat_error",
			err:  errors.Wrap(errors.New(errors.ErrSubprocessTimeout, "silent"), errors.ErrSubprocessTimeout, "outer"),
			code: errors.ErrSubprocessTimeout,
			want: true,
		},
		{
			name: "plain_error",
			err:  stderrors.New("plain"),
			code: errors.ErrSourceNotFound,
			want: false,
		},
		{
			name: "nil_error",
			err:  nil,
			code: errors.ErrSourceNotFound,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.IsErrorCode(tt.err, tt.code); got != tt.want {
				t.Errorf("IsErrorCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	if got := errors.GetErrorCode(errors.New(errors.ErrDirListFailed, "x")); got != errors.ErrDirListFailed {
		t.Errorf("GetErrorCode() = %v, want %v", got, errors.ErrDirListFailed)
	}
	if got := errors.GetErrorCode(stderrors.New("plain")); got != errors.ErrUnknown {
		t.Errorf("GetErrorCode(plain) = %v, want %v", got, errors.ErrUnknown)
	}
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrMirrorToolFailed, "rsync failed").
		WithDetail("exitCode", 23).
		WithDetail("source", "/home/user/docs")

	if err.Details["exitCode"] != 23 {
		t.Errorf("Details[exitCode] = %v, want 23", err.Details["exitCode"])
	}
	if err.Details["source"] != "/home/user/docs" {
		t.Errorf("Details[source] = %v, want /home/user/docs", err.Details["source"])
	}
}
