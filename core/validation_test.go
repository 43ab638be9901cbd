package core

import (
	"errors"
	"testing"
)

func TestValidateEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   *Entry
		wantErr error
	}{
		{
			name:    "valid entry",
			entry:   &Entry{Code: "SP42", Term: "pRuShTha-grahaH"},
			wantErr: nil,
		},
		{
			name:    "valid entry with optional fields",
			entry:   &Entry{Code: "SP42", Term: "pRuShTha-grahaH", English: "back stiffness", ParentCode: "SP"},
			wantErr: nil,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantErr: ErrInvalidEntry,
		},
		{
			name:    "empty code",
			entry:   &Entry{Term: "vAta"},
			wantErr: ErrEmptyCode,
		},
		{
			name:    "empty term",
			entry:   &Entry{Code: "X1"},
			wantErr: ErrEmptyTerm,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntry(tt.entry)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateEntry() unexpected error = %v", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateEntry() expected error %v, got nil", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEntry() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCatalog(t *testing.T) {
	ok := []*Entry{{Code: "A", Term: "one"}, {Code: "B", Term: "two"}}
	if err := ValidateCatalog(ok); err != nil {
		t.Fatalf("ValidateCatalog() unexpected error = %v", err)
	}

	dup := []*Entry{{Code: "A", Term: "one"}, {Code: "A", Term: "two"}}
	if err := ValidateCatalog(dup); !errors.Is(err, ErrDuplicateCode) {
		t.Errorf("ValidateCatalog() error = %v, want %v", err, ErrDuplicateCode)
	}

	bad := []*Entry{{Code: "A", Term: "one"}, {Code: "", Term: "two"}}
	if err := ValidateCatalog(bad); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("ValidateCatalog() error = %v, want %v", err, ErrInvalidEntry)
	}

	if err := ValidateCatalog(nil); err != nil {
		t.Errorf("ValidateCatalog(nil) unexpected error = %v", err)
	}
}
