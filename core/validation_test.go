package core

import (
	"errors"
	"testing"
)

func TestValidateInstitute(t *testing.T) {
	tests := []struct {
		name    string
		inst    *Institute
		wantErr error
	}{
		{
			name:    "valid institute",
			inst:    &Institute{PublicID: "inst-1", Name: "Delhi Tech", Slug: "delhi-tech"},
			wantErr: nil,
		},
		{
			name:    "nil institute",
			inst:    nil,
			wantErr: ErrInvalidInstitute,
		},
		{
			name:    "missing public id",
			inst:    &Institute{Name: "Delhi Tech", Slug: "delhi-tech"},
			wantErr: ErrEmptyPublicID,
		},
		{
			name:    "blank name",
			inst:    &Institute{PublicID: "inst-1", Name: "   ", Slug: "delhi-tech"},
			wantErr: ErrEmptyName,
		},
		{
			name:    "uppercase slug",
			inst:    &Institute{PublicID: "inst-1", Name: "Delhi Tech", Slug: "Delhi-Tech"},
			wantErr: ErrInvalidSlug,
		},
		{
			name:    "empty slug",
			inst:    &Institute{PublicID: "inst-1", Name: "Delhi Tech"},
			wantErr: ErrInvalidSlug,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInstitute(tt.inst)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateInstitute() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateInstitute() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidInstitute) {
				t.Errorf("ValidateInstitute() error = %v, should wrap ErrInvalidInstitute", err)
			}
		})
	}
}

func TestValidateSuggestion(t *testing.T) {
	valid := &Suggestion{Name: "Delhi Tech", Type: SuggestionTypeInstitute, PublicID: "inst-1"}
	if err := ValidateSuggestion(valid); err != nil {
		t.Fatalf("ValidateSuggestion() unexpected error: %v", err)
	}

	bad := &Suggestion{Name: "Delhi Tech", Type: "campus", PublicID: "inst-1"}
	if err := ValidateSuggestion(bad); !errors.Is(err, ErrInvalidSuggestionType) {
		t.Errorf("ValidateSuggestion() error = %v, want ErrInvalidSuggestionType", err)
	}

	if err := ValidateSuggestion(&Suggestion{Type: SuggestionTypeCourse, PublicID: "x"}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("ValidateSuggestion() error = %v, want ErrEmptyName", err)
	}
}
