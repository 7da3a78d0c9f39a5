package v1

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gosuda/hrm/internal/domain"
)

func TestPublicDetail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		sentinel error
		want     string
	}{
		{
			name:     "frames_stripped",
			err:      fmt.Errorf("hr.CompanyService.Create: postgres.CompanyRepo.Create: company code already exists: %w", domain.ErrConflict),
			sentinel: domain.ErrConflict,
			want:     "company code already exists",
		},
		{
			name:     "bare_sentinel",
			err:      fmt.Errorf("hr.EmployeeService.Get: %w", domain.ErrNotFound),
			sentinel: domain.ErrNotFound,
			want:     "not found",
		},
		{
			name:     "sentinel_only",
			err:      domain.ErrNotFound,
			sentinel: domain.ErrNotFound,
			want:     "not found",
		},
		{
			name:     "message_with_spaces_kept",
			err:      fmt.Errorf("employee is TERMINATED: cannot start leave: %w", domain.ErrInvalidTransition),
			sentinel: domain.ErrInvalidTransition,
			want:     "employee is TERMINATED: cannot start leave",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, publicDetail(tt.err, tt.sentinel, "not found"))
		})
	}
}
