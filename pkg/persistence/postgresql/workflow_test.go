package postgresql

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWorkflowRepository_List_InvalidSort checks that sort parameters are
// rejected before any query reaches the database.
func TestWorkflowRepository_List_InvalidSort(t *testing.T) {
	repo := &WorkflowRepository{
		db:     nil, // never reached
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	tests := []struct {
		name    string
		opts    persistence.ListOptions
		wantErr error
	}{
		{
			name:    "sql injection attempt in sort field",
			opts:    persistence.ListOptions{SortBy: "name; DROP TABLE workflows; --"},
			wantErr: persistence.ErrInvalidSortField,
		},
		{
			name:    "quoted payload in sort field",
			opts:    persistence.ListOptions{SortBy: "'; SELECT * FROM users; --"},
			wantErr: persistence.ErrInvalidSortField,
		},
		{
			name:    "payload in sort order",
			opts:    persistence.ListOptions{SortBy: "name", SortOrder: "asc; DELETE FROM workflows"},
			wantErr: persistence.ErrInvalidSortOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.List(t.Context(), tt.opts)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
