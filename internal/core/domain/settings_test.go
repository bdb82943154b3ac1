package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() ExportSettings {
	s := DefaultExportSettings()
	s.SourceBaseURL = "https://wiki.example.com"
	s.DestinationBaseURL = "https://kb.example.com"
	return s
}

// TestExportSettings_Defaults tests the default tunables
func TestExportSettings_Defaults(t *testing.T) {
	s := DefaultExportSettings()

	assert.Equal(t, DefaultSearchPageSize, s.SearchPageSize)
	assert.True(t, s.BatchUpload)
	assert.Equal(t, DefaultMaxBatchItems, s.MaxBatchItems)
	assert.Equal(t, int64(DefaultMaxAttachmentSize), s.MaxAttachmentSize)
	assert.Contains(t, s.AllowedExtensions, "md")
	assert.Equal(t, 3, s.Retry.MaxAttempts)
}

// TestExportSettings_Validate tests required fields and bounds
func TestExportSettings_Validate(t *testing.T) {
	require.NoError(t, validSettings().Validate())

	tests := []struct {
		name   string
		mutate func(*ExportSettings)
	}{
		{"missing source URL", func(s *ExportSettings) { s.SourceBaseURL = "" }},
		{"missing destination URL", func(s *ExportSettings) { s.DestinationBaseURL = "" }},
		{"zero page size", func(s *ExportSettings) { s.SearchPageSize = 0 }},
		{"zero batch items", func(s *ExportSettings) { s.MaxBatchItems = 0 }},
		{"zero attachment size", func(s *ExportSettings) { s.MaxAttachmentSize = 0 }},
		{"zero workers", func(s *ExportSettings) { s.Workers = 0 }},
		{"zero retry attempts", func(s *ExportSettings) { s.Retry.MaxAttempts = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s)
			err := s.Validate()
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
