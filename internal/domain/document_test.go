package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExtractedDocument(t *testing.T) {
	doc := NewExtractedDocument("Meeting notes from March.", SourceTypeText, map[string]string{"lossy": "false"})

	assert.Equal(t, "Meeting notes from March.", doc.Text)
	assert.Equal(t, SourceTypeText, doc.SourceType)
	assert.Equal(t, "false", doc.Metadata["lossy"])
	assert.Empty(t, doc.Err)
	assert.False(t, doc.Failed())
}

func TestNewExtractedDocumentNilMetadata(t *testing.T) {
	doc := NewExtractedDocument("body", SourceTypeHTML, nil)

	require.NotNil(t, doc.Metadata)
	assert.Empty(t, doc.Metadata)
}

func TestNewExtractionFailure(t *testing.T) {
	doc := NewExtractionFailure(SourceTypePDF, "no extractable text; document may be a scanned image")

	assert.Empty(t, doc.Text)
	assert.Equal(t, SourceTypePDF, doc.SourceType)
	assert.True(t, doc.Failed())
	assert.Contains(t, doc.Err, "no extractable text")
}

func TestValidateDocument(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		doc     *Document
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid ingested document",
			doc: &Document{
				ID:         "doc1",
				CaseID:     "case1",
				FileName:   "complaint.pdf",
				SourceType: SourceTypePDF,
				Status:     DocumentStatusIngested,
				ChunkCount: 12,
				CreatedAt:  now,
			},
			wantErr: false,
		},
		{
			name: "valid failed document",
			doc: &Document{
				ID:         "doc2",
				CaseID:     "case1",
				FileName:   "corrupt.pdf",
				SourceType: SourceTypePDF,
				Status:     DocumentStatusFailed,
				Error:      "no extractable text; document may be a scanned image",
			},
			wantErr: false,
		},
		{
			name: "missing CaseID",
			doc: &Document{
				ID:         "doc1",
				FileName:   "complaint.pdf",
				SourceType: SourceTypePDF,
				Status:     DocumentStatusIngested,
			},
			wantErr: true,
			errMsg:  "CaseID",
		},
		{
			name: "invalid source type",
			doc: &Document{
				ID:         "doc1",
				CaseID:     "case1",
				FileName:   "complaint.xyz",
				SourceType: SourceType("spreadsheet"),
				Status:     DocumentStatusIngested,
			},
			wantErr: true,
			errMsg:  "SourceType",
		},
		{
			name: "failed without error message",
			doc: &Document{
				ID:         "doc1",
				CaseID:     "case1",
				FileName:   "corrupt.pdf",
				SourceType: SourceTypePDF,
				Status:     DocumentStatusFailed,
			},
			wantErr: true,
			errMsg:  "error message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
