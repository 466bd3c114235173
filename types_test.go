package agencykit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriorityScore(t *testing.T) {
	tests := []struct {
		name     string
		proposal ProposalRequest
		want     int
	}{
		{
			name: "maximum",
			proposal: ProposalRequest{
				BudgetRange: "$50k+",
				Timeline:    "ASAP",
				ProjectType: "Custom Web App",
				Company:     "Acme",
			},
			want: 7,
		},
		{
			name: "not sure yet counts for nothing",
			proposal: ProposalRequest{
				ProjectType: "Not Sure Yet",
			},
			want: 0,
		},
		{
			name: "modest budget with urgent timeline",
			proposal: ProposalRequest{
				ProjectType: "Not Sure Yet",
				BudgetRange: "$10k-25k",
				Timeline:    "1-2 months",
			},
			want: 2,
		},
		{
			name: "company only",
			proposal: ProposalRequest{
				ProjectType: "Not Sure Yet",
				Company:     "Acme",
			},
			want: 1,
		},
		{
			// Anything other than the explicit opt-out earns the point,
			// even a blank value on an unvalidated row.
			name:     "blank type still scores",
			proposal: ProposalRequest{},
			want:     1,
		},
		{
			name: "flexible timeline scores zero",
			proposal: ProposalRequest{
				BudgetRange: "Under $10k",
				Timeline:    "Flexible",
				ProjectType: "E-commerce Site",
			},
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.proposal.PriorityScore())
		})
	}
}

func TestApplyPublication(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	earlier := now.Add(-48 * time.Hour)

	t.Run("unpublished clears timestamp", func(t *testing.T) {
		p := &BlogPost{Published: false}
		p.applyPublication(&earlier, now)
		assert.Nil(t, p.PublishedAt)
	})

	t.Run("first publish stamps now", func(t *testing.T) {
		p := &BlogPost{Published: true}
		p.applyPublication(nil, now)
		assert.Equal(t, now, *p.PublishedAt)
	})

	t.Run("already published keeps original", func(t *testing.T) {
		p := &BlogPost{Published: true}
		p.applyPublication(&earlier, now)
		assert.Equal(t, earlier, *p.PublishedAt)
	})
}

func TestValidProposalStatus(t *testing.T) {
	for _, s := range ProposalStatuses {
		assert.True(t, ValidProposalStatus(s), s)
	}
	assert.False(t, ValidProposalStatus("archived"))
	assert.False(t, ValidProposalStatus(""))
	assert.False(t, ValidProposalStatus("Won"))
}
