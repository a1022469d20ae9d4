package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siakad/thesis-workflow/internal/domain/entity"
)

func TestProposalMachine(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		trigger Trigger
		want    State
		wantErr bool
	}{
		{name: "approve from submitted stays submitted until both flags", status: entity.ProposalStatusSubmitted, trigger: TriggerApprove, want: State(entity.ProposalStatusSubmitted)},
		{name: "reject from submitted", status: entity.ProposalStatusSubmitted, trigger: TriggerReject, want: State(entity.ProposalStatusRejected)},
		{name: "request revision from submitted", status: entity.ProposalStatusSubmitted, trigger: TriggerRequestRevision, want: State(entity.ProposalStatusRevision)},
		{name: "resubmit after revision", status: entity.ProposalStatusRevision, trigger: TriggerUpdate, want: State(entity.ProposalStatusSubmitted)},
		{name: "supervisor change reopens approved proposal", status: entity.ProposalStatusApproved, trigger: TriggerUpdate, want: State(entity.ProposalStatusSubmitted)},
		{name: "approve from revision refused", status: entity.ProposalStatusRevision, trigger: TriggerApprove, wantErr: true},
		{name: "nothing leaves rejected", status: entity.ProposalStatusRejected, trigger: TriggerUpdate, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewProposalMachine(tt.status)
			next, err := m.Peek(tt.trigger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, next)
		})
	}
}

func TestProposalMachine_TerminalStates(t *testing.T) {
	assert.True(t, NewProposalMachine(entity.ProposalStatusRejected).IsTerminal())
	assert.True(t, NewProposalMachine(entity.ProposalStatusCompleted).IsTerminal())
	assert.False(t, NewProposalMachine(entity.ProposalStatusApproved).IsTerminal())
}

func TestConsultationMachine(t *testing.T) {
	pending := NewConsultationMachine(entity.ConsultationStatusPending)
	assert.True(t, pending.CanFire(TriggerDecide))
	assert.True(t, pending.CanFire(TriggerEdit))

	next, err := pending.Peek(TriggerEdit)
	require.NoError(t, err)
	assert.Equal(t, State(entity.ConsultationStatusPending), next, "editing keeps the log pending")

	decided := NewConsultationMachine(entity.ConsultationStatusApproved)
	assert.True(t, decided.IsTerminal())
	assert.False(t, decided.CanFire(TriggerEdit))
	assert.False(t, decided.CanFire(TriggerDecide))
}

func TestSemproMachine(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		trigger Trigger
		want    State
		wantErr bool
	}{
		{name: "verify registration", status: entity.SemproStatusRegistered, trigger: TriggerVerify, want: State(entity.SemproStatusVerified)},
		{name: "reject registration", status: entity.SemproStatusRegistered, trigger: TriggerReject, want: State(entity.SemproStatusRejected)},
		{name: "document revision before verification", status: entity.SemproStatusRegistered, trigger: TriggerRequestRevision, want: State(entity.SemproStatusRevisionRequired)},
		{name: "schedule after verification", status: entity.SemproStatusVerified, trigger: TriggerSchedule, want: State(entity.SemproStatusScheduled)},
		{name: "complete after defense", status: entity.SemproStatusScheduled, trigger: TriggerComplete, want: State(entity.SemproStatusCompleted)},
		{name: "final approval recomputed from flags", status: entity.SemproStatusCompleted, trigger: TriggerApproveFinal, want: State(entity.SemproStatusCompleted)},
		{name: "post-evaluation revision", status: entity.SemproStatusCompleted, trigger: TriggerRequestRevision, want: State(entity.SemproStatusRevisionRequired)},
		{name: "resubmission restarts verification", status: entity.SemproStatusRevisionRequired, trigger: TriggerResubmit, want: State(entity.SemproStatusRegistered)},
		{name: "cannot schedule before verification", status: entity.SemproStatusRegistered, trigger: TriggerSchedule, wantErr: true},
		{name: "cannot verify twice", status: entity.SemproStatusVerified, trigger: TriggerVerify, wantErr: true},
		{name: "nothing leaves approved", status: entity.SemproStatusApproved, trigger: TriggerRequestRevision, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewSemproMachine(tt.status)
			next, err := m.Peek(tt.trigger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, next)
		})
	}
}

func TestSemproMachine_NormalizesEvaluatedAlias(t *testing.T) {
	m := NewSemproMachine(entity.SemproStatusEvaluated)
	assert.Equal(t, State(entity.SemproStatusVerified), m.State())
	assert.True(t, m.CanFire(TriggerSchedule))
}
