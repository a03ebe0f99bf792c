package leave

import (
	"testing"

	leaveerrors "concord-desk/internal/leave/errors"

	"github.com/stretchr/testify/assert"
)

func TestNextState(t *testing.T) {
	cases := []struct {
		name      string
		from      state
		action    Action
		fastTrack bool
		want      state
		wantErr   error
	}{
		{
			name:   "first stage accept advances to second",
			from:   state{StatusPending, StageFirst},
			action: ActionAccept,
			want:   state{StatusPending, StageSecond},
		},
		{
			name:      "fast-track reviewer at first stage skips second",
			from:      state{StatusPending, StageFirst},
			action:    ActionAccept,
			fastTrack: true,
			want:      state{StatusPending, StageThird},
		},
		{
			name:   "second stage accept confirms",
			from:   state{StatusPending, StageSecond},
			action: ActionAccept,
			want:   state{StatusAccepted, StageFinal},
		},
		{
			name:   "third stage accept confirms",
			from:   state{StatusPending, StageThird},
			action: ActionAccept,
			want:   state{StatusAccepted, StageFinal},
		},
		{
			name:   "first stage decline is terminal",
			from:   state{StatusPending, StageFirst},
			action: ActionDecline,
			want:   state{StatusDeclined, StageFirst},
		},
		{
			name:   "second stage decline forwards instead of closing",
			from:   state{StatusPending, StageSecond},
			action: ActionDecline,
			want:   state{StatusPending, StageThird},
		},
		{
			name:   "third stage decline is terminal",
			from:   state{StatusPending, StageThird},
			action: ActionDecline,
			want:   state{StatusDeclined, StageThird},
		},
		{
			name:   "accepted leave can be withdrawn",
			from:   state{StatusAccepted, StageFinal},
			action: ActionWithdraw,
			want:   state{StatusWithdrawn, StageFinal},
		},
		{
			name:   "pending first stage can be cancelled by the owner",
			from:   state{StatusPending, StageFirst},
			action: ActionCancel,
			want:   state{StatusCancelled, StageFirst},
		},
		{
			name:    "accepting an already accepted record is illegal",
			from:    state{StatusAccepted, StageFinal},
			action:  ActionAccept,
			wantErr: leaveerrors.ErrIllegalTransition,
		},
		{
			name:    "withdrawing a pending record is illegal",
			from:    state{StatusPending, StageSecond},
			action:  ActionWithdraw,
			wantErr: leaveerrors.ErrIllegalTransition,
		},
		{
			name:    "cancelling past the first stage is illegal",
			from:    state{StatusPending, StageSecond},
			action:  ActionCancel,
			wantErr: leaveerrors.ErrIllegalTransition,
		},
		{
			name:    "declined records are terminal",
			from:    state{StatusDeclined, StageThird},
			action:  ActionAccept,
			wantErr: leaveerrors.ErrIllegalTransition,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := nextState(tc.from, tc.action, tc.fastTrack)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestConfirmed(t *testing.T) {
	assert.True(t, confirmed(state{StatusAccepted, StageFinal}))
	assert.False(t, confirmed(state{StatusPending, StageSecond}))
	assert.False(t, confirmed(state{StatusWithdrawn, StageFinal}))
}

func TestHasFastTrackRole(t *testing.T) {
	assert.True(t, hasFastTrackRole([]string{"member", "heads"}))
	assert.True(t, hasFastTrackRole([]string{"project_coordinator"}))
	assert.False(t, hasFastTrackRole([]string{"member"}))
	assert.False(t, hasFastTrackRole(nil))
}
