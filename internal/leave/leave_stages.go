package leave

import (
	leaveerrors "concord-desk/internal/leave/errors"
)

type Action string

const (
	ActionAccept   Action = "ACCEPT"
	ActionDecline  Action = "DECLINE"
	ActionWithdraw Action = "WITHDRAW"
	ActionCancel   Action = "CANCEL"
)

type state struct {
	Status Status
	Stage  Stage
}

type transitionKey struct {
	From   state
	Action Action
}

// transitions is the full reachable state table. Anything not listed here is
// an illegal move and is rejected before any row is touched.
//
// Accepting at SECOND or THIRD confirms the request. Declining at SECOND does
// not close it: the request is forwarded, still pending, for a final ruling
// at THIRD with the decline note attached.
var transitions = map[transitionKey]state{
	{state{StatusPending, StageFirst}, ActionAccept}:  {StatusPending, StageSecond},
	{state{StatusPending, StageSecond}, ActionAccept}: {StatusAccepted, StageFinal},
	{state{StatusPending, StageThird}, ActionAccept}:  {StatusAccepted, StageFinal},

	{state{StatusPending, StageFirst}, ActionDecline}:  {StatusDeclined, StageFirst},
	{state{StatusPending, StageSecond}, ActionDecline}: {StatusPending, StageThird},
	{state{StatusPending, StageThird}, ActionDecline}:  {StatusDeclined, StageThird},

	{state{StatusAccepted, StageFinal}, ActionWithdraw}: {StatusWithdrawn, StageFinal},

	{state{StatusPending, StageFirst}, ActionCancel}: {StatusCancelled, StageFirst},
}

// nextState resolves one transition. A first-stage acceptance by a reviewer
// who holds a fast-track role skips the second stage entirely, since their
// sign-off already carries that authority.
func nextState(cur state, action Action, fastTrackActor bool) (state, error) {
	next, ok := transitions[transitionKey{cur, action}]
	if !ok {
		return state{}, leaveerrors.ErrIllegalTransition
	}
	if action == ActionAccept && cur.Stage == StageFirst && fastTrackActor {
		next.Stage = StageThird
	}
	return next, nil
}

// confirmed reports whether a transition lands the request in its accepted
// terminal state, which is the single point where balances move.
func confirmed(next state) bool {
	return next.Status == StatusAccepted && next.Stage == StageFinal
}

// FastTrackRoles submit straight to the second stage and skip it when
// reviewing at the first.
var FastTrackRoles = []string{"heads", "project_coordinator"}

func hasFastTrackRole(roles []string) bool {
	for _, r := range roles {
		for _, ft := range FastTrackRoles {
			if r == ft {
				return true
			}
		}
	}
	return false
}
