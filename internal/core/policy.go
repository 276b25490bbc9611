package core

import "fmt"

// MovePolicy decides what happens to a vacated slot when the target role of
// a move turns out to be full.
type MovePolicy int

const (
	// CommitVacate keeps the vacate committed: the user loses the old slot.
	CommitVacate MovePolicy = iota
	// RollbackVacate restores the old slot at its original position.
	RollbackVacate
)

func (p MovePolicy) String() string {
	switch p {
	case CommitVacate:
		return "commit"
	case RollbackVacate:
		return "rollback"
	default:
		return "unknown"
	}
}

// ParseMovePolicy maps a config value to a policy. Empty means commit.
func ParseMovePolicy(s string) (MovePolicy, error) {
	switch s {
	case "", "commit":
		return CommitVacate, nil
	case "rollback":
		return RollbackVacate, nil
	default:
		return CommitVacate, fmt.Errorf("unknown join policy %q (valid: commit, rollback)", s)
	}
}
