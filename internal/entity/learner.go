package entity

import (
	"strings"
	"time"
)

// Role distinguishes learners from the guardians who manage them.
type Role string

const (
	RoleLearner  Role = "learner"
	RoleGuardian Role = "guardian"
)

// Learner is an account whose answers drive the engine. Guardians are stored in the
// same table and own zero or more learners through GuardianID.
type Learner struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	GuardianID *int64    `json:"guardian_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate validates the learner entity
func (l *Learner) Validate() error {
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return ErrInvalidLearner
	}
	switch l.Role {
	case RoleLearner, RoleGuardian:
	default:
		return ErrInvalidLearner
	}
	if l.Role == RoleGuardian && l.GuardianID != nil {
		return ErrInvalidLearner
	}
	return nil
}

// IsDependentOf reports whether the learner is managed by the given guardian.
func (l *Learner) IsDependentOf(guardianID int64) bool {
	return l.Role == RoleLearner && l.GuardianID != nil && *l.GuardianID == guardianID
}

// Principal is the authenticated caller of an engine operation.
type Principal struct {
	LearnerID int64
	Role      Role
}
