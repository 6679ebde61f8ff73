package provision

import "fmt"

// Stage is a step in the provisioning lifecycle.
type Stage string

const (
	StageNotStarted        Stage = "not_started"
	StageSchemaCreated     Stage = "schema_created"
	StageMigrationsApplied Stage = "migrations_applied"
	StageCommitted         Stage = "committed"
	StageRollingBack       Stage = "rolling_back"
	StageDropped           Stage = "dropped"
)

func (s Stage) String() string {
	return string(s)
}

// Terminal reports whether no further transition leaves s.
func (s Stage) Terminal() bool {
	return s == StageCommitted || s == StageDropped
}

type event string

const (
	eventSchemaCreated event = "schema_created"
	eventMigrated      event = "migrated"
	eventCommit        event = "commit"
	eventFail          event = "fail"
	eventCleanedUp     event = "cleaned_up"
)

// transitions is the lifecycle table: [from][event] -> to.
var transitions = map[Stage]map[event]Stage{
	StageNotStarted: {
		eventSchemaCreated: StageSchemaCreated,
		eventFail:          StageRollingBack,
	},
	StageSchemaCreated: {
		eventMigrated: StageMigrationsApplied,
		eventFail:     StageRollingBack,
	},
	StageMigrationsApplied: {
		eventCommit: StageCommitted,
		eventFail:   StageRollingBack,
	},
	StageRollingBack: {
		eventCleanedUp: StageDropped,
	},
}

// lifecycle tracks one provisioning attempt. It is owned by a single goroutine.
type lifecycle struct {
	stage Stage
}

func newLifecycle() *lifecycle {
	return &lifecycle{stage: StageNotStarted}
}

func (l *lifecycle) Stage() Stage {
	return l.stage
}

func (l *lifecycle) fire(e event) error {
	to, ok := transitions[l.stage][e]
	if !ok {
		return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, l.stage)
	}
	l.stage = to
	return nil
}

// must panics on an illegal transition; the provisioner only fires events its own code path allows.
func (l *lifecycle) must(e event) {
	if err := l.fire(e); err != nil {
		panic(err)
	}
}
