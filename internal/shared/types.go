package shared

// Task types
const (
	TypeLendingPenaltyApplied = "lending:penalty_applied"
	TypeSweepExpiredPenalties = "lending:sweep_expired_penalties"
)

// Queues and their worker priorities
const (
	QueueLending     = "lending"
	QueueMaintenance = "maintenance"
)

// QueuePriorities is passed to the asynq server config.
var QueuePriorities = map[string]int{
	QueueLending:     6,
	QueueMaintenance: 2,
	"default":        2,
}

// Cache keys
const (
	CacheKeyAvailableBooks = "lending:books:available"
)
