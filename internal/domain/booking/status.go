package booking

const (
	StatusBooked     = "booked"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// ActiveStatuses are the states that occupy studio time.
var ActiveStatuses = []string{StatusBooked, StatusConfirmed, StatusInProgress}

var transitions = map[string][]string{
	StatusBooked:     {StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func IsValidStatus(s string) bool {
	switch s {
	case StatusBooked, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an admin may move a session from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
