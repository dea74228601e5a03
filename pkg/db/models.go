package db

// Run represents a persisted allocation run
type Run struct {
	ID              string
	Env             string
	SeasonStart     string
	SeasonEnd       string
	Seed            int64
	Score           int
	Requesters      int
	Assigned        int
	TrialsCompleted int
	TrialsAbandoned int
	TimedOut        bool
	CreatedAt       string
}

// Assignment represents one assigned leg of the best solution of a run
type Assignment struct {
	ID            string
	RunID         string
	RequesterID   string
	Rank          int
	HutID         string
	StartDate     string
	EndDate       string
	PartySize     int
	TraverseGroup string
}

// Suggestion represents one alternative offered to an unassigned requester
type Suggestion struct {
	ID          string
	RunID       string
	RequesterID string
	Huts        string
	Dates       string
	PartySize   int
	Note        string
}
