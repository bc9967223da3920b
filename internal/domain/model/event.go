package model

// Event is one row of the match event log.
type Event struct {
	EventID    string
	PlayerName string
	Role       string
	Season     int
	EventType  string
	MatchID    string
}

// Match is one row of the match metadata file.
type Match struct {
	MatchID string
	Season  int
	Result  string
}

// Event types that feed the success-rate ratios.
const (
	RaidSuccessful     = "Raid Successful"
	RaidUnsuccessful   = "Raid Unsuccessful"
	TackleSuccessful   = "Tackle Successful"
	TackleUnsuccessful = "Tackle Unsuccessful"
)
