package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Team is the closed set of CRM teams. The numeric values match the persisted team_id.
type Team int

const (
	TeamUnknown    Team = 0
	TeamManagement Team = 1
	TeamSales      Team = 2
	TeamSupport    Team = 3
)

// Teams lists every assignable team in id order
var Teams = []Team{TeamManagement, TeamSales, TeamSupport}

// String returns the canonical upper-case team name
func (t Team) String() string {
	switch t {
	case TeamManagement:
		return "MANAGEMENT"
	case TeamSales:
		return "SALES"
	case TeamSupport:
		return "SUPPORT"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether t is one of the assignable teams
func (t Team) Valid() bool {
	return t == TeamManagement || t == TeamSales || t == TeamSupport
}

// ParseTeam parses a team name, case-insensitively
func ParseTeam(s string) (Team, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MANAGEMENT":
		return TeamManagement, nil
	case "SALES":
		return TeamSales, nil
	case "SUPPORT":
		return TeamSupport, nil
	default:
		return TeamUnknown, fmt.Errorf("unknown team %q", s)
	}
}

// MarshalText encodes the team by name
func (t Team) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a team name
func (t *Team) UnmarshalText(text []byte) error {
	parsed, err := ParseTeam(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores the team as its integer id
func (t Team) Value() (driver.Value, error) {
	return int64(t), nil
}

// Scan reads the team from its integer id
func (t *Team) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		*t = Team(v)
	case int32:
		*t = Team(v)
	case int:
		*t = Team(v)
	case nil:
		*t = TeamUnknown
	default:
		return fmt.Errorf("cannot scan %T into Team", src)
	}
	return nil
}
