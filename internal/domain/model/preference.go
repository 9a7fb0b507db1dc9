package model

import "strings"

// PreferenceType is the dimension a viewer preference applies to.
type PreferenceType string

// Preference dimensions.
const (
	PreferenceSport    PreferenceType = "SPORT"
	PreferenceTeam     PreferenceType = "TEAM"
	PreferencePlayer   PreferenceType = "PLAYER"
	PreferencePlayType PreferenceType = "PLAY_TYPE"
)

// ParsePreferenceType normalizes s into a known PreferenceType.
func ParsePreferenceType(s string) (PreferenceType, bool) {
	switch PreferenceType(strings.ToUpper(strings.TrimSpace(s))) {
	case PreferenceSport:
		return PreferenceSport, true
	case PreferenceTeam:
		return PreferenceTeam, true
	case PreferencePlayer:
		return PreferencePlayer, true
	case PreferencePlayType:
		return PreferencePlayType, true
	}
	return "", false
}

// UserPreference is one weighted viewer preference.
type UserPreference struct {
	UserID string         `json:"userId" firestore:"userId"`
	Type   PreferenceType `json:"type" firestore:"type" validate:"required,oneof=SPORT TEAM PLAYER PLAY_TYPE"`
	Value  string         `json:"value" firestore:"value" validate:"required,max=128"`
	Weight float64        `json:"weight" firestore:"weight" validate:"gte=0"`
}
