package main

import "log"

// Achievement definitions
type AchievementDef struct {
	ID          string
	Name        string
	Description string
}

const (
	demolitionBricks = 500
	veteranRounds    = 10
	speedDemonSecs   = 60.0
)

var Achievements = []AchievementDef{
	{"first_win", "First Win", "Clear a brick wall"},
	{"flawless", "Flawless", "Win a round without losing a heart"},
	{"demolition", "Demolition", "Break 500 bricks in total"},
	{"veteran", "Veteran", "Finish 10 rounds"},
	{"speed_demon", "Speed Demon", "Win a round in under a minute"},
}

// CheckAchievements unlocks whatever the pilot's totals and the round
// just played now qualify for. Returns only the newly unlocked ones.
func CheckAchievements(db *DB, playerID int64, round RoundStats) []AchievementDef {
	if db == nil {
		return nil
	}

	stats, err := db.GetStats(playerID)
	if err != nil || stats == nil {
		return nil
	}

	existing, err := db.GetAchievements(playerID)
	if err != nil {
		return nil
	}
	has := make(map[string]bool, len(existing))
	for _, a := range existing {
		has[a] = true
	}

	won := round.Outcome == OutcomeWon
	check := func(id string) bool {
		if has[id] {
			return false
		}
		switch id {
		case "first_win":
			return stats.Wins >= 1
		case "flawless":
			return round.Flawless()
		case "demolition":
			return stats.Bricks >= demolitionBricks
		case "veteran":
			return stats.Rounds >= veteranRounds
		case "speed_demon":
			return won && round.Duration < speedDemonSecs
		}
		return false
	}

	var unlocked []AchievementDef
	for _, def := range Achievements {
		if !check(def.ID) {
			continue
		}
		newlyUnlocked, err := db.UnlockAchievement(playerID, def.ID)
		if err != nil {
			log.Printf("unlock %s for %d: %v", def.ID, playerID, err)
			continue
		}
		if newlyUnlocked {
			unlocked = append(unlocked, def)
		}
	}
	return unlocked
}
