package memory

import (
	"time"

	"github.com/boardkeep/tabletop-league/internal/domain/group"
	"github.com/boardkeep/tabletop-league/internal/domain/match"
	"github.com/boardkeep/tabletop-league/internal/domain/user"
)

const (
	GroupIDThursdayNight = "grp-thursday-night"
	GroupIDWeekendCrew   = "grp-weekend-crew"
)

func SeedUsers() []user.User {
	created := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	return []user.User{
		{ID: "usr-ayu", Name: "Ayu Lestari", Email: "ayu@example.com", Active: true, CreatedAt: created, UpdatedAt: created},
		{ID: "usr-bima", Name: "Bima Pratama", Email: "bima@example.com", Active: true, CreatedAt: created, UpdatedAt: created},
		{ID: "usr-citra", Name: "Citra Wulandari", Email: "citra@example.com", Active: true, CreatedAt: created, UpdatedAt: created},
		{ID: "usr-dimas", Name: "Dimas Saputra", Email: "dimas@example.com", Active: true, CreatedAt: created, UpdatedAt: created},
		{ID: "usr-eka", Name: "Eka Nugraha", Email: "eka@example.com", Active: true, CreatedAt: created, UpdatedAt: created},
		{ID: "usr-fitri", Name: "Fitri Handayani", Email: "fitri@example.com", Active: false, CreatedAt: created, UpdatedAt: created},
	}
}

func SeedGroups() []group.Group {
	created := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	return []group.Group{
		{
			ID:          GroupIDThursdayNight,
			Name:        "Thursday Night Tabletop",
			AdminUserID: "usr-ayu",
			MemberIDs:   []string{"usr-ayu", "usr-bima", "usr-citra", "usr-dimas"},
			CreatedAt:   created,
			UpdatedAt:   created,
		},
		{
			ID:          GroupIDWeekendCrew,
			Name:        "Weekend Crew",
			AdminUserID: "usr-eka",
			MemberIDs:   []string{"usr-eka", "usr-bima", "usr-fitri"},
			CreatedAt:   created,
			UpdatedAt:   created,
		},
	}
}

func SeedMatches() []match.Match {
	created := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	return []match.Match{
		{
			ID:          "mtc-catan-opening",
			GameID:      "catan",
			GroupID:     GroupIDThursdayNight,
			ScheduledAt: time.Date(2026, 9, 3, 19, 0, 0, 0, time.UTC),
			Status:      match.StatusScheduled,
			Location:    "Ayu's place",
			Players: []match.PlayerSlot{
				{UserID: "usr-ayu", Confirmed: true},
				{UserID: "usr-bima"},
				{UserID: "usr-citra"},
			},
			CreatedBy: "usr-ayu",
			CreatedAt: created,
			UpdatedAt: created,
		},
		{
			ID:          "mtc-terraforming",
			GameID:      "terraforming-mars",
			GroupID:     GroupIDWeekendCrew,
			ScheduledAt: time.Date(2026, 9, 6, 13, 0, 0, 0, time.UTC),
			Status:      match.StatusScheduled,
			Location:    "Community hall",
			Players: []match.PlayerSlot{
				{UserID: "usr-eka", Confirmed: true},
				{UserID: "usr-bima"},
			},
			CreatedBy: "usr-eka",
			CreatedAt: created,
			UpdatedAt: created,
		},
	}
}
