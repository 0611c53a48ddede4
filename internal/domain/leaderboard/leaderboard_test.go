package leaderboard_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/okian/rbd-scoreboard/internal/domain/leaderboard"
	"github.com/okian/rbd-scoreboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func game(name string, teamScore int, win bool, minute int) model.GameScore {
	return model.GameScore{
		DisplayName: model.StringPtr(name),
		TeamScore:   teamScore,
		TargetScore: 56,
		IsWin:       win,
		CreatedAt:   epoch.Add(time.Duration(minute) * time.Minute),
	}
}

func TestWins(t *testing.T) {
	Convey("Given TeamA with 3 wins in 3 games and TeamB with 2 wins in 2 games", t, func() {
		scores := []model.GameScore{
			game("TeamB", 60, true, 1),
			game("TeamA", 58, true, 2),
			game("TeamB", 61, true, 3),
			game("TeamA", 57, true, 4),
			game("TeamA", 59, true, 5),
		}

		rows := leaderboard.Wins(scores, 10)

		Convey("Then TeamA ranks first on wins even though both have a 100% rate", func() {
			So(len(rows), ShouldEqual, 2)
			So(rows[0].Name, ShouldEqual, "TeamA")
			So(rows[0].Wins, ShouldEqual, 3)
			So(rows[0].WinRate, ShouldEqual, 100)
			So(rows[0].Rank, ShouldEqual, 1)
			So(rows[0].Medal, ShouldEqual, leaderboard.MedalGold)
			So(rows[1].Name, ShouldEqual, "TeamB")
			So(rows[1].Medal, ShouldEqual, leaderboard.MedalSilver)
		})
	})

	Convey("Given teams tied on wins", t, func() {
		scores := []model.GameScore{
			game("Steady", 60, true, 1),
			game("Steady", 40, false, 2),
			game("Steady", 41, false, 3),
			game("Sharp", 62, true, 4),
		}

		rows := leaderboard.Wins(scores, 10)

		Convey("Then the higher win rate ranks first", func() {
			So(rows[0].Name, ShouldEqual, "Sharp")
			So(rows[0].WinRate, ShouldEqual, 100)
			So(rows[1].Name, ShouldEqual, "Steady")
			So(rows[1].WinRate, ShouldEqual, 33)
			So(rows[1].Games, ShouldEqual, 3)
		})
	})

	Convey("Given teams tied on wins and rate", t, func() {
		scores := []model.GameScore{
			game("First", 60, true, 1),
			game("Second", 60, true, 2),
		}

		Convey("Then first appearance decides", func() {
			rows := leaderboard.Wins(scores, 10)
			So(rows[0].Name, ShouldEqual, "First")
			So(rows[1].Name, ShouldEqual, "Second")
		})
	})

	Convey("Given a win rate that lands on a half", t, func() {
		scores := []model.GameScore{
			game("Half", 60, true, 1),
			game("Half", 40, false, 2),
			game("Eighth", 60, true, 3),
		}
		for i := 0; i < 7; i++ {
			scores = append(scores, game("Eighth", 40, false, 4+i))
		}

		rows := leaderboard.Wins(scores, 10)

		Convey("Then it rounds half up", func() {
			So(rows[0].WinRate, ShouldEqual, 50)
			So(rows[1].WinRate, ShouldEqual, 13) // 12.5
		})
	})

	Convey("Given anonymous and blank-named records", t, func() {
		scores := []model.GameScore{
			{TeamScore: 90, IsWin: true},
			{DisplayName: new(string), TeamScore: 80, IsWin: true},
			game("Named", 50, false, 1),
		}

		Convey("Then only named teams appear", func() {
			rows := leaderboard.Wins(scores, 10)
			So(len(rows), ShouldEqual, 1)
			So(rows[0].Name, ShouldEqual, "Named")
			So(rows[0].Wins, ShouldEqual, 0)
			So(rows[0].WinRate, ShouldEqual, 0)
		})
	})

	Convey("Given more teams than the limit", t, func() {
		var scores []model.GameScore
		for i := 0; i < 15; i++ {
			for w := 0; w <= i; w++ {
				scores = append(scores, game(fmt.Sprintf("team-%02d", i), 60, true, i*20+w))
			}
		}

		rows := leaderboard.Wins(scores, 0)

		Convey("Then the default limit keeps the top ten", func() {
			So(len(rows), ShouldEqual, leaderboard.DefaultLimit)
			So(rows[0].Name, ShouldEqual, "team-14")
			So(rows[9].Name, ShouldEqual, "team-05")
			So(rows[3].Medal, ShouldEqual, "")
		})
	})

	Convey("Given no scores", t, func() {
		So(leaderboard.Wins(nil, 10), ShouldBeEmpty)
	})
}

func TestScores(t *testing.T) {
	Convey("Given named and anonymous records", t, func() {
		scores := []model.GameScore{
			game("Low", 30, false, 1),
			{TeamScore: 99, IsWin: true},
			game("High", 70, true, 2),
			game("Mid", 55, false, 3),
			game("AlsoMid", 55, false, 4),
		}

		rows := leaderboard.Scores(scores, 10)

		Convey("Then anonymous records are dropped and the rest sorted by score", func() {
			So(len(rows), ShouldEqual, 4)
			So(rows[0].Name, ShouldEqual, "High")
			So(rows[0].TeamScore, ShouldEqual, 70)
			So(rows[0].Medal, ShouldEqual, leaderboard.MedalGold)
			So(rows[1].Name, ShouldEqual, "Mid")
			So(rows[2].Name, ShouldEqual, "AlsoMid")
			So(rows[2].Medal, ShouldEqual, leaderboard.MedalBronze)
			So(rows[3].Name, ShouldEqual, "Low")
			So(rows[3].Rank, ShouldEqual, 4)
		})

		Convey("And the input slice keeps its order", func() {
			So(scores[0].Name(), ShouldEqual, "Low")
		})
	})

	Convey("Given a team with several games", t, func() {
		scores := []model.GameScore{
			game("Repeat", 50, false, 1),
			game("Repeat", 65, true, 2),
		}

		Convey("Then every game is its own row", func() {
			rows := leaderboard.Scores(scores, 10)
			So(len(rows), ShouldEqual, 2)
			So(rows[0].TeamScore, ShouldEqual, 65)
		})
	})

	Convey("Given a limit smaller than the collection", t, func() {
		var scores []model.GameScore
		for i := 0; i < 20; i++ {
			scores = append(scores, game(fmt.Sprintf("t%d", i), i, false, i))
		}
		rows := leaderboard.Scores(scores, 3)

		So(len(rows), ShouldEqual, 3)
		So(rows[0].TeamScore, ShouldEqual, 19)
	})
}

func TestBuildIsIdempotent(t *testing.T) {
	Convey("Given an unchanged score collection", t, func() {
		scores := []model.GameScore{
			game("Alpha", 60, true, 1),
			game("Bravo", 60, true, 2),
			game("Alpha", 50, false, 3),
			game("Charlie", 70, true, 4),
			game("Bravo", 58, true, 5),
		}

		first := leaderboard.Build(scores, 10)
		second := leaderboard.Build(scores, 10)

		Convey("Then building twice gives identical boards", func() {
			So(second, ShouldResemble, first)
		})
	})
}

func TestMedal(t *testing.T) {
	Convey("Given ranks", t, func() {
		So(leaderboard.Medal(1), ShouldEqual, "gold")
		So(leaderboard.Medal(2), ShouldEqual, "silver")
		So(leaderboard.Medal(3), ShouldEqual, "bronze")
		So(leaderboard.Medal(4), ShouldEqual, "")
		So(leaderboard.Medal(0), ShouldEqual, "")
	})
}
