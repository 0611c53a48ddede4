package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/rbd-scoreboard/internal/adapters/repository"
	service "github.com/okian/rbd-scoreboard/internal/app"
	"github.com/okian/rbd-scoreboard/internal/domain/model"
	"github.com/okian/rbd-scoreboard/internal/domain/scoring"
	"github.com/okian/rbd-scoreboard/internal/domain/sheet"
	"github.com/okian/rbd-scoreboard/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var fixedNow = time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)

// stubStore is a Store whose calls can be made to fail.
type stubStore struct {
	mu        sync.Mutex
	name      string
	insertErr error
	listErr   error
	inserted  []model.GameScore
	listed    []model.GameScore
	deadline  bool
	closed    bool
}

func (s *stubStore) Insert(ctx context.Context, score model.GameScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, s.deadline = ctx.Deadline()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, score)
	return nil
}

func (s *stubStore) List(context.Context) ([]model.GameScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.listed, nil
}

func (s *stubStore) Backend() string { return s.name }

func (s *stubStore) Close() error {
	s.closed = true
	return nil
}

// winningForm scores 60 against the base target of 56.
func winningForm(optIn bool, name string) sheet.Form {
	f := sheet.NumberForm(nil, [][3]int{{10, 5, 5}, {10, 5, 5}, {10, 5, 5}}, []string{"Mayor", "", "Planner"}, nil)
	f.OptIn = optIn
	f.DisplayName = name
	return f
}

func named(name string, teamScore int, win bool) model.GameScore {
	return model.GameScore{DisplayName: model.StringPtr(name), TeamScore: teamScore, TargetScore: 56, IsWin: win}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["remoteBackend"], ShouldEqual, "none")
			So(stats["localBackend"], ShouldEqual, repository.BackendMemory)
			So(stats["baseTarget"], ShouldEqual, 56)
			So(stats["leaderboardSize"], ShouldEqual, 10)
			So(stats["remoteTimeoutMs"], ShouldEqual, int64(5000))
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithRules(scoring.NewRules(scoring.WithBaseTarget(40))),
			service.WithRows(6),
			service.WithLeaderboardSize(5),
			service.WithRemoteTimeout(time.Second),
		)

		Convey("Then the options are applied", func() {
			stats := svc.GetStats()
			So(stats["baseTarget"], ShouldEqual, 40)
			So(stats["playerRows"], ShouldEqual, 6)
			So(stats["leaderboardSize"], ShouldEqual, 5)
			So(len(svc.NewSheet().View().Players), ShouldEqual, 6)
			So(svc.Target(model.HazardSelection{"2"}).Target, ShouldEqual, 42)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a service with a closable store", t, func() {
		local := &stubStore{name: "stub"}
		svc := service.New(service.WithLocal(local))

		Convey("When it is started and stopped", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			svc.Stop()

			Convey("Then the store is closed and the service marked stopped", func() {
				So(local.closed, ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_Save(t *testing.T) {
	ctx := context.Background()
	score := named("Riverside", 60, true)

	Convey("Given a working remote store", t, func() {
		remote := &stubStore{name: "remote"}
		local := &stubStore{name: "local"}
		svc := service.New(service.WithRemote(remote), service.WithLocal(local))

		status, err := svc.Save(ctx, score)

		Convey("Then the record goes remote only, under a deadline", func() {
			So(err, ShouldBeNil)
			So(status, ShouldEqual, service.StatusRemote)
			So(len(remote.inserted), ShouldEqual, 1)
			So(remote.deadline, ShouldBeTrue)
			So(local.inserted, ShouldBeEmpty)
		})
	})

	Convey("Given a failing remote store", t, func() {
		remote := &stubStore{name: "remote", insertErr: errors.New("network down")}
		local := &stubStore{name: "local"}
		svc := service.New(service.WithRemote(remote), service.WithLocal(local))

		status, err := svc.Save(ctx, score)

		Convey("Then the record falls back to the local store", func() {
			So(err, ShouldBeNil)
			So(status, ShouldEqual, service.StatusLocal)
			So(local.inserted, ShouldResemble, []model.GameScore{score})
		})
	})

	Convey("Given a request cancelled while the remote insert fails", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		remote := &stubStore{name: "remote", insertErr: context.Canceled}
		local := repository.NewMemoryStore()
		svc := service.New(service.WithRemote(remote), service.WithLocal(local))

		status, err := svc.Save(cctx, score)

		Convey("Then the record still lands in the local store", func() {
			So(err, ShouldBeNil)
			So(status, ShouldEqual, service.StatusLocal)
			So(local.Len(), ShouldEqual, 1)
		})
	})

	Convey("Given no remote store", t, func() {
		local := &stubStore{name: "local"}
		svc := service.New(service.WithLocal(local))

		status, err := svc.Save(ctx, score)

		So(err, ShouldBeNil)
		So(status, ShouldEqual, service.StatusLocal)
		So(len(local.inserted), ShouldEqual, 1)
	})

	Convey("Given both stores failing", t, func() {
		localErr := errors.New("disk full")
		remote := &stubStore{name: "remote", insertErr: errors.New("network down")}
		local := &stubStore{name: "local", insertErr: localErr}
		svc := service.New(service.WithRemote(remote), service.WithLocal(local))

		status, err := svc.Save(ctx, score)

		Convey("Then the failure is reported to the caller", func() {
			So(status, ShouldEqual, service.StatusFailed)
			So(errors.Is(err, localErr), ShouldBeTrue)
		})
	})
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a local store", t, func() {
		local := &stubStore{name: "local"}
		svc := service.New(service.WithLocal(local), service.WithClock(func() time.Time { return fixedNow }))

		Convey("When a team submits without opting in", func() {
			res := svc.Submit(ctx, winningForm(false, "Hidden"))

			Convey("Then nothing is stored but the user still sees success", func() {
				So(res.Status, ShouldEqual, service.StatusSkipped)
				So(res.Stored, ShouldBeFalse)
				So(res.Message, ShouldEqual, service.SubmittedMessage)
				So(res.Score.DisplayName, ShouldBeNil)
				So(local.inserted, ShouldBeEmpty)
			})
		})

		Convey("When a team opts in with a blank name", func() {
			res := svc.Submit(ctx, winningForm(true, "   "))

			Convey("Then the record is stored as Anonymous Team", func() {
				So(res.Status, ShouldEqual, service.StatusLocal)
				So(res.Stored, ShouldBeTrue)
				So(res.Score.Name(), ShouldEqual, sheet.AnonymousTeam)
				So(len(local.inserted), ShouldEqual, 1)
			})
		})

		Convey("When a team opts in with a name", func() {
			res := svc.Submit(ctx, winningForm(true, "Harbour"))

			Convey("Then the stored record carries the evaluated totals", func() {
				stored := local.inserted[0]
				So(stored.Name(), ShouldEqual, "Harbour")
				So(stored.TeamScore, ShouldEqual, 60)
				So(stored.TargetScore, ShouldEqual, 56)
				So(stored.IsWin, ShouldBeTrue)
				So(stored.RolesPlayed, ShouldResemble, []string{"Mayor", "Planner"})
				So(stored.CreatedAt, ShouldEqual, fixedNow)
				So(res.Outcome.Margin, ShouldEqual, 4)
			})
		})

		Convey("When the local store fails too", func() {
			local.insertErr = errors.New("read-only")
			res := svc.Submit(ctx, winningForm(true, "Harbour"))

			Convey("Then the user sees success while the status says failed", func() {
				So(res.Status, ShouldEqual, service.StatusFailed)
				So(res.Stored, ShouldBeFalse)
				So(res.Message, ShouldEqual, service.SubmittedMessage)
			})

			Convey("And the failure is counted", func() {
				subs := svc.GetStats()["submissions"].(map[string]int64)
				So(subs["failed"], ShouldEqual, 1)
			})
		})
	})
}

func TestService_Preview(t *testing.T) {
	Convey("Given a service configured for six rows", t, func() {
		svc := service.New(service.WithRows(6))

		Convey("When an empty form is previewed", func() {
			v := svc.Preview(sheet.Form{})

			Convey("Then the configured layout is used", func() {
				So(len(v.Players), ShouldEqual, 6)
				So(v.Pending, ShouldBeTrue)
			})
		})

		Convey("When a form with rows is previewed", func() {
			v := svc.Preview(winningForm(false, ""))

			Convey("Then the form's rows win", func() {
				So(len(v.Players), ShouldEqual, 3)
				So(v.TeamTotal, ShouldEqual, 60)
				So(v.Margin, ShouldEqual, "+4")
			})
		})
	})
}

func TestService_Leaderboards(t *testing.T) {
	ctx := context.Background()

	Convey("Given a remote store with named records", t, func() {
		remote := &stubStore{name: "remote", listed: []model.GameScore{
			named("TeamA", 60, true), named("TeamB", 58, true), named("TeamA", 57, true),
		}}
		local := &stubStore{name: "local", listed: []model.GameScore{named("LocalOnly", 99, true)}}
		svc := service.New(service.WithRemote(remote), service.WithLocal(local))

		boards := svc.Leaderboards(ctx)

		Convey("Then the boards come from the remote store", func() {
			So(boards.Source, ShouldEqual, service.SourceRemote)
			So(boards.Wins[0].Name, ShouldEqual, "TeamA")
			So(boards.Wins[0].Wins, ShouldEqual, 2)
			So(boards.Scores[0].TeamScore, ShouldEqual, 60)
		})
	})

	Convey("Given a remote store that returns nothing", t, func() {
		remote := &stubStore{name: "remote"}
		local := &stubStore{name: "local", listed: []model.GameScore{
			{TeamScore: 80, IsWin: true},
			named("LocalTeam", 50, false),
		}}
		svc := service.New(service.WithRemote(remote), service.WithLocal(local))

		boards := svc.Leaderboards(ctx)

		Convey("Then local named records are used", func() {
			So(boards.Source, ShouldEqual, service.SourceLocal)
			So(len(boards.Scores), ShouldEqual, 1)
			So(boards.Scores[0].Name, ShouldEqual, "LocalTeam")
		})
	})

	Convey("Given a failing remote store", t, func() {
		remote := &stubStore{name: "remote", listErr: errors.New("timeout")}
		local := &stubStore{name: "local", listed: []model.GameScore{named("Fallback", 70, true)}}
		svc := service.New(service.WithRemote(remote), service.WithLocal(local))

		So(svc.Leaderboards(ctx).Source, ShouldEqual, service.SourceLocal)
	})

	Convey("Given both stores failing", t, func() {
		remote := &stubStore{name: "remote", listErr: errors.New("timeout")}
		local := &stubStore{name: "local", listErr: errors.New("corrupt")}
		svc := service.New(service.WithRemote(remote), service.WithLocal(local))

		boards := svc.Leaderboards(ctx)

		Convey("Then empty boards are returned", func() {
			So(boards.Source, ShouldEqual, service.SourceNone)
			So(boards.Wins, ShouldBeEmpty)
			So(boards.Scores, ShouldBeEmpty)
		})
	})

	Convey("Given a small board size", t, func() {
		var listed []model.GameScore
		for _, n := range []string{"a", "b", "c", "d"} {
			listed = append(listed, named(n, 50, true))
		}
		svc := service.New(service.WithLocal(&stubStore{name: "local", listed: listed}), service.WithLeaderboardSize(2))

		So(len(svc.Leaderboards(ctx).Wins), ShouldEqual, 2)
	})
}
