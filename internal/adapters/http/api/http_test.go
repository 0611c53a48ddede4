package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/rbd-scoreboard/internal/adapters/http/api"
	"github.com/okian/rbd-scoreboard/internal/adapters/repository"
	service "github.com/okian/rbd-scoreboard/internal/app"
	"github.com/okian/rbd-scoreboard/internal/domain/leaderboard"
	"github.com/okian/rbd-scoreboard/internal/domain/model"
	"github.com/okian/rbd-scoreboard/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) Insert(context.Context, model.GameScore) error {
	return errors.New("unavailable")
}

func (brokenStore) List(context.Context) ([]model.GameScore, error) {
	return nil, errors.New("unavailable")
}

func (brokenStore) Backend() string { return "broken" }

func newMux(svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(svc, &mockStatsProvider{stats: map[string]interface{}{"started": true}}).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(service.New())

		Convey("Then the metrics endpoint is served", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And the stats endpoint merges provider stats", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, true)
			So(stats, ShouldContainKey, "goroutines")
		})

		Convey("And wrong methods are not found", func() {
			So(do(mux, http.MethodGet, "/api/scores", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/api/leaderboards", "{}").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/stats", "{}").Code, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given a nil mux", t, func() {
		So(func() {
			api.NewServer(service.New(), nil).Register(context.Background(), nil)
		}, ShouldPanic)
	})
}

func TestTargetEndpoint(t *testing.T) {
	Convey("Given the target endpoint", t, func() {
		mux := newMux(service.New())

		Convey("When hazards mix numbers and strings", func() {
			w := do(mux, http.MethodPost, "/api/target", `{"hazards": ["4", 6, "abc", null, "3.9"]}`)

			Convey("Then malformed values count as zero", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res model.TargetResult
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.Base, ShouldEqual, 56)
				So(res.HazardTotal, ShouldEqual, 13)
				So(res.Target, ShouldEqual, 69)
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/api/target", `{"hazards": [`)

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "bad_request")
			})
		})

		Convey("When the body is empty", func() {
			So(do(mux, http.MethodPost, "/api/target", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestSheetEndpoint(t *testing.T) {
	Convey("Given the sheet preview endpoint", t, func() {
		mux := newMux(service.New())

		Convey("When a partial sheet is posted", func() {
			body := `{"hazards": ["2"], "players": [{"level1": "10"}, {"level1": 8}, {"level2": "6"}, {"level3": "4"}], "goals": [true, true, false]}`
			w := do(mux, http.MethodPost, "/api/sheet", body)

			Convey("Then every derived value is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var v map[string]interface{}
				So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
				So(v["team_total"], ShouldEqual, float64(40))
				So(v["goals_total"], ShouldEqual, float64(12))
				So(v["margin"], ShouldEqual, "-18")
				So(v["pending"], ShouldEqual, false)
			})
		})

		Convey("When the display name carries control characters", func() {
			w := do(mux, http.MethodPost, "/api/sheet", `{"display_name": "bad\u0007name"}`)

			Convey("Then validation rejects it", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "display_text")
			})
		})

		Convey("When a level value is absurdly long", func() {
			w := do(mux, http.MethodPost, "/api/sheet", `{"players": [{"level1": "12345678901234567890"}]}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body exceeds the size limit", func() {
			w := do(mux, http.MethodPost, "/api/sheet", `{"display_name": "`+strings.Repeat("a", 70<<10)+`"}`)
			So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
		})
	})
}

func TestScoresEndpoint(t *testing.T) {
	const winning = `{"players": [{"role": "Mayor", "level1": 20, "level2": 20, "level3": 20}], "opt_in": true, "display_name": "Riverside"}`

	Convey("Given a service with a working local store", t, func() {
		local := repository.NewMemoryStore()
		mux := newMux(service.New(service.WithLocal(local)))

		Convey("When an opted-in score is submitted", func() {
			w := do(mux, http.MethodPost, "/api/scores", winning)

			Convey("Then it is stored and reported as such", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res service.SubmitResult
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.Status, ShouldEqual, service.StatusLocal)
				So(res.Stored, ShouldBeTrue)
				So(res.Message, ShouldEqual, service.SubmittedMessage)
				So(res.Score.TeamScore, ShouldEqual, 60)
				So(res.Outcome.IsWin, ShouldBeTrue)
				So(local.Len(), ShouldEqual, 1)
			})
		})

		Convey("When the team did not opt in", func() {
			w := do(mux, http.MethodPost, "/api/scores", `{"players": [{"level1": 5}]}`)

			Convey("Then nothing is stored", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"skipped"`)
				So(local.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a service whose stores all fail", t, func() {
		mux := newMux(service.New(service.WithRemote(brokenStore{}), service.WithLocal(brokenStore{})))

		w := do(mux, http.MethodPost, "/api/scores", winning)

		Convey("Then the user still gets a success response", func() {
			So(w.Code, ShouldEqual, http.StatusOK)
			var res service.SubmitResult
			So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
			So(res.Status, ShouldEqual, service.StatusFailed)
			So(res.Stored, ShouldBeFalse)
			So(res.Message, ShouldEqual, service.SubmittedMessage)
		})
	})
}

func TestLeaderboardEndpoints(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 4, 9, 15, 0, 0, 0, time.UTC)

	Convey("Given stored games for two teams", t, func() {
		local := repository.NewMemoryStore()
		for i, g := range []struct {
			name  string
			score int
		}{{"TeamA", 60}, {"TeamA", 58}, {"TeamA", 57}, {"TeamB", 70}, {"TeamB", 65}} {
			So(local.Insert(ctx, model.GameScore{
				DisplayName: model.StringPtr(g.name),
				TeamScore:   g.score,
				TargetScore: 56,
				IsWin:       true,
				CreatedAt:   day.Add(time.Duration(i) * time.Minute),
			}), ShouldBeNil)
		}
		mux := newMux(service.New(service.WithLocal(local)))

		Convey("When the JSON boards are requested", func() {
			w := do(mux, http.MethodGet, "/api/leaderboards", "")

			Convey("Then TeamA leads on wins and TeamB on score", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res struct {
					Wins   []leaderboard.WinsRow  `json:"wins"`
					Scores []leaderboard.ScoreRow `json:"scores"`
					Source string                 `json:"source"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.Source, ShouldEqual, "local")
				So(res.Wins[0].Name, ShouldEqual, "TeamA")
				So(res.Wins[0].Medal, ShouldEqual, "gold")
				So(res.Wins[1].Name, ShouldEqual, "TeamB")
				So(res.Scores[0].Name, ShouldEqual, "TeamB")
				So(res.Scores[0].TeamScore, ShouldEqual, 70)
			})

			Convey("And asking twice gives the same body", func() {
				again := do(mux, http.MethodGet, "/api/leaderboards", "")
				So(again.Body.String(), ShouldEqual, w.Body.String())
			})
		})

		Convey("When the HTML page is requested", func() {
			w := do(mux, http.MethodGet, "/leaderboard", "")

			Convey("Then both tables are rendered with medals and dates", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				body := w.Body.String()
				So(body, ShouldContainSubstring, `<tr class="gold">`)
				So(body, ShouldContainSubstring, "TeamA")
				So(body, ShouldContainSubstring, "Apr 9, 2026")
				So(body, ShouldContainSubstring, "100%")
				So(body, ShouldNotContainSubstring, "No games recorded yet")
			})
		})
	})

	Convey("Given no stored games", t, func() {
		mux := newMux(service.New())

		Convey("Then the page shows the empty messages", func() {
			body := do(mux, http.MethodGet, "/leaderboard", "").Body.String()
			So(body, ShouldContainSubstring, "No games recorded yet")
			So(body, ShouldContainSubstring, "No scores recorded yet")
		})

		Convey("And the JSON boards are empty arrays", func() {
			body := do(mux, http.MethodGet, "/api/leaderboards", "").Body.String()
			So(body, ShouldContainSubstring, `"wins":[]`)
			So(body, ShouldContainSubstring, `"scores":[]`)
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given a wrapped cause", t, func() {
		cause := errors.New("unexpected EOF")
		err := api.WrapKind("api.post_scores", api.ErrBadRequest, cause)

		Convey("Then both the kind and the cause are reachable", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.post_scores: bad request: unexpected EOF")
		})
	})

	Convey("Given a bare kind", t, func() {
		err := api.NewKind("api.get_board", api.ErrRender)
		So(errors.Is(err, api.ErrRender), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "api.get_board: render failed")
	})

	Convey("Given nil causes", t, func() {
		So(api.Wrap("op", nil), ShouldBeNil)
		So(api.WrapKind("op", api.ErrBadRequest, nil), ShouldBeNil)
	})
}
